package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/hrsync_server/internal/model"
	"github.com/qs3c/hrsync_server/internal/testutil"
)

func TestAttemptRepository_LastFailure(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewAttemptRepository(db)

	rows := []*model.PaymentAttempt{
		{AttemptID: "a1", UserID: 1, PlanName: "Growth", Years: 1, AttemptedAmount: "11268.72", Outcome: model.AttemptOrderFailed, Message: "Plan not available"},
		{AttemptID: "a2", UserID: 1, PlanName: "Pro", Years: 2, AttemptedAmount: "40105.68", Outcome: model.AttemptVerifyFailed, Message: "Invalid signature"},
		{AttemptID: "a3", UserID: 1, PlanName: "Pro", Years: 2, AttemptedAmount: "40105.68", Outcome: model.AttemptCancelled},
		{AttemptID: "b1", UserID: 2, PlanName: "Starter", Years: 1, AttemptedAmount: "5688.60", Outcome: model.AttemptVerified},
	}
	for _, r := range rows {
		require.NoError(t, repo.Create(r))
	}

	last, err := repo.LastFailure(1)
	require.NoError(t, err)
	assert.Equal(t, "a2", last.AttemptID)
	assert.Equal(t, "40105.68", last.AttemptedAmount)
	assert.Equal(t, "Invalid signature", last.Message)

	_, err = repo.LastFailure(2)
	assert.Error(t, err)

	list, err := repo.ListByUser(1, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a3", list[0].AttemptID)
}
