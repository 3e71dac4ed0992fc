package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/hrsync_server/internal/model"
	"github.com/qs3c/hrsync_server/internal/testutil"
)

func TestReceiptRepository_Upsert(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewReceiptRepository(db)
	user := testutil.TestUser(t, db)

	first := &model.Receipt{
		UserID: user.ID, PlanName: "Starter", Amount: 568860, Currency: "INR",
		Years: 1, Employees: "1-10", SubscriptionID: "sub_1", PaidAt: time.Now(),
	}
	require.NoError(t, repo.Upsert(first))

	second := &model.Receipt{
		UserID: user.ID, PlanName: "Pro", Amount: 2096496, Currency: "INR",
		Years: 1, Employees: "50-100", SubscriptionID: "sub_2", PaidAt: time.Now(),
	}
	require.NoError(t, repo.Upsert(second))

	var count int64
	db.Model(&model.Receipt{}).Where("user_id = ?", user.ID).Count(&count)
	assert.Equal(t, int64(1), count)

	found, err := repo.GetByUserID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pro", found.PlanName)
	assert.Equal(t, int64(2096496), found.Amount)
	assert.Equal(t, "sub_2", found.SubscriptionID)
}

func TestReceiptRepository_GetByUserID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	_, err := NewReceiptRepository(db).GetByUserID(123)
	assert.Error(t, err)
}
