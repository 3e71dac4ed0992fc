package handler

import (
	"context"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/hrsync_server/internal/model/dto"
	"github.com/qs3c/hrsync_server/internal/pkg/response"
	"github.com/qs3c/hrsync_server/internal/pkg/session"
	"github.com/qs3c/hrsync_server/internal/repository"
	"github.com/qs3c/hrsync_server/internal/service"
	"github.com/qs3c/hrsync_server/internal/testutil"
)

func TestUserHandler_GetProfile(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	user := testutil.TestUser(t, db)
	testutil.TestReceipt(t, db, user.ID)

	sessions := session.NewService(session.NewMemoryStore(), time.Hour)
	handler := NewUserHandler(service.NewProfileService(sessions,
		repository.NewReceiptRepository(db),
		repository.NewAttemptRepository(db),
		repository.NewSubscriptionRepository(db)))

	router := gin.New()
	router.Use(asUser(user.ID))
	router.GET("/profile", handler.GetProfile)

	// 没有会话
	resp := parseResponse(t, performRequest(router, "GET", "/profile", nil))
	assert.Equal(t, response.CodeLoginRequired, resp.Code)

	require.NoError(t, sessions.Save(context.Background(), user.ID, "token", session.User{ID: user.ID, Name: user.Name, Email: user.Email}))

	resp = parseResponse(t, performRequest(router, "GET", "/profile", nil))
	require.Equal(t, response.CodeSuccess, resp.Code)

	var profile dto.ProfileResponse
	decodeData(t, resp, &profile)
	assert.Equal(t, user.Email, profile.User.Email)
	require.NotNil(t, profile.Subscription)
	assert.Equal(t, "20-50", profile.Subscription.Employees)
}
