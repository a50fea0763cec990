package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/prepbuddy/prepbuddy-api/internal/models"
	"github.com/stretchr/testify/require"
)

func TestNotificationHandler_MarkAllRead(t *testing.T) {
	env := setupHandlerTestEnv(t)
	user, token := env.signup(t, "Alice", "alice@example.com")
	other, _ := env.signup(t, "Bob", "bob@example.com")

	// Signup already left a welcome notification; add two more unread.
	for i := 0; i < 2; i++ {
		require.NoError(t, env.db.Create(&models.Notification{
			UserID: user.ID,
			Key:    "credit-grant",
			Value:  "You received credits.",
		}).Error)
	}

	w := env.doJSON(t, http.MethodPatch, "/api/v1/notifications/read-all", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var unread int64
	err := env.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", user.ID, false).
		Count(&unread).Error
	require.NoError(t, err)
	require.Zero(t, unread)

	// The other user's feed is untouched.
	var otherUnread int64
	err = env.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", other.ID, false).
		Count(&otherUnread).Error
	require.NoError(t, err)
	require.Equal(t, int64(1), otherUnread)
}

func TestNotificationHandler_MarkRead_OwnershipScoped(t *testing.T) {
	env := setupHandlerTestEnv(t)
	user, _ := env.signup(t, "Alice", "alice@example.com")
	_, otherToken := env.signup(t, "Bob", "bob@example.com")

	var note models.Notification
	err := env.db.Where("user_id = ?", user.ID).First(&note).Error
	require.NoError(t, err)

	// Another user cannot mark it read.
	w := env.doJSON(t, http.MethodPatch, fmt.Sprintf("/api/v1/notifications/%d/read", note.ID), otherToken, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}
