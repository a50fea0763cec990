package handlers

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAdminHandler_RequiresAdminRole(t *testing.T) {
	env := setupHandlerTestEnv(t)
	user, token := env.signup(t, "Alice", "alice@example.com")

	w := env.doJSON(t, http.MethodPost, fmt.Sprintf("/api/v1/admin/users/%d/credits", user.ID), token, map[string]interface{}{
		"amount":      100,
		"type":        "assigned-by-admin",
		"expiry_date": time.Now().AddDate(0, 1, 0).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminHandler_AddCreditAndReconcile(t *testing.T) {
	env := setupHandlerTestEnv(t)
	admin, adminToken := env.signup(t, "Admin", "admin@example.com")
	env.promoteToAdmin(t, admin.ID)
	user, userToken := env.signup(t, "Alice", "alice@example.com")

	expiry := time.Now().AddDate(0, 1, 0).Format(time.RFC3339)
	creditsPath := fmt.Sprintf("/api/v1/admin/users/%d/credits", user.ID)

	w := env.doJSON(t, http.MethodPost, creditsPath, adminToken, map[string]interface{}{
		"amount":      100,
		"type":        "assigned-by-admin",
		"description": "signup bonus",
		"expiry_date": expiry,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.doJSON(t, http.MethodPost, creditsPath, adminToken, map[string]interface{}{
		"amount":      30,
		"type":        "used",
		"expiry_date": expiry,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	// The user sees the net balance.
	w = env.doJSON(t, http.MethodGet, "/api/v1/me/credits/balance", userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, float64(70), decodeJSON(t, w)["balance"])

	// Reconciliation reports zero drift.
	w = env.doJSON(t, http.MethodGet, creditsPath+"/reconcile", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	report := decodeJSON(t, w)
	require.Equal(t, float64(70), report["cached_balance"])
	require.Equal(t, float64(70), report["ledger_sum"])
	require.Equal(t, float64(0), report["drift"])
}

func TestAdminHandler_AddCredit_InvalidType(t *testing.T) {
	env := setupHandlerTestEnv(t)
	admin, adminToken := env.signup(t, "Admin", "admin@example.com")
	env.promoteToAdmin(t, admin.ID)
	user, _ := env.signup(t, "Alice", "alice@example.com")

	w := env.doJSON(t, http.MethodPost, fmt.Sprintf("/api/v1/admin/users/%d/credits", user.ID), adminToken, map[string]interface{}{
		"amount":      100,
		"type":        "bonus",
		"expiry_date": time.Now().AddDate(0, 1, 0).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminHandler_UpdateAccessLevel(t *testing.T) {
	env := setupHandlerTestEnv(t)
	admin, adminToken := env.signup(t, "Admin", "admin@example.com")
	env.promoteToAdmin(t, admin.ID)
	user, _ := env.signup(t, "Alice", "alice@example.com")

	w := env.doJSON(t, http.MethodPut, fmt.Sprintf("/api/v1/admin/users/%d/access-level", user.ID), adminToken, map[string]interface{}{
		"plan":                 "pro",
		"can_create_workspace": true,
		"max_workspaces":       5,
	})
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeJSON(t, w)
	require.Equal(t, "pro", body["plan"])
	require.Equal(t, true, body["can_create_workspace"])
	require.Equal(t, float64(5), body["max_workspaces"])
}

func TestAdminHandler_ListUserWorkspaces(t *testing.T) {
	env := setupHandlerTestEnv(t)
	admin, adminToken := env.signup(t, "Admin", "admin@example.com")
	env.promoteToAdmin(t, admin.ID)
	user, _ := env.signup(t, "Alice", "alice@example.com")

	w := env.doJSON(t, http.MethodGet, fmt.Sprintf("/api/v1/admin/users/%d/workspaces", user.ID), adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeJSON(t, w)
	workspaces, ok := body["workspaces"].([]interface{})
	require.True(t, ok)
	require.Len(t, workspaces, 1)

	// An unknown user is a 404, not an empty list.
	w = env.doJSON(t, http.MethodGet, "/api/v1/admin/users/9999/workspaces", adminToken, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminHandler_UpdateUser_UnknownRoleAndStatus(t *testing.T) {
	env := setupHandlerTestEnv(t)
	admin, adminToken := env.signup(t, "Admin", "admin@example.com")
	env.promoteToAdmin(t, admin.ID)
	user, _ := env.signup(t, "Alice", "alice@example.com")

	w := env.doJSON(t, http.MethodPut, fmt.Sprintf("/api/v1/admin/users/%d", user.ID), adminToken, map[string]interface{}{
		"role": "superuser",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = env.doJSON(t, http.MethodPut, fmt.Sprintf("/api/v1/admin/users/%d", user.ID), adminToken, map[string]interface{}{
		"status": "banana",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminHandler_UpdateAccessLevel_UnknownPlan(t *testing.T) {
	env := setupHandlerTestEnv(t)
	admin, adminToken := env.signup(t, "Admin", "admin@example.com")
	env.promoteToAdmin(t, admin.ID)
	user, _ := env.signup(t, "Alice", "alice@example.com")

	w := env.doJSON(t, http.MethodPut, fmt.Sprintf("/api/v1/admin/users/%d/access-level", user.ID), adminToken, map[string]interface{}{
		"plan": "platinum",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}
