package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAuthHandler_Signup(t *testing.T) {
	env := setupHandlerTestEnv(t)

	w := env.doJSON(t, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"name":     "Alice",
		"email":    "alice@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	body := decodeJSON(t, w)
	require.NotEmpty(t, body["access_token"])
	require.NotEmpty(t, body["refresh_token"])

	user, ok := body["user"].(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "alice@example.com", user["email"])

	// Credential fields never leave the service.
	_, leaked := user["password_hash"]
	require.False(t, leaked)
}

func TestAuthHandler_Signup_DuplicateEmail(t *testing.T) {
	env := setupHandlerTestEnv(t)
	env.signup(t, "Alice", "alice@example.com")

	w := env.doJSON(t, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"name":     "Other",
		"email":    "alice@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestAuthHandler_Login(t *testing.T) {
	env := setupHandlerTestEnv(t)
	env.signup(t, "Alice", "alice@example.com")

	w := env.doJSON(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeJSON(t, w)
	require.NotEmpty(t, body["access_token"])

	// Session cookies ride along with the JSON payload.
	cookies := w.Result().Cookies()
	names := make(map[string]bool, len(cookies))
	for _, c := range cookies {
		names[c.Name] = true
	}
	require.True(t, names["accessToken"])
	require.True(t, names["refreshToken"])
}

func TestAuthHandler_Login_BadCredentials(t *testing.T) {
	env := setupHandlerTestEnv(t)
	env.signup(t, "Alice", "alice@example.com")

	// Wrong password and unknown email produce the same response.
	w := env.doJSON(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	wrongPassword := w.Body.String()

	w = env.doJSON(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "nobody@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.JSONEq(t, wrongPassword, w.Body.String())
}

func TestAuthHandler_Me(t *testing.T) {
	env := setupHandlerTestEnv(t)
	_, token := env.signup(t, "Alice", "alice@example.com")

	w := env.doJSON(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeJSON(t, w)
	require.Equal(t, "alice@example.com", body["email"])

	w = env.doJSON(t, http.MethodGet, "/api/v1/auth/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.doJSON(t, http.MethodGet, "/api/v1/auth/me", "garbage-token", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_RefreshRotation(t *testing.T) {
	env := setupHandlerTestEnv(t)

	w := env.doJSON(t, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"name":     "Alice",
		"email":    "alice@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	first := decodeJSON(t, w)["refresh_token"].(string)

	w = env.doJSON(t, http.MethodPost, "/api/v1/auth/refresh-token", "", map[string]string{
		"refresh_token": first,
	})
	require.Equal(t, http.StatusOK, w.Code)
	second := decodeJSON(t, w)["refresh_token"].(string)
	require.NotEqual(t, first, second)

	// Replaying the superseded token fails.
	w = env.doJSON(t, http.MethodPost, "/api/v1/auth/refresh-token", "", map[string]string{
		"refresh_token": first,
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_InactiveAccount(t *testing.T) {
	env := setupHandlerTestEnv(t)
	user, token := env.signup(t, "Alice", "alice@example.com")

	err := env.db.Exec("UPDATE users SET status = 'suspended' WHERE id = ?", user.ID).Error
	require.NoError(t, err)

	w := env.doJSON(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	body := decodeJSON(t, w)
	require.Equal(t, "ACCOUNT_INACTIVE", body["code"])
}

func TestAuthHandler_UpdateMe(t *testing.T) {
	env := setupHandlerTestEnv(t)
	_, token := env.signup(t, "Alice", "alice@example.com")

	w := env.doJSON(t, http.MethodPatch, "/api/v1/auth/me", token, map[string]interface{}{
		"name":  "Alice Cooper",
		"phone": "555-0101",
	})
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeJSON(t, w)
	require.Equal(t, "Alice Cooper", body["name"])
	require.Equal(t, "555-0101", body["phone"])
	require.NotContains(t, body, "password_hash")

	w = env.doJSON(t, http.MethodPatch, "/api/v1/auth/me", "", map[string]interface{}{
		"name": "Nobody",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_ChangePassword(t *testing.T) {
	env := setupHandlerTestEnv(t)
	_, token := env.signup(t, "Alice", "alice@example.com")

	w := env.doJSON(t, http.MethodPost, "/api/v1/auth/change-password", token, map[string]interface{}{
		"current_password": "wrong",
		"new_password":     "newpassword123",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = env.doJSON(t, http.MethodPost, "/api/v1/auth/change-password", token, map[string]interface{}{
		"current_password": "password123",
		"new_password":     "newpassword123",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.doJSON(t, http.MethodPost, "/api/v1/auth/login", "", map[string]interface{}{
		"email":    "alice@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.doJSON(t, http.MethodPost, "/api/v1/auth/login", "", map[string]interface{}{
		"email":    "alice@example.com",
		"password": "newpassword123",
	})
	require.Equal(t, http.StatusOK, w.Code)
}
