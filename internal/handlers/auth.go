package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prepbuddy/prepbuddy-api/internal/constants"
	"github.com/prepbuddy/prepbuddy-api/internal/dto"
	apierrors "github.com/prepbuddy/prepbuddy-api/internal/errors"
	"github.com/prepbuddy/prepbuddy-api/internal/middleware"
	"github.com/prepbuddy/prepbuddy-api/internal/services"
)

// AuthHandler coordinates authentication-related HTTP handlers.
type AuthHandler struct {
	authService *services.AuthService
	tokens      services.TokenConfig
	secure      bool
}

// NewAuthHandler creates a new AuthHandler. secure controls the Secure
// flag on the session cookies.
func NewAuthHandler(authService *services.AuthService, tokens services.TokenConfig, secure bool) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		tokens:      tokens,
		secure:      secure,
	}
}

// Signup registers a new user and opens a session.
func (h *AuthHandler) Signup(c *gin.Context) {
	type SignupRequest struct {
		Name     string `json:"name" binding:"required,min=1,max=100"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
		Phone    string `json:"phone"`
	}

	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, pair, err := h.authService.Signup(services.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
	})
	if err != nil {
		respondAuthError(c, err)
		return
	}

	h.setSessionCookies(c, pair)
	c.JSON(http.StatusCreated, gin.H{
		"user":          dto.ToUserDTO(*user),
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	})
}

// Login authenticates a user and opens a session.
func (h *AuthHandler) Login(c *gin.Context) {
	type LoginRequest struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, pair, err := h.authService.Login(services.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondAuthError(c, err)
		return
	}

	h.setSessionCookies(c, pair)
	c.JSON(http.StatusOK, gin.H{
		"user":          dto.ToUserDTO(*user),
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	})
}

// Refresh rotates the token pair. The refresh token is taken from the
// cookie or the request body.
func (h *AuthHandler) Refresh(c *gin.Context) {
	token, _ := c.Cookie(constants.RefreshTokenCookie)
	if token == "" {
		var req struct {
			RefreshToken string `json:"refresh_token"`
		}
		if err := c.ShouldBindJSON(&req); err == nil {
			token = req.RefreshToken
		}
	}
	if token == "" {
		apierrors.Unauthorized(c, "Refresh token required")
		return
	}

	user, pair, err := h.authService.Refresh(token)
	if err != nil {
		respondAuthError(c, err)
		return
	}

	h.setSessionCookies(c, pair)
	c.JSON(http.StatusOK, gin.H{
		"user":          dto.ToUserDTO(*user),
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	})
}

// Logout revokes the refresh token and clears the session cookies. It
// succeeds even when the access token is already invalid.
func (h *AuthHandler) Logout(c *gin.Context) {
	if token := extractBearerOrCookie(c); token != "" {
		if err := h.authService.Logout(token); err != nil {
			apierrors.InternalError(c, "Failed to logout")
			return
		}
	}

	h.clearSessionCookies(c)
	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out successfully",
	})
}

// GetCurrentUser returns the authenticated user.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	user, err := h.authService.GetUser(identity.UserID)
	if err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// UpdateCurrentUser applies a self-serve profile update. Only name and
// phone are changeable here; email, role and status are not.
func (h *AuthHandler) UpdateCurrentUser(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type updateMeRequest struct {
		Name  *string `json:"name"`
		Phone *string `json:"phone"`
	}

	var req updateMeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, err := h.authService.UpdateProfile(identity.UserID, services.ProfileUpdate{
		Name:  req.Name,
		Phone: req.Phone,
	})
	if err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// ChangePassword replaces the caller's password. The refresh token is
// revoked, so other sessions die with the old password.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type changePasswordRequest struct {
		CurrentPassword string `json:"current_password" binding:"required"`
		NewPassword     string `json:"new_password" binding:"required"`
	}

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.authService.ChangePassword(identity.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Password changed successfully",
	})
}

// ForgotPassword issues a password reset token. The response is the
// same whether or not the email exists; the token itself is delivered
// out of band, never in the response.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	type ForgotRequest struct {
		Email string `json:"email" binding:"required,email"`
	}

	var req ForgotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if _, err := h.authService.ForgotPassword(req.Email); err != nil {
		apierrors.InternalError(c, "Failed to process request")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "If an account exists for this email, a reset link has been sent",
	})
}

// ResetPassword consumes a reset token and sets a new password.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	type ResetRequest struct {
		Token    string `json:"token" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req ResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.authService.ResetPassword(req.Token, req.Password); err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Password has been reset. Please log in again.",
	})
}

func (h *AuthHandler) setSessionCookies(c *gin.Context, pair services.TokenPair) {
	c.SetCookie(constants.AccessTokenCookie, pair.AccessToken, int(h.tokens.AccessTTL.Seconds()), "/", "", h.secure, true)
	c.SetCookie(constants.RefreshTokenCookie, pair.RefreshToken, int(h.tokens.RefreshTTL.Seconds()), "/", "", h.secure, true)
}

func (h *AuthHandler) clearSessionCookies(c *gin.Context) {
	c.SetCookie(constants.AccessTokenCookie, "", -1, "/", "", h.secure, true)
	c.SetCookie(constants.RefreshTokenCookie, "", -1, "/", "", h.secure, true)
}

// extractBearerOrCookie mirrors the middleware's token pickup for the
// logout path, which runs without RequireAuth.
func extractBearerOrCookie(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) > 7 && header[:7] == "Bearer " {
		return header[7:]
	}
	if cookie, err := c.Cookie(constants.AccessTokenCookie); err == nil {
		return cookie
	}
	return ""
}

func respondAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrPasswordTooShort):
		apierrors.BadRequest(c, fmt.Sprintf("Password must be at least %d characters", constants.MinPasswordLength))
	case errors.Is(err, services.ErrEmailTaken):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		apierrors.Unauthorized(c, err.Error())
	case errors.Is(err, services.ErrUnauthenticated):
		apierrors.Unauthorized(c, err.Error())
	case errors.Is(err, services.ErrAccountInactive):
		apierrors.ForbiddenWithCode(c, apierrors.ErrCodeAccountInactive, err.Error())
	case errors.Is(err, services.ErrInvalidResetToken),
		errors.Is(err, services.ErrWrongPassword):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrFailedToHashPassword),
		errors.Is(err, services.ErrFailedToProvision):
		apierrors.InternalError(c, err.Error())
	case apierrors.IsUnavailable(err):
		apierrors.ServiceUnavailable(c, "")
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
