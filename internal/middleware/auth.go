package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prepbuddy/prepbuddy-api/internal/constants"
	apierrors "github.com/prepbuddy/prepbuddy-api/internal/errors"
	"github.com/prepbuddy/prepbuddy-api/internal/services"
)

// RequireAuth authenticates the caller from the bearer header or the
// access token cookie, then resolves the workspace context when the
// request carries a workspace reference. Both results are stored in the
// request context as typed values.
func RequireAuth(authService *services.AuthService, wsService *services.WorkspaceService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractAccessToken(c)
		if token == "" {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		identity, err := authService.VerifyAccess(token)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrAccountInactive):
				apierrors.ForbiddenWithCode(c, apierrors.ErrCodeAccountInactive, err.Error())
			case errors.Is(err, services.ErrUnauthenticated):
				apierrors.Unauthorized(c, err.Error())
			default:
				apierrors.InternalError(c, "")
			}
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyIdentity, identity)

		ref, ok := pickWorkspaceRef(c)
		if !ok {
			apierrors.BadRequest(c, "Invalid workspace id")
			c.Abort()
			return
		}
		if ref != 0 {
			wsCtx, err := wsService.ResolveContext(identity, ref)
			if err != nil {
				respondResolveError(c, err)
				c.Abort()
				return
			}
			c.Set(constants.ContextKeyWorkspace, *wsCtx)
		}

		c.Next()
	}
}

// RequireAdmin allows only platform administrators through. It must run
// after RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := GetIdentity(c)
		if !ok {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}
		if !identity.IsPlatformAdmin() {
			apierrors.Forbidden(c, "Admin privileges required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireWorkspace insists that the request resolved a workspace scope.
func RequireWorkspace() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := GetWorkspace(c); !ok {
			apierrors.Forbidden(c, "Workspace access context is missing")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetIdentity retrieves the authenticated identity from the context.
func GetIdentity(c *gin.Context) (services.Identity, bool) {
	v, exists := c.Get(constants.ContextKeyIdentity)
	if !exists {
		return services.Identity{}, false
	}
	identity, ok := v.(services.Identity)
	return identity, ok
}

// GetWorkspace retrieves the resolved workspace context, if any.
func GetWorkspace(c *gin.Context) (services.WorkspaceContext, bool) {
	v, exists := c.Get(constants.ContextKeyWorkspace)
	if !exists {
		return services.WorkspaceContext{}, false
	}
	wsCtx, ok := v.(services.WorkspaceContext)
	return wsCtx, ok
}

// extractAccessToken prefers the Authorization bearer header and falls
// back to the access token cookie.
func extractAccessToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if cookie, err := c.Cookie(constants.AccessTokenCookie); err == nil {
		return cookie
	}
	return ""
}

// pickWorkspaceRef finds the workspace reference in precedence order:
// header, path parameter, query parameter, JSON body field. The first
// non-empty source wins. Returns 0 when no reference is present and
// ok=false when a reference is present but unparseable.
func pickWorkspaceRef(c *gin.Context) (uint64, bool) {
	raw := c.GetHeader(constants.WorkspaceIDHeader)
	if raw == "" {
		raw = c.Param("workspaceId")
	}
	if raw == "" {
		raw = c.Query("workspaceId")
	}
	if raw == "" {
		raw = workspaceRefFromBody(c)
	}
	if raw == "" {
		return 0, true
	}

	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// workspaceRefFromBody peeks at a JSON body for a workspaceId field and
// restores the body for downstream binding.
func workspaceRefFromBody(c *gin.Context) string {
	if c.Request.Body == nil || !strings.Contains(c.ContentType(), "application/json") {
		return ""
	}

	raw, err := io.ReadAll(c.Request.Body)
	c.Request.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil || len(raw) == 0 {
		return ""
	}

	var body struct {
		WorkspaceID json.Number `json:"workspaceId"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	return body.WorkspaceID.String()
}

func respondResolveError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrWorkspaceNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrWorkspaceNotActive):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrNoWorkspaceAccess):
		apierrors.Forbidden(c, err.Error())
	case apierrors.IsUnavailable(err):
		apierrors.ServiceUnavailable(c, "")
	default:
		apierrors.InternalError(c, "")
	}
}
