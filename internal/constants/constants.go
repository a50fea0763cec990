package constants

// Context keys
const (
	ContextKeyIdentity  = "identity"
	ContextKeyWorkspace = "workspace"
)

// Workspace scope header checked before path/query/body
const WorkspaceIDHeader = "X-Workspace-Id"

// Auth cookie names
const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

const MinPasswordLength = 6

// Token lifetime defaults, overridable via config
const (
	DefaultAccessTokenTTLMinutes = 15
	DefaultRefreshTokenTTLDays   = 7
	ResetTokenTTLHours           = 1
)

// Pagination
const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// ServiceData keys
const (
	ServiceDataDefaultAccess = "default-access"
)
