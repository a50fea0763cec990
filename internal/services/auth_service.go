package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prepbuddy/prepbuddy-api/internal/constants"
	"github.com/prepbuddy/prepbuddy-api/internal/models"
	"github.com/prepbuddy/prepbuddy-api/internal/repository"
	"github.com/prepbuddy/prepbuddy-api/internal/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken           = errors.New("a user with this email already exists")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrPasswordTooShort     = errors.New("password too short")
	ErrUserNotFound         = errors.New("user not found")
	ErrUnauthenticated      = errors.New("invalid or expired token")
	ErrAccountInactive      = errors.New("your account is inactive or suspended")
	ErrInvalidResetToken    = errors.New("invalid or expired reset token")
	ErrWrongPassword        = errors.New("current password is incorrect")
	ErrFailedToHashPassword = errors.New("failed to hash password")
	ErrFailedToProvision    = errors.New("failed to provision account")
)

// Identity is the strongly-typed result of access token verification,
// threaded explicitly to downstream resolvers.
type Identity struct {
	UserID uint64
	Email  string
	Role   models.UserRole
}

// IsPlatformAdmin reports whether the caller's global role class grants
// the platform-admin override.
func (i Identity) IsPlatformAdmin() bool {
	return i.Role == models.RoleAdmin
}

// TokenPair bundles a freshly issued access and refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// TokenConfig holds signing secrets and lifetimes for the session manager.
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// AuthService is the session manager: it authenticates callers, issues
// and rotates token pairs, and owns the signup/password flows.
type AuthService struct {
	userRepo     repository.UserRepository
	entitlements *EntitlementService
	tokens       TokenConfig
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository, entitlements *EntitlementService, tokens TokenConfig) *AuthService {
	return &AuthService{
		userRepo:     userRepo,
		entitlements: entitlements,
		tokens:       tokens,
	}
}

// SignupInput represents the required information to create a new user.
type SignupInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
}

// Signup creates a user with a personal workspace, a default access
// level and a welcome notification, then issues a session.
func (s *AuthService) Signup(input SignupInput) (*models.User, TokenPair, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if name == "" || email == "" {
		return nil, TokenPair{}, fmt.Errorf("name and email are required")
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, TokenPair{}, ErrPasswordTooShort
	}

	if _, err := s.userRepo.FindByEmail(email); err == nil {
		return nil, TokenPair{}, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, TokenPair{}, fmt.Errorf("failed to check email: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, TokenPair{}, ErrFailedToHashPassword
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashed),
		Phone:        strings.TrimSpace(input.Phone),
		Role:         models.RoleUser,
		Status:       models.UserStatusActive,
	}

	ws := &models.Workspace{
		Name: fmt.Sprintf("%s's Workspace", name),
		Type: models.WorkspaceTypePersonal,
	}
	member := &models.WorkspaceMember{
		Role:     models.WorkspaceRoleOwner,
		Status:   models.MemberStatusActive,
		JoinedAt: time.Now(),
	}
	level := s.entitlements.NewAccessLevelFromDefaults(0)
	note := &models.Notification{
		Key:   "welcome",
		Value: "Welcome to PrepBuddy. Your account is ready.",
	}

	if err := s.userRepo.CreateWithProvisioning(user, ws, member, level, note); err != nil {
		return nil, TokenPair{}, fmt.Errorf("%w: %v", ErrFailedToProvision, err)
	}

	pair, err := s.IssueSession(user)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return user, pair, nil
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Email    string
	Password string
}

// Login verifies credentials and issues a session. Unknown email, wrong
// password and inactive accounts all return the same error, so the
// response cannot be used for account enumeration.
func (s *AuthService) Login(input LoginInput) (*models.User, TokenPair, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, TokenPair{}, ErrInvalidCredentials
		}
		return nil, TokenPair{}, fmt.Errorf("failed to find user: %w", err)
	}

	if !user.IsActive() {
		return nil, TokenPair{}, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, TokenPair{}, ErrInvalidCredentials
	}

	now := time.Now()
	user.LastLogin = &now
	if err := s.userRepo.Update(user); err != nil {
		return nil, TokenPair{}, fmt.Errorf("failed to record login: %w", err)
	}

	// Older accounts may predate access levels; materialize lazily.
	if _, err := s.entitlements.GetOrCreate(user.ID); err != nil {
		return nil, TokenPair{}, err
	}

	pair, err := s.IssueSession(user)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return user, pair, nil
}

// IssueSession mints an access/refresh token pair and stores the refresh
// token's hash, invalidating any previously issued refresh token.
func (s *AuthService) IssueSession(user *models.User) (TokenPair, error) {
	access, err := utils.NewAccessToken(s.tokens.AccessSecret, user.ID, user.Email, string(user.Role), s.tokens.AccessTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("failed to sign access token: %w", err)
	}

	refresh, err := utils.NewRefreshToken(s.tokens.RefreshSecret, user.ID, s.tokens.RefreshTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	if err := s.userRepo.UpdateRefreshTokenHash(user.ID, utils.HashToken(refresh)); err != nil {
		return TokenPair{}, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// VerifyAccess validates an access token and returns the caller's
// identity. The referenced user must still exist and be active.
func (s *AuthService) VerifyAccess(token string) (Identity, error) {
	claims, err := utils.ParseAccessToken(s.tokens.AccessSecret, token)
	if err != nil {
		return Identity{}, ErrUnauthenticated
	}

	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Identity{}, ErrUnauthenticated
		}
		return Identity{}, fmt.Errorf("failed to find user: %w", err)
	}

	if !user.IsActive() {
		return Identity{}, ErrAccountInactive
	}

	// Role comes from the user record, not the token, so a role change
	// takes effect without waiting out the token lifetime.
	return Identity{UserID: user.ID, Email: user.Email, Role: user.Role}, nil
}

// Refresh rotates the token pair. The presented refresh token must
// verify and match the single stored value; a superseded token is
// rejected even if its signature is still valid.
func (s *AuthService) Refresh(refreshToken string) (*models.User, TokenPair, error) {
	claims, err := utils.ParseRefreshToken(s.tokens.RefreshSecret, refreshToken)
	if err != nil {
		return nil, TokenPair{}, ErrUnauthenticated
	}

	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, TokenPair{}, ErrUnauthenticated
		}
		return nil, TokenPair{}, fmt.Errorf("failed to find user: %w", err)
	}

	if user.RefreshTokenHash == "" || user.RefreshTokenHash != utils.HashToken(refreshToken) {
		return nil, TokenPair{}, ErrUnauthenticated
	}

	if !user.IsActive() {
		return nil, TokenPair{}, ErrAccountInactive
	}

	pair, err := s.IssueSession(user)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return user, pair, nil
}

// Logout revokes the caller's refresh token. An invalid or expired
// access token still logs out cleanly.
func (s *AuthService) Logout(accessToken string) error {
	claims, err := utils.ParseAccessToken(s.tokens.AccessSecret, accessToken)
	if err != nil {
		return nil
	}
	return s.Revoke(claims.UserID)
}

// Revoke clears the stored refresh token; subsequent refresh calls fail
// until a new session is issued.
func (s *AuthService) Revoke(userID uint64) error {
	return s.userRepo.ClearRefreshTokenHash(userID)
}

// ForgotPassword stores a hashed reset token with a bounded expiry and
// returns the raw token for delivery. A missing account returns an
// empty token and no error so the response stays enumeration-safe.
func (s *AuthService) ForgotPassword(email string) (string, error) {
	user, err := s.userRepo.FindByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to find user: %w", err)
	}

	raw, err := utils.RandomHex(32)
	if err != nil {
		return "", fmt.Errorf("failed to generate reset token: %w", err)
	}

	expiry := time.Now().Add(constants.ResetTokenTTLHours * time.Hour)
	user.ResetTokenHash = utils.HashToken(raw)
	user.ResetTokenExpiry = &expiry
	if err := s.userRepo.Update(user); err != nil {
		return "", fmt.Errorf("failed to store reset token: %w", err)
	}

	return raw, nil
}

// ResetPassword consumes a reset token, replaces the password and
// invalidates every session by clearing the refresh token.
func (s *AuthService) ResetPassword(token, newPassword string) error {
	if len(newPassword) < constants.MinPasswordLength {
		return ErrPasswordTooShort
	}

	user, err := s.userRepo.FindByResetTokenHash(utils.HashToken(token))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return ErrFailedToHashPassword
	}

	user.PasswordHash = string(hashed)
	user.ResetTokenHash = ""
	user.ResetTokenExpiry = nil
	user.RefreshTokenHash = ""
	if err := s.userRepo.Update(user); err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}
	return nil
}

// ProfileUpdate names the fields a user may change on their own account.
type ProfileUpdate struct {
	Name  *string
	Phone *string
}

// UpdateProfile applies a self-serve profile update. Blank values are
// ignored rather than clearing the field.
func (s *AuthService) UpdateProfile(userID uint64, upd ProfileUpdate) (*models.User, error) {
	user, err := s.GetUser(userID)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil && strings.TrimSpace(*upd.Name) != "" {
		user.Name = strings.TrimSpace(*upd.Name)
	}
	if upd.Phone != nil && strings.TrimSpace(*upd.Phone) != "" {
		user.Phone = strings.TrimSpace(*upd.Phone)
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return user, nil
}

// ChangePassword replaces the caller's password after verifying the
// current one, and revokes the refresh token so every session has to
// log in again with the new credentials.
func (s *AuthService) ChangePassword(userID uint64, currentPassword, newPassword string) error {
	if len(newPassword) < constants.MinPasswordLength {
		return ErrPasswordTooShort
	}

	user, err := s.GetUser(userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return ErrWrongPassword
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return ErrFailedToHashPassword
	}

	user.PasswordHash = string(hashed)
	user.RefreshTokenHash = ""
	if err := s.userRepo.Update(user); err != nil {
		return fmt.Errorf("failed to change password: %w", err)
	}
	return nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}
