package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prepbuddy/prepbuddy-api/internal/constants"
	"github.com/prepbuddy/prepbuddy-api/internal/models"
	"github.com/prepbuddy/prepbuddy-api/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrCannotChangeOwnStatus = errors.New("you cannot change your own account status")
	ErrCannotDeleteSelf      = errors.New("you cannot delete your own account")
	ErrInvalidRole           = errors.New("role must be admin or user")
	ErrInvalidStatus         = errors.New("status must be active, inactive or suspended")
)

func validUserRole(r models.UserRole) bool {
	return r == models.RoleAdmin || r == models.RoleUser
}

func validUserStatus(s models.UserStatus) bool {
	switch s {
	case models.UserStatusActive, models.UserStatusInactive, models.UserStatusSuspended:
		return true
	}
	return false
}

// UserService provides the admin-facing user management operations.
type UserService struct {
	userRepo     repository.UserRepository
	wsRepo       repository.WorkspaceRepository
	entitlements *EntitlementService
	notifRepo    repository.NotificationRepository
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.UserRepository, wsRepo repository.WorkspaceRepository, entitlements *EntitlementService, notifRepo repository.NotificationRepository) *UserService {
	return &UserService{
		userRepo:     userRepo,
		wsRepo:       wsRepo,
		entitlements: entitlements,
		notifRepo:    notifRepo,
	}
}

// List returns users matching the admin listing filter.
func (s *UserService) List(filter repository.UserFilter) ([]models.User, int64, error) {
	users, total, err := s.userRepo.List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

// Get retrieves a user by ID.
func (s *UserService) Get(id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// AdminCreateUserInput represents an admin-provisioned account.
type AdminCreateUserInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
	Role     models.UserRole
}

// Create provisions an account the same way signup does: a personal
// workspace, a default access level and a notification, in one
// transaction.
func (s *UserService) Create(input AdminCreateUserInput) (*models.User, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if name == "" || email == "" {
		return nil, fmt.Errorf("name and email are required")
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	if _, err := s.userRepo.FindByEmail(email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrFailedToHashPassword
	}

	role := input.Role
	if role == "" {
		role = models.RoleUser
	}
	if !validUserRole(role) {
		return nil, ErrInvalidRole
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashed),
		Phone:        strings.TrimSpace(input.Phone),
		Role:         role,
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
		Key:   "account-created",
		Value: "Your account was created by an admin.",
	}

	if err := s.userRepo.CreateWithProvisioning(user, ws, member, level, note); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToProvision, err)
	}
	return user, nil
}

// AdminUpdateUserInput names the fields an admin may change on a user.
type AdminUpdateUserInput struct {
	Name   *string
	Email  *string
	Phone  *string
	Role   *models.UserRole
	Status *models.UserStatus
}

// Update applies an admin update. Admins cannot change their own
// account status away from active.
func (s *UserService) Update(actorID, userID uint64, input AdminUpdateUserInput) (*models.User, error) {
	if input.Role != nil && !validUserRole(*input.Role) {
		return nil, ErrInvalidRole
	}
	if input.Status != nil && !validUserStatus(*input.Status) {
		return nil, ErrInvalidStatus
	}

	user, err := s.Get(userID)
	if err != nil {
		return nil, err
	}

	if actorID == userID && input.Status != nil && *input.Status != models.UserStatusActive {
		return nil, ErrCannotChangeOwnStatus
	}

	if input.Name != nil && strings.TrimSpace(*input.Name) != "" {
		user.Name = strings.TrimSpace(*input.Name)
	}
	if input.Phone != nil {
		user.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.Role != nil {
		user.Role = *input.Role
	}
	if input.Status != nil {
		user.Status = *input.Status
	}

	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		if email != "" && email != user.Email {
			if existing, err := s.userRepo.FindByEmail(email); err == nil && existing.ID != userID {
				return nil, ErrEmailTaken
			} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("failed to check email: %w", err)
			}
			user.Email = email
		}
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// Delete deactivates a user, or permanently removes the row when hard
// is set. Admins cannot delete themselves.
func (s *UserService) Delete(actorID, userID uint64, hard bool) error {
	if actorID == userID {
		return ErrCannotDeleteSelf
	}

	user, err := s.Get(userID)
	if err != nil {
		return err
	}

	if hard {
		if err := s.userRepo.HardDelete(user.ID); err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		return nil
	}

	user.Status = models.UserStatusInactive
	if err := s.userRepo.Update(user); err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}
	return nil
}

// AnalyticsSummary is the admin dashboard aggregate.
type AnalyticsSummary struct {
	TotalUsers         int64                   `json:"total_users"`
	ActiveUsers        int64                   `json:"active_users"`
	TotalWorkspaces    int64                   `json:"total_workspaces"`
	NewUsersLast30Days int64                   `json:"new_users_last_30_days"`
	NewUsersLast7Days  []repository.DailyCount `json:"new_users_last_7_days"`
}

// Analytics aggregates platform counters, filling empty days in the
// 7-day series with zero counts.
func (s *UserService) Analytics() (*AnalyticsSummary, error) {
	now := time.Now()
	thirtyDaysAgo := now.AddDate(0, 0, -30)
	sevenDaysAgo := now.AddDate(0, 0, -6)

	totalUsers, err := s.userRepo.CountAll()
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	activeUsers, err := s.userRepo.CountByStatus(models.UserStatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to count active users: %w", err)
	}
	totalWorkspaces, err := s.wsRepo.CountAll()
	if err != nil {
		return nil, fmt.Errorf("failed to count workspaces: %w", err)
	}
	newUsers, err := s.userRepo.CountCreatedSince(thirtyDaysAgo)
	if err != nil {
		return nil, fmt.Errorf("failed to count new users: %w", err)
	}
	perDay, err := s.userRepo.CountCreatedPerDay(sevenDaysAgo.Truncate(24 * time.Hour))
	if err != nil {
		return nil, fmt.Errorf("failed to count signups per day: %w", err)
	}

	byDate := make(map[string]int64, len(perDay))
	for _, d := range perDay {
		byDate[d.Date] = d.Count
	}
	series := make([]repository.DailyCount, 0, 7)
	for i := 6; i >= 0; i-- {
		date := now.AddDate(0, 0, -i).Format("2006-01-02")
		series = append(series, repository.DailyCount{Date: date, Count: byDate[date]})
	}

	return &AnalyticsSummary{
		TotalUsers:         totalUsers,
		ActiveUsers:        activeUsers,
		TotalWorkspaces:    totalWorkspaces,
		NewUsersLast30Days: newUsers,
		NewUsersLast7Days:  series,
	}, nil
}
