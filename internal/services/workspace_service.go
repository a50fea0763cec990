package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prepbuddy/prepbuddy-api/internal/models"
	"github.com/prepbuddy/prepbuddy-api/internal/repository"
	"github.com/prepbuddy/prepbuddy-api/internal/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrWorkspaceNotFound     = errors.New("workspace not found")
	ErrWorkspaceNotActive    = errors.New("workspace is not active")
	ErrNoWorkspaceAccess     = errors.New("you do not have access to this workspace")
	ErrInsufficientRole      = errors.New("only the workspace owner or an admin can perform this action")
	ErrWorkspaceNameRequired = errors.New("workspace name is required")
	ErrAlreadyMember         = errors.New("user is already a member of this workspace")
	ErrMemberNotFound        = errors.New("member not found in workspace")
	ErrCannotModifyOwner     = errors.New("the workspace owner cannot be removed or modified")
	ErrInvalidMemberStatus   = errors.New("member status must be active or inactive")
)

// WorkspaceContext is the caller's resolved position within a
// workspace: the workspace id and the effective role.
type WorkspaceContext struct {
	WorkspaceID uint64               `json:"workspace_id"`
	Role        models.WorkspaceRole `json:"role"`
}

// WorkspaceService resolves workspace scope for authenticated callers
// and manages workspaces and their members.
type WorkspaceService struct {
	wsRepo       repository.WorkspaceRepository
	userRepo     repository.UserRepository
	entitlements *EntitlementService
}

// NewWorkspaceService creates a new WorkspaceService.
func NewWorkspaceService(wsRepo repository.WorkspaceRepository, userRepo repository.UserRepository, entitlements *EntitlementService) *WorkspaceService {
	return &WorkspaceService{
		wsRepo:       wsRepo,
		userRepo:     userRepo,
		entitlements: entitlements,
	}
}

// ResolveContext computes the caller's effective role in a workspace.
// Precedence: ownership, then an active membership entry, then the
// platform-admin override. An inactive membership entry never grants
// access on its own.
func (s *WorkspaceService) ResolveContext(identity Identity, workspaceID uint64) (*WorkspaceContext, error) {
	ws, err := s.wsRepo.FindByID(workspaceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkspaceNotFound
		}
		return nil, fmt.Errorf("failed to find workspace: %w", err)
	}

	if ws.Status != models.WorkspaceStatusActive {
		return nil, ErrWorkspaceNotActive
	}

	if ws.OwnerID == identity.UserID {
		return &WorkspaceContext{WorkspaceID: ws.ID, Role: models.WorkspaceRoleOwner}, nil
	}

	for _, m := range ws.Members {
		if m.UserID == identity.UserID && m.Status == models.MemberStatusActive {
			return &WorkspaceContext{WorkspaceID: ws.ID, Role: m.Role}, nil
		}
	}

	if identity.IsPlatformAdmin() {
		return &WorkspaceContext{WorkspaceID: ws.ID, Role: models.WorkspaceRoleAdmin}, nil
	}

	return nil, ErrNoWorkspaceAccess
}

// MemberInput names a member to attach at workspace creation.
type MemberInput struct {
	Email string
	Role  string
}

// CreateWorkspaceInput represents parameters to create a workspace.
type CreateWorkspaceInput struct {
	Name        string
	Description string
	Type        models.WorkspaceType
	Members     []MemberInput
}

// CreateWorkspace creates a workspace after the entitlement gate: the
// plan must allow workspace creation and the active workspace count must
// be below the cap. Listed members are attached immediately, provisioning
// placeholder accounts for unknown emails.
func (s *WorkspaceService) CreateWorkspace(ownerID uint64, input CreateWorkspaceInput) (*models.Workspace, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrWorkspaceNameRequired
	}

	level, err := s.entitlements.GetOrCreate(ownerID)
	if err != nil {
		return nil, err
	}
	count, err := s.wsRepo.CountActiveForUser(ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to count workspaces: %w", err)
	}
	if err := CanCreateWorkspace(level, count); err != nil {
		return nil, err
	}

	wsType := input.Type
	if wsType == "" {
		wsType = models.WorkspaceTypeTeam
	}

	now := time.Now()
	members := []models.WorkspaceMember{{
		UserID:   ownerID,
		Role:     models.WorkspaceRoleOwner,
		Status:   models.MemberStatusActive,
		JoinedAt: now,
	}}

	for _, m := range input.Members {
		if m.Email == "" {
			continue
		}
		user, err := s.findOrProvisionByEmail(m.Email)
		if err != nil {
			return nil, err
		}
		if user.ID == ownerID {
			continue
		}
		members = append(members, models.WorkspaceMember{
			UserID:   user.ID,
			Role:     models.NormalizeWorkspaceRole(m.Role),
			Status:   models.MemberStatusActive,
			JoinedAt: now,
		})
	}

	ws := &models.Workspace{
		Name:        name,
		Slug:        utils.GenerateWorkspaceSlug(name, ownerID),
		Description: strings.TrimSpace(input.Description),
		OwnerID:     ownerID,
		Type:        wsType,
		Status:      models.WorkspaceStatusActive,
	}

	if err := s.wsRepo.Create(ws, members); err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	return ws, nil
}

// Get returns a workspace with its members. Callers are expected to
// have resolved their context first.
func (s *WorkspaceService) Get(workspaceID uint64) (*models.Workspace, error) {
	ws, err := s.wsRepo.FindByID(workspaceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkspaceNotFound
		}
		return nil, fmt.Errorf("failed to find workspace: %w", err)
	}
	return ws, nil
}

// ListForUser returns workspaces the user owns or is an active member of.
func (s *WorkspaceService) ListForUser(userID uint64) ([]models.Workspace, error) {
	workspaces, err := s.wsRepo.ListForUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list workspaces: %w", err)
	}
	return workspaces, nil
}

// AddMember attaches a user to the workspace by email, provisioning a
// placeholder account if none exists. The caller needs owner or admin
// role; the workspace owner's plan must allow inviting and have room.
func (s *WorkspaceService) AddMember(wsCtx WorkspaceContext, email, role string) (*models.Workspace, error) {
	if !wsCtx.Role.CanManageMembers() {
		return nil, ErrInsufficientRole
	}

	ws, err := s.wsRepo.FindByID(wsCtx.WorkspaceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkspaceNotFound
		}
		return nil, fmt.Errorf("failed to find workspace: %w", err)
	}

	level, err := s.entitlements.GetOrCreate(ws.OwnerID)
	if err != nil {
		return nil, err
	}
	if err := CanInviteMembers(level, int64(len(ws.Members))); err != nil {
		return nil, err
	}

	user, err := s.findOrProvisionByEmail(email)
	if err != nil {
		return nil, err
	}

	for _, m := range ws.Members {
		if m.UserID == user.ID {
			return nil, ErrAlreadyMember
		}
	}

	member := &models.WorkspaceMember{
		UserID:   user.ID,
		Role:     models.NormalizeWorkspaceRole(role),
		Status:   models.MemberStatusActive,
		JoinedAt: time.Now(),
	}
	if err := s.wsRepo.AddMember(ws.ID, member); err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	return s.wsRepo.FindByID(ws.ID)
}

// UpdateMemberStatus flips a member between active and inactive. The
// owner entry is immutable.
func (s *WorkspaceService) UpdateMemberStatus(wsCtx WorkspaceContext, targetUserID uint64, status models.MemberStatus) (*models.Workspace, error) {
	if !wsCtx.Role.CanManageMembers() {
		return nil, ErrInsufficientRole
	}
	if status != models.MemberStatusActive && status != models.MemberStatusInactive {
		return nil, ErrInvalidMemberStatus
	}

	ws, target, err := s.findMember(wsCtx.WorkspaceID, targetUserID)
	if err != nil {
		return nil, err
	}
	if target.Role == models.WorkspaceRoleOwner {
		return nil, ErrCannotModifyOwner
	}

	if err := s.wsRepo.UpdateMemberStatus(ws.ID, targetUserID, status); err != nil {
		return nil, fmt.Errorf("failed to update member status: %w", err)
	}
	return s.wsRepo.FindByID(ws.ID)
}

// RemoveMember detaches a member from the workspace. The owner entry is
// immutable.
func (s *WorkspaceService) RemoveMember(wsCtx WorkspaceContext, targetUserID uint64) (*models.Workspace, error) {
	if !wsCtx.Role.CanManageMembers() {
		return nil, ErrInsufficientRole
	}

	ws, target, err := s.findMember(wsCtx.WorkspaceID, targetUserID)
	if err != nil {
		return nil, err
	}
	if target.Role == models.WorkspaceRoleOwner {
		return nil, ErrCannotModifyOwner
	}

	if err := s.wsRepo.RemoveMember(ws.ID, targetUserID); err != nil {
		return nil, fmt.Errorf("failed to remove member: %w", err)
	}
	return s.wsRepo.FindByID(ws.ID)
}

func (s *WorkspaceService) findMember(wsID, userID uint64) (*models.Workspace, *models.WorkspaceMember, error) {
	ws, err := s.wsRepo.FindByID(wsID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrWorkspaceNotFound
		}
		return nil, nil, fmt.Errorf("failed to find workspace: %w", err)
	}

	for i := range ws.Members {
		if ws.Members[i].UserID == userID {
			return ws, &ws.Members[i], nil
		}
	}
	return nil, nil, ErrMemberNotFound
}

// findOrProvisionByEmail looks up a user by email, creating a
// placeholder account with a random password when none exists.
func (s *WorkspaceService) findOrProvisionByEmail(email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.userRepo.FindByEmail(email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	password, err := utils.RandomHex(16)
	if err != nil {
		return nil, fmt.Errorf("failed to generate password: %w", err)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrFailedToHashPassword
	}

	name := email
	if at := strings.Index(email, "@"); at > 0 {
		name = email[:at]
	}

	user = &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashed),
		Role:         models.RoleUser,
		Status:       models.UserStatusActive,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to provision user: %w", err)
	}
	return user, nil
}
