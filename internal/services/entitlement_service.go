package services

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/prepbuddy/prepbuddy-api/internal/constants"
	"github.com/prepbuddy/prepbuddy-api/internal/models"
	"github.com/prepbuddy/prepbuddy-api/internal/repository"
	"gorm.io/gorm"
)

// Entitlement denials carry the specific reason (flag vs cap) so the
// client can show an informative message.
var (
	ErrPlanCannotCreateWorkspace = errors.New("your plan does not allow creating additional workspaces")
	ErrWorkspaceLimitReached     = errors.New("workspace limit reached for your plan")
	ErrPlanCannotInviteMembers   = errors.New("your plan does not allow inviting members")
	ErrTeamMemberLimitReached    = errors.New("team member limit reached for your plan")
	ErrPlanCannotExportData      = errors.New("your plan does not allow exporting data")
	ErrPlanCannotAccessAnalytics = errors.New("your plan does not allow accessing analytics")
)

// ErrInvalidPlan rejects plan tiers outside the known set.
var ErrInvalidPlan = errors.New("plan must be free, basic, pro or enterprise")

func validPlan(p models.PlanType) bool {
	switch p {
	case models.PlanFree, models.PlanBasic, models.PlanPro, models.PlanEnterprise:
		return true
	}
	return false
}

// CanCreateWorkspace checks the boolean flag and the numeric cap. The
// cap is a ceiling: reaching it blocks further creation.
func CanCreateWorkspace(level *models.AccessLevel, activeWorkspaceCount int64) error {
	if !level.CanCreateWorkspace {
		return ErrPlanCannotCreateWorkspace
	}
	if activeWorkspaceCount >= int64(level.MaxWorkspaces) {
		return ErrWorkspaceLimitReached
	}
	return nil
}

// CanInviteMembers checks the invite flag and the team size cap.
func CanInviteMembers(level *models.AccessLevel, memberCount int64) error {
	if !level.CanInviteMembers {
		return ErrPlanCannotInviteMembers
	}
	if memberCount >= int64(level.MaxTeamMembers) {
		return ErrTeamMemberLimitReached
	}
	return nil
}

// CanExportData checks the export flag.
func CanExportData(level *models.AccessLevel) error {
	if !level.CanExportData {
		return ErrPlanCannotExportData
	}
	return nil
}

// CanAccessAnalytics checks the analytics flag.
func CanAccessAnalytics(level *models.AccessLevel) error {
	if !level.CanAccessAnalytics {
		return ErrPlanCannotAccessAnalytics
	}
	return nil
}

// DefaultAccessConfig is the platform default applied when a user has no
// access level record yet. It is stored under the "default-access" key
// in service data and editable by admins.
type DefaultAccessConfig struct {
	Plan               models.PlanType `json:"plan"`
	CanCreateWorkspace bool            `json:"canCreateWorkspace"`
	MaxWorkspaces      int             `json:"maxWorkspaces"`
	CanInviteMembers   bool            `json:"canInviteMembers"`
	MaxTeamMembers     int             `json:"maxTeamMembers"`
	CanExportData      bool            `json:"canExportData"`
	CanAccessAnalytics bool            `json:"canAccessAnalytics"`
}

// fallbackDefaultAccess is used until an admin stores a configuration.
var fallbackDefaultAccess = DefaultAccessConfig{
	Plan:               models.PlanFree,
	CanCreateWorkspace: false,
	MaxWorkspaces:      1,
	CanInviteMembers:   false,
	MaxTeamMembers:     1,
	CanExportData:      false,
	CanAccessAnalytics: false,
}

// AccessLevelUpdate names exactly the fields an admin may change on an
// access level. The credit balance is deliberately absent: it only
// moves through the ledger.
type AccessLevelUpdate struct {
	Plan               *models.PlanType `json:"plan"`
	CanCreateWorkspace *bool            `json:"can_create_workspace"`
	MaxWorkspaces      *int             `json:"max_workspaces"`
	CanInviteMembers   *bool            `json:"can_invite_members"`
	MaxTeamMembers     *int             `json:"max_team_members"`
	CanExportData      *bool            `json:"can_export_data"`
	CanAccessAnalytics *bool            `json:"can_access_analytics"`
}

// EntitlementService decides whether plan-gated actions are permitted
// and manages access level records.
type EntitlementService struct {
	accessRepo      repository.AccessLevelRepository
	serviceDataRepo repository.ServiceDataRepository
}

// NewEntitlementService creates a new EntitlementService.
func NewEntitlementService(accessRepo repository.AccessLevelRepository, serviceDataRepo repository.ServiceDataRepository) *EntitlementService {
	return &EntitlementService{
		accessRepo:      accessRepo,
		serviceDataRepo: serviceDataRepo,
	}
}

// DefaultAccess returns the platform default access configuration,
// falling back to the compiled-in free-plan defaults when none is
// stored or the stored value cannot be decoded.
func (s *EntitlementService) DefaultAccess() DefaultAccessConfig {
	cfg := fallbackDefaultAccess

	data, err := s.serviceDataRepo.Get(constants.ServiceDataDefaultAccess)
	if err != nil {
		return cfg
	}
	if err := json.Unmarshal([]byte(data.Value), &cfg); err != nil {
		return fallbackDefaultAccess
	}
	return cfg
}

// UpdateDefaultAccess stores a new platform default access configuration.
func (s *EntitlementService) UpdateDefaultAccess(cfg DefaultAccessConfig) error {
	if !validPlan(cfg.Plan) {
		return ErrInvalidPlan
	}

	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode default access config: %w", err)
	}
	if err := s.serviceDataRepo.Upsert(constants.ServiceDataDefaultAccess, "default", string(raw)); err != nil {
		return fmt.Errorf("failed to store default access config: %w", err)
	}
	return nil
}

// NewAccessLevelFromDefaults builds an unsaved access level for a user
// from the platform defaults.
func (s *EntitlementService) NewAccessLevelFromDefaults(userID uint64) *models.AccessLevel {
	cfg := s.DefaultAccess()
	return &models.AccessLevel{
		UserID:             userID,
		Plan:               cfg.Plan,
		CanCreateWorkspace: cfg.CanCreateWorkspace,
		MaxWorkspaces:      cfg.MaxWorkspaces,
		CanInviteMembers:   cfg.CanInviteMembers,
		MaxTeamMembers:     cfg.MaxTeamMembers,
		CanExportData:      cfg.CanExportData,
		CanAccessAnalytics: cfg.CanAccessAnalytics,
	}
}

// GetOrCreate returns the user's access level, lazily materializing it
// from the platform defaults. A missing record is never an error.
func (s *EntitlementService) GetOrCreate(userID uint64) (*models.AccessLevel, error) {
	level := s.NewAccessLevelFromDefaults(userID)
	if err := s.accessRepo.FirstOrCreate(level); err != nil {
		return nil, fmt.Errorf("failed to materialize access level: %w", err)
	}
	return level, nil
}

// Update applies an admin entitlement update to the user's access level,
// materializing it first if needed.
func (s *EntitlementService) Update(userID uint64, upd AccessLevelUpdate) (*models.AccessLevel, error) {
	if upd.Plan != nil && !validPlan(*upd.Plan) {
		return nil, ErrInvalidPlan
	}

	level, err := s.GetOrCreate(userID)
	if err != nil {
		return nil, err
	}

	if upd.Plan != nil {
		level.Plan = *upd.Plan
	}
	if upd.CanCreateWorkspace != nil {
		level.CanCreateWorkspace = *upd.CanCreateWorkspace
	}
	if upd.MaxWorkspaces != nil {
		level.MaxWorkspaces = *upd.MaxWorkspaces
	}
	if upd.CanInviteMembers != nil {
		level.CanInviteMembers = *upd.CanInviteMembers
	}
	if upd.MaxTeamMembers != nil {
		level.MaxTeamMembers = *upd.MaxTeamMembers
	}
	if upd.CanExportData != nil {
		level.CanExportData = *upd.CanExportData
	}
	if upd.CanAccessAnalytics != nil {
		level.CanAccessAnalytics = *upd.CanAccessAnalytics
	}

	if err := s.accessRepo.Save(level); err != nil {
		return nil, fmt.Errorf("failed to update access level: %w", err)
	}
	return level, nil
}

// Get returns the user's access level without materializing it.
func (s *EntitlementService) Get(userID uint64) (*models.AccessLevel, error) {
	level, err := s.accessRepo.FindByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to find access level: %w", err)
	}
	return level, nil
}
