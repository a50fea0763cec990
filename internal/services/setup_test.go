package services

import (
	"testing"
	"time"

	"github.com/prepbuddy/prepbuddy-api/internal/models"
	"github.com/prepbuddy/prepbuddy-api/internal/repository"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	db *gorm.DB

	userRepo   repository.UserRepository
	wsRepo     repository.WorkspaceRepository
	accessRepo repository.AccessLevelRepository
	creditRepo repository.CreditRepository
	notifRepo  repository.NotificationRepository
	dataRepo   repository.ServiceDataRepository

	entitlements *EntitlementService
	auth         *AuthService
	workspaces   *WorkspaceService
	credits      *CreditService
	users        *UserService
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// Every pooled connection gets its own in-memory database; pin the
	// pool to one so all queries see the same data.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	err = db.AutoMigrate(
		&models.User{},
		&models.Workspace{},
		&models.WorkspaceMember{},
		&models.AccessLevel{},
		&models.Credit{},
		&models.Notification{},
		&models.ServiceData{},
	)
	require.NoError(t, err)

	env := &testEnv{
		db:         db,
		userRepo:   repository.NewUserRepository(db),
		wsRepo:     repository.NewWorkspaceRepository(db),
		accessRepo: repository.NewAccessLevelRepository(db),
		creditRepo: repository.NewCreditRepository(db),
		notifRepo:  repository.NewNotificationRepository(db),
		dataRepo:   repository.NewServiceDataRepository(db),
	}

	tokens := TokenConfig{
		AccessSecret:  "test-access-secret",
		RefreshSecret: "test-refresh-secret",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
	}

	env.entitlements = NewEntitlementService(env.accessRepo, env.dataRepo)
	env.auth = NewAuthService(env.userRepo, env.entitlements, tokens)
	env.workspaces = NewWorkspaceService(env.wsRepo, env.userRepo, env.entitlements)
	env.credits = NewCreditService(env.creditRepo, env.entitlements)
	env.users = NewUserService(env.userRepo, env.wsRepo, env.entitlements, env.notifRepo)

	return env
}

// createUser inserts a bare user row without the signup provisioning.
func (env *testEnv) createUser(t *testing.T, name, email string, role models.UserRole, status models.UserStatus) *models.User {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashed),
		Role:         role,
		Status:       status,
	}
	require.NoError(t, env.userRepo.Create(user))
	return user
}

// grantPlan upgrades the user's access level with workspace and invite
// entitlements so tests can get past the plan gate.
func (env *testEnv) grantPlan(t *testing.T, userID uint64, maxWorkspaces, maxTeamMembers int) {
	t.Helper()

	plan := models.PlanPro
	canCreate := maxWorkspaces > 0
	canInvite := maxTeamMembers > 0
	_, err := env.entitlements.Update(userID, AccessLevelUpdate{
		Plan:               &plan,
		CanCreateWorkspace: &canCreate,
		MaxWorkspaces:      &maxWorkspaces,
		CanInviteMembers:   &canInvite,
		MaxTeamMembers:     &maxTeamMembers,
	})
	require.NoError(t, err)
}
