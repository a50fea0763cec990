package services

import (
	"testing"

	"github.com/prepbuddy/prepbuddy-api/internal/models"
	"github.com/prepbuddy/prepbuddy-api/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestUserService_Create_ProvisionsLikeSignup(t *testing.T) {
	env := setupTestEnv(t)

	user, err := env.users.Create(AdminCreateUserInput{
		Name:     "Bob",
		Email:    "bob@example.com",
		Password: "password123",
		Role:     models.RoleUser,
	})
	require.NoError(t, err)
	require.NotNil(t, user.DefaultWorkspaceID)

	ws, err := env.wsRepo.FindByID(*user.DefaultWorkspaceID)
	require.NoError(t, err)
	require.Equal(t, user.ID, ws.OwnerID)

	level, err := env.entitlements.Get(user.ID)
	require.NoError(t, err)
	require.Equal(t, models.PlanFree, level.Plan)

	_, err = env.users.Create(AdminCreateUserInput{
		Name:     "Duplicate",
		Email:    "bob@example.com",
		Password: "password123",
	})
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestUserService_List_SearchAndFilter(t *testing.T) {
	env := setupTestEnv(t)

	env.createUser(t, "Alice Smith", "alice@example.com", models.RoleUser, models.UserStatusActive)
	env.createUser(t, "Bob Jones", "bob@example.com", models.RoleAdmin, models.UserStatusActive)
	env.createUser(t, "Carol Smith", "carol@example.com", models.RoleUser, models.UserStatusInactive)

	users, total, err := env.users.List(repository.UserFilter{Search: "smith"})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, users, 2)

	adminRole := models.RoleAdmin
	users, total, err = env.users.List(repository.UserFilter{Role: &adminRole})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, "bob@example.com", users[0].Email)

	inactive := models.UserStatusInactive
	_, total, err = env.users.List(repository.UserFilter{Status: &inactive})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)

	users, _, err = env.users.List(repository.UserFilter{Sort: "name", Order: "asc"})
	require.NoError(t, err)
	require.Equal(t, "Alice Smith", users[0].Name)
}

func TestUserService_Update_Guards(t *testing.T) {
	env := setupTestEnv(t)

	admin := env.createUser(t, "Admin", "admin@example.com", models.RoleAdmin, models.UserStatusActive)
	other := env.createUser(t, "Other", "other@example.com", models.RoleUser, models.UserStatusActive)
	env.createUser(t, "Taken", "taken@example.com", models.RoleUser, models.UserStatusActive)

	// An admin cannot deactivate their own account.
	suspended := models.UserStatusSuspended
	_, err := env.users.Update(admin.ID, admin.ID, AdminUpdateUserInput{Status: &suspended})
	require.ErrorIs(t, err, ErrCannotChangeOwnStatus)

	// Email changes re-check uniqueness.
	email := "taken@example.com"
	_, err = env.users.Update(admin.ID, other.ID, AdminUpdateUserInput{Email: &email})
	require.ErrorIs(t, err, ErrEmailTaken)

	name := "Renamed"
	updated, err := env.users.Update(admin.ID, other.ID, AdminUpdateUserInput{Name: &name, Status: &suspended})
	require.NoError(t, err)
	require.Equal(t, "Renamed", updated.Name)
	require.Equal(t, models.UserStatusSuspended, updated.Status)
}

func TestUserService_Delete(t *testing.T) {
	env := setupTestEnv(t)

	admin := env.createUser(t, "Admin", "admin@example.com", models.RoleAdmin, models.UserStatusActive)
	soft := env.createUser(t, "Soft", "soft@example.com", models.RoleUser, models.UserStatusActive)
	hard := env.createUser(t, "Hard", "hard@example.com", models.RoleUser, models.UserStatusActive)

	require.ErrorIs(t, env.users.Delete(admin.ID, admin.ID, false), ErrCannotDeleteSelf)

	// Soft delete deactivates; the row remains.
	require.NoError(t, env.users.Delete(admin.ID, soft.ID, false))
	got, err := env.users.Get(soft.ID)
	require.NoError(t, err)
	require.Equal(t, models.UserStatusInactive, got.Status)

	// Hard delete removes the row.
	require.NoError(t, env.users.Delete(admin.ID, hard.ID, true))
	_, err = env.users.Get(hard.ID)
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserService_Analytics(t *testing.T) {
	env := setupTestEnv(t)

	owner := env.createUser(t, "Owner", "owner@example.com", models.RoleUser, models.UserStatusActive)
	env.createUser(t, "Inactive", "inactive@example.com", models.RoleUser, models.UserStatusInactive)
	env.grantPlan(t, owner.ID, 5, 10)
	env.createTeamWorkspace(t, owner.ID, nil)

	summary, err := env.users.Analytics()
	require.NoError(t, err)
	require.Equal(t, int64(2), summary.TotalUsers)
	require.Equal(t, int64(1), summary.ActiveUsers)
	require.Equal(t, int64(1), summary.TotalWorkspaces)
	require.Equal(t, int64(2), summary.NewUsersLast30Days)

	// The 7-day series is zero-filled, today last.
	require.Len(t, summary.NewUsersLast7Days, 7)
	require.Equal(t, int64(2), summary.NewUsersLast7Days[6].Count)
	require.Equal(t, int64(0), summary.NewUsersLast7Days[0].Count)
}

func TestUserService_RejectsUnknownRoleAndStatus(t *testing.T) {
	env := setupTestEnv(t)
	admin := env.createUser(t, "Admin", "admin@example.com", models.RoleAdmin, models.UserStatusActive)
	user := env.createUser(t, "Alice", "alice@example.com", models.RoleUser, models.UserStatusActive)

	_, err := env.users.Create(AdminCreateUserInput{
		Name:     "Bob",
		Email:    "bob@example.com",
		Password: "password123",
		Role:     models.UserRole("superuser"),
	})
	require.ErrorIs(t, err, ErrInvalidRole)

	badRole := models.UserRole("superuser")
	_, err = env.users.Update(admin.ID, user.ID, AdminUpdateUserInput{Role: &badRole})
	require.ErrorIs(t, err, ErrInvalidRole)

	badStatus := models.UserStatus("banana")
	_, err = env.users.Update(admin.ID, user.ID, AdminUpdateUserInput{Status: &badStatus})
	require.ErrorIs(t, err, ErrInvalidStatus)

	// The record is untouched.
	got, err := env.users.Get(user.ID)
	require.NoError(t, err)
	require.Equal(t, models.RoleUser, got.Role)
	require.Equal(t, models.UserStatusActive, got.Status)
}
