package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prepbuddy/prepbuddy-api/internal/middleware"
	"github.com/prepbuddy/prepbuddy-api/internal/models"
	"github.com/prepbuddy/prepbuddy-api/internal/repository"
	"github.com/prepbuddy/prepbuddy-api/internal/services"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type handlerTestEnv struct {
	db     *gorm.DB
	router *gin.Engine

	auth         *services.AuthService
	workspaces   *services.WorkspaceService
	entitlements *services.EntitlementService
}

func setupHandlerTestEnv(t *testing.T) *handlerTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

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

	userRepo := repository.NewUserRepository(db)
	wsRepo := repository.NewWorkspaceRepository(db)
	accessRepo := repository.NewAccessLevelRepository(db)
	creditRepo := repository.NewCreditRepository(db)
	notifRepo := repository.NewNotificationRepository(db)
	dataRepo := repository.NewServiceDataRepository(db)

	tokens := services.TokenConfig{
		AccessSecret:  "test-access-secret",
		RefreshSecret: "test-refresh-secret",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
	}

	entitlements := services.NewEntitlementService(accessRepo, dataRepo)
	auth := services.NewAuthService(userRepo, entitlements, tokens)
	workspaces := services.NewWorkspaceService(wsRepo, userRepo, entitlements)
	credits := services.NewCreditService(creditRepo, entitlements)
	users := services.NewUserService(userRepo, wsRepo, entitlements, notifRepo)
	notifications := services.NewNotificationService(notifRepo)

	authHandler := NewAuthHandler(auth, tokens, false)
	wsHandler := NewWorkspaceHandler(workspaces, entitlements)
	creditHandler := NewCreditHandler(credits, entitlements)
	notifHandler := NewNotificationHandler(notifications)
	adminHandler := NewAdminHandler(users, workspaces, credits, entitlements)

	r := gin.New()
	requireAuth := middleware.RequireAuth(auth, workspaces)

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/signup", authHandler.Signup)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh-token", authHandler.Refresh)
			authGroup.POST("/logout", authHandler.Logout)
			authGroup.GET("/me", requireAuth, authHandler.GetCurrentUser)
			authGroup.PATCH("/me", requireAuth, authHandler.UpdateCurrentUser)
			authGroup.POST("/change-password", requireAuth, authHandler.ChangePassword)
		}

		wsGroup := api.Group("/workspaces")
		wsGroup.Use(requireAuth)
		{
			wsGroup.GET("", wsHandler.ListWorkspaces)
			wsGroup.POST("", wsHandler.CreateWorkspace)
			wsGroup.GET("/:workspaceId", middleware.RequireWorkspace(), wsHandler.GetWorkspace)
			wsGroup.GET("/:workspaceId/export", middleware.RequireWorkspace(), wsHandler.ExportWorkspace)
			wsGroup.GET("/:workspaceId/analytics", middleware.RequireWorkspace(), wsHandler.WorkspaceAnalytics)
			wsGroup.POST("/:workspaceId/members", middleware.RequireWorkspace(), wsHandler.AddMember)
			wsGroup.PATCH("/:workspaceId/members/:userId", middleware.RequireWorkspace(), wsHandler.UpdateMemberStatus)
			wsGroup.DELETE("/:workspaceId/members/:userId", middleware.RequireWorkspace(), wsHandler.RemoveMember)
		}

		meGroup := api.Group("/me")
		meGroup.Use(requireAuth)
		{
			meGroup.GET("/credits/balance", creditHandler.GetBalance)
		}

		notifGroup := api.Group("/notifications")
		notifGroup.Use(requireAuth)
		{
			notifGroup.GET("", notifHandler.ListNotifications)
			notifGroup.PATCH("/read-all", notifHandler.MarkAllRead)
			notifGroup.PATCH("/:id/read", notifHandler.MarkRead)
		}

		adminGroup := api.Group("/admin")
		adminGroup.Use(requireAuth, middleware.RequireAdmin())
		{
			adminGroup.PUT("/users/:id", adminHandler.UpdateUser)
			adminGroup.GET("/users/:id/workspaces", adminHandler.ListUserWorkspaces)
			adminGroup.POST("/users/:id/credits", adminHandler.AddCredit)
			adminGroup.GET("/users/:id/credits/reconcile", adminHandler.ReconcileCredits)
			adminGroup.PUT("/users/:id/access-level", adminHandler.UpdateAccessLevel)
		}
	}

	return &handlerTestEnv{
		db:           db,
		router:       r,
		auth:         auth,
		workspaces:   workspaces,
		entitlements: entitlements,
	}
}

// signup registers a user through the service and returns the user and
// a bearer token for requests.
func (env *handlerTestEnv) signup(t *testing.T, name, email string) (*models.User, string) {
	t.Helper()

	user, pair, err := env.auth.Signup(services.SignupInput{
		Name:     name,
		Email:    email,
		Password: "password123",
	})
	require.NoError(t, err)
	return user, pair.AccessToken
}

func (env *handlerTestEnv) promoteToAdmin(t *testing.T, userID uint64) {
	t.Helper()
	err := env.db.Model(&models.User{}).Where("id = ?", userID).
		Update("role", models.RoleAdmin).Error
	require.NoError(t, err)
}

func (env *handlerTestEnv) grantWorkspacePlan(t *testing.T, userID uint64) {
	t.Helper()

	plan := models.PlanPro
	canCreate := true
	canInvite := true
	maxWorkspaces := 10
	maxTeamMembers := 10
	_, err := env.entitlements.Update(userID, services.AccessLevelUpdate{
		Plan:               &plan,
		CanCreateWorkspace: &canCreate,
		MaxWorkspaces:      &maxWorkspaces,
		CanInviteMembers:   &canInvite,
		MaxTeamMembers:     &maxTeamMembers,
	})
	require.NoError(t, err)
}

// doJSON performs a JSON request against the test router.
func (env *handlerTestEnv) doJSON(t *testing.T, method, path, token string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

// doJSONWithHeader is doJSON with one extra request header.
func (env *handlerTestEnv) doJSONWithHeader(t *testing.T, method, path, token string, payload interface{}, header, value string) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(header, value)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}
