package main

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prepbuddy/prepbuddy-api/internal/config"
	"github.com/prepbuddy/prepbuddy-api/internal/database"
	"github.com/prepbuddy/prepbuddy-api/internal/handlers"
	"github.com/prepbuddy/prepbuddy-api/internal/middleware"
	"github.com/prepbuddy/prepbuddy-api/internal/repository"
	"github.com/prepbuddy/prepbuddy-api/internal/services"
)

func main() {
	// Load .env if present; real deployments set the environment directly
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	if err := database.AddIndexes(database.GetDB()); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}

	db := database.GetDB()

	// Repositories
	userRepo := repository.NewUserRepository(db)
	wsRepo := repository.NewWorkspaceRepository(db)
	accessRepo := repository.NewAccessLevelRepository(db)
	creditRepo := repository.NewCreditRepository(db)
	notifRepo := repository.NewNotificationRepository(db)
	serviceDataRepo := repository.NewServiceDataRepository(db)

	// Services
	tokens := services.TokenConfig{
		AccessSecret:  cfg.JWTSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		AccessTTL:     time.Duration(cfg.AccessTokenTTL) * time.Minute,
		RefreshTTL:    time.Duration(cfg.RefreshTokenTTL) * 24 * time.Hour,
	}
	entitlementService := services.NewEntitlementService(accessRepo, serviceDataRepo)
	authService := services.NewAuthService(userRepo, entitlementService, tokens)
	wsService := services.NewWorkspaceService(wsRepo, userRepo, entitlementService)
	creditService := services.NewCreditService(creditRepo, entitlementService)
	userService := services.NewUserService(userRepo, wsRepo, entitlementService, notifRepo)
	notifService := services.NewNotificationService(notifRepo)

	// Handlers
	isProduction := cfg.GinMode == "release"
	authHandler := handlers.NewAuthHandler(authService, tokens, isProduction)
	wsHandler := handlers.NewWorkspaceHandler(wsService, entitlementService)
	creditHandler := handlers.NewCreditHandler(creditService, entitlementService)
	notifHandler := handlers.NewNotificationHandler(notifService)
	adminHandler := handlers.NewAdminHandler(userService, wsService, creditService, entitlementService)

	r := gin.Default()

	requireAuth := middleware.RequireAuth(authService, wsService)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "PrepBuddy API is running",
		})
	})

	api := r.Group("/api/v1")
	{
		// Auth routes (public except me)
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh-token", authHandler.Refresh)
			auth.POST("/logout", authHandler.Logout)
			auth.POST("/forgot-password", authHandler.ForgotPassword)
			auth.POST("/reset-password", authHandler.ResetPassword)
			auth.GET("/me", requireAuth, authHandler.GetCurrentUser)
			auth.PATCH("/me", requireAuth, authHandler.UpdateCurrentUser)
			auth.POST("/change-password", requireAuth, authHandler.ChangePassword)
		}

		// Workspace routes (protected; :workspaceId routes resolve scope)
		workspaces := api.Group("/workspaces")
		workspaces.Use(requireAuth)
		{
			workspaces.GET("", wsHandler.ListWorkspaces)
			workspaces.POST("", wsHandler.CreateWorkspace)
			workspaces.GET("/:workspaceId", middleware.RequireWorkspace(), wsHandler.GetWorkspace)
			workspaces.GET("/:workspaceId/export", middleware.RequireWorkspace(), wsHandler.ExportWorkspace)
			workspaces.GET("/:workspaceId/analytics", middleware.RequireWorkspace(), wsHandler.WorkspaceAnalytics)
			workspaces.POST("/:workspaceId/members", middleware.RequireWorkspace(), wsHandler.AddMember)
			workspaces.PATCH("/:workspaceId/members/:userId", middleware.RequireWorkspace(), wsHandler.UpdateMemberStatus)
			workspaces.DELETE("/:workspaceId/members/:userId", middleware.RequireWorkspace(), wsHandler.RemoveMember)
		}

		// Self-serve account routes
		me := api.Group("/me")
		me.Use(requireAuth)
		{
			me.GET("/credits", creditHandler.ListCredits)
			me.GET("/credits/balance", creditHandler.GetBalance)
			me.GET("/access-level", creditHandler.GetAccessLevel)
		}

		// Notifications
		notifications := api.Group("/notifications")
		notifications.Use(requireAuth)
		{
			notifications.GET("", notifHandler.ListNotifications)
			notifications.PATCH("/read-all", notifHandler.MarkAllRead)
			notifications.PATCH("/:id/read", notifHandler.MarkRead)
		}

		// Platform administration
		admin := api.Group("/admin")
		admin.Use(requireAuth, middleware.RequireAdmin())
		{
			admin.GET("/users", adminHandler.ListUsers)
			admin.POST("/users", adminHandler.CreateUser)
			admin.GET("/users/:id", adminHandler.GetUser)
			admin.PUT("/users/:id", adminHandler.UpdateUser)
			admin.DELETE("/users/:id", adminHandler.DeleteUser)

			admin.GET("/users/:id/workspaces", adminHandler.ListUserWorkspaces)

			admin.GET("/users/:id/credits", adminHandler.ListUserCredits)
			admin.POST("/users/:id/credits", adminHandler.AddCredit)
			admin.GET("/users/:id/credits/reconcile", adminHandler.ReconcileCredits)
			admin.PUT("/credits/:creditId", adminHandler.UpdateCredit)

			admin.GET("/users/:id/access-level", adminHandler.GetAccessLevel)
			admin.PUT("/users/:id/access-level", adminHandler.UpdateAccessLevel)

			admin.GET("/settings/default-access", adminHandler.GetDefaultAccess)
			admin.PUT("/settings/default-access", adminHandler.UpdateDefaultAccess)

			admin.GET("/analytics", adminHandler.Analytics)
		}
	}

	log.Printf("Starting server on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
