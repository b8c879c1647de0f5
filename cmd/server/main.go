package main

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/qa-tracker/qa-tracker/internal/config"
	"github.com/qa-tracker/qa-tracker/internal/constants"
	"github.com/qa-tracker/qa-tracker/internal/database"
	"github.com/qa-tracker/qa-tracker/internal/handlers"
	"github.com/qa-tracker/qa-tracker/internal/middleware"
	"github.com/qa-tracker/qa-tracker/internal/policy"
	"github.com/qa-tracker/qa-tracker/internal/repository"
	"github.com/qa-tracker/qa-tracker/internal/services"
	"github.com/qa-tracker/qa-tracker/internal/utils"
)

func main() {
	// Load configuration
	cfg := config.Load()

	log := utils.NewLogger(cfg.GinMode)
	defer log.Sync()

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	if err := database.Connect(cfg, log); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations and seed defaults
	if err := database.Migrate(log); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	if err := database.AddIndexes(database.GetDB(), log); err != nil {
		log.Fatalf("Failed to add indexes: %v", err)
	}
	if err := database.Seed(log); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}

	// Initialize Gin router
	r := gin.Default()

	// Session store: Redis in release mode, cookies otherwise
	isProduction := cfg.GinMode == "release"
	var store sessions.Store
	if isProduction {
		redisAddr := cfg.RedisHost + ":" + cfg.RedisPort
		redis, err := redisStore.NewStore(
			10,        // Redis pool size
			"tcp",     // network type
			redisAddr, // Redis address from config
			"",        // password (empty = no password)
			[]byte(cfg.SessionSecret), // authentication key
		)
		if err != nil {
			log.Fatalf("Failed to create Redis store: %v", err)
		}
		store = redis
	} else {
		store = cookie.NewStore([]byte(cfg.SessionSecret))
	}
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: 2, // SameSite=Lax (1=Strict, 2=Lax, 3=None)
	})
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	// Wire repositories, services, and handlers
	db := database.GetDB()
	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)

	authService := services.NewAuthService(userRepo)
	userService := services.NewUserService(userRepo)
	catalogService := services.NewCatalogService(catalogRepo)
	projectService := services.NewProjectService(projectRepo, catalogService)

	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	catalogHandler := handlers.NewCatalogHandler(catalogService)
	projectHandler := handlers.NewProjectHandler(projectService)
	dashboardHandler := handlers.NewDashboardHandler(userService, projectService)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "QA Tracker API is running",
		})
	})

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", middleware.RequireAuth(), authHandler.GetCurrentUser)
		}

		// Admin user management
		users := api.Group("/users")
		users.Use(middleware.RequireAuth(), middleware.RequireActiveUser(), middleware.RequireRole(policy.RoleAdmin))
		{
			users.GET("", userHandler.List)
			users.POST("/:id/approve", userHandler.Approve)
			users.POST("/:id/reject", userHandler.Reject)
			users.PATCH("/:id", userHandler.Update)
			users.POST("/:id/reset-password", userHandler.ResetPassword)
			users.DELETE("/:id", userHandler.Delete)
		}

		// Catalog routes: anyone active can read, only admins mutate
		catalogs := api.Group("/catalogs")
		catalogs.Use(middleware.RequireAuth(), middleware.RequireActiveUser())
		{
			catalogs.GET("/:name", catalogHandler.List)
			admin := catalogs.Group("")
			admin.Use(middleware.RequireRole(policy.RoleAdmin))
			{
				admin.POST("/:name", catalogHandler.Create)
				admin.POST("/entries/:id/toggle", catalogHandler.Toggle)
				admin.DELETE("/entries/:id", catalogHandler.Delete)
			}
		}

		// Project routes (protected, per-role access inside the service)
		projects := api.Group("/projects")
		projects.Use(middleware.RequireAuth(), middleware.RequireActiveUser())
		{
			projects.GET("", projectHandler.List)
			projects.POST("", middleware.RequireRole(policy.RoleAdmin, policy.RoleSupervisor), projectHandler.Create)
			projects.GET("/:id", middleware.RequireProjectView(), projectHandler.Get)
			projects.PATCH("/:id", projectHandler.Update)
			projects.PATCH("/:id/progress", projectHandler.UpdateProgress)
			projects.DELETE("/:id", projectHandler.Delete)
			projects.GET("/:id/history", middleware.RequireProjectView(), projectHandler.ListHistory)
			projects.GET("/:id/evidences", middleware.RequireProjectView(), projectHandler.ListEvidence)
			projects.POST("/:id/evidences", middleware.RequireProjectView(), projectHandler.AddEvidence)
		}

		// Dashboard
		api.GET("/dashboard", middleware.RequireAuth(), middleware.RequireActiveUser(), dashboardHandler.Summary)
	}

	// Start server
	log.Infof("Server starting on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
