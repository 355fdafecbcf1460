package main

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"astraldraft-backend/auth-service/handlers"
	"astraldraft-backend/auth-service/middleware"
	"astraldraft-backend/auth-service/services"
	"astraldraft-backend/shared/config"
	"astraldraft-backend/shared/database"
	utils "astraldraft-backend/shared/utils/auth"
	"astraldraft-backend/shared/utils/cache"

	_ "astraldraft-backend/docs"
)

// @title Astral Draft Auth API
// @version 1.0
// @description Authentication and session security service for Astral Draft.
// @BasePath /
func main() {
	// Load configuration
	config.LoadConfig()
	cfg := config.GetConfig()

	// Initialize database
	if err := database.InitDatabase(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.CloseDatabase()

	// Repositories
	db := database.GetDB()
	userRepo := database.NewUserRepository(db)
	sessionRepo := database.NewSessionRepository(db)
	attemptRepo := database.NewLoginAttemptRepository(db)

	// Lockout store: Redis when available so lockouts survive restarts,
	// in-memory otherwise.
	var lockoutStore utils.LockoutStore
	if cfg.RedisEnabled {
		if err := cache.InitCacheManager(); err != nil {
			log.Printf("⚠️ Redis unavailable, falling back to in-memory lockout store: %v", err)
			lockoutStore = utils.NewMemoryLockoutStore(10 * time.Minute)
		} else {
			lockoutStore = cache.NewRedisLockoutStore(cache.GetCacheManager())
			defer cache.GetCacheManager().Close()
		}
	} else {
		lockoutStore = utils.NewMemoryLockoutStore(10 * time.Minute)
	}

	lockoutTracker := utils.NewLockoutTracker(lockoutStore, utils.LockoutConfig{
		MaxFailures:  cfg.LockoutMaxFailures,
		Window:       cfg.LockoutWindow(),
		BaseDuration: cfg.LockoutBaseDuration(),
		BackoffCap:   cfg.LockoutBackoffCap,
	})

	// Avatar storage is optional; the service stays up without it.
	avatarService, err := services.NewAvatarService()
	if err != nil {
		log.Printf("⚠️ Avatar storage unavailable: %v", err)
		avatarService = nil
	}

	eventHub := services.GetEventHub()
	cookieManager := middleware.NewCookieManager(cfg)

	// Handlers
	authHandler := handlers.NewAuthHandler(userRepo, sessionRepo, attemptRepo, lockoutTracker, cookieManager, eventHub)
	profileHandler := handlers.NewProfileHandler(userRepo, sessionRepo, avatarService, eventHub)
	sessionHandler := handlers.NewSessionHandler(sessionRepo, attemptRepo, eventHub)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(userRepo, sessionRepo, cfg.FingerprintIncludeIP)
	csrfMiddleware := middleware.NewCSRFMiddleware(middleware.DefaultCSRFExemptions())

	rateLimiter := middleware.NewRateLimiter(30 * time.Minute)
	generalConfig := middleware.RateLimitConfig{
		MaxRequests:   cfg.RateLimitMaxRequests,
		TimeWindow:    time.Duration(cfg.RateLimitTimeWindowSeconds) * time.Second,
		BlockDuration: time.Duration(cfg.RateLimitBlockDurationMinutes) * time.Minute,
	}
	loginConfig := middleware.RateLimitConfig{
		MaxRequests:   cfg.LoginRateLimitMaxAttempts,
		TimeWindow:    time.Duration(cfg.LoginRateLimitWindowSeconds) * time.Second,
		BlockDuration: time.Duration(cfg.LoginRateLimitBlockMinutes) * time.Minute,
	}
	registerConfig := middleware.RateLimitConfig{
		MaxRequests:   cfg.RegisterRateLimitMaxAttempts,
		TimeWindow:    time.Duration(cfg.RegisterRateLimitWindowHours) * time.Hour,
		BlockDuration: time.Duration(cfg.RegisterRateLimitBlockHours) * time.Hour,
	}

	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.CSRFHeaderName},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Public auth endpoints. All are listed in the CSRF exemption table;
	// no session exists yet to anchor a token.
	router.POST("/api/auth/register", rateLimiter.RegistrationRateLimitMiddleware(registerConfig), authHandler.Register)
	router.POST("/api/auth/login", rateLimiter.LoginRateLimitMiddleware(loginConfig), authHandler.Login)
	router.POST("/api/auth/refresh", rateLimiter.RateLimitMiddleware(generalConfig), authHandler.Refresh)
	router.POST("/api/auth/logout", authHandler.Logout)
	router.GET("/api/auth/status", authMiddleware.OptionalAuth(), authHandler.Status)

	// Protected endpoints. The CSRF guard sits after the auth middleware
	// because it reads the session secret off the context.
	protected := router.Group("/", authMiddleware.RequireAuth(), csrfMiddleware.Guard())
	protected.GET("/api/auth/csrf", authHandler.CSRFToken)

	// Profile endpoints
	protected.GET("/api/auth/profile", profileHandler.GetProfile)
	protected.PUT("/api/auth/profile", profileHandler.UpdateProfile)
	protected.POST("/api/auth/change-password", profileHandler.ChangePassword)
	protected.POST("/api/auth/profile/avatar", profileHandler.UploadAvatar)

	// Session management endpoints
	protected.GET("/api/auth/sessions", sessionHandler.ListSessions)
	protected.DELETE("/api/auth/sessions/:id", sessionHandler.TerminateSession)
	protected.DELETE("/api/auth/sessions", sessionHandler.TerminateAllSessions)
	protected.POST("/api/auth/sessions/terminate-all", sessionHandler.TerminateAllSessions)
	protected.GET("/api/auth/login-history", sessionHandler.GetLoginHistory)

	// Security event stream
	protected.GET("/api/auth/ws", authHandler.Events)

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "auth",
		})
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	port := strings.Split(cfg.AuthServiceURL, ":")[2]
	log.Printf("Auth Service starting on port %s...", port)
	router.Run(":" + port)
}
