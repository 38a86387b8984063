package main

import (
	"log"

	"clinicdesk/internal/config"
	"clinicdesk/internal/database"
	"clinicdesk/internal/domain"
	"clinicdesk/internal/middleware"
	"clinicdesk/internal/modules/admin"
	"clinicdesk/internal/modules/auth"
	"clinicdesk/internal/modules/directory"
	jwtsvc "clinicdesk/internal/pkg/jwt"
	"clinicdesk/internal/pkg/metrics"
	"clinicdesk/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	if err := db.AutoMigrate(&domain.User{}, &domain.RefreshToken{}); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	metrics.Init()

	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewRefreshTokenRepository(db)

	jwtService := jwtsvc.New(cfg.JWTSecret, cfg.AccessTokenTTL)

	authService := auth.NewService(userRepo, tokenRepo, jwtService, cfg.RefreshTokenPepper, cfg.RefreshTokenTTL)
	authHandler := auth.NewHandler(authService, auth.CookieConfig{
		Secure:   cfg.CookieSecure,
		SameSite: cfg.CookieSameSite,
		Path:     cfg.CookiePath,
		MaxAge:   cfg.RefreshTokenTTL,
	})

	adminService := admin.NewService(userRepo, tokenRepo)
	adminHandler := admin.NewHandler(adminService)

	directoryHandler := directory.NewHandler(userRepo)

	r := gin.New()
	r.Use(middleware.ErrorLogger())
	r.Use(middleware.CORS())
	r.Use(middleware.Metrics())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := r.Group("/api/v1")
	{
		loginLimiter := middleware.RateLimit(cfg.LoginRatePerSecond, cfg.LoginRateBurst)
		authHandler.RegisterPublicRoutes(v1, loginLimiter)

		protected := v1.Group("")
		protected.Use(middleware.JWTAuth(jwtService))
		{
			authHandler.RegisterProtectedRoutes(protected)
			adminHandler.RegisterRoutes(protected)
			directoryHandler.RegisterRoutes(protected)
		}
	}

	log.Printf("listening on %s (env=%s)", cfg.Addr, cfg.AppEnv)
	if err := r.Run(cfg.Addr); err != nil {
		log.Fatal(err)
	}
}
