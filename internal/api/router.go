package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/userhub/user-directory/internal/api/handler"
	"github.com/userhub/user-directory/internal/api/middleware"
	"github.com/userhub/user-directory/internal/core/domain"
	"github.com/userhub/user-directory/internal/core/ports"
	"github.com/userhub/user-directory/internal/core/service"
	"github.com/userhub/user-directory/internal/infrastructure/config"
	mongodb "github.com/userhub/user-directory/internal/infrastructure/db/mongo"
	redisdb "github.com/userhub/user-directory/internal/infrastructure/db/redis"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(db *mongo.Database, rdb *redis.Client, cfg *config.Config, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("userdirectory"))

	// --- Dependencies ---
	users := mongodb.NewUserRepository(db)
	cached := redisdb.NewCachedUserRepository(users, rdb, log)
	creds := service.NewCredentialService(cfg.JWTSecret, cfg.TokenTTL)
	directory := service.NewUserService(cached, creds, log)

	registerUserRoutes(e, directory, creds, cfg.BaseURL+"/api/users")

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)           // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}

// registerUserRoutes attaches the directory operations with their guards.
// Guards compose conjunctively in registration order; any failure stops
// the request before the handler runs.
func registerUserRoutes(e *echo.Echo, directory ports.UserService, creds ports.CredentialService, route string) {
	userHandler := handler.NewUserHandler(directory, route)

	authn := middleware.Auth(creds)
	adminOnly := middleware.RequireRoles(domain.RoleAdmin)
	selfOnly := middleware.RequireSelf()

	g := e.Group("/api/users")
	g.POST("", userHandler.Register)
	g.POST("/login", userHandler.Login)
	g.POST("/email", userHandler.FindByEmail)
	g.GET("", userHandler.List)
	g.GET("/:id", userHandler.Get)
	g.PUT("/:id", userHandler.UpdateProfile, authn, selfOnly)
	g.PUT("/:id/role", userHandler.UpdateRole, authn, adminOnly)
	g.DELETE("/:id", userHandler.Delete, authn, adminOnly)
}
