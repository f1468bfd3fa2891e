package api

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/taskhub/taskhub/docs"
	"github.com/taskhub/taskhub/internal/api/handler"
	"github.com/taskhub/taskhub/internal/api/middleware"
	"github.com/taskhub/taskhub/internal/core/ports"
	"github.com/taskhub/taskhub/internal/core/service"
)

// RouterConfig carries everything the router wires together. MongoDB and
// Redis are nil unless the deployment uses them; Limiter nil disables rate
// limiting.
type RouterConfig struct {
	Storage   ports.Storage
	JWTSecret string
	TokenTTL  time.Duration
	Limiter   middleware.Limiter
	MongoDB   *mongo.Database
	Redis     *redis.Client
	Log       zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(cfg RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(cfg.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(correlationID)
	e.Use(echoprometheus.NewMiddleware("taskhub"))

	// --- Dependencies ---
	auditService := service.NewAuditService(cfg.Storage, cfg.Log)
	authService := service.NewAuthService(cfg.Storage, cfg.JWTSecret, cfg.TokenTTL, cfg.Log)
	todoService := service.NewTodoService(cfg.Storage, auditService, cfg.Log)
	orgService := service.NewOrganisationService(cfg.Storage, auditService, cfg.Log)
	impexService := service.NewImportExportService(cfg.Storage, auditService, cfg.Log)
	orgCtx := service.NewOrgContext(cfg.Storage)

	authHandler := handler.NewAuthHandler(authService, cfg.TokenTTL)
	todoHandler := handler.NewTodoHandler(todoService)
	orgHandler := handler.NewOrganisationHandler(orgService)
	auditHandler := handler.NewAuditHandler(auditService)
	impexHandler := handler.NewImportExportHandler(impexService)

	authMW := middleware.Auth(cfg.JWTSecret)
	orgMW := middleware.Organisation(orgCtx)
	adminMW := middleware.RequireOrgAdmin(orgCtx)

	v1 := e.Group("/v1")
	if cfg.Limiter != nil {
		v1.Use(middleware.RateLimit(cfg.Limiter, cfg.Log))
	}

	// --- Auth routes ---
	v1.POST("/auth/register", authHandler.Register)
	v1.POST("/auth/login", authHandler.Login)
	v1.POST("/auth/logout", authHandler.Logout)
	v1.GET("/auth/me", authHandler.Me, authMW)

	// --- Organisation routes ---
	orgs := v1.Group("/organisations", authMW)
	orgs.POST("", orgHandler.Create)
	orgs.GET("", orgHandler.List)
	orgs.GET("/:id", orgHandler.Get, memberOfPathOrg(orgCtx))
	orgs.GET("/:id/members", orgHandler.Members, memberOfPathOrg(orgCtx))
	orgs.POST("/:id/members", orgHandler.AddMember, adminOfPathOrg(orgCtx))
	orgs.PUT("/:id/members/:userId", orgHandler.UpdateMemberRole, adminOfPathOrg(orgCtx))
	orgs.DELETE("/:id/members/:userId", orgHandler.RemoveMember, adminOfPathOrg(orgCtx))

	// --- Todo routes (organisation-scoped via header/query) ---
	todos := v1.Group("/todos", authMW, orgMW)
	todos.GET("", todoHandler.List)
	todos.POST("", todoHandler.Create)
	todos.GET("/export", impexHandler.Export)
	todos.POST("/import", impexHandler.Import)
	todos.GET("/import/template", impexHandler.Template)
	todos.GET("/:id", todoHandler.Get)
	todos.PUT("/:id", todoHandler.Update)
	todos.POST("/:id/toggle", todoHandler.Toggle)
	todos.DELETE("/:id", todoHandler.SoftDelete)
	todos.POST("/:id/restore", todoHandler.Restore)
	todos.DELETE("/:id/hard", todoHandler.HardDelete, adminMW)

	// --- Audit trail (admin only) ---
	v1.GET("/audit", auditHandler.List, authMW, orgMW, adminMW)

	// --- Health probes and operational endpoints (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(cfg.MongoDB, cfg.Redis)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	return e
}

// correlationID copies the request id assigned by the RequestID middleware
// into the request context so audit entries written downstream carry it.
func correlationID(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		rid := c.Response().Header().Get(echo.HeaderXRequestID)
		ctx := service.WithCorrelationID(c.Request().Context(), rid)
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

// memberOfPathOrg gates routes whose organisation comes from the :id path
// segment instead of the X-Organisation-Id header.
func memberOfPathOrg(orgCtx ports.OrganisationContext) echo.MiddlewareFunc {
	return pathOrgGate(orgCtx.IsMember, "not a member of this organisation")
}

func adminOfPathOrg(orgCtx ports.OrganisationContext) echo.MiddlewareFunc {
	return pathOrgGate(orgCtx.IsOrgAdmin, "requires organisation admin role")
}

func pathOrgGate(check func(ctx context.Context, userID, orgID uuid.UUID) (bool, error), denied string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, ok := c.Get("user_id").(uuid.UUID)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
			}
			orgID, err := uuid.Parse(c.Param("id"))
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid organisation id")
			}

			allowed, err := check(c.Request().Context(), userID, orgID)
			if err != nil {
				return err
			}
			if !allowed {
				return echo.NewHTTPError(http.StatusForbidden, denied)
			}

			c.Set("org_id", orgID)
			return next(c)
		}
	}
}
