// Package http provides the HTTP server, router and shared gin middleware.
package http

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	authDomain "github.com/acm-uiuc/authcore/internal/auth/domain"
	authHTTP "github.com/acm-uiuc/authcore/internal/auth/http"
	authUseCase "github.com/acm-uiuc/authcore/internal/auth/usecase"
	"github.com/acm-uiuc/authcore/internal/config"
	"github.com/acm-uiuc/authcore/internal/metrics"
)

// The protected route is limited per client IP to 15 requests per 30 seconds.
const (
	protectedRateLimitPerSec = 15.0 / 30.0
	protectedRateLimitBurst  = 15
)

// Server represents the HTTP server.
type Server struct {
	db     *sql.DB
	server *http.Server
	router *gin.Engine
	logger *slog.Logger
}

// NewServer creates a new HTTP server. SetupRouter must be called before Start.
func NewServer(
	db *sql.DB,
	host string,
	port int,
	logger *slog.Logger,
) *Server {
	return &Server{
		db:     db,
		logger: logger,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", host, port),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// SetupRouter builds the gin engine with every route and its authorization requirements.
func (s *Server) SetupRouter(
	cfg *config.Config,
	authorizer authUseCase.Authorizer,
	policyEvaluator authHTTP.PolicyEvaluator,
	apiKeyHandler *authHTTP.APIKeyHandler,
	sessionHandler *authHTTP.SessionHandler,
	iamHandler *authHTTP.IAMHandler,
	auditLogHandler *authHTTP.AuditLogHandler,
	metricsProvider *metrics.Provider,
) {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	if metricsProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(metricsProvider.MeterProvider(), cfg.MetricsNamespace))
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	// authorized returns the gate for a route followed by its policy restrictions.
	authorized := func(route authHTTP.RouteAuth) []gin.HandlerFunc {
		return []gin.HandlerFunc{
			authHTTP.AuthorizeMiddleware(authorizer, route, s.logger),
			authHTTP.PolicyMiddleware(policyEvaluator, s.logger),
		}
	}

	v1 := router.Group("/api/v1")
	{
		protected := v1.Group("/protected")
		protected.Use(authHTTP.IPRateLimitMiddleware(protectedRateLimitPerSec, protectedRateLimitBurst, s.logger))
		protected.Use(authorized(authHTTP.RouteAuth{})...)
		protected.GET("", sessionHandler.ProtectedHandler)

		clearSession := v1.Group("/clearSession")
		if cfg.RateLimitSessionEnabled {
			clearSession.Use(authHTTP.IPRateLimitMiddleware(
				cfg.RateLimitSessionRequestsPerSec,
				cfg.RateLimitSessionBurst,
				s.logger,
			))
		}
		clearSession.Use(authorized(authHTTP.RouteAuth{})...)
		clearSession.POST("", sessionHandler.ClearSessionHandler)

		apiKeys := v1.Group("/apiKey/org")
		apiKeys.Use(authorized(authHTTP.RouteAuth{
			RequiredRoles:     []authDomain.Role{authDomain.RoleManageOrgAPIKeys},
			DisableAPIKeyAuth: true,
		})...)
		if cfg.RateLimitEnabled {
			apiKeys.Use(authHTTP.RateLimitMiddleware(cfg.RateLimitRequestsPerSec, cfg.RateLimitBurst, s.logger))
		}
		{
			apiKeys.POST("", apiKeyHandler.CreateHandler)
			apiKeys.GET("", apiKeyHandler.ListHandler)
			apiKeys.DELETE("/:keyId", apiKeyHandler.DeleteHandler)
		}

		iam := v1.Group("/iam")
		iam.Use(authorized(authHTTP.RouteAuth{
			RequiredRoles: []authDomain.Role{authDomain.RoleIAMAdmin},
		})...)
		{
			iam.GET("/groups/:groupId/roles", iamHandler.GetGroupRolesHandler)
			iam.PUT("/groups/:groupId/roles", iamHandler.SetGroupRolesHandler)
			iam.GET("/users/:userEmail/roles", iamHandler.GetUserRolesHandler)
			iam.PUT("/users/:userEmail/roles", iamHandler.SetUserRolesHandler)
		}

		auditLogs := v1.Group("/auditLog")
		auditLogs.Use(authorized(authHTTP.RouteAuth{
			RequiredRoles: []authDomain.Role{authDomain.RoleAuditLogViewer},
		})...)
		auditLogs.GET("", auditLogHandler.ListHandler)
	}

	s.router = router
}

// Handler returns the configured router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start(ctx context.Context) error {
	if s.router == nil {
		return fmt.Errorf("router is not configured")
	}
	s.server.Handler = s.router

	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}

// healthHandler reports liveness.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports readiness by pinging the database.
func (s *Server) readinessHandler(c *gin.Context) {
	database := "ok"
	if s.db == nil {
		database = "error"
	} else {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.PingContext(ctx); err != nil {
			s.logger.Warn("readiness check failed", slog.Any("error", err))
			database = "error"
		}
	}

	status, code := "ready", http.StatusOK
	if database != "ok" {
		status, code = "not_ready", http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":     status,
		"components": gin.H{"database": database},
	})
}
