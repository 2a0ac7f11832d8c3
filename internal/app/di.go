// Package app provides dependency injection container for assembling application components.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"

	authDomain "github.com/acm-uiuc/authcore/internal/auth/domain"
	authHTTP "github.com/acm-uiuc/authcore/internal/auth/http"
	authService "github.com/acm-uiuc/authcore/internal/auth/service"
	authUseCase "github.com/acm-uiuc/authcore/internal/auth/usecase"
	"github.com/acm-uiuc/authcore/internal/background"
	"github.com/acm-uiuc/authcore/internal/cache"
	"github.com/acm-uiuc/authcore/internal/config"
	"github.com/acm-uiuc/authcore/internal/database"
	"github.com/acm-uiuc/authcore/internal/http"
	"github.com/acm-uiuc/authcore/internal/metrics"
	"github.com/acm-uiuc/authcore/internal/policy"
	"github.com/acm-uiuc/authcore/internal/secretconfig"
)

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger          *slog.Logger
	db              *sql.DB
	cache           cache.Cache
	taskRunner      *background.TaskRunner
	secretBundle    *secretconfig.Bundle
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	// Managers
	txManager database.TxManager

	// Services
	secretService      authService.SecretService
	apiKeyCodec        authService.APIKeyCodec
	signingKeyProvider authService.SigningKeyProvider
	tokenVerifier      authService.TokenVerifier
	policyEvaluator    *policy.Evaluator

	// Repositories
	apiKeyRepository      authUseCase.APIKeyRepository
	roleMappingRepository authUseCase.RoleMappingRepository
	auditLogRepository    authUseCase.AuditLogRepository

	// Use Cases
	keyStore        authUseCase.KeyStore
	roleResolver    authUseCase.RoleResolver
	sessionUseCase  authUseCase.SessionUseCase
	authorizer      authUseCase.Authorizer
	apiKeyUseCase   authUseCase.APIKeyUseCase
	iamUseCase      authUseCase.IAMUseCase
	auditLogUseCase authUseCase.AuditLogUseCase

	// HTTP Handlers
	apiKeyHandler   *authHTTP.APIKeyHandler
	sessionHandler  *authHTTP.SessionHandler
	iamHandler      *authHTTP.IAMHandler
	auditLogHandler *authHTTP.AuditLogHandler

	// Servers
	httpServer    *http.Server
	metricsServer *http.MetricsServer

	// Initialization flags and mutex for thread-safety
	mu                        sync.Mutex
	loggerInit                sync.Once
	dbInit                    sync.Once
	cacheInit                 sync.Once
	taskRunnerInit            sync.Once
	secretBundleInit          sync.Once
	metricsProviderInit       sync.Once
	businessMetricsInit       sync.Once
	txManagerInit             sync.Once
	secretServiceInit         sync.Once
	apiKeyCodecInit           sync.Once
	signingKeyProviderInit    sync.Once
	tokenVerifierInit         sync.Once
	policyEvaluatorInit       sync.Once
	apiKeyRepositoryInit      sync.Once
	roleMappingRepositoryInit sync.Once
	auditLogRepositoryInit    sync.Once
	keyStoreInit              sync.Once
	roleResolverInit          sync.Once
	sessionUseCaseInit        sync.Once
	authorizerInit            sync.Once
	apiKeyUseCaseInit         sync.Once
	iamUseCaseInit            sync.Once
	auditLogUseCaseInit       sync.Once
	apiKeyHandlerInit         sync.Once
	sessionHandlerInit        sync.Once
	iamHandlerInit            sync.Once
	auditLogHandlerInit       sync.Once
	httpServerInit            sync.Once
	metricsServerInit         sync.Once
	initErrors                map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection.
// It creates and configures the database connection on first access.
func (c *Container) DB() (*sql.DB, error) {
	var err error
	c.dbInit.Do(func() {
		c.db, err = c.initDB()
		if err != nil {
			c.initErrors["db"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["db"]; exists {
		return nil, storedErr
	}
	return c.db, nil
}

// TxManager returns the transaction manager.
// It requires a database connection to be initialized first.
func (c *Container) TxManager() (database.TxManager, error) {
	var err error
	c.txManagerInit.Do(func() {
		c.txManager, err = c.initTxManager()
		if err != nil {
			c.initErrors["txManager"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["txManager"]; exists {
		return nil, storedErr
	}
	return c.txManager, nil
}

// Cache returns the shared TTL cache selected by CACHE_DRIVER.
func (c *Container) Cache() (cache.Cache, error) {
	var err error
	c.cacheInit.Do(func() {
		c.cache, err = c.initCache()
		if err != nil {
			c.initErrors["cache"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["cache"]; exists {
		return nil, storedErr
	}
	return c.cache, nil
}

// TaskRunner returns the runner for cache writes detached from the request.
func (c *Container) TaskRunner() *background.TaskRunner {
	c.taskRunnerInit.Do(func() {
		c.taskRunner = background.NewTaskRunner(c.Logger(), c.config.BackgroundTaskTimeout)
	})
	return c.taskRunner
}

// SecretBundle returns the decrypted secret bundle. JWT_SIGNING_KEY overrides the bundle's
// signing key.
func (c *Container) SecretBundle() (*secretconfig.Bundle, error) {
	var err error
	c.secretBundleInit.Do(func() {
		c.secretBundle, err = c.initSecretBundle()
		if err != nil {
			c.initErrors["secretBundle"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["secretBundle"]; exists {
		return nil, storedErr
	}
	return c.secretBundle, nil
}

// MetricsProvider returns the OpenTelemetry metrics provider, or nil when metrics are
// disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	var err error
	c.metricsProviderInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		c.metricsProvider, err = metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metricsProvider"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the usecase metrics recorder. It is a no-op when metrics are
// disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	var err error
	c.businessMetricsInit.Do(func() {
		c.businessMetrics, err = c.initBusinessMetrics()
		if err != nil {
			c.initErrors["businessMetrics"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["businessMetrics"]; exists {
		return nil, storedErr
	}
	return c.businessMetrics, nil
}

// HTTPServer returns the HTTP server instance.
func (c *Container) HTTPServer() (*http.Server, error) {
	var err error
	c.httpServerInit.Do(func() {
		c.httpServer, err = c.initHTTPServer()
		if err != nil {
			c.initErrors["httpServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["httpServer"]; exists {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// MetricsServer returns the Prometheus metrics server, or nil when metrics are disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	var err error
	c.metricsServerInit.Do(func() {
		c.metricsServer, err = c.initMetricsServer()
		if err != nil {
			c.initErrors["metricsServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	// Pending cache writes must finish before the cache closes
	if c.taskRunner != nil {
		if err := c.taskRunner.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("task runner shutdown: %w", err))
		}
	}

	if c.cache != nil {
		if err := c.cache.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("cache close: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initDB creates and configures the database connection.
func (c *Container) initDB() (*sql.DB, error) {
	db, err := database.Connect(database.Config{
		Driver:             c.config.DBDriver,
		ConnectionString:   c.config.DBConnectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// initTxManager creates the transaction manager using the database connection.
func (c *Container) initTxManager() (database.TxManager, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for tx manager: %w", err)
	}
	return database.NewTxManager(db), nil
}

// initCache creates the cache backend selected by the cache driver.
func (c *Container) initCache() (cache.Cache, error) {
	switch c.config.CacheDriver {
	case "redis":
		client, err := cache.NewRedisClient(context.Background(), c.config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return cache.NewRedisCache(client), nil
	case "memory":
		memoryCache, err := cache.NewMemoryCache(c.config.MemoryCacheMaxItems)
		if err != nil {
			return nil, fmt.Errorf("failed to create memory cache: %w", err)
		}
		return memoryCache, nil
	default:
		return nil, fmt.Errorf("unsupported cache driver: %s", c.config.CacheDriver)
	}
}

// initSecretBundle decrypts the configured bundle and applies the environment override.
func (c *Container) initSecretBundle() (*secretconfig.Bundle, error) {
	bundle, err := secretconfig.Load(
		context.Background(),
		c.config.SecretKeeperURL,
		c.config.SecretBundleCiphertext,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load secret bundle: %w", err)
	}
	if c.config.JWTSigningKey != "" {
		bundle.JWTKey = c.config.JWTSigningKey
	}
	return bundle, nil
}

// initBusinessMetrics creates the business metrics recorder on the metrics provider.
func (c *Container) initBusinessMetrics() (metrics.BusinessMetrics, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for business metrics: %w", err)
	}
	if provider == nil {
		return metrics.NewNoOpBusinessMetrics(), nil
	}
	return metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
}

// initHTTPServer creates the HTTP server and registers every route.
func (c *Container) initHTTPServer() (*http.Server, error) {
	logger := c.Logger()

	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for http server: %w", err)
	}

	authorizer, err := c.Authorizer()
	if err != nil {
		return nil, fmt.Errorf("failed to get authorizer for http server: %w", err)
	}

	apiKeyHandler, err := c.APIKeyHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get api key handler for http server: %w", err)
	}

	sessionHandler, err := c.SessionHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get session handler for http server: %w", err)
	}

	iamHandler, err := c.IAMHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get iam handler for http server: %w", err)
	}

	auditLogHandler, err := c.AuditLogHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit log handler for http server: %w", err)
	}

	metricsProvider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for http server: %w", err)
	}

	server := http.NewServer(db, c.config.ServerHost, c.config.ServerPort, logger)
	server.SetupRouter(
		c.config,
		authorizer,
		c.PolicyEvaluator(),
		apiKeyHandler,
		sessionHandler,
		iamHandler,
		auditLogHandler,
		metricsProvider,
	)

	return server, nil
}

// initMetricsServer creates the metrics server when metrics are enabled.
func (c *Container) initMetricsServer() (*http.MetricsServer, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for metrics server: %w", err)
	}
	if provider == nil {
		return nil, nil
	}
	return http.NewMetricsServer(c.config.ServerHost, c.config.MetricsPort, c.Logger(), provider), nil
}

// nativeRoleMapping converts the configured app role mapping to application roles.
func (c *Container) nativeRoleMapping() (map[string][]authDomain.Role, error) {
	mapping := make(map[string][]authDomain.Role, len(c.config.AzureRoleMapping))
	for appRole, names := range c.config.AzureRoleMapping {
		roles := make([]authDomain.Role, 0, len(names))
		for _, name := range names {
			role := authDomain.Role(name)
			if !role.IsValid() {
				return nil, fmt.Errorf("role mapping for %q has unknown role %q", appRole, name)
			}
			roles = append(roles, role)
		}
		mapping[appRole] = roles
	}
	return mapping, nil
}
