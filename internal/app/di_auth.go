package app

import (
	"fmt"

	authDomain "github.com/acm-uiuc/authcore/internal/auth/domain"
	authHTTP "github.com/acm-uiuc/authcore/internal/auth/http"
	authRepository "github.com/acm-uiuc/authcore/internal/auth/repository"
	authService "github.com/acm-uiuc/authcore/internal/auth/service"
	authUseCase "github.com/acm-uiuc/authcore/internal/auth/usecase"
	"github.com/acm-uiuc/authcore/internal/policy"
)

// SecretService returns the argon2id hashing service for API key secrets.
func (c *Container) SecretService() authService.SecretService {
	c.secretServiceInit.Do(func() {
		c.secretService = authService.NewSecretService()
	})
	return c.secretService
}

// APIKeyCodec returns the API key generator and verifier.
func (c *Container) APIKeyCodec() authService.APIKeyCodec {
	c.apiKeyCodecInit.Do(func() {
		c.apiKeyCodec = authService.NewAPIKeyCodec(c.SecretService())
	})
	return c.apiKeyCodec
}

// PolicyEvaluator returns the evaluator over the built-in policy registry.
func (c *Container) PolicyEvaluator() *policy.Evaluator {
	c.policyEvaluatorInit.Do(func() {
		c.policyEvaluator = policy.NewEvaluator(policy.DefaultRegistry(), c.Logger())
	})
	return c.policyEvaluator
}

// SigningKeyProvider returns the JWKS-backed identity provider key resolver.
func (c *Container) SigningKeyProvider() (authService.SigningKeyProvider, error) {
	var err error
	c.signingKeyProviderInit.Do(func() {
		c.signingKeyProvider, err = c.initSigningKeyProvider()
		if err != nil {
			c.initErrors["signingKeyProvider"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["signingKeyProvider"]; exists {
		return nil, storedErr
	}
	return c.signingKeyProvider, nil
}

// TokenVerifier returns the bearer token verifier.
func (c *Container) TokenVerifier() (authService.TokenVerifier, error) {
	var err error
	c.tokenVerifierInit.Do(func() {
		c.tokenVerifier, err = c.initTokenVerifier()
		if err != nil {
			c.initErrors["tokenVerifier"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["tokenVerifier"]; exists {
		return nil, storedErr
	}
	return c.tokenVerifier, nil
}

// APIKeyRepository returns the API key repository based on database driver.
func (c *Container) APIKeyRepository() (authUseCase.APIKeyRepository, error) {
	var err error
	c.apiKeyRepositoryInit.Do(func() {
		c.apiKeyRepository, err = c.initAPIKeyRepository()
		if err != nil {
			c.initErrors["apiKeyRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["apiKeyRepository"]; exists {
		return nil, storedErr
	}
	return c.apiKeyRepository, nil
}

// RoleMappingRepository returns the group and user role repository based on database driver.
func (c *Container) RoleMappingRepository() (authUseCase.RoleMappingRepository, error) {
	var err error
	c.roleMappingRepositoryInit.Do(func() {
		c.roleMappingRepository, err = c.initRoleMappingRepository()
		if err != nil {
			c.initErrors["roleMappingRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["roleMappingRepository"]; exists {
		return nil, storedErr
	}
	return c.roleMappingRepository, nil
}

// AuditLogRepository returns the audit log repository based on database driver.
func (c *Container) AuditLogRepository() (authUseCase.AuditLogRepository, error) {
	var err error
	c.auditLogRepositoryInit.Do(func() {
		c.auditLogRepository, err = c.initAuditLogRepository()
		if err != nil {
			c.initErrors["auditLogRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["auditLogRepository"]; exists {
		return nil, storedErr
	}
	return c.auditLogRepository, nil
}

// KeyStore returns the cached API key lookup.
func (c *Container) KeyStore() (authUseCase.KeyStore, error) {
	var err error
	c.keyStoreInit.Do(func() {
		c.keyStore, err = c.initKeyStore()
		if err != nil {
			c.initErrors["keyStore"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["keyStore"]; exists {
		return nil, storedErr
	}
	return c.keyStore, nil
}

// RoleResolver returns the cached role resolver.
func (c *Container) RoleResolver() (authUseCase.RoleResolver, error) {
	var err error
	c.roleResolverInit.Do(func() {
		c.roleResolver, err = c.initRoleResolver()
		if err != nil {
			c.initErrors["roleResolver"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["roleResolver"]; exists {
		return nil, storedErr
	}
	return c.roleResolver, nil
}

// SessionUseCase returns the session use case.
func (c *Container) SessionUseCase() (authUseCase.SessionUseCase, error) {
	var err error
	c.sessionUseCaseInit.Do(func() {
		c.sessionUseCase, err = c.initSessionUseCase()
		if err != nil {
			c.initErrors["sessionUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["sessionUseCase"]; exists {
		return nil, storedErr
	}
	return c.sessionUseCase, nil
}

// Authorizer returns the request authorization gate.
func (c *Container) Authorizer() (authUseCase.Authorizer, error) {
	var err error
	c.authorizerInit.Do(func() {
		c.authorizer, err = c.initAuthorizer()
		if err != nil {
			c.initErrors["authorizer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["authorizer"]; exists {
		return nil, storedErr
	}
	return c.authorizer, nil
}

// APIKeyUseCase returns the API key use case.
func (c *Container) APIKeyUseCase() (authUseCase.APIKeyUseCase, error) {
	var err error
	c.apiKeyUseCaseInit.Do(func() {
		c.apiKeyUseCase, err = c.initAPIKeyUseCase()
		if err != nil {
			c.initErrors["apiKeyUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["apiKeyUseCase"]; exists {
		return nil, storedErr
	}
	return c.apiKeyUseCase, nil
}

// IAMUseCase returns the role mapping administration use case.
func (c *Container) IAMUseCase() (authUseCase.IAMUseCase, error) {
	var err error
	c.iamUseCaseInit.Do(func() {
		c.iamUseCase, err = c.initIAMUseCase()
		if err != nil {
			c.initErrors["iamUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["iamUseCase"]; exists {
		return nil, storedErr
	}
	return c.iamUseCase, nil
}

// AuditLogUseCase returns the audit log use case.
func (c *Container) AuditLogUseCase() (authUseCase.AuditLogUseCase, error) {
	var err error
	c.auditLogUseCaseInit.Do(func() {
		c.auditLogUseCase, err = c.initAuditLogUseCase()
		if err != nil {
			c.initErrors["auditLogUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["auditLogUseCase"]; exists {
		return nil, storedErr
	}
	return c.auditLogUseCase, nil
}

// APIKeyHandler returns the HTTP handler for API key management.
func (c *Container) APIKeyHandler() (*authHTTP.APIKeyHandler, error) {
	var err error
	c.apiKeyHandlerInit.Do(func() {
		var useCase authUseCase.APIKeyUseCase
		useCase, err = c.APIKeyUseCase()
		if err != nil {
			err = fmt.Errorf("failed to get api key use case for api key handler: %w", err)
			c.initErrors["apiKeyHandler"] = err
			return
		}
		c.apiKeyHandler = authHTTP.NewAPIKeyHandler(useCase, c.Logger())
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["apiKeyHandler"]; exists {
		return nil, storedErr
	}
	return c.apiKeyHandler, nil
}

// SessionHandler returns the HTTP handler for the protected and clearSession routes.
func (c *Container) SessionHandler() (*authHTTP.SessionHandler, error) {
	var err error
	c.sessionHandlerInit.Do(func() {
		var useCase authUseCase.SessionUseCase
		useCase, err = c.SessionUseCase()
		if err != nil {
			err = fmt.Errorf("failed to get session use case for session handler: %w", err)
			c.initErrors["sessionHandler"] = err
			return
		}
		c.sessionHandler = authHTTP.NewSessionHandler(useCase, c.Logger())
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["sessionHandler"]; exists {
		return nil, storedErr
	}
	return c.sessionHandler, nil
}

// IAMHandler returns the HTTP handler for role mapping administration.
func (c *Container) IAMHandler() (*authHTTP.IAMHandler, error) {
	var err error
	c.iamHandlerInit.Do(func() {
		var useCase authUseCase.IAMUseCase
		useCase, err = c.IAMUseCase()
		if err != nil {
			err = fmt.Errorf("failed to get iam use case for iam handler: %w", err)
			c.initErrors["iamHandler"] = err
			return
		}
		c.iamHandler = authHTTP.NewIAMHandler(useCase, c.Logger())
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["iamHandler"]; exists {
		return nil, storedErr
	}
	return c.iamHandler, nil
}

// AuditLogHandler returns the HTTP handler for audit log operations.
func (c *Container) AuditLogHandler() (*authHTTP.AuditLogHandler, error) {
	var err error
	c.auditLogHandlerInit.Do(func() {
		var useCase authUseCase.AuditLogUseCase
		useCase, err = c.AuditLogUseCase()
		if err != nil {
			err = fmt.Errorf("failed to get audit log use case for audit log handler: %w", err)
			c.initErrors["auditLogHandler"] = err
			return
		}
		c.auditLogHandler = authHTTP.NewAuditLogHandler(useCase, c.Logger())
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["auditLogHandler"]; exists {
		return nil, storedErr
	}
	return c.auditLogHandler, nil
}

// initSigningKeyProvider creates the JWKS key provider on the shared cache.
func (c *Container) initSigningKeyProvider() (authService.SigningKeyProvider, error) {
	sharedCache, err := c.Cache()
	if err != nil {
		return nil, fmt.Errorf("failed to get cache for signing key provider: %w", err)
	}

	return authService.NewJWKSKeyProvider(authService.JWKSConfig{
		URL:          c.config.JWKSURL,
		FetchTimeout: c.config.JWKSFetchTimeout,
		CacheTTL:     c.config.JWKSCacheTTL,
	}, nil, sharedCache, c.Logger()), nil
}

// initTokenVerifier creates the token verifier with the local signing key from the secret
// bundle.
func (c *Container) initTokenVerifier() (authService.TokenVerifier, error) {
	keys, err := c.SigningKeyProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get signing key provider for token verifier: %w", err)
	}

	bundle, err := c.SecretBundle()
	if err != nil {
		return nil, fmt.Errorf("failed to get secret bundle for token verifier: %w", err)
	}

	return authService.NewTokenVerifier(authService.TokenVerifierConfig{
		RunEnvironment:  authDomain.RunEnvironment(c.config.RunEnvironment),
		ClientID:        c.config.AADValidClientID,
		LocalSigningKey: bundle.JWTKey,
	}, keys, c.Logger()), nil
}

// initAPIKeyRepository creates the API key repository based on the database driver.
func (c *Container) initAPIKeyRepository() (authUseCase.APIKeyRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for api key repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return authRepository.NewMySQLAPIKeyRepository(db), nil
	case "postgres":
		return authRepository.NewPostgreSQLAPIKeyRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initRoleMappingRepository creates the role mapping repository based on the database driver.
func (c *Container) initRoleMappingRepository() (authUseCase.RoleMappingRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for role mapping repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return authRepository.NewMySQLRoleMappingRepository(db), nil
	case "postgres":
		return authRepository.NewPostgreSQLRoleMappingRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initAuditLogRepository creates the audit log repository based on the database driver.
func (c *Container) initAuditLogRepository() (authUseCase.AuditLogRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for audit log repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return authRepository.NewMySQLAuditLogRepository(db), nil
	case "postgres":
		return authRepository.NewPostgreSQLAuditLogRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initKeyStore creates the key store on the API key repository and shared cache.
func (c *Container) initKeyStore() (authUseCase.KeyStore, error) {
	repo, err := c.APIKeyRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get api key repository for key store: %w", err)
	}

	sharedCache, err := c.Cache()
	if err != nil {
		return nil, fmt.Errorf("failed to get cache for key store: %w", err)
	}

	return authUseCase.NewKeyStore(
		authUseCase.KeyStoreConfig{CacheTTL: c.config.APIKeyCacheTTL},
		repo,
		sharedCache,
		c.TaskRunner(),
		c.Logger(),
	), nil
}

// initRoleResolver creates the role resolver with the configured app role mapping.
func (c *Container) initRoleResolver() (authUseCase.RoleResolver, error) {
	repo, err := c.RoleMappingRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get role mapping repository for role resolver: %w", err)
	}

	sharedCache, err := c.Cache()
	if err != nil {
		return nil, fmt.Errorf("failed to get cache for role resolver: %w", err)
	}

	nativeMapping, err := c.nativeRoleMapping()
	if err != nil {
		return nil, err
	}

	return authUseCase.NewRoleResolver(
		authUseCase.RoleResolverConfig{
			CacheTTL:          c.config.RoleCacheTTL,
			NativeRoleMapping: nativeMapping,
		},
		repo,
		sharedCache,
		c.TaskRunner(),
		c.Logger(),
	), nil
}

// initSessionUseCase creates the session use case.
func (c *Container) initSessionUseCase() (authUseCase.SessionUseCase, error) {
	sharedCache, err := c.Cache()
	if err != nil {
		return nil, fmt.Errorf("failed to get cache for session use case: %w", err)
	}

	resolver, err := c.RoleResolver()
	if err != nil {
		return nil, fmt.Errorf("failed to get role resolver for session use case: %w", err)
	}

	return authUseCase.NewSessionUseCase(sharedCache, resolver, c.Logger()), nil
}

// initAuthorizer creates the authorization gate with all its dependencies.
func (c *Container) initAuthorizer() (authUseCase.Authorizer, error) {
	keys, err := c.KeyStore()
	if err != nil {
		return nil, fmt.Errorf("failed to get key store for authorizer: %w", err)
	}

	verifier, err := c.TokenVerifier()
	if err != nil {
		return nil, fmt.Errorf("failed to get token verifier for authorizer: %w", err)
	}

	resolver, err := c.RoleResolver()
	if err != nil {
		return nil, fmt.Errorf("failed to get role resolver for authorizer: %w", err)
	}

	sessions, err := c.SessionUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get session use case for authorizer: %w", err)
	}

	baseAuthorizer := authUseCase.NewAuthorizer(c.APIKeyCodec(), keys, verifier, resolver, sessions, c.Logger())

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for authorizer: %w", err)
		}
		return authUseCase.NewAuthorizerWithMetrics(baseAuthorizer, businessMetrics), nil
	}

	return baseAuthorizer, nil
}

// initAPIKeyUseCase creates the API key use case with all its dependencies.
func (c *Container) initAPIKeyUseCase() (authUseCase.APIKeyUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for api key use case: %w", err)
	}

	apiKeyRepo, err := c.APIKeyRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get api key repository for api key use case: %w", err)
	}

	auditLogRepo, err := c.AuditLogRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit log repository for api key use case: %w", err)
	}

	keys, err := c.KeyStore()
	if err != nil {
		return nil, fmt.Errorf("failed to get key store for api key use case: %w", err)
	}

	baseUseCase := authUseCase.NewAPIKeyUseCase(
		txManager,
		apiKeyRepo,
		auditLogRepo,
		c.APIKeyCodec(),
		keys,
		c.Logger(),
	)

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for api key use case: %w", err)
		}
		return authUseCase.NewAPIKeyUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

// initIAMUseCase creates the IAM use case with all its dependencies.
func (c *Container) initIAMUseCase() (authUseCase.IAMUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for iam use case: %w", err)
	}

	roleRepo, err := c.RoleMappingRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get role mapping repository for iam use case: %w", err)
	}

	auditLogRepo, err := c.AuditLogRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit log repository for iam use case: %w", err)
	}

	resolver, err := c.RoleResolver()
	if err != nil {
		return nil, fmt.Errorf("failed to get role resolver for iam use case: %w", err)
	}

	baseUseCase := authUseCase.NewIAMUseCase(txManager, roleRepo, auditLogRepo, resolver, c.Logger())

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for iam use case: %w", err)
		}
		return authUseCase.NewIAMUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

// initAuditLogUseCase creates the audit log use case.
func (c *Container) initAuditLogUseCase() (authUseCase.AuditLogUseCase, error) {
	auditLogRepo, err := c.AuditLogRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit log repository for audit log use case: %w", err)
	}
	return authUseCase.NewAuditLogUseCase(auditLogRepo), nil
}
