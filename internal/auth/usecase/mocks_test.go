package usecase

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	authDomain "github.com/acm-uiuc/authcore/internal/auth/domain"
	authService "github.com/acm-uiuc/authcore/internal/auth/service"
	"github.com/acm-uiuc/authcore/internal/cache"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockAPIKeyRepository is a mock implementation of APIKeyRepository for testing.
type mockAPIKeyRepository struct {
	mock.Mock
}

func (m *mockAPIKeyRepository) Create(ctx context.Context, key *authDomain.APIKey) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *mockAPIKeyRepository) Get(ctx context.Context, keyID string) (*authDomain.APIKey, error) {
	args := m.Called(ctx, keyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.APIKey), args.Error(1)
}

func (m *mockAPIKeyRepository) Delete(ctx context.Context, keyID string) error {
	args := m.Called(ctx, keyID)
	return args.Error(0)
}

func (m *mockAPIKeyRepository) List(ctx context.Context, offset, limit int) ([]*authDomain.APIKey, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*authDomain.APIKey), args.Error(1)
}

func (m *mockAPIKeyRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

// mockRoleMappingRepository is a mock implementation of RoleMappingRepository for testing.
type mockRoleMappingRepository struct {
	mock.Mock
}

func (m *mockRoleMappingRepository) GetGroupRoles(ctx context.Context, groupID string) ([]string, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockRoleMappingRepository) GetUserRoles(ctx context.Context, userEmail string) ([]string, error) {
	args := m.Called(ctx, userEmail)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockRoleMappingRepository) SetGroupRoles(ctx context.Context, groupID string, roles []string) error {
	args := m.Called(ctx, groupID, roles)
	return args.Error(0)
}

func (m *mockRoleMappingRepository) SetUserRoles(ctx context.Context, userEmail string, roles []string) error {
	args := m.Called(ctx, userEmail, roles)
	return args.Error(0)
}

// mockAuditLogRepository is a mock implementation of AuditLogRepository for testing.
type mockAuditLogRepository struct {
	mock.Mock
}

func (m *mockAuditLogRepository) Create(ctx context.Context, auditLog *authDomain.AuditLog) error {
	args := m.Called(ctx, auditLog)
	return args.Error(0)
}

func (m *mockAuditLogRepository) List(
	ctx context.Context,
	module string,
	offset, limit int,
) ([]*authDomain.AuditLog, error) {
	args := m.Called(ctx, module, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*authDomain.AuditLog), args.Error(1)
}

func (m *mockAuditLogRepository) DeleteOlderThan(
	ctx context.Context,
	olderThan time.Time,
	dryRun bool,
) (int64, error) {
	args := m.Called(ctx, olderThan, dryRun)
	return args.Get(0).(int64), args.Error(1)
}

// mockAPIKeyCodec is a mock implementation of service.APIKeyCodec for testing.
type mockAPIKeyCodec struct {
	mock.Mock
}

func (m *mockAPIKeyCodec) Generate() (*authService.GeneratedAPIKey, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authService.GeneratedAPIKey), args.Error(1)
}

func (m *mockAPIKeyCodec) Decompose(fullKey string) (*authDomain.DecomposedAPIKey, error) {
	args := m.Called(fullKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.DecomposedAPIKey), args.Error(1)
}

func (m *mockAPIKeyCodec) Verify(fullKey string, storedHash string) (bool, error) {
	args := m.Called(fullKey, storedHash)
	return args.Bool(0), args.Error(1)
}

// mockTokenVerifier is a mock implementation of service.TokenVerifier for testing.
type mockTokenVerifier struct {
	mock.Mock
}

func (m *mockTokenVerifier) Verify(ctx context.Context, rawToken string) (authDomain.Claims, error) {
	args := m.Called(ctx, rawToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(authDomain.Claims), args.Error(1)
}

// mockKeyStore is a mock implementation of KeyStore for testing.
type mockKeyStore struct {
	mock.Mock
}

func (m *mockKeyStore) Fetch(ctx context.Context, keyID string) (*authDomain.APIKey, error) {
	args := m.Called(ctx, keyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.APIKey), args.Error(1)
}

func (m *mockKeyStore) Evict(ctx context.Context, keyID string) error {
	args := m.Called(ctx, keyID)
	return args.Error(0)
}

// mockRoleResolver is a mock implementation of RoleResolver for testing.
type mockRoleResolver struct {
	mock.Mock
}

func (m *mockRoleResolver) Resolve(ctx context.Context, claims authDomain.Claims) (authDomain.RoleSet, error) {
	args := m.Called(ctx, claims)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(authDomain.RoleSet), args.Error(1)
}

func (m *mockRoleResolver) ClearCache(ctx context.Context, usernames ...string) error {
	args := m.Called(ctx, usernames)
	return args.Error(0)
}

// mockSessionUseCase is a mock implementation of SessionUseCase for testing.
type mockSessionUseCase struct {
	mock.Mock
}

func (m *mockSessionUseCase) IsRevoked(ctx context.Context, uti string) (bool, error) {
	args := m.Called(ctx, uti)
	return args.Bool(0), args.Error(1)
}

func (m *mockSessionUseCase) ClearSession(ctx context.Context, username string, claims authDomain.Claims) error {
	args := m.Called(ctx, username, claims)
	return args.Error(0)
}

// fakeCache is an in-memory cache.Cache that records the TTL of every write and never
// expires entries on its own.
type fakeCache struct {
	mu     sync.Mutex
	values map[string][]byte
	ttls   map[string]time.Duration
	getErr error
	setErr error
}

var _ cache.Cache = (*fakeCache)(nil)

func newFakeCache() *fakeCache {
	return &fakeCache{values: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (f *fakeCache) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	v, ok := f.values[key]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return v, nil
}

func (f *fakeCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	if ttl <= 0 {
		return nil
	}
	f.values[key] = value
	f.ttls[key] = ttl
	return nil
}

func (f *fakeCache) Delete(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		delete(f.values, key)
		delete(f.ttls, key)
	}
	return nil
}

func (f *fakeCache) Close() error { return nil }

func (f *fakeCache) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.values[key]
	return ok
}

func (f *fakeCache) ttl(key string) time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ttls[key]
}
