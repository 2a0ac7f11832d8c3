// Package mocks provides mock implementations of the usecase interfaces for testing
// HTTP handlers and decorators.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	authDomain "github.com/acm-uiuc/authcore/internal/auth/domain"
	"github.com/acm-uiuc/authcore/internal/auth/usecase"
)

// MockAuthorizer is a mock implementation of usecase.Authorizer.
type MockAuthorizer struct {
	mock.Mock
}

func (m *MockAuthorizer) Authorize(
	ctx context.Context,
	req *usecase.AuthorizationRequest,
) (*usecase.Decision, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.Decision), args.Error(1)
}

// MockAPIKeyUseCase is a mock implementation of usecase.APIKeyUseCase.
type MockAPIKeyUseCase struct {
	mock.Mock
}

func (m *MockAPIKeyUseCase) Create(
	ctx context.Context,
	input *authDomain.CreateAPIKeyInput,
) (*authDomain.CreateAPIKeyOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.CreateAPIKeyOutput), args.Error(1)
}

func (m *MockAPIKeyUseCase) Revoke(ctx context.Context, keyID, actor, requestID string) error {
	args := m.Called(ctx, keyID, actor, requestID)
	return args.Error(0)
}

func (m *MockAPIKeyUseCase) List(ctx context.Context, offset, limit int) ([]*authDomain.APIKey, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*authDomain.APIKey), args.Error(1)
}

func (m *MockAPIKeyUseCase) CleanExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockIAMUseCase is a mock implementation of usecase.IAMUseCase.
type MockIAMUseCase struct {
	mock.Mock
}

func (m *MockIAMUseCase) GetGroupRoles(ctx context.Context, groupID string) (*authDomain.GroupRoles, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.GroupRoles), args.Error(1)
}

func (m *MockIAMUseCase) SetGroupRoles(ctx context.Context, input *authDomain.SetRolesInput) error {
	args := m.Called(ctx, input)
	return args.Error(0)
}

func (m *MockIAMUseCase) GetUserRoles(ctx context.Context, userEmail string) (*authDomain.UserRoles, error) {
	args := m.Called(ctx, userEmail)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.UserRoles), args.Error(1)
}

func (m *MockIAMUseCase) SetUserRoles(ctx context.Context, input *authDomain.SetRolesInput) error {
	args := m.Called(ctx, input)
	return args.Error(0)
}

// MockSessionUseCase is a mock implementation of usecase.SessionUseCase.
type MockSessionUseCase struct {
	mock.Mock
}

func (m *MockSessionUseCase) IsRevoked(ctx context.Context, uti string) (bool, error) {
	args := m.Called(ctx, uti)
	return args.Bool(0), args.Error(1)
}

func (m *MockSessionUseCase) ClearSession(ctx context.Context, username string, claims authDomain.Claims) error {
	args := m.Called(ctx, username, claims)
	return args.Error(0)
}

// MockAuditLogUseCase is a mock implementation of usecase.AuditLogUseCase.
type MockAuditLogUseCase struct {
	mock.Mock
}

func (m *MockAuditLogUseCase) List(
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

func (m *MockAuditLogUseCase) DeleteOlderThan(ctx context.Context, days int, dryRun bool) (int64, error) {
	args := m.Called(ctx, days, dryRun)
	return args.Get(0).(int64), args.Error(1)
}
