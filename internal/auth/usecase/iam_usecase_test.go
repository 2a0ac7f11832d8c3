package usecase

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	authDomain "github.com/acm-uiuc/authcore/internal/auth/domain"
	databaseMocks "github.com/acm-uiuc/authcore/internal/database/mocks"
)

type iamFixture struct {
	txManager *databaseMocks.MockTxManager
	roleRepo  *mockRoleMappingRepository
	auditRepo *mockAuditLogRepository
	resolver  *mockRoleResolver
}

func newIAMFixture(t *testing.T) (*iamFixture, IAMUseCase) {
	f := &iamFixture{
		txManager: databaseMocks.NewMockTxManager(t),
		roleRepo:  &mockRoleMappingRepository{},
		auditRepo: &mockAuditLogRepository{},
		resolver:  &mockRoleResolver{},
	}
	return f, NewIAMUseCase(f.txManager, f.roleRepo, f.auditRepo, f.resolver, discardLogger())
}

func TestIAMUseCase_GetRoles(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_GroupMapping", func(t *testing.T) {
		f, uc := newIAMFixture(t)
		f.roleRepo.On("GetGroupRoles", ctx, "g1").Return([]string{"manage:events"}, nil).Once()

		roles, err := uc.GetGroupRoles(ctx, "g1")
		require.NoError(t, err)
		assert.Equal(t, &authDomain.GroupRoles{GroupID: "g1", Roles: []string{"manage:events"}}, roles)
	})

	t.Run("Success_UnmappedUserHasNoRoles", func(t *testing.T) {
		f, uc := newIAMFixture(t)
		f.roleRepo.On("GetUserRoles", ctx, "new@illinois.edu").Return(nil, authDomain.ErrRoleMappingNotFound).Once()

		roles, err := uc.GetUserRoles(ctx, "new@illinois.edu")
		require.NoError(t, err)
		assert.Equal(t, []string{}, roles.Roles)
	})

	t.Run("Error_GroupFetchFailure", func(t *testing.T) {
		f, uc := newIAMFixture(t)
		f.roleRepo.On("GetGroupRoles", ctx, "g1").Return(nil, errors.New("db down")).Once()

		_, err := uc.GetGroupRoles(ctx, "g1")
		assertAppError(t, err, http.StatusInternalServerError, "An error occurred finding the group role mapping.")
	})
}

func TestIAMUseCase_SetUserRoles(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_WritesAuditAndClearsCache", func(t *testing.T) {
		f, uc := newIAMFixture(t)
		input := &authDomain.SetRolesInput{
			Target:    "member@illinois.edu",
			Roles:     []authDomain.Role{authDomain.RoleIAMAdmin, authDomain.RoleEventsManager},
			Actor:     "admin@illinois.edu",
			RequestID: "req-1",
		}
		f.txManager.On("WithTx", ctx, mock.Anything).Return(nil).Once()
		f.roleRepo.On("SetUserRoles", ctx, "member@illinois.edu", []string{"admin:iam", "manage:events"}).Return(nil).Once()
		f.auditRepo.On("Create", ctx, mock.MatchedBy(func(l *authDomain.AuditLog) bool {
			return l.Module == authDomain.ModuleIAM &&
				l.Target == "member@illinois.edu" &&
				l.Message == "set target roles to admin:iam,manage:events"
		})).Return(nil).Once()
		f.resolver.On("ClearCache", ctx, []string{"member@illinois.edu"}).Return(nil).Once()

		require.NoError(t, uc.SetUserRoles(ctx, input))
		f.roleRepo.AssertExpectations(t)
		f.auditRepo.AssertExpectations(t)
		f.resolver.AssertExpectations(t)
	})

	t.Run("Success_AllPointerAccepted", func(t *testing.T) {
		f, uc := newIAMFixture(t)
		f.txManager.On("WithTx", ctx, mock.Anything).Return(nil).Once()
		f.roleRepo.On("SetUserRoles", ctx, "root@illinois.edu", []string{"all"}).Return(nil).Once()
		f.auditRepo.On("Create", ctx, mock.Anything).Return(nil).Once()
		f.resolver.On("ClearCache", ctx, []string{"root@illinois.edu"}).Return(nil).Once()

		require.NoError(t, uc.SetUserRoles(ctx, &authDomain.SetRolesInput{
			Target: "root@illinois.edu",
			Roles:  []authDomain.Role{authDomain.AllRolesPointer},
		}))
	})

	t.Run("Error_UnknownRole", func(t *testing.T) {
		_, uc := newIAMFixture(t)
		err := uc.SetUserRoles(ctx, &authDomain.SetRolesInput{
			Target: "member@illinois.edu",
			Roles:  []authDomain.Role{"superuser"},
		})
		assertAppErrorStatus(t, err, http.StatusBadRequest)
	})

	t.Run("Error_SaveFailureSkipsCacheClear", func(t *testing.T) {
		f, uc := newIAMFixture(t)
		f.txManager.On("WithTx", ctx, mock.Anything).Return(nil).Once()
		f.roleRepo.On("SetUserRoles", ctx, "member@illinois.edu", []string{"scan:tickets"}).Return(errors.New("db down")).Once()

		err := uc.SetUserRoles(ctx, &authDomain.SetRolesInput{
			Target: "member@illinois.edu",
			Roles:  []authDomain.Role{authDomain.RoleTicketsScanner},
		})
		assertAppError(t, err, http.StatusInternalServerError, "Could not create user role mapping.")
		f.resolver.AssertNotCalled(t, "ClearCache", mock.Anything, mock.Anything)
	})
}

func TestIAMUseCase_SetGroupRoles(t *testing.T) {
	ctx := context.Background()
	f, uc := newIAMFixture(t)
	f.txManager.On("WithTx", ctx, mock.Anything).Return(nil).Once()
	f.roleRepo.On("SetGroupRoles", ctx, "g1", []string{"manage:links"}).Return(nil).Once()
	f.auditRepo.On("Create", ctx, mock.MatchedBy(func(l *authDomain.AuditLog) bool {
		return l.Target == "g1" && l.Message == "set target roles to manage:links"
	})).Return(nil).Once()

	require.NoError(t, uc.SetGroupRoles(ctx, &authDomain.SetRolesInput{
		Target: "g1",
		Roles:  []authDomain.Role{authDomain.RoleLinksManager},
		Actor:  "admin@illinois.edu",
	}))
	f.resolver.AssertNotCalled(t, "ClearCache", mock.Anything, mock.Anything)
}
