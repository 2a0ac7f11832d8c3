package commands

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	authDomain "github.com/acm-uiuc/authcore/internal/auth/domain"
	authMocks "github.com/acm-uiuc/authcore/internal/auth/usecase/mocks"
)

func TestRunSetRoles(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()

	t.Run("group-all-pointer", func(t *testing.T) {
		mockUseCase := &authMocks.MockIAMUseCase{}
		mockUseCase.On("SetGroupRoles", ctx, mock.MatchedBy(func(input *authDomain.SetRolesInput) bool {
			return input.Target == "g1" && input.Actor == "cli" &&
				len(input.Roles) == 1 && input.Roles[0] == authDomain.AllRolesPointer
		})).Return(nil).Once()

		var out bytes.Buffer
		err := RunSetRoles(ctx, mockUseCase, logger, &out, RoleTargetGroup, "g1", "all", "cli", "text")

		require.NoError(t, err)
		require.Contains(t, out.String(), "Set group g1 roles to all")
		mockUseCase.AssertExpectations(t)
	})

	t.Run("user-json-output", func(t *testing.T) {
		mockUseCase := &authMocks.MockIAMUseCase{}
		mockUseCase.On("SetUserRoles", ctx, mock.MatchedBy(func(input *authDomain.SetRolesInput) bool {
			return input.Target == "user@illinois.edu" && len(input.Roles) == 2
		})).Return(nil).Once()

		var out bytes.Buffer
		err := RunSetRoles(ctx, mockUseCase, logger, &out, RoleTargetUser,
			"user@illinois.edu", "admin:iam,manage:events", "cli", "json")

		require.NoError(t, err)
		require.Contains(t, out.String(), `"type": "user"`)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("unknown-role", func(t *testing.T) {
		mockUseCase := &authMocks.MockIAMUseCase{}

		err := RunSetRoles(ctx, mockUseCase, logger, &bytes.Buffer{}, RoleTargetGroup, "g1", "root", "cli", "text")

		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid roles")
	})

	t.Run("user-id-not-an-email", func(t *testing.T) {
		err := RunSetRoles(ctx, &authMocks.MockIAMUseCase{}, logger, &bytes.Buffer{}, RoleTargetUser, "not-an-email", "all", "cli", "text")

		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid user id")
	})

	t.Run("missing-id", func(t *testing.T) {
		err := RunSetRoles(ctx, &authMocks.MockIAMUseCase{}, logger, &bytes.Buffer{}, RoleTargetUser, " ", "all", "cli", "text")

		require.Error(t, err)
		require.Contains(t, err.Error(), "user id is required")
	})
}
