package usecase

import (
	"context"
	"log/slog"
	"strings"

	authDomain "github.com/acm-uiuc/authcore/internal/auth/domain"
	"github.com/acm-uiuc/authcore/internal/database"
	apperrors "github.com/acm-uiuc/authcore/internal/errors"
)

const (
	msgGroupFetchFailed = "An error occurred finding the group role mapping."
	msgUserFetchFailed  = "An error occurred finding the user role mapping."
	msgGroupSaveFailed  = "Could not create group role mapping."
	msgUserSaveFailed   = "Could not create user role mapping."
)

type iamUseCase struct {
	txManager    database.TxManager
	roleRepo     RoleMappingRepository
	auditLogRepo AuditLogRepository
	resolver     RoleResolver
	logger       *slog.Logger
}

// GetGroupRoles returns the stored mapping for a group. A group without a mapping has
// no roles.
func (i *iamUseCase) GetGroupRoles(ctx context.Context, groupID string) (*authDomain.GroupRoles, error) {
	roles, err := i.roleRepo.GetGroupRoles(ctx, groupID)
	if err != nil {
		if !apperrors.Is(err, authDomain.ErrRoleMappingNotFound) {
			i.logger.Error("failed to get group roles", slog.String("group_id", groupID), slog.Any("error", err))
			return nil, apperrors.NewDatabaseFetch(msgGroupFetchFailed).WithCause(err)
		}
		roles = []string{}
	}
	return &authDomain.GroupRoles{GroupID: groupID, Roles: roles}, nil
}

// SetGroupRoles replaces a group mapping. Members' cached role decisions are not
// enumerable here and expire on their own.
func (i *iamUseCase) SetGroupRoles(ctx context.Context, input *authDomain.SetRolesInput) error {
	if err := authDomain.ValidateMappingRoles(input.Roles); err != nil {
		return apperrors.NewValidation(err.Error())
	}
	roles := rolesToStrings(input.Roles)

	err := i.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := i.roleRepo.SetGroupRoles(ctx, input.Target, roles); err != nil {
			return err
		}
		return i.auditLogRepo.Create(ctx, setRolesAuditLog(input, roles))
	})
	if err != nil {
		i.logger.Error("failed to set group roles", slog.String("group_id", input.Target), slog.Any("error", err))
		return apperrors.NewDatabaseInsert(msgGroupSaveFailed).WithCause(err)
	}
	return nil
}

// GetUserRoles returns the stored override for a user. A user without an override has
// no roles.
func (i *iamUseCase) GetUserRoles(ctx context.Context, userEmail string) (*authDomain.UserRoles, error) {
	roles, err := i.roleRepo.GetUserRoles(ctx, userEmail)
	if err != nil {
		if !apperrors.Is(err, authDomain.ErrRoleMappingNotFound) {
			i.logger.Error("failed to get user roles", slog.String("user", userEmail), slog.Any("error", err))
			return nil, apperrors.NewDatabaseFetch(msgUserFetchFailed).WithCause(err)
		}
		roles = []string{}
	}
	return &authDomain.UserRoles{UserEmail: userEmail, Roles: roles}, nil
}

// SetUserRoles replaces a user override and drops the user's cached role decision.
func (i *iamUseCase) SetUserRoles(ctx context.Context, input *authDomain.SetRolesInput) error {
	if err := authDomain.ValidateMappingRoles(input.Roles); err != nil {
		return apperrors.NewValidation(err.Error())
	}
	roles := rolesToStrings(input.Roles)

	err := i.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := i.roleRepo.SetUserRoles(ctx, input.Target, roles); err != nil {
			return err
		}
		return i.auditLogRepo.Create(ctx, setRolesAuditLog(input, roles))
	})
	if err != nil {
		i.logger.Error("failed to set user roles", slog.String("user", input.Target), slog.Any("error", err))
		return apperrors.NewDatabaseInsert(msgUserSaveFailed).WithCause(err)
	}

	if err := i.resolver.ClearCache(ctx, input.Target); err != nil {
		i.logger.Warn("failed to clear role cache", slog.String("user", input.Target), slog.Any("error", err))
	}
	return nil
}

func setRolesAuditLog(input *authDomain.SetRolesInput, roles []string) *authDomain.AuditLog {
	return authDomain.NewAuditLog(
		authDomain.ModuleIAM,
		input.Actor,
		input.Target,
		"set target roles to "+strings.Join(roles, ","),
		input.RequestID,
	)
}

func rolesToStrings(roles []authDomain.Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}

// NewIAMUseCase creates a new IAMUseCase with the provided dependencies.
func NewIAMUseCase(
	txManager database.TxManager,
	roleRepo RoleMappingRepository,
	auditLogRepo AuditLogRepository,
	resolver RoleResolver,
	logger *slog.Logger,
) IAMUseCase {
	return &iamUseCase{
		txManager:    txManager,
		roleRepo:     roleRepo,
		auditLogRepo: auditLogRepo,
		resolver:     resolver,
		logger:       logger,
	}
}
