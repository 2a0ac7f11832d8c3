package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/acm-uiuc/authcore/internal/auth/http/dto"
	authUseCase "github.com/acm-uiuc/authcore/internal/auth/usecase"
)

// RoleTarget selects whether set-roles writes a group mapping or a user override.
type RoleTarget string

const (
	RoleTargetGroup RoleTarget = "group"
	RoleTargetUser  RoleTarget = "user"
)

// RunSetRoles replaces the stored roles of a group or user. Roles may be "all". Setting a
// user's roles also clears that user's cached role set.
func RunSetRoles(
	ctx context.Context,
	iamUseCase authUseCase.IAMUseCase,
	logger *slog.Logger,
	w io.Writer,
	target RoleTarget,
	id string,
	roles string,
	actor string,
	format string,
) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%s id is required", target)
	}

	validateTarget := dto.ValidateGroupID
	if target == RoleTargetUser {
		validateTarget = dto.ValidateUserEmail
	}
	if err := validateTarget(id); err != nil {
		return fmt.Errorf("invalid %s id: %w", target, err)
	}

	req := dto.SetRolesRequest{Roles: splitList(roles)}
	if err := req.Validate(); err != nil {
		return fmt.Errorf("invalid roles: %w", err)
	}
	input := req.ToInput(id, actor, "")

	var err error
	switch target {
	case RoleTargetGroup:
		err = iamUseCase.SetGroupRoles(ctx, input)
	case RoleTargetUser:
		err = iamUseCase.SetUserRoles(ctx, input)
	default:
		return fmt.Errorf("invalid role target: %s", target)
	}
	if err != nil {
		return fmt.Errorf("failed to set %s roles: %w", target, err)
	}

	if format == "json" {
		writeJSON(w, map[string]interface{}{
			"target": id,
			"type":   string(target),
			"roles":  req.Roles,
		})
	} else {
		_, _ = fmt.Fprintf(w, "Set %s %s roles to %s\n", target, id, strings.Join(req.Roles, ","))
	}

	logger.Info("roles updated",
		slog.String("type", string(target)),
		slog.String("target", id),
		slog.Any("roles", req.Roles),
	)
	return nil
}
