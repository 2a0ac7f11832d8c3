package usecase

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	authDomain "github.com/acm-uiuc/authcore/internal/auth/domain"
	"github.com/acm-uiuc/authcore/internal/background"
	"github.com/acm-uiuc/authcore/internal/cache"
	apperrors "github.com/acm-uiuc/authcore/internal/errors"
)

// RoleCachePrefix namespaces cached role decisions.
const RoleCachePrefix = "authCache:"

// DefaultRoleCacheTTL is how long a resolved role set is reused.
const DefaultRoleCacheTTL = 600 * time.Second

const defaultGroupConcurrency = 8

// RoleCacheKey returns the cache key holding username's resolved roles.
func RoleCacheKey(username string) string {
	return RoleCachePrefix + username + ":roles"
}

// RoleResolverConfig configures role resolution.
type RoleResolverConfig struct {
	CacheTTL time.Duration
	// NativeRoleMapping maps identity provider app roles to application roles. It is
	// consulted only for tokens without a groups claim.
	NativeRoleMapping map[string][]authDomain.Role
	// GroupConcurrency bounds concurrent group lookups.
	GroupConcurrency int
}

type roleResolver struct {
	cfg    RoleResolverConfig
	repo   RoleMappingRepository
	cache  cache.Cache
	runner background.Runner
	logger *slog.Logger
}

// NewRoleResolver creates a RoleResolver backed by repo and cached in c.
func NewRoleResolver(
	cfg RoleResolverConfig,
	repo RoleMappingRepository,
	c cache.Cache,
	runner background.Runner,
	logger *slog.Logger,
) RoleResolver {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultRoleCacheTTL
	}
	if cfg.GroupConcurrency <= 0 {
		cfg.GroupConcurrency = defaultGroupConcurrency
	}
	return &roleResolver{cfg: cfg, repo: repo, cache: c, runner: runner, logger: logger}
}

func (r *roleResolver) Resolve(ctx context.Context, claims authDomain.Claims) (authDomain.RoleSet, error) {
	username := authDomain.PrincipalID(claims)
	cacheKey := RoleCacheKey(username)

	cached, found, err := cache.GetJSON[[]string](ctx, r.cache, cacheKey)
	if err != nil {
		r.logger.Warn("failed to read cached roles", slog.String("user", username), slog.Any("error", err))
	}
	if found {
		r.logger.Debug("retrieved user roles from cache", slog.String("user", username))
		return authDomain.ExpandRoles(cached), nil
	}

	roles := authDomain.NewRoleSet()
	common := claims.Common()

	if len(common.Groups) > 0 {
		roles.Merge(r.groupRoles(ctx, common.Groups))
	} else if len(common.Roles) > 0 && len(r.cfg.NativeRoleMapping) > 0 {
		for _, native := range common.Roles {
			roles.Add(r.cfg.NativeRoleMapping[native]...)
		}
	}

	if username != "" {
		override, err := r.repo.GetUserRoles(ctx, username)
		switch {
		case err == nil:
			roles.Merge(authDomain.ExpandRoles(override))
		case apperrors.Is(err, authDomain.ErrRoleMappingNotFound):
		default:
			r.logger.Warn("failed to get user role mapping",
				slog.String("user", username),
				slog.Any("error", err),
			)
		}
	}

	stored := roles.Strings()
	r.runner.Go(ctx, "cache_user_roles", func(taskCtx context.Context) error {
		return cache.SetJSON(taskCtx, r.cache, cacheKey, stored, r.cfg.CacheTTL)
	})
	r.logger.Debug("retrieved user roles from database", slog.String("user", username))

	return roles, nil
}

// groupRoles looks up every group concurrently. A failed lookup contributes no roles.
func (r *roleResolver) groupRoles(ctx context.Context, groups []string) authDomain.RoleSet {
	results := make([]authDomain.RoleSet, len(groups))

	var g errgroup.Group
	g.SetLimit(r.cfg.GroupConcurrency)
	for i, groupID := range groups {
		g.Go(func() error {
			stored, err := r.repo.GetGroupRoles(ctx, groupID)
			if err != nil {
				if !apperrors.Is(err, authDomain.ErrRoleMappingNotFound) {
					r.logger.Warn("failed to get group roles",
						slog.String("group_id", groupID),
						slog.Any("error", err),
					)
				}
				return nil
			}
			results[i] = authDomain.ExpandRoles(stored)
			return nil
		})
	}
	_ = g.Wait()

	merged := authDomain.NewRoleSet()
	for _, set := range results {
		merged.Merge(set)
	}
	return merged
}

func (r *roleResolver) ClearCache(ctx context.Context, usernames ...string) error {
	if len(usernames) == 0 {
		return nil
	}
	keys := make([]string, 0, len(usernames))
	for _, username := range usernames {
		keys = append(keys, RoleCacheKey(username))
	}
	return r.cache.Delete(ctx, keys...)
}
