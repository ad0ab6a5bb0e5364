package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/classtream/lectures-client/domain"
)

// RoleResolver looks up a principal's role on sign-in, initializing new
// principals to the least-privileged role. The write is create-if-absent at
// the store layer, so two concurrent first sign-ins converge on one record.
type RoleResolver struct {
	users  domain.UserStore
	logger *zap.Logger
}

func NewRoleResolver(users domain.UserStore, logger *zap.Logger) *RoleResolver {
	return &RoleResolver{users: users, logger: logger}
}

func (r *RoleResolver) Resolve(ctx context.Context, principalID, email string) (domain.Role, error) {
	role, found, err := r.users.UserRole(ctx, principalID)
	if err != nil {
		return "", fmt.Errorf("failed to look up role for %s: %w", principalID, err)
	}
	if found {
		return role, nil
	}

	if err := r.users.CreateUserIfAbsent(ctx, principalID, email, domain.RoleStudent); err != nil {
		return "", fmt.Errorf("failed to initialize role for %s: %w", principalID, err)
	}
	r.logger.Info("initialized new principal",
		zap.String("principal_id", principalID),
		zap.String("role", string(domain.RoleStudent)))
	return domain.RoleStudent, nil
}
