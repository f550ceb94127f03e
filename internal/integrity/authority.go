package integrity

import (
	"context"

	"civitas/internal/roles/models"
	rolesservice "civitas/internal/roles/service"
	id "civitas/pkg/domain"
)

// Authority adapts the role service to the narrower authorization ports the
// domain services declare.
type Authority struct {
	roles *rolesservice.Service
}

func NewAuthority(roles *rolesservice.Service) *Authority {
	return &Authority{roles: roles}
}

func (a *Authority) IsAdminOrOfficial(ctx context.Context, userID id.UserID) (bool, error) {
	return a.roles.IsAdminOrOfficial(ctx, userID)
}

func (a *Authority) HasRoleAdmin(ctx context.Context, userID id.UserID) (bool, error) {
	return a.roles.HasRole(ctx, userID, models.RoleAdmin)
}
