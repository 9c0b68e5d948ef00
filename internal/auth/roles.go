package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// Actor is the authenticated identity every core operation receives. Role
// and department are read-only facts established at the auth boundary;
// capability checks go through the predicates below rather than repeated
// role string comparisons.
type Actor struct {
	ID           string
	Role         domain.Role
	DepartmentID *string
	Email        string
}

// ActorFromUser builds an actor from a loaded account.
func ActorFromUser(user *domain.User) *Actor {
	return &Actor{
		ID:           user.ID,
		Role:         user.Role,
		DepartmentID: user.DepartmentID,
		Email:        user.Email,
	}
}

// CanTriage reports whether the actor may assign, remark on, and resolve
// tickets.
func (a *Actor) CanTriage() bool {
	return a.Role.IsStaff()
}

// CanViewAll reports whether list views are unrestricted for this actor.
// Superadmins always qualify; an admin without a department qualifies too,
// preserving observed product behavior.
func (a *Actor) CanViewAll() bool {
	if a.Role == domain.RoleSuperadmin {
		return true
	}
	return a.Role == domain.RoleAdmin && a.DepartmentID == nil
}

// CanManageDirectory reports whether the actor may administer users,
// departments, and analytics.
func (a *Actor) CanManageDirectory() bool {
	return a.Role == domain.RoleSuperadmin
}

// RequireStaff rejects requests from non-staff actors.
func RequireStaff() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := ActorFromContext(c)
		if !ok || !actor.CanTriage() {
			return apperrors.NewForbidden("staff role required")
		}
		return c.Next()
	}
}

// RequireSuperadmin rejects everyone below superadmin.
func RequireSuperadmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := ActorFromContext(c)
		if !ok || !actor.CanManageDirectory() {
			return apperrors.NewForbidden("superadmin role required")
		}
		return c.Next()
	}
}

// RequireAuthenticated ensures some actor is present.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := ActorFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}
