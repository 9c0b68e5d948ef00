package service

import (
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// ListScope narrows a ticket filter to what the actor may list. List views
// and single-ticket reads deliberately use different rules; see CanView.
//
// Users see their own tickets. Department admins see their department.
// Admins without a department and superadmins see everything.
func ListScope(actor *auth.Actor, filter repository.TicketFilter) repository.TicketFilter {
	switch actor.Role {
	case domain.RoleSuperadmin:
		return filter
	case domain.RoleAdmin:
		if actor.DepartmentID != nil {
			filter.DepartmentID = actor.DepartmentID
		}
		return filter
	default:
		id := actor.ID
		filter.CreatedBy = &id
		return filter
	}
}

// CanView decides single-ticket access. On top of the list rule, the
// assignee and any admin whose department matches the ticket's may read it.
func CanView(actor *auth.Actor, ticket *domain.Ticket) bool {
	if actor.CanViewAll() {
		return true
	}
	if ticket.CreatedBy == actor.ID {
		return true
	}
	if ticket.AssignedTo != nil && *ticket.AssignedTo == actor.ID {
		return true
	}
	if actor.Role == domain.RoleAdmin && actor.DepartmentID != nil &&
		ticket.DepartmentID != nil && *ticket.DepartmentID == *actor.DepartmentID {
		return true
	}
	return false
}
