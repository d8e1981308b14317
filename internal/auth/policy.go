package auth

import (
	"errors"

	"github.com/helpdesk-io/helpdesk-ce/internal/models"
)

var (
	ErrInvalidRole         = errors.New("invalid role")
	ErrSelfRoleChange      = errors.New("cannot change your own role")
	ErrSelfDelete          = errors.New("cannot delete your own account")
	ErrHasDependentTickets = errors.New("cannot delete user with existing tickets")
)

// TicketScope describes which tickets a viewer may observe.
type TicketScope int

const (
	// ScopeAll places no restriction on the ticket set (ADMIN).
	ScopeAll TicketScope = iota
	// ScopeAssignedOrUnassigned admits tickets assigned to the viewer
	// plus tickets nobody has picked up yet (AGENT).
	ScopeAssignedOrUnassigned
	// ScopeCreated admits only tickets the viewer submitted (USER).
	ScopeCreated
)

// TicketFilter is the per-role visibility predicate over tickets. It is
// storage-independent: repositories translate it into a WHERE fragment,
// and Matches evaluates it against an in-memory ticket.
type TicketFilter struct {
	Scope  TicketScope
	UserID uint
}

// Matches reports whether the ticket is visible under this filter.
func (f TicketFilter) Matches(t *models.Ticket) bool {
	switch f.Scope {
	case ScopeAssignedOrUnassigned:
		return t.AssignedTo == nil || *t.AssignedTo == f.UserID
	case ScopeCreated:
		return t.CreatedBy == f.UserID
	default:
		return true
	}
}

// Policy centralizes every authorization decision in the system. All
// methods are pure: they depend only on their arguments, never on
// storage or session state.
type Policy struct{}

func NewPolicy() *Policy {
	return &Policy{}
}

// VisibilityFilter returns the ticket predicate for the given viewer.
// The same filter applies to the ticket list, the dashboard recent list,
// and (as a hard gate via CanAccessTicket) the detail view.
func (p *Policy) VisibilityFilter(role models.Role, userID uint) TicketFilter {
	switch role {
	case models.RoleAdmin:
		return TicketFilter{Scope: ScopeAll}
	case models.RoleAgent:
		return TicketFilter{Scope: ScopeAssignedOrUnassigned, UserID: userID}
	default:
		return TicketFilter{Scope: ScopeCreated, UserID: userID}
	}
}

// CanAccessTicket decides detail-view and commenting access. Agents and
// admins may open any ticket regardless of assignment; only the list
// views narrow by assignment. Users may open only their own tickets.
func (p *Policy) CanAccessTicket(role models.Role, userID uint, t *models.Ticket) bool {
	if role.IsStaff() {
		return true
	}
	return t.CreatedBy == userID
}

// CanMutateTicket gates status/priority/assignment updates, both the
// form-based and the AJAX variant.
func (p *Policy) CanMutateTicket(role models.Role) bool {
	return role.IsStaff()
}

// CanManageUsers gates the user list, role changes, and user deletion.
func (p *Policy) CanManageUsers(role models.Role) bool {
	return role == models.RoleAdmin
}

// CanChangeRole validates an admin changing another user's role.
// Both failures are user-facing soft failures, not faults.
func (p *Policy) CanChangeRole(actingUserID, targetUserID uint, newRole string) error {
	if !models.ValidRole(newRole) {
		return ErrInvalidRole
	}
	if actingUserID == targetUserID {
		return ErrSelfRoleChange
	}
	return nil
}

// CanDeleteUser validates deleting a user. Deletion is blocked while
// the target owns tickets so ticket.created_by never dangles.
func (p *Policy) CanDeleteUser(targetUserID, actingUserID uint, targetHasTickets bool) error {
	if targetUserID == actingUserID {
		return ErrSelfDelete
	}
	if targetHasTickets {
		return ErrHasDependentTickets
	}
	return nil
}
