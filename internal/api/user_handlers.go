package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/helpdesk-io/helpdesk-ce/internal/auth"
	"github.com/helpdesk-io/helpdesk-ce/internal/middleware"
	"github.com/helpdesk-io/helpdesk-ce/internal/models"
)

// handleUserList shows all accounts. Admin only, enforced in the
// router group.
func (s *Server) handleUserList(c *gin.Context) {
	users, err := s.users.List(c.Request.Context())
	if err != nil {
		s.renderError(c, err)
		return
	}
	s.render(c, http.StatusOK, "users_list.pongo2", gin.H{"users": users})
}

// userParam parses the :id route parameter. Zero means already
// redirected.
func userParam(c *gin.Context) uint {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		redirectFlash(c, "/users", "danger", "User not found.")
		return 0
	}
	return uint(id)
}

// handleUserRole changes a user's role. Self-changes and unknown roles
// are soft failures back to the user list.
func (s *Server) handleUserRole(c *gin.Context) {
	targetID := userParam(c)
	if targetID == 0 {
		return
	}
	actx, _ := middleware.CurrentUser(c)
	newRole := c.PostForm("role")

	if err := s.policy.CanChangeRole(actx.UserID, targetID, newRole); err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidRole):
			redirectFlash(c, "/users", "danger", "Invalid role.")
		case errors.Is(err, auth.ErrSelfRoleChange):
			redirectFlash(c, "/users", "warning", "You cannot change your own role.")
		default:
			s.renderError(c, err)
		}
		return
	}

	if err := s.users.UpdateRole(c.Request.Context(), targetID, models.Role(newRole)); err != nil {
		s.renderError(c, err)
		return
	}

	redirectFlash(c, "/users", "success", "Role updated.")
}

// handleUserDelete removes an account. Blocked while the target still
// owns tickets, so ticket ownership references stay valid.
func (s *Server) handleUserDelete(c *gin.Context) {
	targetID := userParam(c)
	if targetID == 0 {
		return
	}
	actx, _ := middleware.CurrentUser(c)

	ticketCount, err := s.tickets.CountByCreator(c.Request.Context(), targetID)
	if err != nil {
		s.renderError(c, err)
		return
	}

	if err := s.policy.CanDeleteUser(targetID, actx.UserID, ticketCount > 0); err != nil {
		switch {
		case errors.Is(err, auth.ErrSelfDelete):
			redirectFlash(c, "/users", "warning", "You cannot delete your own account.")
		case errors.Is(err, auth.ErrHasDependentTickets):
			redirectFlash(c, "/users", "danger", "Cannot delete user with existing tickets.")
		default:
			s.renderError(c, err)
		}
		return
	}

	if err := s.users.Delete(c.Request.Context(), targetID); err != nil {
		s.renderError(c, err)
		return
	}

	redirectFlash(c, "/users", "success", "User deleted.")
}
