package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/helpdesk-io/helpdesk-ce/internal/middleware"
)

const recentTicketLimit = 5

// handleDashboard renders the ticket statistics page. The status and
// priority aggregates are global across all tickets for every role;
// only the recent-tickets list is visibility-filtered.
func (s *Server) handleDashboard(c *gin.Context) {
	actx, _ := middleware.CurrentUser(c)
	ctx := c.Request.Context()

	statusStats, err := s.tickets.CountByStatus(ctx)
	if err != nil {
		s.renderError(c, err)
		return
	}
	priorityStats, err := s.tickets.CountByPriority(ctx)
	if err != nil {
		s.renderError(c, err)
		return
	}
	totalTickets, err := s.tickets.Count(ctx)
	if err != nil {
		s.renderError(c, err)
		return
	}
	totalUsers, err := s.users.Count(ctx)
	if err != nil {
		s.renderError(c, err)
		return
	}

	filter := s.policy.VisibilityFilter(actx.Role, actx.UserID)
	recent, err := s.tickets.Recent(ctx, filter, recentTicketLimit)
	if err != nil {
		s.renderError(c, err)
		return
	}

	s.render(c, http.StatusOK, "dashboard.pongo2", gin.H{
		"status_stats":   statusStats,
		"priority_stats": priorityStats,
		"total_tickets":  totalTickets,
		"total_users":    totalUsers,
		"recent_tickets": recent,
	})
}

// handleStats serves the dashboard chart data. Counts are global,
// matching the dashboard page.
func (s *Server) handleStats(c *gin.Context) {
	ctx := c.Request.Context()

	statusStats, err := s.tickets.CountByStatus(ctx)
	if err != nil {
		log.Printf("Failed to load status stats: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to load statistics"})
		return
	}
	priorityStats, err := s.tickets.CountByPriority(ctx)
	if err != nil {
		log.Printf("Failed to load priority stats: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to load statistics"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   statusStats,
		"priority": priorityStats,
	})
}

// renderError surfaces an unexpected failure as the generic 500 page.
func (s *Server) renderError(c *gin.Context, err error) {
	log.Printf("Unhandled error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	s.render(c, http.StatusInternalServerError, "error.pongo2", gin.H{
		"error_code":    500,
		"error_message": "Internal server error",
	})
	c.Abort()
}
