package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/helpdesk-io/helpdesk-ce/internal/middleware"
	"github.com/helpdesk-io/helpdesk-ce/internal/models"
	"github.com/helpdesk-io/helpdesk-ce/internal/repository"
)

// handleTicketList renders the ticket list narrowed to what the viewer
// may see, plus the optional status/priority/search filters.
func (s *Server) handleTicketList(c *gin.Context) {
	actx, _ := middleware.CurrentUser(c)

	opts := repository.ListOptions{
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
		Search:   c.Query("search"),
	}
	filter := s.policy.VisibilityFilter(actx.Role, actx.UserID)

	tickets, err := s.tickets.List(c.Request.Context(), filter, opts)
	if err != nil {
		s.renderError(c, err)
		return
	}

	s.render(c, http.StatusOK, "tickets_list.pongo2", gin.H{
		"tickets":         tickets,
		"status_filter":   opts.Status,
		"priority_filter": opts.Priority,
		"search_query":    opts.Search,
	})
}

func (s *Server) showTicketNew(c *gin.Context) {
	s.render(c, http.StatusOK, "ticket_new.pongo2", gin.H{})
}

// handleTicketNew creates a ticket owned by the submitter.
func (s *Server) handleTicketNew(c *gin.Context) {
	actx, _ := middleware.CurrentUser(c)

	title := c.PostForm("title")
	description := c.PostForm("description")
	priority := c.PostForm("priority")

	if title == "" || description == "" {
		redirectFlash(c, "/tickets/new", "warning", "Title and description are required.")
		return
	}

	ticket := &models.Ticket{
		Title:       title,
		Description: description,
		Priority:    priority,
		CreatedBy:   actx.UserID,
	}
	if err := s.tickets.Create(c.Request.Context(), ticket); err != nil {
		s.renderError(c, err)
		return
	}

	redirectFlash(c, "/tickets", "success", "Ticket created successfully.")
}

// ticketParam parses the :id route parameter. A zero return means the
// handler has already redirected.
func (s *Server) ticketParam(c *gin.Context) uint {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		redirectFlash(c, "/tickets", "danger", "Ticket not found.")
		return 0
	}
	return uint(id)
}

// ticketParamAjax is the JSON variant: a malformed id is a body-level
// failure, answered in the same shape as the other -ajax failures.
func (s *Server) ticketParamAjax(c *gin.Context) uint {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": "Ticket not found"})
		return 0
	}
	return uint(id)
}

// loadTicket fetches a ticket and enforces detail access. Denial is a
// hard redirect with a message, never a silently empty page.
func (s *Server) loadTicket(c *gin.Context) *models.Ticket {
	id := s.ticketParam(c)
	if id == 0 {
		return nil
	}
	return s.loadTicketByID(c, id)
}

func (s *Server) loadTicketByID(c *gin.Context, id uint) *models.Ticket {
	ticket, err := s.tickets.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrTicketNotFound) {
			redirectFlash(c, "/tickets", "danger", "Ticket not found.")
			return nil
		}
		s.renderError(c, err)
		return nil
	}

	actx, _ := middleware.CurrentUser(c)
	if !s.policy.CanAccessTicket(actx.Role, actx.UserID, ticket) {
		redirectFlash(c, "/tickets", "danger", "You do not have permission to view this ticket.")
		return nil
	}
	return ticket
}

// handleTicketDetail renders one ticket with its comments and, for the
// assignment dropdown, the agent roster.
func (s *Server) handleTicketDetail(c *gin.Context) {
	ticket := s.loadTicket(c)
	if ticket == nil {
		return
	}

	comments, err := s.comments.ListByTicket(c.Request.Context(), ticket.ID)
	if err != nil {
		s.renderError(c, err)
		return
	}
	agents, err := s.users.Agents(c.Request.Context())
	if err != nil {
		s.renderError(c, err)
		return
	}

	s.render(c, http.StatusOK, "ticket_detail.pongo2", gin.H{
		"ticket":   ticket,
		"comments": comments,
		"agents":   agents,
	})
}

// parseAssignee maps the form/JSON assigned_to value: empty clears the
// assignment.
func parseAssignee(raw string) (*uint, bool) {
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return nil, false
	}
	v := uint(id)
	return &v, true
}

// handleTicketUpdate applies the detail form's status/priority/
// assignment change. Role gating happens in the router group.
func (s *Server) handleTicketUpdate(c *gin.Context) {
	id := s.ticketParam(c)
	if id == 0 {
		return
	}

	assignee, ok := parseAssignee(c.PostForm("assigned_to"))
	if !ok {
		redirectFlash(c, "/tickets/"+c.Param("id"), "warning", "Invalid assignee.")
		return
	}

	err := s.tickets.Update(c.Request.Context(), id, c.PostForm("status"), c.PostForm("priority"), assignee)
	if err != nil {
		s.renderError(c, err)
		return
	}

	redirectFlash(c, "/tickets/"+c.Param("id"), "success", "Ticket updated.")
}

// handleTicketUpdateAjax is the JSON variant of handleTicketUpdate.
// Body-level failures come back as success:false with HTTP 200.
func (s *Server) handleTicketUpdateAjax(c *gin.Context) {
	id := s.ticketParamAjax(c)
	if id == 0 {
		return
	}

	var payload struct {
		Status     string `json:"status"`
		Priority   string `json:"priority"`
		AssignedTo string `json:"assigned_to"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": "Invalid request body"})
		return
	}

	assignee, ok := parseAssignee(payload.AssignedTo)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": "Invalid assignee"})
		return
	}

	if err := s.tickets.Update(c.Request.Context(), id, payload.Status, payload.Priority, assignee); err != nil {
		log.Printf("Failed to update ticket %d: %v", id, err)
		c.JSON(http.StatusOK, gin.H{"success": false, "message": "Failed to update ticket"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Ticket updated successfully"})
}

// handleCommentAdd appends a comment from the detail form.
func (s *Server) handleCommentAdd(c *gin.Context) {
	ticket := s.loadTicket(c)
	if ticket == nil {
		return
	}
	actx, _ := middleware.CurrentUser(c)

	_, err := s.comments.Create(c.Request.Context(), ticket.ID, actx.UserID, c.PostForm("comment"))
	if err != nil {
		if errors.Is(err, repository.ErrEmptyComment) {
			redirectFlash(c, "/tickets/"+c.Param("id"), "warning", "Comment cannot be empty.")
			return
		}
		s.renderError(c, err)
		return
	}

	redirectFlash(c, "/tickets/"+c.Param("id"), "success", "Comment added.")
}

// handleCommentAddAjax is the JSON variant: it returns the stored
// comment so the page can append it without reloading.
func (s *Server) handleCommentAddAjax(c *gin.Context) {
	id := s.ticketParamAjax(c)
	if id == 0 {
		return
	}
	ticket := s.loadTicketByID(c, id)
	if ticket == nil {
		return
	}
	actx, _ := middleware.CurrentUser(c)

	var payload struct {
		Comment string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": "Invalid request body"})
		return
	}

	comment, err := s.comments.Create(c.Request.Context(), ticket.ID, actx.UserID, payload.Comment)
	if err != nil {
		if errors.Is(err, repository.ErrEmptyComment) {
			c.JSON(http.StatusOK, gin.H{"success": false, "message": "Comment cannot be empty"})
			return
		}
		log.Printf("Failed to add comment to ticket %d: %v", ticket.ID, err)
		c.JSON(http.StatusOK, gin.H{"success": false, "message": "Failed to add comment"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Comment added",
		"comment": gin.H{
			"id":         comment.ID,
			"user_name":  comment.UserName,
			"comment":    comment.Comment,
			"created_at": comment.CreatedAtDisplay(),
		},
	})
}
