package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/helpdesk-io/helpdesk-ce/internal/auth"
	"github.com/helpdesk-io/helpdesk-ce/internal/models"
)

var ErrTicketNotFound = errors.New("ticket not found")

// TicketRepository handles database operations for tickets.
type TicketRepository struct {
	db *sqlx.DB
}

// NewTicketRepository creates a new ticket repository.
func NewTicketRepository(db *sqlx.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

// ListOptions are the optional ticket list filters. Empty fields are
// skipped; status and priority match exactly, search is a substring
// match over title and description.
type ListOptions struct {
	Status   string
	Priority string
	Search   string
}

const ticketSelect = `
	SELECT t.id, t.title, t.description, t.status, t.priority,
	       t.created_by, t.assigned_to, t.created_at,
	       u.name AS created_by_name, a.name AS assigned_to_name
	FROM tickets t
	JOIN users u ON t.created_by = u.id
	LEFT JOIN users a ON t.assigned_to = a.id`

// visibilityClause translates the policy's ticket filter into a WHERE
// fragment. Every role-filtered read goes through this one function so
// the list, dashboard, and detail paths cannot drift apart.
func visibilityClause(filter auth.TicketFilter) (string, []interface{}) {
	switch filter.Scope {
	case auth.ScopeAssignedOrUnassigned:
		return " AND (t.assigned_to = ? OR t.assigned_to IS NULL)", []interface{}{filter.UserID}
	case auth.ScopeCreated:
		return " AND t.created_by = ?", []interface{}{filter.UserID}
	default:
		return "", nil
	}
}

// List returns the tickets visible under filter, narrowed by opts,
// newest first. No pagination: all matching rows are returned.
func (r *TicketRepository) List(ctx context.Context, filter auth.TicketFilter, opts ListOptions) ([]models.Ticket, error) {
	query := ticketSelect + " WHERE 1=1"
	var args []interface{}

	clause, clauseArgs := visibilityClause(filter)
	query += clause
	args = append(args, clauseArgs...)

	if opts.Status != "" {
		query += " AND t.status = ?"
		args = append(args, opts.Status)
	}
	if opts.Priority != "" {
		query += " AND t.priority = ?"
		args = append(args, opts.Priority)
	}
	if opts.Search != "" {
		query += " AND (t.title LIKE ? OR t.description LIKE ?)"
		pattern := "%" + opts.Search + "%"
		args = append(args, pattern, pattern)
	}

	query += " ORDER BY t.created_at DESC"

	var tickets []models.Ticket
	if err := r.db.SelectContext(ctx, &tickets, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return tickets, nil
}

// Recent returns the newest tickets visible under filter, for the
// dashboard.
func (r *TicketRepository) Recent(ctx context.Context, filter auth.TicketFilter, limit int) ([]models.Ticket, error) {
	query := ticketSelect + " WHERE 1=1"
	var args []interface{}

	clause, clauseArgs := visibilityClause(filter)
	query += clause
	args = append(args, clauseArgs...)

	query += " ORDER BY t.created_at DESC LIMIT ?"
	args = append(args, limit)

	var tickets []models.Ticket
	if err := r.db.SelectContext(ctx, &tickets, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return tickets, nil
}

// GetByID retrieves a ticket with creator and assignee names.
func (r *TicketRepository) GetByID(ctx context.Context, id uint) (*models.Ticket, error) {
	var ticket models.Ticket
	query := r.db.Rebind(ticketSelect + " WHERE t.id = ?")
	if err := r.db.GetContext(ctx, &ticket, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	return &ticket, nil
}

// Create inserts a new ticket and sets its ID. Status always starts at
// the schema default; an empty priority also falls through to the
// schema default.
func (r *TicketRepository) Create(ctx context.Context, ticket *models.Ticket) error {
	var (
		res sql.Result
		err error
	)
	if ticket.Priority == "" {
		query := r.db.Rebind(`
			INSERT INTO tickets (title, description, created_by)
			VALUES (?, ?, ?)`)
		res, err = r.db.ExecContext(ctx, query, ticket.Title, ticket.Description, ticket.CreatedBy)
	} else {
		query := r.db.Rebind(`
			INSERT INTO tickets (title, description, priority, created_by)
			VALUES (?, ?, ?, ?)`)
		res, err = r.db.ExecContext(ctx, query, ticket.Title, ticket.Description, ticket.Priority, ticket.CreatedBy)
	}
	if err != nil {
		return fmt.Errorf("failed to create ticket: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	ticket.ID = uint(id)
	return nil
}

// Update sets status, priority, and assignment in one statement, as the
// detail form submits all three together. assignedTo nil clears the
// assignment.
func (r *TicketRepository) Update(ctx context.Context, id uint, status, priority string, assignedTo *uint) error {
	query := r.db.Rebind(`
		UPDATE tickets
		SET status = ?, priority = ?, assigned_to = ?
		WHERE id = ?`)
	_, err := r.db.ExecContext(ctx, query, status, priority, assignedTo, id)
	return err
}

// CountByStatus returns ticket counts grouped by status across ALL
// tickets. Dashboard aggregates are global, not visibility-filtered;
// only the recent list narrows by role.
func (r *TicketRepository) CountByStatus(ctx context.Context) ([]models.StatusCount, error) {
	var counts []models.StatusCount
	query := "SELECT status, COUNT(*) AS count FROM tickets GROUP BY status"
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, err
	}
	return counts, nil
}

// CountByPriority returns global ticket counts grouped by priority.
func (r *TicketRepository) CountByPriority(ctx context.Context) ([]models.PriorityCount, error) {
	var counts []models.PriorityCount
	query := "SELECT priority, COUNT(*) AS count FROM tickets GROUP BY priority"
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, err
	}
	return counts, nil
}

// Count returns the total number of tickets.
func (r *TicketRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM tickets"); err != nil {
		return 0, err
	}
	return count, nil
}

// CountByCreator returns how many tickets a user has submitted. Used by
// the user-delete guard.
func (r *TicketRepository) CountByCreator(ctx context.Context, userID uint) (int, error) {
	var count int
	query := r.db.Rebind("SELECT COUNT(*) FROM tickets WHERE created_by = ?")
	if err := r.db.GetContext(ctx, &count, query, userID); err != nil {
		return 0, err
	}
	return count, nil
}
