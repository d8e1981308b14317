package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/helpdesk-io/helpdesk-ce/internal/models"
)

var (
	ErrEmptyComment    = errors.New("comment cannot be empty")
	ErrCommentNotFound = errors.New("comment not found")
)

// CommentRepository handles database operations for ticket comments.
type CommentRepository struct {
	db *sqlx.DB
}

// NewCommentRepository creates a new comment repository.
func NewCommentRepository(db *sqlx.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

const commentSelect = `
	SELECT c.id, c.ticket_id, c.user_id, c.comment, c.created_at,
	       u.name AS user_name
	FROM ticket_comments c
	JOIN users u ON c.user_id = u.id`

// Create inserts a comment and reads it back with the author name, so
// the AJAX path can return the stored row including its timestamp.
// Whitespace-only text is rejected before anything is written.
func (r *CommentRepository) Create(ctx context.Context, ticketID, userID uint, text string) (*models.Comment, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyComment
	}

	query := r.db.Rebind(`
		INSERT INTO ticket_comments (ticket_id, user_id, comment)
		VALUES (?, ?, ?)`)
	res, err := r.db.ExecContext(ctx, query, ticketID, userID, text)
	if err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	return r.GetByID(ctx, uint(id))
}

// GetByID retrieves a comment with its author name.
func (r *CommentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	query := r.db.Rebind(commentSelect + " WHERE c.id = ?")
	if err := r.db.GetContext(ctx, &comment, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}
	return &comment, nil
}

// ListByTicket returns a ticket's comments in creation order.
func (r *CommentRepository) ListByTicket(ctx context.Context, ticketID uint) ([]models.Comment, error) {
	var comments []models.Comment
	query := r.db.Rebind(commentSelect + " WHERE c.ticket_id = ? ORDER BY c.created_at ASC")
	if err := r.db.SelectContext(ctx, &comments, query, ticketID); err != nil {
		return nil, err
	}
	return comments, nil
}
