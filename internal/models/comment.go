package models

import "time"

// Comment is a note on a ticket. Comments are immutable once created
// and are never deleted.
type Comment struct {
	ID        uint      `json:"id" db:"id"`
	TicketID  uint      `json:"ticket_id" db:"ticket_id"`
	UserID    uint      `json:"user_id" db:"user_id"`
	Comment   string    `json:"comment" db:"comment"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// Joined author name, populated by comment queries.
	UserName string `json:"user_name,omitempty" db:"user_name"`
}

// CreatedAtDisplay formats the creation time the way the AJAX comment
// payload and the detail view present it.
func (c *Comment) CreatedAtDisplay() string {
	return c.CreatedAt.Format("2006-01-02 15:04:05")
}
