package models

import "time"

// Ticket represents a support ticket. Status and priority are open
// string sets; the forms offer open/in-progress/closed and
// low/medium/high but nothing server-side depends on that vocabulary.
type Ticket struct {
	ID          uint      `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Status      string    `json:"status" db:"status"`
	Priority    string    `json:"priority" db:"priority"`
	CreatedBy   uint      `json:"created_by" db:"created_by"`
	AssignedTo  *uint     `json:"assigned_to,omitempty" db:"assigned_to"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`

	// Joined display names, populated by list/detail queries.
	CreatedByName  string  `json:"created_by_name,omitempty" db:"created_by_name"`
	AssignedToName *string `json:"assigned_to_name,omitempty" db:"assigned_to_name"`
}

// StatusCount is one row of the dashboard status aggregate.
type StatusCount struct {
	Status string `json:"status" db:"status"`
	Count  int    `json:"count" db:"count"`
}

// PriorityCount is one row of the dashboard priority aggregate.
type PriorityCount struct {
	Priority string `json:"priority" db:"priority"`
	Count    int    `json:"count" db:"count"`
}
