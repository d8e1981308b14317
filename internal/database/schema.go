package database

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Statements mirror migrations/0001_init.sql. The sqlite variant exists
// so a local run needs no migration tooling.

var schemaMySQL = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INT UNSIGNED NOT NULL AUTO_INCREMENT,
		name VARCHAR(100) NOT NULL,
		email VARCHAR(190) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		role VARCHAR(10) NOT NULL DEFAULT 'USER',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uniq_users_email (email)
	)`,
	`CREATE TABLE IF NOT EXISTS tickets (
		id INT UNSIGNED NOT NULL AUTO_INCREMENT,
		title VARCHAR(255) NOT NULL,
		description TEXT NOT NULL,
		status VARCHAR(30) NOT NULL DEFAULT 'open',
		priority VARCHAR(30) NOT NULL DEFAULT 'medium',
		created_by INT UNSIGNED NOT NULL,
		assigned_to INT UNSIGNED NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_tickets_created_by (created_by),
		KEY idx_tickets_assigned_to (assigned_to),
		CONSTRAINT fk_tickets_created_by FOREIGN KEY (created_by) REFERENCES users (id),
		CONSTRAINT fk_tickets_assigned_to FOREIGN KEY (assigned_to) REFERENCES users (id)
	)`,
	`CREATE TABLE IF NOT EXISTS ticket_comments (
		id INT UNSIGNED NOT NULL AUTO_INCREMENT,
		ticket_id INT UNSIGNED NOT NULL,
		user_id INT UNSIGNED NOT NULL,
		comment TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_comments_ticket_id (ticket_id),
		CONSTRAINT fk_comments_ticket FOREIGN KEY (ticket_id) REFERENCES tickets (id),
		CONSTRAINT fk_comments_user FOREIGN KEY (user_id) REFERENCES users (id)
	)`,
}

var schemaSQLite = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'USER',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS tickets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'open',
		priority TEXT NOT NULL DEFAULT 'medium',
		created_by INTEGER NOT NULL REFERENCES users (id),
		assigned_to INTEGER NULL REFERENCES users (id),
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS ticket_comments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ticket_id INTEGER NOT NULL REFERENCES tickets (id),
		user_id INTEGER NOT NULL REFERENCES users (id),
		comment TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
}

// Bootstrap creates the schema if it does not exist. Postgres
// deployments are expected to run migrations/0001_init.sql instead.
func Bootstrap(db *sqlx.DB) error {
	var stmts []string
	switch db.DriverName() {
	case "mysql":
		stmts = schemaMySQL
	case "sqlite3":
		stmts = schemaSQLite
	default:
		return fmt.Errorf("schema bootstrap not supported for driver %s, run migrations manually", db.DriverName())
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			table := tableName(stmt)
			return fmt.Errorf("failed to create table %s: %w", table, err)
		}
	}
	return nil
}

func tableName(stmt string) string {
	fields := strings.Fields(stmt)
	for i, f := range fields {
		if strings.EqualFold(f, "EXISTS") && i+1 < len(fields) {
			return fields[i+1]
		}
	}
	return "?"
}
