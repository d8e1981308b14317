package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/helpdesk-io/helpdesk-ce/internal/config"
)

// Connect opens a database connection for the configured driver,
// applies pool settings, and verifies it with a ping. MySQL is the
// primary driver; postgres and sqlite3 are supported for alternative
// deployments and local development.
func Connect(cfg *config.DatabaseConfig) (*sqlx.DB, error) {
	dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Connect(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", cfg.Driver, err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return db, nil
}

// DSN builds the driver-specific connection string.
func DSN(cfg *config.DatabaseConfig) (string, error) {
	switch cfg.Driver {
	case "mysql":
		// parseTime so created_at scans into time.Time.
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4",
			cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name), nil
	case "postgres":
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name), nil
	case "sqlite3":
		path := cfg.Path
		if path == "" {
			path = "helpdesk.db"
		}
		return path + "?_foreign_keys=on", nil
	default:
		return "", fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}
