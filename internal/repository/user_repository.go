package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/helpdesk-io/helpdesk-ce/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

// UserRepository handles database operations for users.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = "id, name, email, password_hash, role, created_at"

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	query := r.db.Rebind("SELECT " + userColumns + " FROM users WHERE id = ?")
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetByEmail retrieves a user by email, the login identifier.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	query := r.db.Rebind("SELECT " + userColumns + " FROM users WHERE email = ?")
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// EmailExists reports whether a user is already registered under email.
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int
	query := r.db.Rebind("SELECT COUNT(*) FROM users WHERE email = ?")
	if err := r.db.GetContext(ctx, &count, query, email); err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts a new user and sets its ID.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := r.db.Rebind(`
		INSERT INTO users (name, email, password_hash, role)
		VALUES (?, ?, ?, ?)`)
	res, err := r.db.ExecContext(ctx, query, user.Name, user.Email, user.PasswordHash, user.Role)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	user.ID = uint(id)
	return nil
}

// List returns all users, newest first.
func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	query := "SELECT id, name, email, role, created_at FROM users ORDER BY created_at DESC"
	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, err
	}
	return users, nil
}

// Agents returns users who can be assigned tickets (ADMIN or AGENT).
func (r *UserRepository) Agents(ctx context.Context) ([]models.User, error) {
	var agents []models.User
	query := "SELECT id, name, email, role, created_at FROM users WHERE role IN ('ADMIN', 'AGENT') ORDER BY name"
	if err := r.db.SelectContext(ctx, &agents, query); err != nil {
		return nil, err
	}
	return agents, nil
}

// Count returns the total number of users.
func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM users"); err != nil {
		return 0, err
	}
	return count, nil
}

// UpdateRole changes a user's role. Policy checks happen before this.
func (r *UserRepository) UpdateRole(ctx context.Context, id uint, role models.Role) error {
	query := r.db.Rebind("UPDATE users SET role = ? WHERE id = ?")
	_, err := r.db.ExecContext(ctx, query, role, id)
	return err
}

// Delete removes a user. The dependent-ticket guard is enforced by the
// policy before this is called.
func (r *UserRepository) Delete(ctx context.Context, id uint) error {
	query := r.db.Rebind("DELETE FROM users WHERE id = ?")
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}
