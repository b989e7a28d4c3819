package database

import (
	"context"
	"fmt"
	"time"

	"roombook/internal/models"
)

const userColumns = `id, name, username, email, role, password_hash, created_at`

func (db *DB) CreateUser(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (name, username, email, role, password_hash, created_at)
              VALUES (?, ?, ?, ?, ?, ?)`
	now := time.Now().UTC()
	result, err := db.ExecContext(ctx, query,
		user.Name,
		user.Username,
		user.Email,
		user.Role,
		user.PasswordHash,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", translate(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	user.ID = id
	user.CreatedAt = now
	return nil
}

// UpsertUser creates the user or refreshes the row with the same username.
// An empty PasswordHash keeps the stored one.
func (db *DB) UpsertUser(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (name, username, email, role, password_hash, created_at)
              VALUES (?, ?, ?, ?, ?, ?)
              ON CONFLICT(username) DO UPDATE SET
                name = excluded.name,
                email = excluded.email,
                role = excluded.role,
                password_hash = CASE WHEN excluded.password_hash = '' THEN users.password_hash ELSE excluded.password_hash END`
	_, err := db.ExecContext(ctx, query,
		user.Name,
		user.Username,
		user.Email,
		user.Role,
		user.PasswordHash,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert user %s: %w", user.Username, translate(err))
	}

	stored, err := db.GetUserByUsername(ctx, user.Username)
	if err != nil {
		return err
	}
	*user = *stored
	return nil
}

func (db *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	user, err := db.queryUser(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return user, nil
}

func (db *DB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = ?`
	user, err := db.queryUser(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("failed to get user %q: %w", username, err)
	}
	return user, nil
}

func (db *DB) queryUser(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	var user models.User
	err := db.QueryRowContext(ctx, query, args...).Scan(
		&user.ID, &user.Name, &user.Username, &user.Email, &user.Role, &user.PasswordHash, &user.CreatedAt,
	)
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}
