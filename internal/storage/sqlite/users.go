package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/mmynk/chitfund/internal/models"
)

const selectUser = `
		SELECT id, address, display_name, password_hash, created_at, updated_at
		FROM users
	`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.Address,
		&user.DisplayName,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	return user, err
}

// CreateUser inserts a new user into the database.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, address, display_name, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		user.ID,
		user.Address,
		user.DisplayName,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUserByAddress retrieves a user by their wallet address.
func (s *SQLiteStore) GetUserByAddress(ctx context.Context, address string) (*models.User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx, selectUser+"WHERE address = ?", address))
	if err == sql.ErrNoRows {
		return nil, nil // User not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by address: %w", err)
	}

	return user, nil
}

// GetUserByID retrieves a user by their ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx, selectUser+"WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil // User not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}

	return user, nil
}

// GetUsersByAddresses retrieves multiple users by wallet address.
// Returns a map of address to User; unknown addresses are omitted.
func (s *SQLiteStore) GetUsersByAddresses(ctx context.Context, addresses []string) (map[string]*models.User, error) {
	users := make(map[string]*models.User)
	if len(addresses) == 0 {
		return users, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(addresses)), ", ")
	args := make([]any, len(addresses))
	for i, a := range addresses {
		args[i] = a
	}

	rows, err := s.db.QueryContext(ctx, selectUser+"WHERE address IN ("+placeholders+")", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get users by address: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users[user.Address] = user
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}
