// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"

	"github.com/mmynk/chitfund/internal/models"
)

// Store persists group snapshots and user accounts.
// Groups live in memory while the process runs; the store makes them survive restarts.
// This abstraction allows swapping storage backends without changing the service layer.
type Store interface {
	// SaveGroup writes the snapshot unless a snapshot with an equal or higher
	// Group.Version is already stored.
	SaveGroup(ctx context.Context, snap *models.GroupSnapshot) error

	// GetGroup loads one group snapshot.
	// Returns an error wrapping models.ErrGroupNotFound if it does not exist.
	GetGroup(ctx context.Context, groupID string) (*models.GroupSnapshot, error)

	// ListGroups loads every group snapshot in creation order.
	ListGroups(ctx context.Context) ([]*models.GroupSnapshot, error)

	// CreateUser persists a new user. The address must be unique.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByAddress returns nil, nil when no user has the address.
	GetUserByAddress(ctx context.Context, address string) (*models.User, error)

	// GetUserByID returns nil, nil when the user does not exist.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// GetUsersByAddresses maps known addresses to their users.
	GetUsersByAddresses(ctx context.Context, addresses []string) (map[string]*models.User, error)

	// Close releases any resources held by the store.
	Close() error
}
