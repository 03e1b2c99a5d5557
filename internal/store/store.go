// Package store provides the favorites store and its drivers.
package store

import (
	"context"
	"errors"

	"github.com/al3xb0/mindpal-task/internal/model"
)

// ErrDuplicate is returned when a user already has the character as a favorite.
var ErrDuplicate = errors.New("favorite already exists")

// Store is a per-user collection of favorite characters.
type Store interface {
	// List returns every favorite of the user, newest first.
	List(ctx context.Context, userID string) ([]model.FavoriteEntry, error)

	// Insert stores a favorite and returns its id. Drivers that cannot
	// return an id synchronously return an empty string.
	Insert(ctx context.Context, fav model.NewFavorite) (string, error)

	// Delete removes the user's favorite for a character. Deleting a
	// missing favorite is not an error.
	Delete(ctx context.Context, userID string, characterID int) error

	Ping(ctx context.Context) error
	Close() error
}
