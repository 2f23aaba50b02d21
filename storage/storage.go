// Package storage persists users and favorites behind a single contract with
// interchangeable flat-file and PostgreSQL backends.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/fenilmodi00/ipo-dashboard/models"
	"github.com/fenilmodi00/ipo-dashboard/shared"
	"github.com/oklog/ulid/v2"
)

// ErrDuplicateFavorite is returned when (userId, companySymbol) already exists.
var ErrDuplicateFavorite = errors.New("favorite already exists for this user and symbol")

// UserStore holds accounts. Users are never updated or deleted.
type UserStore interface {
	FindUserByGoogleID(ctx context.Context, googleID string) (*models.User, error)
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	// FindOrCreateUser is first-writer-wins: every caller receives the record that was created first.
	FindOrCreateUser(ctx context.Context, googleID, email string, name *string) (*models.User, error)
}

// FavoriteStore holds favorites keyed by (userId, companySymbol).
type FavoriteStore interface {
	ListFavorites(ctx context.Context, userID string) ([]models.Favorite, error)
	FindFavorite(ctx context.Context, userID, symbol string) (*models.Favorite, error)
	CreateFavorite(ctx context.Context, userID, symbol, name string, ipoDate models.CalendarDate) (*models.Favorite, error)
	DeleteFavorite(ctx context.Context, userID, symbol string) (bool, error)
}

// Store is the full persistence contract chosen once at startup.
type Store interface {
	UserStore
	FavoriteStore
	Backend() string
	Ping(ctx context.Context) error
	Close() error
}

// IsDuplicateFavorite reports whether err is a duplicate-favorite rejection.
func IsDuplicateFavorite(err error) bool {
	return errors.Is(err, ErrDuplicateFavorite)
}

func newFavoriteID() string {
	return ulid.Make().String()
}

func storageError(backend, operation string, err error) error {
	if err == nil || errors.Is(err, ErrDuplicateFavorite) {
		return err
	}
	if _, ok := shared.AsServiceError(err); ok {
		return err
	}
	return shared.NewStorageError(backend+"_store", operation, fmt.Errorf("%s: %w", operation, err))
}
