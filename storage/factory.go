package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fenilmodi00/ipo-dashboard/models"
	"github.com/fenilmodi00/ipo-dashboard/shared"
)

// New builds the backend named by backend. db is only used by "postgres".
func New(backend, dataDir string, db *sql.DB, metrics *shared.ServiceMetrics) (Store, error) {
	var store Store
	switch backend {
	case "json":
		jsonStore, err := NewJSONStore(dataDir)
		if err != nil {
			return nil, err
		}
		store = jsonStore
	case "postgres":
		if db == nil {
			return nil, fmt.Errorf("postgres storage requires a database connection")
		}
		store = NewPostgresStore(db)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
	return WithMetrics(store, metrics), nil
}

// instrumentedStore records an outcome metric for every call
type instrumentedStore struct {
	Store
	metrics *shared.ServiceMetrics
}

// WithMetrics decorates store with storage operation counters. A nil metrics returns store unchanged.
func WithMetrics(store Store, metrics *shared.ServiceMetrics) Store {
	if metrics == nil {
		return store
	}
	return &instrumentedStore{Store: store, metrics: metrics}
}

func (s *instrumentedStore) record(operation string, err error) {
	if IsDuplicateFavorite(err) {
		err = nil
	}
	s.metrics.RecordStorageOperation(s.Backend(), operation, err)
}

func (s *instrumentedStore) FindUserByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	user, err := s.Store.FindUserByGoogleID(ctx, googleID)
	s.record("find_user_by_google_id", err)
	return user, err
}

func (s *instrumentedStore) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.Store.FindUserByID(ctx, id)
	s.record("find_user_by_id", err)
	return user, err
}

func (s *instrumentedStore) FindOrCreateUser(ctx context.Context, googleID, email string, name *string) (*models.User, error) {
	user, err := s.Store.FindOrCreateUser(ctx, googleID, email, name)
	s.record("find_or_create_user", err)
	return user, err
}

func (s *instrumentedStore) ListFavorites(ctx context.Context, userID string) ([]models.Favorite, error) {
	favorites, err := s.Store.ListFavorites(ctx, userID)
	s.record("list_favorites", err)
	return favorites, err
}

func (s *instrumentedStore) FindFavorite(ctx context.Context, userID, symbol string) (*models.Favorite, error) {
	favorite, err := s.Store.FindFavorite(ctx, userID, symbol)
	s.record("find_favorite", err)
	return favorite, err
}

func (s *instrumentedStore) CreateFavorite(ctx context.Context, userID, symbol, name string, ipoDate models.CalendarDate) (*models.Favorite, error) {
	favorite, err := s.Store.CreateFavorite(ctx, userID, symbol, name, ipoDate)
	s.record("create_favorite", err)
	return favorite, err
}

func (s *instrumentedStore) DeleteFavorite(ctx context.Context, userID, symbol string) (bool, error) {
	deleted, err := s.Store.DeleteFavorite(ctx, userID, symbol)
	s.record("delete_favorite", err)
	return deleted, err
}

// PingWithTimeout bounds a health probe
func PingWithTimeout(ctx context.Context, store Store, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return store.Ping(ctx)
}
