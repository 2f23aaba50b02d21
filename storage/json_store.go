package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fenilmodi00/ipo-dashboard/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	usersFile     = "users.json"
	favoritesFile = "favorites.json"
)

// JSONStore keeps each collection as a JSON array in its own file.
// Every write holds the collection lock across load, mutate and persist, and the
// file is replaced atomically, so concurrent writers within one process never lose
// updates. Several processes sharing one data directory are not supported.
type JSONStore struct {
	dir         string
	usersMu     sync.RWMutex
	favoritesMu sync.RWMutex
	now         func() time.Time
}

// NewJSONStore creates the data directory if needed
func NewJSONStore(dir string) (*JSONStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, storageError("json", "init", fmt.Errorf("failed to create data directory %s: %w", dir, err))
	}

	logrus.WithFields(logrus.Fields{
		"component": "JSONStore",
		"data_dir":  dir,
	}).Info("Using JSON file storage")

	return &JSONStore{
		dir: dir,
		now: func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}, nil
}

func (s *JSONStore) Backend() string {
	return "json"
}

// Ping verifies both collections are readable
func (s *JSONStore) Ping(ctx context.Context) error {
	s.usersMu.RLock()
	_, err := s.loadUsers()
	s.usersMu.RUnlock()
	if err != nil {
		return storageError("json", "ping", err)
	}

	s.favoritesMu.RLock()
	_, err = s.loadFavorites()
	s.favoritesMu.RUnlock()
	return storageError("json", "ping", err)
}

func (s *JSONStore) Close() error {
	return nil
}

func (s *JSONStore) FindUserByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	s.usersMu.RLock()
	defer s.usersMu.RUnlock()

	users, err := s.loadUsers()
	if err != nil {
		return nil, storageError("json", "find_user_by_google_id", err)
	}
	for i := range users {
		if users[i].GoogleID == googleID {
			return &users[i], nil
		}
	}
	return nil, nil
}

func (s *JSONStore) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	s.usersMu.RLock()
	defer s.usersMu.RUnlock()

	users, err := s.loadUsers()
	if err != nil {
		return nil, storageError("json", "find_user_by_id", err)
	}
	for i := range users {
		if users[i].ID == id {
			return &users[i], nil
		}
	}
	return nil, nil
}

func (s *JSONStore) FindOrCreateUser(ctx context.Context, googleID, email string, name *string) (*models.User, error) {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	users, err := s.loadUsers()
	if err != nil {
		return nil, storageError("json", "find_or_create_user", err)
	}
	for i := range users {
		if users[i].GoogleID == googleID {
			return &users[i], nil
		}
	}

	user := models.User{
		ID:        uuid.NewString(),
		GoogleID:  googleID,
		Email:     email,
		Name:      name,
		CreatedAt: s.now(),
	}
	users = append(users, user)

	if err := s.writeCollection(usersFile, users); err != nil {
		return nil, storageError("json", "find_or_create_user", err)
	}

	logrus.WithFields(logrus.Fields{
		"component": "JSONStore",
		"user_id":   user.ID,
	}).Info("Created user")

	return &user, nil
}

func (s *JSONStore) ListFavorites(ctx context.Context, userID string) ([]models.Favorite, error) {
	s.favoritesMu.RLock()
	defer s.favoritesMu.RUnlock()

	favorites, err := s.loadFavorites()
	if err != nil {
		return nil, storageError("json", "list_favorites", err)
	}

	result := make([]models.Favorite, 0)
	for _, favorite := range favorites {
		if favorite.UserID == userID {
			result = append(result, favorite)
		}
	}
	return result, nil
}

func (s *JSONStore) FindFavorite(ctx context.Context, userID, symbol string) (*models.Favorite, error) {
	s.favoritesMu.RLock()
	defer s.favoritesMu.RUnlock()

	favorites, err := s.loadFavorites()
	if err != nil {
		return nil, storageError("json", "find_favorite", err)
	}
	for i := range favorites {
		if favorites[i].UserID == userID && favorites[i].CompanySymbol == symbol {
			return &favorites[i], nil
		}
	}
	return nil, nil
}

func (s *JSONStore) CreateFavorite(ctx context.Context, userID, symbol, name string, ipoDate models.CalendarDate) (*models.Favorite, error) {
	s.favoritesMu.Lock()
	defer s.favoritesMu.Unlock()

	favorites, err := s.loadFavorites()
	if err != nil {
		return nil, storageError("json", "create_favorite", err)
	}
	for _, existing := range favorites {
		if existing.UserID == userID && existing.CompanySymbol == symbol {
			return nil, ErrDuplicateFavorite
		}
	}

	favorite := models.Favorite{
		ID:            newFavoriteID(),
		UserID:        userID,
		CompanySymbol: symbol,
		CompanyName:   name,
		IPODate:       ipoDate,
		AddedAt:       s.now(),
	}
	favorites = append(favorites, favorite)

	if err := s.writeCollection(favoritesFile, favorites); err != nil {
		return nil, storageError("json", "create_favorite", err)
	}
	return &favorite, nil
}

func (s *JSONStore) DeleteFavorite(ctx context.Context, userID, symbol string) (bool, error) {
	s.favoritesMu.Lock()
	defer s.favoritesMu.Unlock()

	favorites, err := s.loadFavorites()
	if err != nil {
		return false, storageError("json", "delete_favorite", err)
	}

	remaining := make([]models.Favorite, 0, len(favorites))
	for _, favorite := range favorites {
		if favorite.UserID == userID && favorite.CompanySymbol == symbol {
			continue
		}
		remaining = append(remaining, favorite)
	}
	if len(remaining) == len(favorites) {
		return false, nil
	}

	if err := s.writeCollection(favoritesFile, remaining); err != nil {
		return false, storageError("json", "delete_favorite", err)
	}
	return true, nil
}

func (s *JSONStore) loadUsers() ([]models.User, error) {
	var users []models.User
	if err := s.readCollection(usersFile, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *JSONStore) loadFavorites() ([]models.Favorite, error) {
	var favorites []models.Favorite
	if err := s.readCollection(favoritesFile, &favorites); err != nil {
		return nil, err
	}
	return favorites, nil
}

// readCollection treats a missing or empty file as an empty collection
func (s *JSONStore) readCollection(name string, dest interface{}) error {
	path := filepath.Join(s.dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("corrupt collection file %s: %w", path, err)
	}
	return nil
}

// writeCollection replaces the file through a synced temp file and rename
func (s *JSONStore) writeCollection(name string, data interface{}) error {
	target := filepath.Join(s.dir, name)
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	jsonData = append(jsonData, '\n')

	tmpFile, err := os.CreateTemp(s.dir, ".tmp-"+name+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(jsonData); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	// Persist the rename itself; not every platform can sync a directory
	if dir, err := os.Open(s.dir); err == nil {
		_ = dir.Sync()
		dir.Close()
	}
	return nil
}
