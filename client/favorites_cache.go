package client

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/fenilmodi00/ipo-dashboard/models"
)

// DefaultStaleTime is how long a fetched copy is served before Favorites refetches
const DefaultStaleTime = 5 * time.Minute

// FavoriteState is the client-side lifecycle of one symbol
type FavoriteState int

const (
	StateAbsent FavoriteState = iota
	StatePendingAdd
	StateFavorited
	StatePendingRemove
)

func (s FavoriteState) String() string {
	switch s {
	case StatePendingAdd:
		return "pending-add"
	case StateFavorited:
		return "favorited"
	case StatePendingRemove:
		return "pending-remove"
	default:
		return "absent"
	}
}

// FavoritesAPI is the server side of the favorites cache
type FavoritesAPI interface {
	ListFavorites(ctx context.Context) ([]models.Favorite, error)
	AddFavorite(ctx context.Context, input models.FavoriteInput) (*models.Favorite, error)
	RemoveFavorite(ctx context.Context, symbol string) error
}

// FavoritesCache is the client's copy of the signed-in user's favorites.
// The server is authoritative: nothing is inserted before the server confirms it,
// and every mutation marks the copy for a full refetch.
type FavoritesCache struct {
	api       FavoritesAPI
	staleTime time.Duration
	now       func() time.Time

	mu          sync.RWMutex
	entries     []models.Favorite
	pending     map[string]FavoriteState
	fetchedAt   time.Time
	loaded      bool
	invalidated bool
	// generation changes on sign-in and sign-out so late responses from a previous session are dropped
	generation uint64
	// mutations counts confirmed adds and removes so a list fetched before one of them is not applied
	mutations uint64

	locksMu     sync.Mutex
	symbolLocks map[string]*sync.Mutex
}

func NewFavoritesCache(api FavoritesAPI, staleTime time.Duration) *FavoritesCache {
	if staleTime <= 0 {
		staleTime = DefaultStaleTime
	}
	return &FavoritesCache{
		api:         api,
		staleTime:   staleTime,
		now:         time.Now,
		pending:     make(map[string]FavoriteState),
		symbolLocks: make(map[string]*sync.Mutex),
	}
}

// SignIn drops whatever the copy held and loads it from the server
func (fc *FavoritesCache) SignIn(ctx context.Context) error {
	fc.reset()
	return fc.Refresh(ctx)
}

// SignOut drops the copy
func (fc *FavoritesCache) SignOut() {
	fc.reset()
}

func (fc *FavoritesCache) reset() {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.entries = nil
	fc.pending = make(map[string]FavoriteState)
	fc.fetchedAt = time.Time{}
	fc.loaded = false
	fc.invalidated = false
	fc.generation++
}

// Refresh replaces the copy with the server's list. On failure the copy is unchanged.
// A list that a confirmed mutation overtook is discarded and the copy stays invalidated.
func (fc *FavoritesCache) Refresh(ctx context.Context) error {
	fc.mu.RLock()
	generation, mutations := fc.generation, fc.mutations
	fc.mu.RUnlock()

	favorites, err := fc.api.ListFavorites(ctx)
	if err != nil {
		return err
	}

	fc.mu.Lock()
	defer fc.mu.Unlock()
	if fc.generation != generation {
		return nil
	}
	if fc.mutations != mutations {
		fc.invalidated = true
		return nil
	}
	fc.entries = append(make([]models.Favorite, 0, len(favorites)), favorites...)
	fc.fetchedAt = fc.now()
	fc.loaded = true
	fc.invalidated = false
	return nil
}

// Favorites returns the copy, refetching first when it is invalidated or stale.
// When that refetch fails the previous copy is returned with the error.
func (fc *FavoritesCache) Favorites(ctx context.Context) ([]models.Favorite, error) {
	var err error
	if fc.needsRefresh() {
		err = fc.Refresh(ctx)
	}
	return fc.snapshot(), err
}

func (fc *FavoritesCache) needsRefresh() bool {
	fc.mu.RLock()
	defer fc.mu.RUnlock()
	return !fc.loaded || fc.invalidated || fc.now().Sub(fc.fetchedAt) >= fc.staleTime
}

func (fc *FavoritesCache) snapshot() []models.Favorite {
	fc.mu.RLock()
	defer fc.mu.RUnlock()
	return append(make([]models.Favorite, 0, len(fc.entries)), fc.entries...)
}

// Add asks the server to add a favorite and merges the server's record on success
func (fc *FavoritesCache) Add(ctx context.Context, input models.FavoriteInput) (*models.Favorite, error) {
	symbol := strings.TrimSpace(input.CompanySymbol)
	unlock := fc.lockSymbol(symbol)
	defer unlock()

	generation := fc.beginTransition(symbol, StatePendingAdd)

	favorite, err := fc.api.AddFavorite(ctx, input)

	fc.mu.Lock()
	defer fc.mu.Unlock()
	if fc.generation != generation {
		return favorite, err
	}
	delete(fc.pending, symbol)
	if err != nil {
		return nil, err
	}

	fc.removeEntry(favorite.CompanySymbol)
	fc.entries = append(fc.entries, *favorite)
	fc.mutations++
	fc.invalidated = true
	return favorite, nil
}

// Remove asks the server to delete the favorite and drops it from the copy on success
func (fc *FavoritesCache) Remove(ctx context.Context, symbol string) error {
	symbol = strings.TrimSpace(symbol)
	unlock := fc.lockSymbol(symbol)
	defer unlock()

	generation := fc.beginTransition(symbol, StatePendingRemove)

	err := fc.api.RemoveFavorite(ctx, symbol)

	fc.mu.Lock()
	defer fc.mu.Unlock()
	if fc.generation != generation {
		return err
	}
	delete(fc.pending, symbol)
	if err != nil {
		return err
	}

	fc.removeEntry(symbol)
	fc.mutations++
	fc.invalidated = true
	return nil
}

// IsFavorite answers from the copy without a network call
func (fc *FavoritesCache) IsFavorite(symbol string) bool {
	return fc.State(symbol) == StateFavorited
}

// State answers from the copy without a network call
func (fc *FavoritesCache) State(symbol string) FavoriteState {
	fc.mu.RLock()
	defer fc.mu.RUnlock()
	return fc.stateLocked(strings.TrimSpace(symbol))
}

func (fc *FavoritesCache) stateLocked(symbol string) FavoriteState {
	if state, ok := fc.pending[symbol]; ok {
		return state
	}
	for _, favorite := range fc.entries {
		if favorite.CompanySymbol == symbol {
			return StateFavorited
		}
	}
	return StateAbsent
}

// beginTransition marks symbol pending; the per-symbol lock guarantees no other transition is in flight
func (fc *FavoritesCache) beginTransition(symbol string, state FavoriteState) uint64 {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.pending[symbol] = state
	return fc.generation
}

// removeEntry deletes symbol from the copy; caller holds mu
func (fc *FavoritesCache) removeEntry(symbol string) {
	kept := fc.entries[:0]
	for _, favorite := range fc.entries {
		if favorite.CompanySymbol != symbol {
			kept = append(kept, favorite)
		}
	}
	fc.entries = kept
}

// lockSymbol serializes Add and Remove for one symbol
func (fc *FavoritesCache) lockSymbol(symbol string) func() {
	fc.locksMu.Lock()
	lock, ok := fc.symbolLocks[symbol]
	if !ok {
		lock = &sync.Mutex{}
		fc.symbolLocks[symbol] = lock
	}
	fc.locksMu.Unlock()

	lock.Lock()
	return lock.Unlock
}
