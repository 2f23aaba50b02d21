package storage

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/fenilmodi00/ipo-dashboard/models"
	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreContract exercises the behaviour every backend must share
func runStoreContract(t *testing.T, store Store) {
	ctx := context.Background()

	newUser := func(t *testing.T) *models.User {
		t.Helper()
		user, err := store.FindOrCreateUser(ctx, "google-"+uuid.NewString(), "user@example.com", nil)
		require.NoError(t, err)
		return user
	}
	ipoDate := models.NewCalendarDate(2025, time.January, 1)

	t.Run("FindOrCreateUserIsIdempotent", func(t *testing.T) {
		parameters := gopter.DefaultTestParameters()
		parameters.MinSuccessfulTests = 20
		properties := gopter.NewProperties(parameters)

		properties.Property("same external id always yields the same user", prop.ForAll(
			func(suffix string) bool {
				googleID := "gid-" + uuid.NewString() + suffix
				name := "Ada"
				first, err := store.FindOrCreateUser(ctx, googleID, "a@example.com", &name)
				if err != nil {
					t.Logf("first call failed: %v", err)
					return false
				}
				second, err := store.FindOrCreateUser(ctx, googleID, "changed@example.com", nil)
				if err != nil {
					t.Logf("second call failed: %v", err)
					return false
				}
				return first.ID == second.ID && second.Email == "a@example.com"
			},
			gen.AlphaString(),
		))

		properties.TestingRun(t)
	})

	t.Run("FindUserLookups", func(t *testing.T) {
		name := "Grace"
		created, err := store.FindOrCreateUser(ctx, "lookup-"+uuid.NewString(), "g@example.com", &name)
		require.NoError(t, err)

		byID, err := store.FindUserByID(ctx, created.ID)
		require.NoError(t, err)
		require.NotNil(t, byID)
		assert.Equal(t, created.GoogleID, byID.GoogleID)
		require.NotNil(t, byID.Name)
		assert.Equal(t, "Grace", *byID.Name)

		byGoogleID, err := store.FindUserByGoogleID(ctx, created.GoogleID)
		require.NoError(t, err)
		require.NotNil(t, byGoogleID)
		assert.Equal(t, created.ID, byGoogleID.ID)

		missing, err := store.FindUserByID(ctx, "no-such-user")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("ConcurrentFindOrCreateFirstWriterWins", func(t *testing.T) {
		googleID := "race-" + uuid.NewString()
		const workers = 8

		ids := make([]string, workers)
		errs := make([]error, workers)
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				user, err := store.FindOrCreateUser(ctx, googleID, fmt.Sprintf("w%d@example.com", i), nil)
				errs[i] = err
				if user != nil {
					ids[i] = user.ID
				}
			}(i)
		}
		wg.Wait()

		for i := 0; i < workers; i++ {
			require.NoError(t, errs[i])
			assert.Equal(t, ids[0], ids[i])
		}
	})

	t.Run("CreatedFavoriteRoundTrips", func(t *testing.T) {
		user := newUser(t)

		created, err := store.CreateFavorite(ctx, user.ID, "ABCD", "Acme Corp", ipoDate)
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)
		assert.False(t, created.AddedAt.IsZero())

		favorites, err := store.ListFavorites(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, favorites, 1)
		assert.Equal(t, created.ID, favorites[0].ID)
		assert.Equal(t, "ABCD", favorites[0].CompanySymbol)
		assert.Equal(t, "Acme Corp", favorites[0].CompanyName)
		assert.Equal(t, "2025-01-01", favorites[0].IPODate.String())
		assert.True(t, created.AddedAt.Equal(favorites[0].AddedAt))

		found, err := store.FindFavorite(ctx, user.ID, "ABCD")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, created.ID, found.ID)
	})

	t.Run("DuplicateFavoriteIsRejectedWithoutMutation", func(t *testing.T) {
		user := newUser(t)

		_, err := store.CreateFavorite(ctx, user.ID, "DUPE", "Dupe Inc", ipoDate)
		require.NoError(t, err)

		_, err = store.CreateFavorite(ctx, user.ID, "DUPE", "Other Name", models.NewCalendarDate(2026, time.March, 3))
		require.Error(t, err)
		assert.True(t, IsDuplicateFavorite(err))

		favorites, err := store.ListFavorites(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, favorites, 1)
		assert.Equal(t, "Dupe Inc", favorites[0].CompanyName)
	})

	t.Run("SameSymbolForDifferentUsers", func(t *testing.T) {
		first := newUser(t)
		second := newUser(t)

		_, err := store.CreateFavorite(ctx, first.ID, "SHRD", "Shared", ipoDate)
		require.NoError(t, err)
		_, err = store.CreateFavorite(ctx, second.ID, "SHRD", "Shared", ipoDate)
		require.NoError(t, err)

		deleted, err := store.DeleteFavorite(ctx, first.ID, "SHRD")
		require.NoError(t, err)
		assert.True(t, deleted)

		remaining, err := store.ListFavorites(ctx, second.ID)
		require.NoError(t, err)
		assert.Len(t, remaining, 1)
	})

	t.Run("DeleteSemantics", func(t *testing.T) {
		user := newUser(t)

		deleted, err := store.DeleteFavorite(ctx, user.ID, "NONE")
		require.NoError(t, err)
		assert.False(t, deleted)

		_, err = store.CreateFavorite(ctx, user.ID, "KEEP", "Keep", ipoDate)
		require.NoError(t, err)
		_, err = store.CreateFavorite(ctx, user.ID, "DROP", "Drop", ipoDate)
		require.NoError(t, err)

		deleted, err = store.DeleteFavorite(ctx, user.ID, "DROP")
		require.NoError(t, err)
		assert.True(t, deleted)

		favorites, err := store.ListFavorites(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, favorites, 1)
		assert.Equal(t, "KEEP", favorites[0].CompanySymbol)

		deleted, err = store.DeleteFavorite(ctx, user.ID, "DROP")
		require.NoError(t, err)
		assert.False(t, deleted)
	})

	t.Run("ListPreservesInsertionOrder", func(t *testing.T) {
		user := newUser(t)
		symbols := []string{"ZZZ", "AAA", "MMM", "BBB"}
		for _, symbol := range symbols {
			_, err := store.CreateFavorite(ctx, user.ID, symbol, symbol+" Inc", ipoDate)
			require.NoError(t, err)
		}

		favorites, err := store.ListFavorites(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, favorites, len(symbols))
		for i, symbol := range symbols {
			assert.Equal(t, symbol, favorites[i].CompanySymbol)
		}
	})

	t.Run("EmptyListIsNotNil", func(t *testing.T) {
		user := newUser(t)
		favorites, err := store.ListFavorites(ctx, user.ID)
		require.NoError(t, err)
		assert.NotNil(t, favorites)
		assert.Empty(t, favorites)
	})

	t.Run("AddRemoveSequencesFollowAcceptedOperations", func(t *testing.T) {
		parameters := gopter.DefaultTestParameters()
		parameters.MinSuccessfulTests = 15
		properties := gopter.NewProperties(parameters)

		properties.Property("final presence equals the state implied by accepted operations", prop.ForAll(
			func(ops []bool) bool {
				user := newUser(t)
				present := false
				for _, add := range ops {
					if add {
						_, err := store.CreateFavorite(ctx, user.ID, "SEQ", "Sequence Co", ipoDate)
						switch {
						case err == nil:
							if present {
								t.Logf("duplicate add accepted")
								return false
							}
							present = true
						case IsDuplicateFavorite(err):
							if !present {
								t.Logf("add rejected while absent")
								return false
							}
						default:
							t.Logf("unexpected error: %v", err)
							return false
						}
					} else {
						deleted, err := store.DeleteFavorite(ctx, user.ID, "SEQ")
						if err != nil || deleted != present {
							t.Logf("delete returned %v (err %v) while present=%v", deleted, err, present)
							return false
						}
						present = false
					}
				}

				favorites, err := store.ListFavorites(ctx, user.ID)
				if err != nil {
					return false
				}
				return (len(favorites) == 1) == present && len(favorites) <= 1
			},
			gen.SliceOfN(8, gen.Bool()),
		))

		properties.TestingRun(t)
	})

	t.Run("ConcurrentCreatesOfOneSymbolAcceptExactlyOne", func(t *testing.T) {
		user := newUser(t)
		const workers = 10

		var accepted, rejected int
		var mu sync.Mutex
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := store.CreateFavorite(ctx, user.ID, "RACE", "Race Co", ipoDate)
				mu.Lock()
				defer mu.Unlock()
				if err == nil {
					accepted++
				} else if IsDuplicateFavorite(err) {
					rejected++
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, accepted)
		assert.Equal(t, workers-1, rejected)
	})

	t.Run("Ping", func(t *testing.T) {
		assert.NoError(t, PingWithTimeout(ctx, store, time.Second))
	})
}
