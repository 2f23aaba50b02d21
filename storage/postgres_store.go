package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fenilmodi00/ipo-dashboard/database"
	"github.com/fenilmodi00/ipo-dashboard/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

const uniqueViolation = pq.ErrorCode("23505")

// PostgresStore implements Store on PostgreSQL. Uniqueness is enforced by the
// users_google_id_key and favorites_user_id_company_symbol_key constraints.
// The pool is owned by the caller.
type PostgresStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{
		db:  db,
		now: func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

func (s *PostgresStore) Backend() string {
	return "postgres"
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return storageError("postgres", "ping", database.HealthCheck(ctx, s.db))
}

func (s *PostgresStore) Close() error {
	return nil
}

func (s *PostgresStore) FindUserByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	user, err := s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, google_id, email, name, created_at FROM users WHERE google_id = $1`, googleID))
	return user, storageError("postgres", "find_user_by_google_id", err)
}

func (s *PostgresStore) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, google_id, email, name, created_at FROM users WHERE id = $1`, id))
	return user, storageError("postgres", "find_user_by_id", err)
}

// FindOrCreateUser inserts with ON CONFLICT DO NOTHING and re-reads, so a
// concurrent creator that commits first wins and both callers see its row.
func (s *PostgresStore) FindOrCreateUser(ctx context.Context, googleID, email string, name *string) (*models.User, error) {
	existing, err := s.FindUserByGoogleID(ctx, googleID)
	if err != nil || existing != nil {
		return existing, err
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, google_id, email, name, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (google_id) DO NOTHING`,
		uuid.NewString(), googleID, email, nullString(name), s.now())
	if err != nil {
		return nil, storageError("postgres", "find_or_create_user", err)
	}

	if inserted, _ := result.RowsAffected(); inserted > 0 {
		logrus.WithField("component", "PostgresStore").Info("Created user")
	}

	user, err := s.FindUserByGoogleID(ctx, googleID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, storageError("postgres", "find_or_create_user", fmt.Errorf("user %s missing after insert", googleID))
	}
	return user, nil
}

func (s *PostgresStore) ListFavorites(ctx context.Context, userID string) ([]models.Favorite, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, company_symbol, company_name, ipo_date, added_at
		 FROM favorites
		 WHERE user_id = $1
		 ORDER BY added_at ASC, id ASC`, userID)
	if err != nil {
		return nil, storageError("postgres", "list_favorites", err)
	}
	defer rows.Close()

	favorites := make([]models.Favorite, 0)
	for rows.Next() {
		var favorite models.Favorite
		if err := rows.Scan(&favorite.ID, &favorite.UserID, &favorite.CompanySymbol,
			&favorite.CompanyName, &favorite.IPODate, &favorite.AddedAt); err != nil {
			return nil, storageError("postgres", "list_favorites", err)
		}
		favorite.AddedAt = favorite.AddedAt.UTC()
		favorites = append(favorites, favorite)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("postgres", "list_favorites", err)
	}
	return favorites, nil
}

func (s *PostgresStore) FindFavorite(ctx context.Context, userID, symbol string) (*models.Favorite, error) {
	var favorite models.Favorite
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, company_symbol, company_name, ipo_date, added_at
		 FROM favorites
		 WHERE user_id = $1 AND company_symbol = $2`, userID, symbol).
		Scan(&favorite.ID, &favorite.UserID, &favorite.CompanySymbol,
			&favorite.CompanyName, &favorite.IPODate, &favorite.AddedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageError("postgres", "find_favorite", err)
	}
	favorite.AddedAt = favorite.AddedAt.UTC()
	return &favorite, nil
}

func (s *PostgresStore) CreateFavorite(ctx context.Context, userID, symbol, name string, ipoDate models.CalendarDate) (*models.Favorite, error) {
	favorite := models.Favorite{
		ID:            newFavoriteID(),
		UserID:        userID,
		CompanySymbol: symbol,
		CompanyName:   name,
		IPODate:       ipoDate,
		AddedAt:       s.now(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO favorites (id, user_id, company_symbol, company_name, ipo_date, added_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		favorite.ID, favorite.UserID, favorite.CompanySymbol, favorite.CompanyName, favorite.IPODate, favorite.AddedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, ErrDuplicateFavorite
		}
		return nil, storageError("postgres", "create_favorite", err)
	}
	return &favorite, nil
}

func (s *PostgresStore) DeleteFavorite(ctx context.Context, userID, symbol string) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE user_id = $1 AND company_symbol = $2`, userID, symbol)
	if err != nil {
		return false, storageError("postgres", "delete_favorite", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, storageError("postgres", "delete_favorite", err)
	}
	return affected > 0, nil
}

// scanUser returns nil, nil when the row does not exist
func (s *PostgresStore) scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	var name sql.NullString
	err := row.Scan(&user.ID, &user.GoogleID, &user.Email, &name, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if name.Valid {
		user.Name = &name.String
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return &user, nil
}

func nullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}
