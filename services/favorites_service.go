package services

import (
	"context"
	"strings"

	"github.com/fenilmodi00/ipo-dashboard/models"
	"github.com/fenilmodi00/ipo-dashboard/shared"
	"github.com/fenilmodi00/ipo-dashboard/storage"
	"github.com/sirupsen/logrus"
)

const favoritesServiceName = "FavoritesService"

const (
	MsgFavoriteFieldsRequired = "Please provide companySymbol, companyName, and ipoDate"
	MsgFavoriteInvalidDate    = "ipoDate must be a valid date (YYYY-MM-DD)"
	MsgFavoriteDuplicate      = "Company already in favorites"
	MsgFavoriteNotFound       = "Favorite not found"
	MsgSymbolRequired         = "Please provide a symbol"
)

// FavoritesService applies validation and error mapping on top of the favorite store
type FavoritesService struct {
	Store storage.FavoriteStore
}

func NewFavoritesService(store storage.FavoriteStore) *FavoritesService {
	return &FavoritesService{Store: store}
}

// List returns the user's favorites in insertion order
func (s *FavoritesService) List(ctx context.Context, userID string) ([]models.Favorite, error) {
	favorites, err := s.Store.ListFavorites(ctx, userID)
	if err != nil {
		return nil, shared.WrapError(err, shared.ErrorCategoryStorage, "STORAGE_FAILURE", favoritesServiceName, "List", false)
	}
	return favorites, nil
}

// Add validates input and creates the favorite; an existing (user, symbol) pair is a duplicate error
func (s *FavoritesService) Add(ctx context.Context, userID string, input models.FavoriteInput) (*models.Favorite, error) {
	symbol := strings.TrimSpace(input.CompanySymbol)
	name := strings.TrimSpace(input.CompanyName)
	rawDate := strings.TrimSpace(input.IPODate)
	if symbol == "" || name == "" || rawDate == "" {
		return nil, shared.NewValidationError(MsgFavoriteFieldsRequired, favoritesServiceName, "Add")
	}

	ipoDate, err := models.ParseCalendarDate(rawDate)
	if err != nil {
		return nil, shared.NewValidationError(MsgFavoriteInvalidDate, favoritesServiceName, "Add")
	}

	favorite, err := s.Store.CreateFavorite(ctx, userID, symbol, name, ipoDate)
	if err != nil {
		if storage.IsDuplicateFavorite(err) {
			return nil, shared.NewDuplicateError(MsgFavoriteDuplicate, favoritesServiceName, "Add", err)
		}
		return nil, shared.WrapError(err, shared.ErrorCategoryStorage, "STORAGE_FAILURE", favoritesServiceName, "Add", false)
	}

	logrus.WithFields(logrus.Fields{
		"component": favoritesServiceName,
		"user_id":   userID,
		"symbol":    symbol,
	}).Info("Added favorite")

	return favorite, nil
}

// Remove deletes the favorite for symbol or reports not found
func (s *FavoritesService) Remove(ctx context.Context, userID, symbol string) error {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return shared.NewValidationError(MsgSymbolRequired, favoritesServiceName, "Remove")
	}

	deleted, err := s.Store.DeleteFavorite(ctx, userID, symbol)
	if err != nil {
		return shared.WrapError(err, shared.ErrorCategoryStorage, "STORAGE_FAILURE", favoritesServiceName, "Remove", false)
	}
	if !deleted {
		return shared.NewNotFoundError(MsgFavoriteNotFound, favoritesServiceName, "Remove")
	}

	logrus.WithFields(logrus.Fields{
		"component": favoritesServiceName,
		"user_id":   userID,
		"symbol":    symbol,
	}).Info("Removed favorite")

	return nil
}
