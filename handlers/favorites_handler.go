package handlers

import (
	"context"

	"github.com/fenilmodi00/ipo-dashboard/models"
	"github.com/fenilmodi00/ipo-dashboard/services"
	"github.com/gofiber/fiber/v2"
)

// FavoritesManager is the favorites use-case surface
type FavoritesManager interface {
	List(ctx context.Context, userID string) ([]models.Favorite, error)
	Add(ctx context.Context, userID string, input models.FavoriteInput) (*models.Favorite, error)
	Remove(ctx context.Context, userID, symbol string) error
}

// FavoritesHandler serves the caller's favorites; routes are behind RequireAuth
type FavoritesHandler struct {
	Favorites FavoritesManager
}

func NewFavoritesHandler(favorites FavoritesManager) *FavoritesHandler {
	return &FavoritesHandler{Favorites: favorites}
}

func (h *FavoritesHandler) List(c *fiber.Ctx) error {
	favorites, err := h.Favorites.List(c.Context(), IdentityFrom(c).User.ID)
	if err != nil {
		return respondError(c, err, MsgFavoritesFailed)
	}
	return respondList(c, favorites)
}

func (h *FavoritesHandler) Add(c *fiber.Ctx) error {
	var input models.FavoriteInput
	if err := c.BodyParser(&input); err != nil {
		return respondMessage(c, fiber.StatusBadRequest, services.MsgFavoriteFieldsRequired)
	}

	favorite, err := h.Favorites.Add(c.Context(), IdentityFrom(c).User.ID, input)
	if err != nil {
		return respondError(c, err, MsgAddFailed)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    favorite,
		"message": MsgAddedFavorite,
	})
}

func (h *FavoritesHandler) Remove(c *fiber.Ctx) error {
	if err := h.Favorites.Remove(c.Context(), IdentityFrom(c).User.ID, pathParam(c, "symbol")); err != nil {
		return respondError(c, err, MsgRemoveFailed)
	}
	return respondMessage(c, fiber.StatusOK, MsgRemovedFavorite)
}
