package handlers

import (
	"context"
	"strings"

	"github.com/fenilmodi00/ipo-dashboard/models"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// SessionManager is the session surface the API needs
type SessionManager interface {
	SessionReader
	SignIn(c *fiber.Ctx, userID string) error
	SignOut(c *fiber.Ctx) error
	SetOAuthState(c *fiber.Ctx, state string) error
	ConsumeOAuthState(c *fiber.Ctx, state string) (bool, error)
}

// Authenticator completes the OAuth handshake against local users
type Authenticator interface {
	SessionUserResolver
	LoginURL(state string) string
	HandleCallback(ctx context.Context, code string) (*models.User, error)
}

type AuthHandler struct {
	Auth      Authenticator
	Sessions  SessionManager
	ClientURL string
	NewState  func() string
}

func NewAuthHandler(auth Authenticator, sessions SessionManager, clientURL string, newState func() string) *AuthHandler {
	return &AuthHandler{
		Auth:      auth,
		Sessions:  sessions,
		ClientURL: strings.TrimSuffix(clientURL, "/"),
		NewState:  newState,
	}
}

// GoogleLogin starts the OAuth flow
func (h *AuthHandler) GoogleLogin(c *fiber.Ctx) error {
	state := h.NewState()
	if err := h.Sessions.SetOAuthState(c, state); err != nil {
		logrus.WithFields(logrus.Fields{
			"component": "AuthHandler",
			"error":     err.Error(),
		}).Error("Failed to store OAuth state")
		return h.redirectFailure(c)
	}
	return c.Redirect(h.Auth.LoginURL(state), fiber.StatusFound)
}

// GoogleCallback finishes the OAuth flow and signs the user in
func (h *AuthHandler) GoogleCallback(c *fiber.Ctx) error {
	logger := logrus.WithField("component", "AuthHandler")

	if providerErr := c.Query("error"); providerErr != "" {
		logger.WithField("provider_error", providerErr).Warn("Identity provider rejected sign-in")
		return h.redirectFailure(c)
	}

	valid, err := h.Sessions.ConsumeOAuthState(c, c.Query("state"))
	if err != nil || !valid {
		logger.WithField("session_error", err).Warn("OAuth state mismatch")
		return h.redirectFailure(c)
	}

	user, err := h.Auth.HandleCallback(c.Context(), c.Query("code"))
	if err != nil {
		logger.WithField("error", err.Error()).Warn("OAuth callback failed")
		return h.redirectFailure(c)
	}

	if err := h.Sessions.SignIn(c, user.ID); err != nil {
		logger.WithField("error", err.Error()).Error("Failed to establish session")
		return h.redirectFailure(c)
	}

	return c.Redirect(h.ClientURL+"/auth/success", fiber.StatusFound)
}

func (h *AuthHandler) redirectFailure(c *fiber.Ctx) error {
	return c.Redirect(h.ClientURL+"/login?error=auth_failed", fiber.StatusFound)
}

// Me returns the signed-in user
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	return respondData(c, fiber.StatusOK, IdentityFrom(c).User)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.Sessions.SignOut(c); err != nil {
		return respondError(c, err, MsgLogoutFailed)
	}
	return respondMessage(c, fiber.StatusOK, MsgLoggedOut)
}
