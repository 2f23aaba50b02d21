// Package sessions keeps the signed-in user id in a server-side session referenced by a cookie.
package sessions

import (
	"crypto/sha256"
	"encoding/base64"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

const (
	CookieName = "ipodash_session"

	userIDKey     = "user_id"
	oauthStateKey = "oauth_state"
)

type Config struct {
	MaxAge time.Duration
	// Secure marks the cookie Secure; set in production where the API is served over HTTPS
	Secure bool
	// Storage holds session data; nil keeps sessions in process memory
	Storage fiber.Storage
}

// Manager reads and writes the authentication state of a request's session
type Manager struct {
	store *session.Store
}

func NewManager(config Config) *Manager {
	return &Manager{
		store: session.New(session.Config{
			Storage:        config.Storage,
			Expiration:     config.MaxAge,
			KeyLookup:      "cookie:" + CookieName,
			CookiePath:     "/",
			CookieSecure:   config.Secure,
			CookieHTTPOnly: true,
			CookieSameSite: fiber.CookieSameSiteLaxMode,
		}),
	}
}

// UserID returns the signed-in user's id, or "" for anonymous requests
func (m *Manager) UserID(c *fiber.Ctx) (string, error) {
	sess, err := m.store.Get(c)
	if err != nil {
		return "", err
	}
	userID, _ := sess.Get(userIDKey).(string)
	return userID, nil
}

// SignIn binds userID to a fresh session id
func (m *Manager) SignIn(c *fiber.Ctx, userID string) error {
	sess, err := m.store.Get(c)
	if err != nil {
		return err
	}
	if err := sess.Regenerate(); err != nil {
		return err
	}
	sess.Delete(oauthStateKey)
	sess.Set(userIDKey, userID)
	return sess.Save()
}

// SignOut destroys the session and expires its cookie
func (m *Manager) SignOut(c *fiber.Ctx) error {
	sess, err := m.store.Get(c)
	if err != nil {
		return err
	}
	return sess.Destroy()
}

// SetOAuthState remembers the state parameter of an authorization request
func (m *Manager) SetOAuthState(c *fiber.Ctx, state string) error {
	sess, err := m.store.Get(c)
	if err != nil {
		return err
	}
	sess.Set(oauthStateKey, state)
	return sess.Save()
}

// ConsumeOAuthState reports whether state matches the remembered value and forgets it
func (m *Manager) ConsumeOAuthState(c *fiber.Ctx, state string) (bool, error) {
	sess, err := m.store.Get(c)
	if err != nil {
		return false, err
	}
	expected, _ := sess.Get(oauthStateKey).(string)
	if expected == "" {
		return false, nil
	}
	sess.Delete(oauthStateKey)
	if err := sess.Save(); err != nil {
		return false, err
	}
	return expected == state, nil
}

// CookieEncryptionKey derives the encryptcookie key from the session secret
func CookieEncryptionKey(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return base64.StdEncoding.EncodeToString(sum[:])
}
