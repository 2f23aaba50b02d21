package handlers

import (
	"context"

	"github.com/fenilmodi00/ipo-dashboard/models"
	"github.com/fenilmodi00/ipo-dashboard/shared"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const identityLocalsKey = "identity"

// Identity is the resolved caller of a request: a signed-in user or anonymous.
// Err is set when the session could not be resolved; the caller is then neither.
type Identity struct {
	User *models.SessionUser
	Err  error
}

func (i Identity) Authenticated() bool {
	return i.User != nil
}

// SessionReader returns the user id stored in the request's session
type SessionReader interface {
	UserID(c *fiber.Ctx) (string, error)
}

// SessionUserResolver loads the user a session points at; nil when it no longer exists
type SessionUserResolver interface {
	ResolveSessionUser(ctx context.Context, userID string) (*models.SessionUser, error)
}

// ResolveIdentity stores the caller's Identity in the request locals
func ResolveIdentity(sessions SessionReader, users SessionUserResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity := Identity{}

		userID, err := sessions.UserID(c)
		if err != nil {
			identity.Err = shared.NewStorageError("ResolveIdentity", "ReadSession", err)
		} else if userID != "" {
			identity.User, identity.Err = users.ResolveSessionUser(c.Context(), userID)
		}
		if identity.Err != nil {
			logrus.WithFields(logrus.Fields{
				"component": "ResolveIdentity",
				"user_id":   userID,
				"error":     identity.Err.Error(),
			}).Warn("Failed to resolve session")
		}

		c.Locals(identityLocalsKey, identity)
		return c.Next()
	}
}

// IdentityFrom returns the Identity resolved for this request
func IdentityFrom(c *fiber.Ctx) Identity {
	identity, _ := c.Locals(identityLocalsKey).(Identity)
	return identity
}

// RequireAuth rejects anonymous callers before any other validation runs.
// A session that could not be resolved is a server error, not a sign-out.
func RequireAuth(c *fiber.Ctx) error {
	identity := IdentityFrom(c)
	if identity.Err != nil {
		return respondError(c, identity.Err, MsgSessionLookupFailed)
	}
	if !identity.Authenticated() {
		return respondError(c, shared.NewAuthenticationError(MsgUnauthorized, "API", "RequireAuth"), MsgUnauthorized)
	}
	return c.Next()
}
