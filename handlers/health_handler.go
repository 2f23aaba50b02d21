package handlers

import (
	"context"
	"time"

	"github.com/fenilmodi00/ipo-dashboard/storage"
	"github.com/gofiber/fiber/v2"
)

const healthProbeTimeout = 2 * time.Second

// Pinger is an external dependency the health check probes
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	Store storage.Store
	// SessionStorage is probed when sessions live outside the process; nil skips the probe
	SessionStorage Pinger
}

func NewHealthHandler(store storage.Store, sessionStorage Pinger) *HealthHandler {
	return &HealthHandler{Store: store, SessionStorage: sessionStorage}
}

// Health reports liveness and whether the storage backend and session storage answer
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	timestamp := time.Now().UTC().Format(time.RFC3339)

	if err := storage.PingWithTimeout(c.Context(), h.Store, healthProbeTimeout); err != nil {
		return h.unhealthy(c, MsgStorageUnhealthy, err, timestamp)
	}

	if h.SessionStorage != nil {
		ctx, cancel := context.WithTimeout(c.Context(), healthProbeTimeout)
		defer cancel()
		if err := h.SessionStorage.Ping(ctx); err != nil {
			return h.unhealthy(c, MsgSessionStorageUnhealthy, err, timestamp)
		}
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"message":   "IPO Dashboard API is running",
		"timestamp": timestamp,
		"storage":   h.Store.Backend(),
	})
}

func (h *HealthHandler) unhealthy(c *fiber.Ctx, message string, err error, timestamp string) error {
	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"success":   false,
		"message":   message,
		"error":     err.Error(),
		"timestamp": timestamp,
		"storage":   h.Store.Backend(),
	})
}
