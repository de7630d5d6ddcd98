package handler

import (
	"crypto/subtle"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/learnhub/api/internal/events"
	"github.com/learnhub/api/pkg/response"
)

// EventTokenHeader carries the shared secret of push subscriptions
const EventTokenHeader = "X-Event-Token"

// EventsHandler receives push deliveries from storage, the record change feed
// and the transcoder notification channel. Every delivery that passes the
// token check is acknowledged with 204, so the platform never redelivers.
type EventsHandler struct {
	dispatcher *events.Dispatcher
	token      string
	logger     *slog.Logger
}

func NewEventsHandler(dispatcher *events.Dispatcher, token string, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{
		dispatcher: dispatcher,
		token:      token,
		logger:     logger,
	}
}

// RequireToken rejects deliveries without the shared token. An empty token
// disables the check.
func (h *EventsHandler) RequireToken() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if h.token == "" {
			return c.Next()
		}
		if subtle.ConstantTimeCompare([]byte(c.Get(EventTokenHeader)), []byte(h.token)) != 1 {
			return response.Unauthorized(c, "Invalid event token")
		}
		return c.Next()
	}
}

// Storage handles POST /events/storage
func (h *EventsHandler) Storage(c *fiber.Ctx) error {
	if err := h.dispatcher.StorageEvent(c.UserContext(), c.Body()); err != nil {
		h.logger.Error("dropping undecodable storage event", "error", err)
	}
	return response.NoContent(c)
}

// Records handles POST /events/records
func (h *EventsHandler) Records(c *fiber.Ctx) error {
	if err := h.dispatcher.RecordChange(c.UserContext(), c.Body()); err != nil {
		h.logger.Error("dropping undecodable record change", "error", err)
	}
	return response.NoContent(c)
}

// Notifications handles POST /events/notifications
func (h *EventsHandler) Notifications(c *fiber.Ctx) error {
	h.dispatcher.Notification(c.UserContext(), c.Body())
	return response.NoContent(c)
}
