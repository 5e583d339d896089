package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/community-portal-api/internal/service"
)

const feedWriteWait = 10 * time.Second

// ModerationFeedHandler streams moderation decisions to connected admins.
type ModerationFeedHandler struct {
	feed      service.ModerationFeed
	keepAlive time.Duration
	logger    zerolog.Logger
}

// NewModerationFeedHandler constructs the websocket handler.
func NewModerationFeedHandler(feed service.ModerationFeed, keepAlive time.Duration, logger zerolog.Logger) *ModerationFeedHandler {
	if keepAlive <= 0 {
		keepAlive = 30 * time.Second
	}
	return &ModerationFeedHandler{
		feed:      feed,
		keepAlive: keepAlive,
		logger:    logger.With().Str("component", "moderation_feed_handler").Logger(),
	}
}

// Register binds the websocket route. It must be registered before any
// catch-all :kind route on the same group.
func (h *ModerationFeedHandler) Register(router fiber.Router) {
	router.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	router.Get("/ws", websocket.New(h.handleConnection))
}

func (h *ModerationFeedHandler) handleConnection(conn *websocket.Conn) {
	events, cleanup := h.feed.Subscribe()
	defer cleanup()

	adminID := websocketUserID(conn)
	h.logger.Info().Str("admin_id", adminID).Msg("moderation feed connected")
	defer h.logger.Info().Str("admin_id", adminID).Msg("moderation feed disconnected")

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if err := conn.WriteJSON(event); err != nil {
				h.logger.Debug().Err(err).Msg("failed to write moderation event")
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(feedWriteWait)); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}

func websocketUserID(conn *websocket.Conn) string {
	switch v := conn.Locals("user_id").(type) {
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case int:
		if v >= 0 {
			return strconv.Itoa(v)
		}
	case string:
		return strings.TrimSpace(v)
	}
	return ""
}
