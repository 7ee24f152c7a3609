package handler

import (
	"github.com/capitalrow/MinaProd-sub007/internal/pkg/logger"
	"github.com/capitalrow/MinaProd-sub007/internal/pkg/serverutils"
	"github.com/capitalrow/MinaProd-sub007/internal/service"
	internalWS "github.com/capitalrow/MinaProd-sub007/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// EventStreamHandler upgrades subscribers onto a session's live event feed.
// Reconnecting clients pass last_seen_sequence and get the ledger tail
// replayed before live frames; overlap duplicates are theirs to drop by
// sequence.
type EventStreamHandler struct {
	sessionService service.ISessionService
	ledgerService  service.ILedgerService
	hub            *internalWS.Hub
	logger         logger.ILogger
}

func NewEventStreamHandler(
	sessionService service.ISessionService,
	ledgerService service.ILedgerService,
	hub *internalWS.Hub,
	log logger.ILogger,
) *EventStreamHandler {
	return &EventStreamHandler{
		sessionService: sessionService,
		ledgerService:  ledgerService,
		hub:            hub,
		logger:         log,
	}
}

// ServeWs handles websocket requests from the peer.
func (h *EventStreamHandler) ServeWs(c *fiber.Ctx) error {
	// Browsers can't set headers on websocket handshakes, so the token
	// rides the query string; tooling may still use the header.
	tokenStr := c.Query("token")
	if tokenStr == "" {
		authHeader := c.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenStr = authHeader[7:]
		}
	}

	if tokenStr == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing token (Query 'token' or Header 'Authorization')"})
	}

	userID, err := serverutils.UserIDFromToken(tokenStr)
	if err != nil {
		h.logger.Warn("EventStreamHandler", "Invalid token in WS handshake", map[string]interface{}{"error": err.Error()})
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	session, err := h.sessionService.FindOwned(c.Context(), userID, sessionID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if session == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session not found"})
	}

	lastSeen := int64(c.QueryInt("last_seen_sequence", 0))
	replay, err := h.ledgerService.ReplayFrames(c.Context(), sessionID, lastSeen)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(func(conn *websocket.Conn) {
			h.logger.Info("EventStreamHandler", "Starting event stream", map[string]interface{}{
				"session_id": sessionID,
				"user_id":    userID,
				"replayed":   len(replay),
			})
			internalWS.ServeWs(h.hub, conn, sessionID, replay)
			h.logger.Info("EventStreamHandler", "Event stream ended", map[string]interface{}{
				"session_id": sessionID,
				"user_id":    userID,
			})
		})(c)
	}
	return fiber.ErrUpgradeRequired
}

// RegisterRoutes registers the event stream route. It sits outside the JWT
// middleware group because the handshake carries its own token.
func (h *EventStreamHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/recording/v1/:id/events", h.ServeWs)
}
