package handler

import (
	"mpersona-be/internal/pkg/logger"
	"mpersona-be/internal/service"
	internalWS "mpersona-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type BrokerHandler struct {
	broker   service.IBrokerService
	registry *internalWS.Registry
	logger   logger.ILogger
}

func NewBrokerHandler(broker service.IBrokerService, registry *internalWS.Registry, log logger.ILogger) *BrokerHandler {
	return &BrokerHandler{
		broker:   broker,
		registry: registry,
		logger:   log,
	}
}

func (h *BrokerHandler) RegisterRoutes(app fiber.Router) {
	app.Get("/ws", h.ServeWs)
}

// ServeWs upgrades the request and feeds every inbound message to the broker.
// Accounts are resolved per prompt from the envelope token, so the upgrade
// itself is unauthenticated.
func (h *BrokerHandler) ServeWs(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("BrokerHandler", "Starting WebSocket session", map[string]interface{}{"remote_addr": conn.RemoteAddr().String()})
		internalWS.ServeWs(h.registry, conn, h.broker.HandleMessage)
		h.logger.Info("BrokerHandler", "WebSocket session ended", map[string]interface{}{"remote_addr": conn.RemoteAddr().String()})
	})(c)
}
