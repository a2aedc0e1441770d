package ws

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gorilla/websocket"

	"skilltrade/internal/events"
	"skilltrade/internal/pkg/jwt"
)

type Handler struct {
	hub    *Hub
	broker *events.Broker
	jwt    jwt.Service
	logger *log.Logger
}

func NewHandler(hub *Hub, broker *events.Broker, jwtSvc jwt.Service, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{hub: hub, broker: broker, jwt: jwtSvc, logger: logger}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleEventsWS upgrades the connection and streams the caller's
// events. Browsers cannot set headers on websocket dials, so the token
// rides in the query string; the Authorization header works too.
func (h *Handler) HandleEventsWS(c fiber.Ctx) error {
	if h == nil || h.hub == nil || h.broker == nil {
		return fiber.ErrServiceUnavailable
	}

	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		if auth := c.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			token = strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
		}
	}
	if token == "" {
		return fiber.ErrUnauthorized
	}

	claims, err := h.jwt.ValidateToken(token)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	var lastSeen uint64
	if raw := c.Query("last_seen_seq"); raw != "" {
		lastSeen, err = strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return fiber.ErrBadRequest
		}
	}

	fiberHandler := adaptor.HTTPHandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Printf("WS upgrade error | error=%v", err)
			return
		}

		// The request context dies with the hijacked request; the
		// subscription outlives it.
		sub, err := h.broker.Subscribe(context.Background(), claims.UserID, lastSeen)
		if err != nil {
			h.logger.Printf("WS subscribe failed | user=%s: %v", claims.UserID, err)
			_ = conn.Close()
			return
		}

		client := NewClient(h.hub, conn, sub, claims.UserID, h.logger)
		h.hub.Register(client)
		go client.WritePump()
		go client.ReadPump()
	})

	return fiberHandler(c)
}
