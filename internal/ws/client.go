package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"skilltrade/internal/events"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 512
)

// eventFrame is the wire shape of a delivered event.
type eventFrame struct {
	Seq        uint64          `json:"seq"`
	Type       string          `json:"type"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// Client bridges one websocket connection to one broker subscription.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	sub    *events.Subscription
	userID uuid.UUID
	logger *log.Logger

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

func NewClient(hub *Hub, conn *websocket.Conn, sub *events.Subscription, userID uuid.UUID, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.Default()
	}
	// The context is created here, before any pump goroutine runs, so
	// close can cancel it from any goroutine without a race.
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		hub:    hub,
		conn:   conn,
		sub:    sub,
		userID: userID,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// close tears down the subscription and the connection. Safe to call
// from the hub and from either pump.
func (c *Client) close() {
	c.closeOnce.Do(func() {
		c.cancel()
		c.sub.Close()
		_ = c.conn.Close()
	})
}

// WritePump drains the subscription onto the socket. It owns all writes
// to the connection, including pings.
func (c *Client) WritePump() {
	ctx := c.ctx

	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.hub.Unregister(c)
		c.close()
	}()

	next := make(chan events.Event, 1)
	errc := make(chan error, 1)
	go func() {
		for {
			ev, err := c.sub.Next(ctx)
			if err != nil {
				errc <- err
				return
			}
			select {
			case next <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case ev := <-next:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			frame := eventFrame{
				Seq:        ev.Seq,
				Type:       string(ev.Type),
				Payload:    ev.Payload,
				OccurredAt: ev.OccurredAt,
			}
			if err := c.conn.WriteJSON(frame); err != nil {
				c.logger.Printf("WS write failed | user=%s: %v", c.userID, err)
				return
			}

		case err := <-errc:
			if !errors.Is(err, context.Canceled) && !errors.Is(err, events.ErrSubscriptionClosed) {
				c.logger.Printf("WS subscription ended | user=%s: %v", c.userID, err)
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
			return

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

// ReadPump consumes and discards inbound frames so pings and close
// handshakes are processed. The stream is one-way.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Printf("WS read error | user=%s: %v", c.userID, err)
			}
			return
		}
	}
}
