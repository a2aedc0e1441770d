package ws

import (
	"context"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"skilltrade/internal/events"
)

func quietLogger() *log.Logger {
	return log.New(discard{}, "", 0)
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

// serverConn upgrades a loopback connection and returns the server side,
// which is the side a Client wraps in production. The peer stays open
// until test cleanup.
func serverConn(t *testing.T) *websocket.Conn {
	t.Helper()

	upgrader := websocket.Upgrader{}
	connCh := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		connCh <- conn
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	peer, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { _ = peer.Close() })

	select {
	case conn := <-connCh:
		t.Cleanup(func() { _ = conn.Close() })
		return conn
	case <-time.After(2 * time.Second):
		t.Fatalf("server connection never arrived")
		return nil
	}
}

func TestClient_CloseDuringWritePumpStopsCleanly(t *testing.T) {
	broker := events.NewBroker(quietLogger())
	defer broker.Close()

	userID := uuid.New()
	sub, err := broker.Subscribe(context.Background(), userID, 0)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	hub := NewHub(quietLogger())
	go hub.Run()
	defer hub.Shutdown()

	c := NewClient(hub, serverConn(t), sub, userID, quietLogger())
	hub.Register(c)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		c.WritePump()
	}()
	go func() {
		defer wg.Done()
		time.Sleep(10 * time.Millisecond)
		c.close()
	}()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("write pump did not stop after close")
	}

	if _, err := sub.Next(context.Background()); !errors.Is(err, events.ErrSubscriptionClosed) {
		t.Fatalf("expected closed subscription, got %v", err)
	}
}

func TestClient_CloseBeforePumpsIsSafe(t *testing.T) {
	broker := events.NewBroker(quietLogger())
	defer broker.Close()

	userID := uuid.New()
	sub, err := broker.Subscribe(context.Background(), userID, 0)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	hub := NewHub(quietLogger())
	go hub.Run()
	defer hub.Shutdown()

	c := NewClient(hub, serverConn(t), sub, userID, quietLogger())
	c.close()
	c.close()

	// A pump started after close must return immediately.
	done := make(chan struct{})
	go func() {
		c.WritePump()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("write pump did not observe prior close")
	}
}
