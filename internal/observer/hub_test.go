package observer

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func newTestHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(log.New(io.Discard, "", 0))
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	t.Cleanup(srv.Close)
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("client count = %d, want %d", hub.ClientCount(), want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// TestHub_BroadcastReachesClient: a connected observer receives each
// broadcast as one JSON text message.
func TestHub_BroadcastReachesClient(t *testing.T) {
	hub, srv := newTestHub(t)
	conn := dial(t, srv)
	waitForClients(t, hub, 1)

	hub.Broadcast(map[string]int{"tick": 7})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got map[string]int
	if err := json.Unmarshal(msg, &got); err != nil {
		t.Fatalf("unmarshal %q: %v", msg, err)
	}
	if got["tick"] != 7 {
		t.Errorf("payload = %v, want tick 7", got)
	}
}

// TestHub_MultipleClients: every observer gets every broadcast.
func TestHub_MultipleClients(t *testing.T) {
	hub, srv := newTestHub(t)
	a := dial(t, srv)
	b := dial(t, srv)
	waitForClients(t, hub, 2)

	hub.Broadcast(map[string]int{"tick": 1})

	for _, conn := range []*websocket.Conn{a, b} {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		if _, _, err := conn.ReadMessage(); err != nil {
			t.Fatalf("read: %v", err)
		}
	}
}

// TestHub_DisconnectRemovesClient: closing the socket shrinks the hub.
func TestHub_DisconnectRemovesClient(t *testing.T) {
	hub, srv := newTestHub(t)
	conn := dial(t, srv)
	waitForClients(t, hub, 1)

	conn.Close()
	waitForClients(t, hub, 0)
}

// TestHub_SlowClientDropped: a client that never drains its buffer is
// evicted instead of blocking broadcasts.
func TestHub_SlowClientDropped(t *testing.T) {
	hub, srv := newTestHub(t)
	dial(t, srv) // never reads
	waitForClients(t, hub, 1)

	// Large payloads overflow the kernel socket buffer, stall the write
	// loop, and fill the client's send channel.
	payload := map[string]string{"blob": strings.Repeat("x", 256*1024)}
	for i := 0; i < sendBuffer*8 && hub.ClientCount() > 0; i++ {
		hub.Broadcast(payload)
	}
	waitForClients(t, hub, 0)
}
