package handlers

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"ttlock-bridge/internal/models"
)

func dialWS(t *testing.T, h *Handler, query string) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(h.InitRoutes())
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestWSConnect_PushesSnapshotImmediately(t *testing.T) {
	cfg := models.DefaultConfig()
	cfg.Locks = []models.LockSummary{{LockID: 101, LockAlias: "Front Door", ElectricQuantity: 95}}
	h := newTestHandler(&mockWorkflow{cfg: cfg}, nil)

	conn := dialWS(t, h, "")
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var env wsEnvelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if env.Type != "locks" {
		t.Fatalf("type = %q, want locks", env.Type)
	}
	locks, ok := env.Data.([]any)
	if !ok || len(locks) != 1 {
		t.Fatalf("data = %v, want one lock", env.Data)
	}
	if lock := locks[0].(map[string]any); lock["lockAlias"] != "Front Door" {
		t.Fatalf("lockAlias = %v", lock["lockAlias"])
	}
}

func TestWSConnect_EmptyCacheSendsEmptyArray(t *testing.T) {
	h := newTestHandler(&mockWorkflow{cfg: models.DefaultConfig()}, nil)

	conn := dialWS(t, h, "?interval=100ms")
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var env wsEnvelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	locks, ok := env.Data.([]any)
	if !ok {
		t.Fatalf("data = %v, want JSON array", env.Data)
	}
	if len(locks) != 0 {
		t.Fatalf("locks = %v, want empty", locks)
	}

	// the ticker keeps pushing on the requested interval
	var second wsEnvelope
	if err := conn.ReadJSON(&second); err != nil {
		t.Fatalf("ReadJSON second push: %v", err)
	}
	if second.Type != "locks" {
		t.Fatalf("type = %q, want locks", second.Type)
	}
}
