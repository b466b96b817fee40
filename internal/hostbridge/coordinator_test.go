package hostbridge

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func newTestCoordinator(t *testing.T, handler http.HandlerFunc) *Coordinator {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, time.Hour, nil)
}

func TestRefresh_PopulatesSnapshot(t *testing.T) {
	c := newTestCoordinator(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/locks" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"locks":[
			{"lockId":101,"lockAlias":"Front Door","electricQuantity":95,"hasGateway":1,"modelNum":"M501"},
			{"lockId":102,"lockAlias":"Back Door","electricQuantity":40,"hasGateway":0,"isLocked":true}
		]}`))
	})

	c.refresh(context.Background())

	if !c.Available() {
		t.Fatalf("not available after successful poll: %v", c.LastError())
	}
	locks := c.Locks()
	if len(locks) != 2 {
		t.Fatalf("locks = %d, want 2", len(locks))
	}
	front := locks[0]
	if front.ID != 101 || front.Alias != "Front Door" || front.Battery != 95 || !front.HasGateway || front.Model != "M501" {
		t.Fatalf("front door mapped wrong: %+v", front)
	}
	if front.Locked != nil {
		t.Fatal("locked state should be nil when the bridge omits it")
	}
	back := locks[1]
	if back.HasGateway {
		t.Fatal("hasGateway 0 must map to false")
	}
	if back.Locked == nil || !*back.Locked {
		t.Fatalf("back door locked = %v, want true", back.Locked)
	}
}

func TestRefresh_FailureKeepsSnapshotMarksUnavailable(t *testing.T) {
	var fail atomic.Bool
	c := newTestCoordinator(t, func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"locks":[{"lockId":101,"lockAlias":"Front Door"}]}`))
	})

	c.refresh(context.Background())
	if !c.Available() {
		t.Fatal("expected available after first poll")
	}

	fail.Store(true)
	c.refresh(context.Background())

	if c.Available() {
		t.Fatal("expected unavailable after failed poll")
	}
	var ufe *UpdateFailedError
	if err := c.LastError(); !errors.As(err, &ufe) {
		t.Fatalf("LastError() = %v, want *UpdateFailedError", err)
	}
	if !strings.Contains(c.LastError().Error(), "HTTP 500") {
		t.Fatalf("error lacks status: %v", c.LastError())
	}
	// last good snapshot is retained while unavailable
	if locks := c.Locks(); len(locks) != 1 || locks[0].ID != 101 {
		t.Fatalf("snapshot lost on failure: %+v", locks)
	}

	fail.Store(false)
	c.refresh(context.Background())
	if !c.Available() || c.LastError() != nil {
		t.Fatalf("recovery failed: available=%v err=%v", c.Available(), c.LastError())
	}
}

func TestRefresh_NonJSONBodyIsFailure(t *testing.T) {
	c := newTestCoordinator(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>gateway error</html>"))
	})

	c.refresh(context.Background())
	if c.Available() {
		t.Fatal("expected unavailable on undecodable body")
	}
	if !strings.Contains(c.LastError().Error(), "decoding lock list") {
		t.Fatalf("LastError() = %v", c.LastError())
	}
}

func TestRefresh_ConnectionRefusedIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(url, time.Hour, nil)
	c.refresh(context.Background())

	if c.Available() {
		t.Fatal("expected unavailable when bridge is down")
	}
	if !strings.Contains(c.LastError().Error(), "error communicating with bridge") {
		t.Fatalf("LastError() = %v", c.LastError())
	}
}

func TestLockAction_SuccessDespiteNonJSONBody(t *testing.T) {
	var gotPath atomic.Value
	c := newTestCoordinator(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath.Store(r.Method + " " + r.URL.Path)
		w.Write([]byte("OK")) // 2xx status is authoritative, body advisory
	})

	if err := c.LockAction(context.Background(), 42, "lock"); err != nil {
		t.Fatalf("LockAction() error = %v", err)
	}
	if got := gotPath.Load(); got != "POST /api/locks/42/lock" {
		t.Fatalf("request = %v", got)
	}

	// a follow-up refresh was queued
	select {
	case <-c.refreshCh:
	default:
		t.Fatal("no refresh requested after successful command")
	}
}

func TestLockAction_Non2xxCarriesStatusAndBody(t *testing.T) {
	c := newTestCoordinator(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"success":false,"error":"No access token"}`))
	})

	err := c.LockAction(context.Background(), 42, "unlock")
	if err == nil {
		t.Fatal("expected error on 400")
	}
	msg := err.Error()
	if !strings.Contains(msg, "HTTP 400") || !strings.Contains(msg, "No access token") {
		t.Fatalf("error = %q, want status and body", msg)
	}

	select {
	case <-c.refreshCh:
		t.Fatal("refresh must not be requested on failure")
	default:
	}
}

func TestRequestRefresh_Collapses(t *testing.T) {
	c := New("http://bridge.local", 0, nil)
	if c.interval != DefaultInterval {
		t.Fatalf("interval = %v, want default", c.interval)
	}

	c.RequestRefresh()
	c.RequestRefresh() // must not block
	c.RequestRefresh()

	<-c.refreshCh
	select {
	case <-c.refreshCh:
		t.Fatal("redundant requests did not collapse")
	default:
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	var polls atomic.Int32
	c := newTestCoordinator(t, func(w http.ResponseWriter, r *http.Request) {
		polls.Add(1)
		w.Write([]byte(`{"locks":[]}`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	// initial refresh runs before the first tick
	deadline := time.After(2 * time.Second)
	for polls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("no initial poll within deadline")
		case <-time.After(10 * time.Millisecond):
		}
	}

	c.RequestRefresh()
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on cancel")
	}
}
