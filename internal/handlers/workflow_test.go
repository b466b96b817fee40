package handlers

import (
	"errors"
	"net/http"
	"testing"

	"ttlock-bridge/internal/models"
)

func TestGetConfig_ReturnsRecord(t *testing.T) {
	cfg := models.DefaultConfig()
	cfg.Username = "shopA_alice"
	wf := &mockWorkflow{cfg: cfg}
	h := newTestHandler(wf, nil)

	w := performRequest(h, http.MethodGet, "/api/config", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := decodeBody(t, w)
	record, ok := body["config"].(map[string]any)
	if !ok {
		t.Fatalf("config field = %v", body["config"])
	}
	if record["username"] != "shopA_alice" {
		t.Fatalf("username = %v", record["username"])
	}
	if record["api_base_url"] != models.DefaultAPIBaseURL {
		t.Fatalf("api_base_url = %v", record["api_base_url"])
	}
}

func TestHashPassword_PassesPlaintextThrough(t *testing.T) {
	wf := &mockWorkflow{cfg: models.DefaultConfig()}
	h := newTestHandler(wf, nil)

	w := performRequest(h, http.MethodPost, "/api/password", `{"password":"hunter2"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if wf.lastPlain != "hunter2" {
		t.Fatalf("plaintext = %q", wf.lastPlain)
	}
	if got := decodeBody(t, w)["message"]; got != "Password hashed." {
		t.Fatalf("message = %v", got)
	}
}

func TestWorkflowStep_FailureStillCarriesConfig(t *testing.T) {
	cfg := models.DefaultConfig()
	cfg.ClientID = "c1"
	wf := &mockWorkflow{
		cfg: cfg,
		err: errors.New("Register failed: HTTP 400 - bad request"),
	}
	h := newTestHandler(wf, nil)

	w := performRequest(h, http.MethodPost, "/api/register", "{}")
	// step failures answer 200: the record was persisted and the error is
	// operator diagnostics
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := decodeBody(t, w)
	if body["error"] != "Register failed: HTTP 400 - bad request" {
		t.Fatalf("error = %v", body["error"])
	}
	if _, ok := body["message"]; ok {
		t.Fatal("message must be absent on failure")
	}
	if _, ok := body["config"].(map[string]any); !ok {
		t.Fatalf("config field = %v", body["config"])
	}
}

func TestWorkflowStep_EmptyBodyTolerated(t *testing.T) {
	wf := &mockWorkflow{cfg: models.DefaultConfig()}
	h := newTestHandler(wf, nil)

	for _, route := range []string{"/api/settings", "/api/register", "/api/token"} {
		w := performRequest(h, http.MethodPost, route, "")
		if w.Code != http.StatusOK {
			t.Fatalf("POST %s with empty body: status = %d, want 200", route, w.Code)
		}
	}
}

func TestWorkflowStep_MalformedBodyIs400(t *testing.T) {
	wf := &mockWorkflow{cfg: models.DefaultConfig()}
	h := newTestHandler(wf, nil)

	w := performRequest(h, http.MethodPost, "/api/settings", `{"client_id": 42`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestQuickSetup_EchoesServiceMessage(t *testing.T) {
	wf := &mockWorkflow{
		cfg: models.DefaultConfig(),
		msg: "Credentials saved, access token verified: 3 locks fetched.",
	}
	h := newTestHandler(wf, nil)

	w := performRequest(h, http.MethodPost, "/api/setup", `{"username":"alice","password":"password","access_token":"at1"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if wf.lastSetup.Username != "alice" || wf.lastSetup.Password != "password" || wf.lastSetup.AccessToken != "at1" {
		t.Fatalf("setup params = %+v", wf.lastSetup)
	}
	if got := decodeBody(t, w)["message"]; got != wf.msg {
		t.Fatalf("message = %v", got)
	}
}
