package session

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/daem-platform/daem-backend/internal/middleware"
	"github.com/daem-platform/daem-backend/internal/model/therapy"
	sessionservice "github.com/daem-platform/daem-backend/internal/service/session"
	"github.com/daem-platform/daem-backend/internal/store/memory"
)

func setupRouter() *chi.Mux {
	st := memory.New()
	manager := sessionservice.NewManager(st, sessionservice.DefaultIdleTimeout)
	handler := New(manager, st)

	r := chi.NewRouter()
	r.Use(middleware.Identity)
	handler.RegisterRoutes(r)
	return r
}

func doRequest(r http.Handler, method, path string, user therapy.User) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if user.ID != "" {
		req.Header.Set("X-User-ID", user.ID)
		req.Header.Set("X-User-Role", string(user.Role))
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func doJSONRequest(r http.Handler, method, path string, body interface{}, user therapy.User) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", user.ID)
	req.Header.Set("X-User-Role", string(user.Role))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

var client = therapy.User{ID: "user-1", Role: therapy.RoleClient}

func TestGetActiveSessionNone(t *testing.T) {
	r := setupRouter()

	resp := doRequest(r, http.MethodGet, "/sessions", client)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestStartThenContinueSession(t *testing.T) {
	r := setupRouter()

	first := doRequest(r, http.MethodPost, "/sessions", client)
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", first.Code)
	}
	var created struct {
		SessionID string `json:"sessionId"`
		Created   bool   `json:"created"`
	}
	if err := json.Unmarshal(first.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if !created.Created || created.SessionID == "" {
		t.Fatalf("unexpected first response: %+v", created)
	}

	second := doRequest(r, http.MethodPost, "/sessions", client)
	if second.Code != http.StatusOK {
		t.Fatalf("expected 200 on continue, got %d", second.Code)
	}
	var continued struct {
		SessionID string `json:"sessionId"`
		Created   bool   `json:"created"`
	}
	if err := json.Unmarshal(second.Body.Bytes(), &continued); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if continued.Created || continued.SessionID != created.SessionID {
		t.Fatalf("expected the same session back: %+v", continued)
	}

	active := doRequest(r, http.MethodGet, "/sessions", client)
	if active.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", active.Code)
	}
}

func TestEndSessionIdempotent(t *testing.T) {
	r := setupRouter()

	resp := doRequest(r, http.MethodPost, "/sessions", client)
	var created struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode err: %v", err)
	}

	first := doRequest(r, http.MethodDelete, "/sessions/"+created.SessionID, client)
	if first.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", first.Code)
	}
	second := doRequest(r, http.MethodDelete, "/sessions/"+created.SessionID, client)
	if second.Code != http.StatusOK {
		t.Fatalf("expected 200 on repeat, got %d", second.Code)
	}

	after := doRequest(r, http.MethodGet, "/sessions", client)
	if after.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after end, got %d", after.Code)
	}
}

func TestSessionDetailForbiddenForStranger(t *testing.T) {
	r := setupRouter()

	resp := doRequest(r, http.MethodPost, "/sessions", client)
	var created struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode err: %v", err)
	}

	stranger := therapy.User{ID: "user-2", Role: therapy.RoleClient}
	detail := doRequest(r, http.MethodGet, "/sessions/"+created.SessionID, stranger)
	if detail.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", detail.Code)
	}
}

func TestUpdateSessionPartialFields(t *testing.T) {
	r := setupRouter()

	resp := doRequest(r, http.MethodPost, "/sessions", client)
	var created struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode err: %v", err)
	}

	updated := doJSONRequest(r, http.MethodPut, "/sessions/"+created.SessionID, map[string]interface{}{
		"topic":       "القلق من العمل",
		"isCompleted": true,
	}, client)
	if updated.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", updated.Code)
	}

	var session therapy.Session
	if err := json.Unmarshal(updated.Body.Bytes(), &session); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if session.Topic != "القلق من العمل" || !session.IsCompleted {
		t.Fatalf("fields not applied: %+v", session)
	}
	if !session.IsActive {
		t.Fatal("partial update must not touch the active flag")
	}
}

func TestUpdateSessionForbiddenForStranger(t *testing.T) {
	r := setupRouter()

	resp := doRequest(r, http.MethodPost, "/sessions", client)
	var created struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode err: %v", err)
	}

	stranger := therapy.User{ID: "user-2", Role: therapy.RoleClient}
	updated := doJSONRequest(r, http.MethodPut, "/sessions/"+created.SessionID, map[string]interface{}{
		"topic": "موضوع آخر",
	}, stranger)
	if updated.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", updated.Code)
	}
}

func TestMissingIdentityRejected(t *testing.T) {
	r := setupRouter()

	resp := doRequest(r, http.MethodPost, "/sessions", therapy.User{})
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestTherapistCannotStartClientSession(t *testing.T) {
	r := setupRouter()

	therapist := therapy.User{ID: "ther-1", Role: therapy.RoleTherapist}
	resp := doRequest(r, http.MethodPost, "/sessions", therapist)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
}
