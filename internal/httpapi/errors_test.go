package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"inferd/internal/manager"
	"inferd/pkg/types"
)

type statusErr struct{ code int }

func (e statusErr) Error() string   { return "pinned" }
func (e statusErr) StatusCode() int { return e.code }

func TestGenerateErrorMapping(t *testing.T) {
	svc := &fakeService{generateErr: statusErr{code: http.StatusTeapot}}
	mux := newTestMux(svc)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(`{"prompt":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusTeapot {
		t.Fatalf("status = %d, want HTTPError's code", rec.Code)
	}
	var er types.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&er); err != nil {
		t.Fatal(err)
	}
	if er.Code != http.StatusTeapot {
		t.Fatalf("payload code = %d", er.Code)
	}
}

func TestUnknownTierMapsToNotFound(t *testing.T) {
	svc := &fakeService{generateErr: manager.ErrTierNotFound("nope")}
	mux := newTestMux(svc)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(`{"prompt":"hi","tier":"nope"}`))
	req.Header.Set("Content-Type", "application/json")
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
