package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"inferd/pkg/types"
)

// fakeService is an in-package stand-in for the daemon.
type fakeService struct {
	ready       bool
	generateErr error
	removed     []string
	removeErr   error
}

func (f *fakeService) Status() types.StatusResponse {
	return types.StatusResponse{MaxLoadedModels: 2}
}

func (f *fakeService) Tiers() []types.Tier {
	return []types.Tier{{ID: "llama-2-7b-q4_k_m", Kind: "llm"}}
}

func (f *fakeService) Generate(ctx context.Context, req types.GenerateRequest) (types.GenerateResponse, error) {
	if f.generateErr != nil {
		return types.GenerateResponse{}, f.generateErr
	}
	return types.GenerateResponse{Tier: "llama-2-7b-q4_k_m", Text: "hello"}, nil
}

func (f *fakeService) Embed(ctx context.Context, req types.EmbedRequest) (types.EmbedResponse, error) {
	return types.EmbedResponse{Tier: "llama-2-7b-q4_k_m", Embeddings: [][]float32{{0.1}}}, nil
}

func (f *fakeService) Warm(ctx context.Context, req types.WarmRequest) (types.WarmResponse, error) {
	return types.WarmResponse{Tier: "llama-2-7b-q4_k_m", State: "ready"}, nil
}

func (f *fakeService) RemoveArtifact(id string) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	f.removed = append(f.removed, id)
	return nil
}

func (f *fakeService) Ready() bool { return f.ready }

func newTestMux(svc Service) http.Handler {
	return NewMux(svc, Options{Log: zerolog.Nop()})
}

func TestStatusEndpoint(t *testing.T) {
	mux := newTestMux(&fakeService{})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp types.StatusResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.MaxLoadedModels != 2 {
		t.Fatalf("max_loaded_models = %d", resp.MaxLoadedModels)
	}
}

func TestTiersEndpoint(t *testing.T) {
	mux := newTestMux(&fakeService{})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tiers", nil))
	var resp types.TiersResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Tiers) != 1 || resp.Tiers[0].ID != "llama-2-7b-q4_k_m" {
		t.Fatalf("tiers = %+v", resp.Tiers)
	}
}

func TestGenerateValidation(t *testing.T) {
	mux := newTestMux(&fakeService{})

	// Missing content type.
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(`{}`)))
	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("no content type: status = %d", rec.Code)
	}

	// Bad JSON.
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(`{`))
	req.Header.Set("Content-Type", "application/json")
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad json: status = %d", rec.Code)
	}

	// Empty prompt.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(`{"prompt":"  "}`))
	req.Header.Set("Content-Type", "application/json")
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty prompt: status = %d", rec.Code)
	}
	var er types.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&er); err != nil {
		t.Fatal(err)
	}
	if er.Code != http.StatusBadRequest || er.Error == "" {
		t.Fatalf("error payload = %+v", er)
	}
}

func TestGenerateHappyPath(t *testing.T) {
	mux := newTestMux(&fakeService{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(`{"prompt":"hi","task_type":"general"}`))
	req.Header.Set("Content-Type", "application/json")
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp types.GenerateResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Text != "hello" {
		t.Fatalf("text = %q", resp.Text)
	}
}

func TestRemoveArtifact(t *testing.T) {
	svc := &fakeService{}
	mux := newTestMux(svc)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/tiers/llama-2-7b-q4_k_m", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(svc.removed) != 1 || svc.removed[0] != "llama-2-7b-q4_k_m" {
		t.Fatalf("removed = %v", svc.removed)
	}
}

func TestReadyz(t *testing.T) {
	svc := &fakeService{}
	mux := newTestMux(svc)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("not ready: status = %d", rec.Code)
	}

	svc.ready = true
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("ready: status = %d", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	mux := newTestMux(&fakeService{})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthz = %d %q", rec.Code, rec.Body.String())
	}
}
