// internal/api/handlers_test.go
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	apperrors "github.com/mirelio/gameforge/internal/errors"
	"github.com/mirelio/gameforge/internal/generation"
	"github.com/mirelio/gameforge/internal/models"
	"github.com/mirelio/gameforge/internal/progress"
)

type fakeGenerator struct {
	processResult *generation.ProcessResult
	processErr    error
	regenRef      models.VariationRef
	regenErr      error
}

func (f *fakeGenerator) ProcessVideo(ctx context.Context, videoURL, project string) (*generation.ProcessResult, error) {
	if f.processErr != nil {
		return nil, f.processErr
	}
	return f.processResult, nil
}

func (f *fakeGenerator) CreateManualEvent(ctx context.Context, req generation.ManualEventRequest) error {
	return nil
}

func (f *fakeGenerator) RegenerateVariation(ctx context.Context, req generation.RegenerateRequest) (models.VariationRef, error) {
	if f.regenErr != nil {
		return models.VariationRef{}, f.regenErr
	}
	return f.regenRef, nil
}

type fakeObjects struct{}

func (fakeObjects) Upload(ctx context.Context, key string, content io.Reader, contentType string) error {
	return nil
}

func (fakeObjects) PublicURL(key string) string {
	return "https://cdn.example.com/" + key
}

type fakeAssets struct {
	records  []models.AssetRecord
	projects []models.ProjectSummary
}

func (f *fakeAssets) ListByProject(ctx context.Context, project string) ([]models.AssetRecord, error) {
	return f.records, nil
}

func (f *fakeAssets) ListProjects(ctx context.Context) ([]models.ProjectSummary, error) {
	return f.projects, nil
}

func newTestRouter(gen *fakeGenerator, assets *fakeAssets) *gin.Engine {
	gin.SetMode(gin.TestMode)
	if assets == nil {
		assets = &fakeAssets{}
	}
	hub := NewStatusHub()
	handler := NewHandler(gen, fakeObjects{}, assets, progress.NewService(), hub)

	r := gin.New()
	RegisterRoutes(r, handler, hub)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body %q: %v", w.Body.String(), err)
	}
	return resp
}

// startSession creates a session and walks it through upload+process.
func startSession(t *testing.T, r *gin.Engine) {
	t.Helper()

	w := doJSON(t, r, http.MethodPost, "/api/session", gin.H{"name": "demo"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create session: %d %s", w.Code, w.Body.String())
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("video", "clip.mp4")
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte("video-bytes"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/session/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	uw := httptest.NewRecorder()
	r.ServeHTTP(uw, req)
	if uw.Code != http.StatusOK {
		t.Fatalf("upload: %d %s", uw.Code, uw.Body.String())
	}

	pw := doJSON(t, r, http.MethodPost, "/api/session/process", nil)
	if pw.Code != http.StatusOK {
		t.Fatalf("process: %d %s", pw.Code, pw.Body.String())
	}
}

func processedGenerator() *fakeGenerator {
	return &fakeGenerator{
		processResult: &generation.ProcessResult{
			Events: []models.Event{
				{ID: "e1", Name: "Jump", Start: 1.0, Duration: 2.0,
					Variations: []string{"a.wav"}, Prompts: []string{"jump sfx"}},
			},
			WwiseImportMap: "Jump\ta.wav\n",
		},
	}
}

func TestNoActiveSession(t *testing.T) {
	r := newTestRouter(&fakeGenerator{}, nil)

	w := doJSON(t, r, http.MethodGet, "/api/events", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	resp := decodeResponse(t, w)
	if resp.Code != ErrorNoActiveSession {
		t.Errorf("expected %s, got %s", ErrorNoActiveSession, resp.Code)
	}
}

func TestCreateSessionValidation(t *testing.T) {
	r := newTestRouter(&fakeGenerator{}, nil)

	w := doJSON(t, r, http.MethodPost, "/api/session", gin.H{"name": ""})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d %s", w.Code, w.Body.String())
	}
}

func TestProcessAndListEvents(t *testing.T) {
	r := newTestRouter(processedGenerator(), nil)
	startSession(t, r)

	w := doJSON(t, r, http.MethodGet, "/api/events", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp := decodeResponse(t, w)
	data := resp.Data.(map[string]interface{})
	events := data["events"].([]interface{})
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if data["selected_id"] != "e1" {
		t.Errorf("expected first event selected, got %v", data["selected_id"])
	}
}

func TestProcessFailureMapsToBadGateway(t *testing.T) {
	gen := &fakeGenerator{processErr: apperrors.NewRemoteServiceError("Analysis failed", nil)}
	r := newTestRouter(gen, nil)

	doJSON(t, r, http.MethodPost, "/api/session", gin.H{"name": "demo"})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreateFormFile("video", "clip.mp4")
	part.Write([]byte("x"))
	mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/api/session/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	uw := httptest.NewRecorder()
	r.ServeHTTP(uw, req)

	w := doJSON(t, r, http.MethodPost, "/api/session/process", nil)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d %s", w.Code, w.Body.String())
	}
	resp := decodeResponse(t, w)
	if !strings.Contains(resp.Message, "Analysis failed") {
		t.Errorf("expected server detail in message, got %q", resp.Message)
	}
}

func TestRegenerateVariationEndpoint(t *testing.T) {
	gen := processedGenerator()
	gen.regenRef = models.VariationRef{URL: "b.wav", Prompt: "explosion sfx"}
	r := newTestRouter(gen, nil)
	startSession(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/events/e1/variations/0/regenerate",
		gin.H{"prompt": "explosion sfx"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", w.Code, w.Body.String())
	}

	// Model reflects the replacement.
	lw := doJSON(t, r, http.MethodGet, "/api/events", nil)
	resp := decodeResponse(t, lw)
	events := resp.Data.(map[string]interface{})["events"].([]interface{})
	event := events[0].(map[string]interface{})
	if event["variations"].([]interface{})[0] != "b.wav" {
		t.Errorf("variation not updated: %v", event)
	}
}

func TestRegenerateUnknownEvent(t *testing.T) {
	r := newTestRouter(processedGenerator(), nil)
	startSession(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/events/nope/variations/0/regenerate",
		gin.H{"prompt": "x"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestRegenerateBadIndexParam(t *testing.T) {
	r := newTestRouter(processedGenerator(), nil)
	startSession(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/events/e1/variations/abc/regenerate",
		gin.H{"prompt": "x"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestExportWwiseDownload(t *testing.T) {
	r := newTestRouter(processedGenerator(), nil)
	startSession(t, r)

	w := doJSON(t, r, http.MethodGet, "/api/export/wwise", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", w.Code, w.Body.String())
	}
	if got := w.Body.String(); got != "Jump\ta.wav\n" {
		t.Errorf("content not byte-identical: %q", got)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "demo_wwise_import.txt") {
		t.Errorf("unexpected content disposition %q", cd)
	}
}

func TestExportWwiseEmpty(t *testing.T) {
	gen := processedGenerator()
	gen.processResult.WwiseImportMap = ""
	r := newTestRouter(gen, nil)
	startSession(t, r)

	w := doJSON(t, r, http.MethodGet, "/api/export/wwise", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty map, got %d", w.Code)
	}
}

func TestPlaybackEndpoints(t *testing.T) {
	r := newTestRouter(processedGenerator(), nil)
	startSession(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/playback/play", gin.H{"index": 0})
	if w.Code != http.StatusOK {
		t.Fatalf("play: expected 200, got %d %s", w.Code, w.Body.String())
	}
	resp := decodeResponse(t, w)
	status := resp.Data.(map[string]interface{})
	if status["state"] != "armed" {
		t.Errorf("expected armed, got %v", status)
	}

	w = doJSON(t, r, http.MethodPost, "/api/playback/pause", nil)
	resp = decodeResponse(t, w)
	status = resp.Data.(map[string]interface{})
	if status["state"] != "idle" {
		t.Errorf("expected idle, got %v", status)
	}
}

func TestPlaybackIndexOutOfRange(t *testing.T) {
	r := newTestRouter(processedGenerator(), nil)
	startSession(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/playback/play", gin.H{"index": 5})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d %s", w.Code, w.Body.String())
	}
}

func TestListProjects(t *testing.T) {
	assets := &fakeAssets{projects: []models.ProjectSummary{{Name: "demo", EventCount: 3}}}
	r := newTestRouter(&fakeGenerator{}, assets)

	w := doJSON(t, r, http.MethodGet, "/api/projects", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp := decodeResponse(t, w)
	projects := resp.Data.([]interface{})
	if len(projects) != 1 {
		t.Fatalf("expected 1 project, got %d", len(projects))
	}
}

func TestStatusHubBroadcastWithoutClients(t *testing.T) {
	hub := NewStatusHub()
	// Must not panic or block with nobody connected.
	hub.Broadcast("playback", gin.H{"state": "idle"})
	if hub.ClientCount() != 0 {
		t.Errorf("expected 0 clients, got %d", hub.ClientCount())
	}
}
