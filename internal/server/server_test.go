package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mediscan-ai/mediscan/internal/analysis"
	"github.com/mediscan-ai/mediscan/internal/classifier"
	"github.com/mediscan-ai/mediscan/internal/history"
)

type testEnv struct {
	srv   *Server
	store *history.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	// No model paths configured: the manager always runs in simulation mode,
	// keeping the tests independent of any installed ONNX runtime.
	models := classifier.NewManager(classifier.Config{ImageSize: 32, SimulationSeed: 1}, log)

	store, err := history.NewStore(filepath.Join(t.TempDir(), "history.json"), 100)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	appender := history.NewAppender(history.AppenderConfig{QueueSize: 16, Workers: 1, ShutdownTimeout: time.Second}, store, log)
	t.Cleanup(func() { appender.Close(nil) })

	pipeline := analysis.New(models, appender, log, 32)
	srv := New(pipeline, models, store, t.TempDir(), log, false)
	return &testEnv{srv: srv, store: store}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(w, req)
	return w
}

func encodedPNG(t *testing.T, shade uint8) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: shade, G: shade, B: shade, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func TestRootAndHealth(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodGet, "/", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET / = %d", w.Code)
	}
	root := decodeJSON(t, w)
	if root["service"] != "MediScan API" {
		t.Fatalf("unexpected root payload: %v", root)
	}

	w = e.do(t, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	health := decodeJSON(t, w)
	if health["status"] != "healthy" {
		t.Fatalf("unexpected health payload: %v", health)
	}
}

func TestAnalyzeSuccess(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodPost, "/analyze", analysis.Request{
		ImageData: encodedPNG(t, 20),
		ImageName: "scan.png",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("POST /analyze = %d: %s", w.Code, w.Body.String())
	}
	out := decodeJSON(t, w)
	if out["success"] != true {
		t.Fatalf("expected success=true, got %v", out)
	}
	// Dark uniform image resolves to the brain domain via the intensity
	// heuristic.
	if out["model_type"] != "brain" {
		t.Fatalf("model_type = %v, want brain", out["model_type"])
	}
	if out["analysis_id"] == "" || out["medical_info"] == nil {
		t.Fatalf("incomplete record: %v", out)
	}
}

func TestAnalyzeFailureIsHTTP200(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodPost, "/analyze", analysis.Request{
		ImageData: base64.StdEncoding.EncodeToString([]byte("not an image")),
		ImageName: "bogus.bin",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("pipeline failure must stay HTTP 200, got %d", w.Code)
	}
	out := decodeJSON(t, w)
	if out["success"] != false || out["error"] == "" {
		t.Fatalf("expected failed record, got %v", out)
	}
}

func TestAnalyzeMalformedJSON(t *testing.T) {
	e := newTestEnv(t)
	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader("{broken"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("malformed JSON = %d, want 400", w.Code)
	}
}

func TestAnalyzeBatch(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodPost, "/analyze/batch", batchRequest{Images: []analysis.Request{
		{ImageData: encodedPNG(t, 20), ImageName: "a.png"},
		{ImageData: "!!!", ImageName: "b.png"},
	}})
	if w.Code != http.StatusOK {
		t.Fatalf("POST /analyze/batch = %d: %s", w.Code, w.Body.String())
	}
	out := decodeJSON(t, w)
	if out["total"] != float64(2) || out["succeeded"] != float64(1) || out["failed"] != float64(1) {
		t.Fatalf("unexpected batch counts: %v", out)
	}

	w = e.do(t, http.MethodPost, "/analyze/batch", batchRequest{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("empty batch = %d, want 400", w.Code)
	}
}

func TestHistoryListAndDelete(t *testing.T) {
	e := newTestEnv(t)

	for i := 0; i < 3; i++ {
		rec := &analysis.Record{
			ID:        fmt.Sprintf("rec-%d", i),
			FileName:  fmt.Sprintf("f%d.png", i),
			Timestamp: time.Now().UTC(),
			Success:   true,
		}
		if err := e.store.Append(rec); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	w := e.do(t, http.MethodGet, "/history?offset=1&limit=1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /history = %d", w.Code)
	}
	out := decodeJSON(t, w)
	if out["total"] != float64(3) || out["count"] != float64(1) {
		t.Fatalf("unexpected paging: %v", out)
	}
	if _, ok := out["history"].([]any); !ok {
		t.Fatalf("history page missing: %v", out)
	}

	w = e.do(t, http.MethodDelete, "/history/rec-1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("DELETE /history/rec-1 = %d", w.Code)
	}

	w = e.do(t, http.MethodDelete, "/history/rec-1", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("deleting an absent id = %d, want 404", w.Code)
	}
}

func TestExportCSVAndPDF(t *testing.T) {
	e := newTestEnv(t)

	results := []analysis.Record{{
		ID:        "rec-1",
		FileName:  "scan.png",
		Domain:    "brain",
		Timestamp: time.Now().UTC(),
		Success:   true,
	}}

	w := e.do(t, http.MethodPost, "/export", exportRequest{Results: results, Format: "csv"})
	if w.Code != http.StatusOK {
		t.Fatalf("csv export = %d: %s", w.Code, w.Body.String())
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "mediscan_report_") {
		t.Fatalf("csv attachment header = %q", cd)
	}
	if summary := w.Header().Get("X-Summary-File"); !strings.HasPrefix(summary, "mediscan_summary_") {
		t.Fatalf("summary file header = %q", summary)
	}

	w = e.do(t, http.MethodPost, "/export", exportRequest{Results: results, Format: "pdf"})
	if w.Code != http.StatusOK {
		t.Fatalf("pdf export = %d: %s", w.Code, w.Body.String())
	}

	// An empty result list is still a valid export: header-only document.
	w = e.do(t, http.MethodPost, "/export", exportRequest{Format: "csv"})
	if w.Code != http.StatusOK {
		t.Fatalf("empty csv export = %d: %s", w.Code, w.Body.String())
	}

	w = e.do(t, http.MethodPost, "/export", exportRequest{Results: results, Format: "xlsx"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("unknown format = %d, want 400", w.Code)
	}
}

func TestModelsInfoAndReload(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodGet, "/models/info", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /models/info = %d", w.Code)
	}
	out := decodeJSON(t, w)
	if out["simulation"] != true {
		t.Fatalf("expected simulation mode, got %v", out)
	}

	w = e.do(t, http.MethodPost, "/models/reload", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("POST /models/reload = %d: %s", w.Code, w.Body.String())
	}
}

func TestCORSPreflight(t *testing.T) {
	e := newTestEnv(t)
	req := httptest.NewRequest(http.MethodOptions, "/analyze", nil)
	w := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("OPTIONS preflight = %d, want 204", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("missing CORS origin header")
	}
}
