package http

import (
	"encoding/json"
	"image"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tarkovlens/scanner/config"
	"github.com/tarkovlens/scanner/internal/domain"
	"github.com/tarkovlens/scanner/internal/infrastructure/cache"
	"github.com/tarkovlens/scanner/internal/infrastructure/catalog"
	"github.com/tarkovlens/scanner/internal/usecase"
)

type stubScreen struct{}

func (stubScreen) CaptureRect(r domain.Rect) (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, r.Width, r.Height)), nil
}
func (stubScreen) ScreenSize() (int, int, error) { return 1920, 1080, nil }

type stubText struct{ text string }

func (s stubText) ExtractText(image.Image) (string, error) { return s.text, nil }
func (s stubText) ExtractTextRegions(image.Image) ([]domain.TextRegion, error) {
	return nil, nil
}
func (stubText) Available() bool { return true }
func (stubText) Close() error    { return nil }

type stubTemplates struct{ available bool }

func (s stubTemplates) MatchAll(image.Image) ([]domain.TemplateMatch, error) {
	if !s.available {
		return nil, domain.ErrEngineUnavailable
	}
	return nil, nil
}
func (s stubTemplates) MatchAt(image.Image) (*domain.TemplateMatch, error) {
	return nil, domain.ErrNoDetection
}
func (s stubTemplates) TemplateIDs() []string { return []string{"id-a", "id-b"} }
func (s stubTemplates) Available() bool       { return s.available }

type stubInput struct{ scrollFn func() }

func (s *stubInput) OnMouseMove(fn func(x, y int)) (func(), error) { return func() {}, nil }
func (s *stubInput) OnScroll(fn func()) (func(), error) {
	s.scrollFn = fn
	return func() {}, nil
}
func (s *stubInput) Available() bool { return true }

func newTestRouter(t *testing.T, text domain.TextEngine, templates domain.TemplateEngine, input domain.InputListener) http.Handler {
	t.Helper()

	catalogJSON := `{"gunpowder": {"id": "id-a", "name": "Gunpowder", "shortName": "Gunpowder", "width": 1, "height": 1, "avg24hPrice": 45000}}`
	path := filepath.Join(t.TempDir(), "shortnames.json")
	if err := os.WriteFile(path, []byte(catalogJSON), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	store, err := catalog.Load(path)
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}

	cfg := &config.Config{
		Server: config.ServerConfig{Environment: "production", AllowedOrigins: []string{"*"}},
		Capture: config.CaptureConfig{
			TooltipOffsetX: 10, TooltipOffsetY: -27, TooltipWidth: 200, TooltipHeight: 20,
			LabelWidth: 70, LabelHeight: 30, IconSize: 200,
			GearLeftPct: 0.32, GearTopPct: 0.10, GearWidthPct: 0.33, GearHeightPct: 0.75,
		},
		Template: config.TemplateConfig{ScanThreshold: 0.8, PointThreshold: 0.7, DedupeIoU: 0.5},
		Match:    config.MatchConfig{SingleCutoff: 75, ZoneCutoff: 82},
		Hover: config.HoverConfig{
			DwellThreshold: time.Hour, PollInterval: time.Hour,
			ScanCooldown: time.Second, GridSize: 50, MoveTolerance: 5,
		},
	}

	matcher := usecase.NewMatcher(store, false)
	prices := usecase.NewPriceResolver(cache.NewMemoryCache(), nil, nil, store, time.Minute)
	scans := usecase.NewScanService(stubScreen{}, text, templates, matcher, prices, store, cfg)
	hover := usecase.NewHoverScanner(input, scans, cfg.Hover)
	scroll := usecase.NewScrollMonitor(input)

	handler := NewHandler(scans, hover, scroll, prices, text, templates, input, store)
	return SetupRouter(cfg, handler)
}

func doRequest(t *testing.T, router http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	parsed := map[string]interface{}{}
	if err := json.Unmarshal(rec.Body.Bytes(), &parsed); err != nil {
		t.Fatalf("response is not JSON: %v\n%s", err, rec.Body.String())
	}
	return rec, parsed
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter(t, stubText{}, stubTemplates{available: true}, &stubInput{})

	rec, body := doRequest(t, router, http.MethodGet, "/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	caps, ok := body["capabilities"].(map[string]interface{})
	if !ok {
		t.Fatalf("missing capabilities block: %v", body)
	}
	if caps["ocr"] != true || caps["templates"] != true || caps["catalog"] != true {
		t.Errorf("capabilities = %v, want all true", caps)
	}
}

func TestScanOCREndpoint(t *testing.T) {
	t.Run("missing body is a 400", func(t *testing.T) {
		router := newTestRouter(t, stubText{}, stubTemplates{}, &stubInput{})
		rec, _ := doRequest(t, router, http.MethodPost, "/scan-ocr", "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("no text found is success=false with 200", func(t *testing.T) {
		router := newTestRouter(t, stubText{text: ""}, stubTemplates{}, &stubInput{})
		rec, body := doRequest(t, router, http.MethodPost, "/scan-ocr", `{"x": 400, "y": 300}`)
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
		if body["success"] != false {
			t.Errorf("success = %v, want false", body["success"])
		}
	})

	t.Run("match returns the enriched item", func(t *testing.T) {
		router := newTestRouter(t, stubText{text: "Gunpowder"}, stubTemplates{}, &stubInput{})
		rec, body := doRequest(t, router, http.MethodPost, "/scan-ocr", `{"x": 400, "y": 300}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if body["success"] != true || body["method"] != "label" {
			t.Fatalf("body = %v, want success with label method", body)
		}
		item := body["item"].(map[string]interface{})
		if item["shortName"] != "Gunpowder" {
			t.Errorf("shortName = %v, want Gunpowder", item["shortName"])
		}
		if item["fleaPrice"] != float64(45000) {
			t.Errorf("fleaPrice = %v, want 45000", item["fleaPrice"])
		}
	})
}

func TestTemplatesEndpoint(t *testing.T) {
	t.Run("lists loaded templates", func(t *testing.T) {
		router := newTestRouter(t, stubText{}, stubTemplates{available: true}, &stubInput{})
		rec, body := doRequest(t, router, http.MethodGet, "/templates", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if body["count"] != float64(2) {
			t.Errorf("count = %v, want 2", body["count"])
		}
	})

	t.Run("503 when no templates are loaded", func(t *testing.T) {
		router := newTestRouter(t, stubText{}, stubTemplates{available: false}, &stubInput{})
		rec, _ := doRequest(t, router, http.MethodGet, "/templates", "")
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", rec.Code)
		}
	})
}

func TestScrollEndpoints(t *testing.T) {
	input := &stubInput{}
	router := newTestRouter(t, stubText{}, stubTemplates{}, input)

	rec, _ := doRequest(t, router, http.MethodPost, "/scroll/start", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("start status = %d, want 200", rec.Code)
	}

	// Simulate a wheel event through the registered callback.
	input.scrollFn()

	_, body := doRequest(t, router, http.MethodGet, "/scroll/check", "")
	if body["scrolled"] != true {
		t.Errorf("scrolled = %v, want true", body["scrolled"])
	}

	_, body = doRequest(t, router, http.MethodGet, "/scroll/check", "")
	if body["scrolled"] != false {
		t.Errorf("scrolled = %v after check, want false (flag resets)", body["scrolled"])
	}
}

func TestHoverEndpoints(t *testing.T) {
	router := newTestRouter(t, stubText{}, stubTemplates{}, &stubInput{})

	_, body := doRequest(t, router, http.MethodGet, "/hover/status", "")
	status := body["status"].(map[string]interface{})
	if status["running"] != false {
		t.Errorf("running = %v before start, want false", status["running"])
	}

	rec, _ := doRequest(t, router, http.MethodPost, "/hover/start", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("start status = %d, want 200", rec.Code)
	}

	_, body = doRequest(t, router, http.MethodGet, "/hover/status", "")
	status = body["status"].(map[string]interface{})
	if status["running"] != true {
		t.Errorf("running = %v after start, want true", status["running"])
	}

	doRequest(t, router, http.MethodPost, "/hover/stop", "")
	_, body = doRequest(t, router, http.MethodGet, "/hover/status", "")
	status = body["status"].(map[string]interface{})
	if status["running"] != false {
		t.Errorf("running = %v after stop, want false", status["running"])
	}
}
