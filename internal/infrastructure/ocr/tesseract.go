package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"log"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"

	"github.com/tarkovlens/scanner/internal/domain"
)

// SelectBest picks the winning output among several OCR pass variants.
type SelectBest func(variants []string) string

// BestOfNByLength keeps the longest non-empty variant. Length is a proxy
// for "fewest characters dropped", not a correctness proof.
func BestOfNByLength(variants []string) string {
	best := ""
	for _, v := range variants {
		v = strings.TrimSpace(v)
		if len(v) > len(best) {
			best = v
		}
	}
	return best
}

// Engine wraps Tesseract behind the domain.TextEngine contract. A single
// client is reused across calls under a mutex; Tesseract clients are not
// safe for concurrent use.
type Engine struct {
	mu        sync.Mutex
	client    *gosseract.Client
	language  string
	whitelist string
	upscale   float64
	invert    bool
	selectFn  SelectBest
	available bool

	stats Stats
}

// Stats tracks engine usage for the /ocr/stats endpoint.
type Stats struct {
	TotalScans         int `json:"total_scans"`
	SuccessfulExtracts int `json:"successful_extracts"`
	EmptyExtracts      int `json:"empty_extracts"`
}

// Config holds engine construction parameters.
type Config struct {
	Language  string
	Whitelist string
	Upscale   float64
	Invert    bool
	TessData  string
	SelectFn  SelectBest
}

// NewEngine constructs the Tesseract wrapper and probes availability with a
// trivial recognition call. A probe failure disables the capability for the
// process lifetime instead of crashing startup.
func NewEngine(cfg Config) *Engine {
	if cfg.SelectFn == nil {
		cfg.SelectFn = BestOfNByLength
	}
	e := &Engine{
		language:  cfg.Language,
		whitelist: cfg.Whitelist,
		upscale:   cfg.Upscale,
		invert:    cfg.Invert,
		selectFn:  cfg.SelectFn,
	}

	client := gosseract.NewClient()
	if cfg.TessData != "" {
		_ = client.SetTessdataPrefix(cfg.TessData)
	}
	if err := client.SetLanguage(cfg.Language); err != nil {
		log.Printf("[OCR] Tesseract unavailable: %v", err)
		_ = client.Close()
		return e
	}
	if err := probe(client); err != nil {
		log.Printf("[OCR] Tesseract probe failed: %v", err)
		_ = client.Close()
		return e
	}

	e.client = client
	e.available = true
	log.Printf("[OCR] Tesseract engine ready (lang=%s)", cfg.Language)
	return e
}

// probe runs one recognition over a tiny blank image to verify the runtime
// (shared libraries, language data) is actually usable.
func probe(client *gosseract.Client) error {
	blank := image.NewGray(image.Rect(0, 0, 8, 8))
	buf, err := encodePNG(blank)
	if err != nil {
		return err
	}
	if err := client.SetImageFromBytes(buf); err != nil {
		return err
	}
	_, err = client.Text()
	return err
}

// Available reports whether the engine can be used.
func (e *Engine) Available() bool { return e.available }

// Close releases the Tesseract client.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client == nil {
		return nil
	}
	err := e.client.Close()
	e.client = nil
	e.available = false
	return err
}

// Snapshot returns a copy of the usage statistics.
func (e *Engine) Snapshot() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

// ExtractText reads a short label from img. The image is preprocessed and
// run through multiple page-segmentation configurations; the select policy
// picks the winner.
func (e *Engine) ExtractText(img image.Image) (string, error) {
	if !e.available {
		return "", domain.ErrEngineUnavailable
	}

	processed := Preprocess(img, e.upscale, e.invert)
	buf, err := encodePNG(processed)
	if err != nil {
		return "", fmt.Errorf("encode for ocr: %w", err)
	}

	modes := []gosseract.PageSegMode{
		gosseract.PSM_SINGLE_LINE,
		gosseract.PSM_RAW_LINE,
		gosseract.PSM_SINGLE_BLOCK,
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.stats.TotalScans++

	variants := make([]string, 0, len(modes))
	for _, mode := range modes {
		if err := e.client.SetImageFromBytes(buf); err != nil {
			continue
		}
		_ = e.client.SetPageSegMode(mode)
		_ = e.client.SetWhitelist(e.whitelist)
		text, err := e.client.Text()
		if err != nil {
			continue
		}
		variants = append(variants, text)
	}

	best := e.selectFn(variants)
	if best == "" {
		e.stats.EmptyExtracts++
	} else {
		e.stats.SuccessfulExtracts++
	}
	return best, nil
}

// ExtractTextRegions reads all word spans with bounding rectangles in one
// pass. Coordinates are mapped back to the input image space when the
// preprocessing upscaled it.
func (e *Engine) ExtractTextRegions(img image.Image) ([]domain.TextRegion, error) {
	if !e.available {
		return nil, domain.ErrEngineUnavailable
	}

	// A milder upscale keeps the box geometry stable over a large zone.
	scale := 2.0
	processed := Preprocess(img, scale, e.invert)
	buf, err := encodePNG(processed)
	if err != nil {
		return nil, fmt.Errorf("encode for ocr: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.stats.TotalScans++

	if err := e.client.SetImageFromBytes(buf); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}
	_ = e.client.SetPageSegMode(gosseract.PSM_SPARSE_TEXT)
	_ = e.client.SetWhitelist(e.whitelist)

	boxes, err := e.client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("bounding boxes: %w", err)
	}

	regions := make([]domain.TextRegion, 0, len(boxes))
	for _, box := range boxes {
		text := strings.TrimSpace(box.Word)
		if text == "" {
			continue
		}
		r := box.Box
		regions = append(regions, domain.TextRegion{
			Text: text,
			Rect: domain.Rect{
				X:      int(float64(r.Min.X) / scale),
				Y:      int(float64(r.Min.Y) / scale),
				Width:  int(float64(r.Dx()) / scale),
				Height: int(float64(r.Dy()) / scale),
			},
		})
	}

	if len(regions) > 0 {
		e.stats.SuccessfulExtracts++
	} else {
		e.stats.EmptyExtracts++
	}
	return regions, nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
