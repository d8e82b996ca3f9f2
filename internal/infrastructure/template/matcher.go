package template

import (
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/webp"

	"github.com/tarkovlens/scanner/internal/domain"
)

// Config holds template-correlation parameters.
type Config struct {
	Dir                 string
	Scales              []float64
	EarlyExitConfidence float64
	MaxScreenDimension  int
}

// loadedTemplate is one reference icon prepared for correlation.
type loadedTemplate struct {
	itemID string
	gray   *image.Gray
	stats  templateStats
}

// Matcher correlates reference icons against screen captures using
// multi-scale normalized cross-correlation.
type Matcher struct {
	cfg       Config
	templates []loadedTemplate
	available bool
}

// NewMatcher loads every PNG/WebP icon from cfg.Dir, keyed by file stem as
// the item id. A missing or empty directory disables the capability rather
// than failing startup.
func NewMatcher(cfg Config) *Matcher {
	m := &Matcher{cfg: cfg}

	entries, err := os.ReadDir(cfg.Dir)
	if err != nil {
		log.Printf("[Template] Icon directory unavailable: %v", err)
		return m
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".png" && ext != ".webp" {
			continue
		}
		path := filepath.Join(cfg.Dir, entry.Name())
		img, err := loadIcon(path, ext)
		if err != nil {
			log.Printf("[Template] Skipping %s: %v", entry.Name(), err)
			continue
		}
		gray := toGray(imaging.Grayscale(img))
		m.templates = append(m.templates, loadedTemplate{
			itemID: strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())),
			gray:   gray,
			stats:  newTemplateStats(gray),
		})
	}

	m.available = len(m.templates) > 0
	log.Printf("[Template] Loaded %d templates from %s", len(m.templates), cfg.Dir)
	return m
}

func loadIcon(path, ext string) (image.Image, error) {
	if ext == ".webp" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return webp.Decode(f)
	}
	return imaging.Open(path)
}

// Available reports whether any templates were loaded.
func (m *Matcher) Available() bool { return m.available }

// TemplateIDs lists loaded template item ids, sorted.
func (m *Matcher) TemplateIDs() []string {
	ids := make([]string, len(m.templates))
	for i, t := range m.templates {
		ids[i] = t.itemID
	}
	sort.Strings(ids)
	return ids
}

// MatchAll correlates every template against a full-screen capture and
// returns the best candidate per template, unfiltered by threshold. The
// screen is downscaled to MaxScreenDimension before correlation to bound
// cost; result coordinates are mapped back to true screen space.
func (m *Matcher) MatchAll(screen image.Image) ([]domain.TemplateMatch, error) {
	if !m.available {
		return nil, domain.ErrEngineUnavailable
	}

	bounds := screen.Bounds()
	screenW, screenH := bounds.Dx(), bounds.Dy()
	if screenW == 0 || screenH == 0 {
		return nil, fmt.Errorf("%w: empty screen image", domain.ErrCaptureFailed)
	}

	downscale := 1.0
	work := screen
	maxDim := m.cfg.MaxScreenDimension
	if maxDim > 0 && (screenW > maxDim || screenH > maxDim) {
		if screenW >= screenH {
			downscale = float64(maxDim) / float64(screenW)
		} else {
			downscale = float64(maxDim) / float64(screenH)
		}
		work = imaging.Resize(screen, int(float64(screenW)*downscale), 0, imaging.Box)
	}
	workGray := toGray(imaging.Grayscale(work))

	matches := make([]domain.TemplateMatch, 0, len(m.templates))
	for _, tmpl := range m.templates {
		best, rect := m.bestAcrossScales(workGray, tmpl)
		if best <= 0 {
			continue
		}
		matches = append(matches, domain.TemplateMatch{
			ItemID:     tmpl.itemID,
			Confidence: best,
			Rect: domain.Rect{
				X:      int(float64(rect.X) / downscale),
				Y:      int(float64(rect.Y) / downscale),
				Width:  int(float64(rect.Width) / downscale),
				Height: int(float64(rect.Height) / downscale),
			},
		})
	}
	return matches, nil
}

// MatchAt correlates every template against a small region capture and
// returns the single best hit across all templates and scales.
func (m *Matcher) MatchAt(region image.Image) (*domain.TemplateMatch, error) {
	if !m.available {
		return nil, domain.ErrEngineUnavailable
	}

	gray := toGray(imaging.Grayscale(imaging.Clone(region)))

	var best *domain.TemplateMatch
	for _, tmpl := range m.templates {
		score, rect := m.bestAcrossScales(gray, tmpl)
		if score <= 0 {
			continue
		}
		if best == nil || score > best.Confidence {
			best = &domain.TemplateMatch{ItemID: tmpl.itemID, Confidence: score, Rect: rect}
		}
	}
	if best == nil {
		return nil, domain.ErrNoDetection
	}
	return best, nil
}

// bestAcrossScales runs the scale sweep for one template and keeps the best
// score. Scales are tried in configured order; a score above the early-exit
// confidence stops the sweep for this template only.
func (m *Matcher) bestAcrossScales(screen *image.Gray, tmpl loadedTemplate) (float64, domain.Rect) {
	var bestScore float64
	var bestRect domain.Rect

	for _, scale := range m.cfg.Scales {
		stats := tmpl.stats
		if scale != 1.0 {
			w := int(float64(tmpl.gray.Bounds().Dx()) * scale)
			h := int(float64(tmpl.gray.Bounds().Dy()) * scale)
			if w <= 0 || h <= 0 {
				continue
			}
			scaled := toGray(imaging.Resize(tmpl.gray, w, h, imaging.Box))
			stats = newTemplateStats(scaled)
		}

		res := correlate(screen, stats)
		if res.Score > bestScore {
			bestScore = res.Score
			bestRect = domain.Rect{X: res.X, Y: res.Y, Width: stats.w, Height: stats.h}
		}
		if res.Score >= m.cfg.EarlyExitConfidence {
			break
		}
	}
	return bestScore, bestRect
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.Set(x, y, img.At(x, y))
		}
	}
	return gray
}
