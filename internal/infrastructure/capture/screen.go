package capture

import (
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"github.com/vova616/screenshot"

	"github.com/tarkovlens/scanner/internal/domain"
)

// Screen captures regions of the primary display.
type Screen struct {
	debugDir string
}

// NewScreen creates a screen capturer. When debugDir is non-empty, every
// captured region is also written there as a PNG.
func NewScreen(debugDir string) *Screen {
	if debugDir != "" {
		if err := os.MkdirAll(debugDir, 0o755); err != nil {
			log.Printf("[Capture] Cannot create debug dir %s: %v", debugDir, err)
			debugDir = ""
		}
	}
	return &Screen{debugDir: debugDir}
}

// CaptureRect grabs the given screen rectangle. A zero-sized result is a
// recoverable capture failure, not a crash.
func (s *Screen) CaptureRect(r domain.Rect) (image.Image, error) {
	if r.Empty() {
		return nil, fmt.Errorf("%w: empty region %dx%d", domain.ErrCaptureFailed, r.Width, r.Height)
	}

	img, err := screenshot.CaptureRect(image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCaptureFailed, err)
	}
	if img == nil || img.Bounds().Dx() == 0 || img.Bounds().Dy() == 0 {
		return nil, fmt.Errorf("%w: backend returned empty image", domain.ErrCaptureFailed)
	}

	s.dumpDebug(img, "region")
	return img, nil
}

// ScreenSize returns the primary display dimensions.
func (s *Screen) ScreenSize() (int, int, error) {
	bounds, err := screenshot.ScreenRect()
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", domain.ErrCaptureFailed, err)
	}
	return bounds.Dx(), bounds.Dy(), nil
}

func (s *Screen) dumpDebug(img image.Image, tag string) {
	if s.debugDir == "" {
		return
	}
	name := fmt.Sprintf("%s_%d.png", tag, time.Now().UnixMilli())
	if err := imaging.Save(img, filepath.Join(s.debugDir, name)); err != nil {
		log.Printf("[Capture] Debug save failed: %v", err)
	}
}
