package domain

import (
	"context"
	"image"
	"time"
)

// CacheRepository defines the interface for TTL caching operations.
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear()
}

// ScreenCapturer grabs pixels from the screen. A nil or zero-sized image is
// reported as ErrCaptureFailed; out-of-bounds regions are truncated by the
// backend.
type ScreenCapturer interface {
	CaptureRect(r Rect) (image.Image, error)
	ScreenSize() (width, height int, err error)
}

// TextEngine is the black-box OCR capability.
type TextEngine interface {
	// ExtractText reads a single line (or a few lines) of text from img.
	ExtractText(img image.Image) (string, error)
	// ExtractTextRegions reads all text spans with bounding rectangles in
	// one pass over img.
	ExtractTextRegions(img image.Image) ([]TextRegion, error)
	Available() bool
	Close() error
}

// TemplateEngine is the black-box template-correlation capability.
type TemplateEngine interface {
	// MatchAll correlates every loaded template against screen and returns
	// the best candidate per template, unfiltered by threshold.
	MatchAll(screen image.Image) ([]TemplateMatch, error)
	// MatchAt correlates every template against a small region capture and
	// returns the single best hit, or ErrNoDetection.
	MatchAt(region image.Image) (*TemplateMatch, error)
	TemplateIDs() []string
	Available() bool
}

// PriceFeed is the primary price source: a periodically-synced whole-market
// feed indexed by normalized item name.
type PriceFeed interface {
	Lookup(name string) (*FeedEntry, bool)
	Refresh(ctx context.Context) error
	Status() FeedStatus
}

// PriceAPI is the secondary price source: a per-item remote query.
type PriceAPI interface {
	ItemPrices(ctx context.Context, itemID string) (*PriceSnapshot, error)
}

// InputListener delivers global mouse events through registered callbacks.
// The returned cancel func detaches the callback; the underlying hook is
// stopped once no callbacks remain.
type InputListener interface {
	OnMouseMove(fn func(x, y int)) (cancel func(), err error)
	OnScroll(fn func()) (cancel func(), err error)
	Available() bool
}
