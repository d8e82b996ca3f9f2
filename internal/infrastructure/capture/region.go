package capture

import "github.com/tarkovlens/scanner/internal/domain"

// OffsetRegion builds a capture rectangle anchored at a point plus fixed
// pixel offsets (tooltip-style captures). Coordinates are clamped to >= 0 on
// each axis; no upper clamp, capture backends truncate out-of-bounds regions.
func OffsetRegion(x, y, offsetX, offsetY, width, height int) domain.Rect {
	left := x + offsetX
	top := y + offsetY
	if left < 0 {
		left = 0
	}
	if top < 0 {
		top = 0
	}
	return domain.Rect{X: left, Y: top, Width: width, Height: height}
}

// CenteredRegion builds a capture rectangle centered on a point.
func CenteredRegion(x, y, width, height int) domain.Rect {
	return OffsetRegion(x, y, -width/2, -height/2, width, height)
}

// PercentRegion builds a rectangle from screen-relative fractions. The
// fractions are static constants tuned for one game layout; the screen size
// is passed per call since it may change between calls.
func PercentRegion(screenW, screenH int, leftPct, topPct, widthPct, heightPct float64) domain.Rect {
	return domain.Rect{
		X:      int(float64(screenW) * leftPct),
		Y:      int(float64(screenH) * topPct),
		Width:  int(float64(screenW) * widthPct),
		Height: int(float64(screenH) * heightPct),
	}
}
