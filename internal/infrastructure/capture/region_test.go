package capture

import (
	"testing"

	"github.com/tarkovlens/scanner/internal/domain"
)

func TestOffsetRegion(t *testing.T) {
	t.Run("applies offsets", func(t *testing.T) {
		got := OffsetRegion(100, 200, 10, -27, 200, 20)
		want := domain.Rect{X: 110, Y: 173, Width: 200, Height: 20}
		if got != want {
			t.Errorf("OffsetRegion = %+v, want %+v", got, want)
		}
	})

	t.Run("clamps negative coordinates to zero", func(t *testing.T) {
		got := OffsetRegion(5, 10, -50, -50, 100, 100)
		if got.X != 0 || got.Y != 0 {
			t.Errorf("OffsetRegion = %+v, want origin clamped to (0,0)", got)
		}
		if got.Width != 100 || got.Height != 100 {
			t.Errorf("size changed by clamping: %+v", got)
		}
	})
}

func TestCenteredRegion(t *testing.T) {
	got := CenteredRegion(100, 100, 70, 30)
	want := domain.Rect{X: 65, Y: 85, Width: 70, Height: 30}
	if got != want {
		t.Errorf("CenteredRegion = %+v, want %+v", got, want)
	}
}

func TestPercentRegion(t *testing.T) {
	got := PercentRegion(1920, 1080, 0.32, 0.10, 0.33, 0.75)
	want := domain.Rect{X: 614, Y: 108, Width: 633, Height: 810}
	if got != want {
		t.Errorf("PercentRegion = %+v, want %+v", got, want)
	}
}
