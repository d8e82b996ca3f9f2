package ocr

import (
	"image"
	"image/color"
	"testing"
)

func TestPreprocess(t *testing.T) {
	t.Run("upscales by the given factor", func(t *testing.T) {
		src := image.NewRGBA(image.Rect(0, 0, 70, 30))
		out := Preprocess(src, 3.0, false)
		b := out.Bounds()
		if b.Dx() != 210 || b.Dy() != 90 {
			t.Errorf("output = %dx%d, want 210x90", b.Dx(), b.Dy())
		}
	})

	t.Run("output is strictly binary", func(t *testing.T) {
		src := image.NewRGBA(image.Rect(0, 0, 20, 20))
		for y := 0; y < 20; y++ {
			for x := 0; x < 20; x++ {
				// left half dark, right half bright
				c := color.RGBA{A: 255}
				if x >= 10 {
					c = color.RGBA{R: 230, G: 230, B: 230, A: 255}
				}
				src.Set(x, y, c)
			}
		}

		out := Preprocess(src, 1.0, false)
		b := out.Bounds()
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				v := out.GrayAt(x, y).Y
				if v != 0 && v != 255 {
					t.Fatalf("pixel (%d,%d) = %d, want 0 or 255", x, y, v)
				}
			}
		}
	})
}

func TestOtsuThreshold(t *testing.T) {
	t.Run("separates a bimodal image", func(t *testing.T) {
		img := image.NewGray(image.Rect(0, 0, 20, 20))
		for y := 0; y < 20; y++ {
			for x := 0; x < 20; x++ {
				v := uint8(30)
				if x >= 10 {
					v = 220
				}
				img.SetGray(x, y, color.Gray{Y: v})
			}
		}

		threshold := otsuThreshold(img)
		if threshold <= 30 || threshold >= 220 {
			t.Errorf("threshold = %d, want between the two modes", threshold)
		}
	})

	t.Run("uniform image yields a stable threshold", func(t *testing.T) {
		img := image.NewGray(image.Rect(0, 0, 10, 10))
		for y := 0; y < 10; y++ {
			for x := 0; x < 10; x++ {
				img.SetGray(x, y, color.Gray{Y: 128})
			}
		}
		// No class separation exists; the only requirement is not to panic.
		_ = otsuThreshold(img)
	})
}

func TestBestOfNByLength(t *testing.T) {
	tests := []struct {
		name     string
		variants []string
		want     string
	}{
		{"picks the longest", []string{"Gunpo", "Gunpowder", "Gun"}, "Gunpowder"},
		{"ignores whitespace padding", []string{"  ab  ", "abc"}, "abc"},
		{"all empty yields empty", []string{"", "  ", ""}, ""},
		{"no variants yields empty", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BestOfNByLength(tt.variants); got != tt.want {
				t.Errorf("BestOfNByLength = %q, want %q", got, tt.want)
			}
		})
	}
}
