package template

import (
	"image"
	"math"
)

// corrResult is the best correlation position for one template at one scale.
type corrResult struct {
	Score float64
	X, Y  int
}

// templateStats caches the zero-mean pixel values and norm of a template so
// the inner correlation loop only touches the screen image.
type templateStats struct {
	w, h   int
	values []float64 // pixel - mean
	norm   float64   // sqrt(sum((pixel-mean)^2))
}

func newTemplateStats(tmpl *image.Gray) templateStats {
	b := tmpl.Bounds()
	w, h := b.Dx(), b.Dy()
	values := make([]float64, w*h)

	var sum float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			values[y*w+x] = float64(tmpl.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
			sum += values[y*w+x]
		}
	}
	mean := sum / float64(w*h)

	var sq float64
	for i := range values {
		values[i] -= mean
		sq += values[i] * values[i]
	}

	return templateStats{w: w, h: h, values: values, norm: sqrt(sq)}
}

// correlate slides the template over the screen and returns the position of
// the highest normalized cross-correlation score. Returns a zero result when
// the template does not fit inside the screen.
func correlate(screen *image.Gray, stats templateStats) corrResult {
	sb := screen.Bounds()
	sw, sh := sb.Dx(), sb.Dy()
	if stats.w > sw || stats.h > sh || stats.norm == 0 {
		return corrResult{}
	}

	// Flatten the screen once; GrayAt in the hot loop is too slow.
	pixels := make([]float64, sw*sh)
	for y := 0; y < sh; y++ {
		row := screen.Pix[(y+sb.Min.Y-screen.Rect.Min.Y)*screen.Stride:]
		for x := 0; x < sw; x++ {
			pixels[y*sw+x] = float64(row[x+sb.Min.X-screen.Rect.Min.X])
		}
	}

	area := float64(stats.w * stats.h)
	best := corrResult{Score: -1}

	for oy := 0; oy <= sh-stats.h; oy++ {
		for ox := 0; ox <= sw-stats.w; ox++ {
			var sum float64
			for y := 0; y < stats.h; y++ {
				row := pixels[(oy+y)*sw+ox:]
				for x := 0; x < stats.w; x++ {
					sum += row[x]
				}
			}
			mean := sum / area

			var dot, sq float64
			for y := 0; y < stats.h; y++ {
				row := pixels[(oy+y)*sw+ox:]
				trow := stats.values[y*stats.w:]
				for x := 0; x < stats.w; x++ {
					d := row[x] - mean
					dot += d * trow[x]
					sq += d * d
				}
			}
			if sq == 0 {
				continue
			}
			score := dot / (sqrt(sq) * stats.norm)
			if score > best.Score {
				best = corrResult{Score: score, X: ox, Y: oy}
			}
		}
	}

	if best.Score < 0 {
		return corrResult{}
	}
	return best
}

func sqrt(v float64) float64 {
	if v <= 0 {
		return 0
	}
	return math.Sqrt(v)
}
