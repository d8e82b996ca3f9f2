package ocr

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Preprocess prepares a small screen capture for recognition: upscale for
// tiny text, grayscale, optional polarity inversion (the game renders light
// text on dark panels), contrast boost, and Otsu binarization.
func Preprocess(img image.Image, upscale float64, invert bool) *image.Gray {
	work := imaging.Clone(img)

	if upscale > 1.0 {
		w := int(float64(work.Bounds().Dx()) * upscale)
		work = imaging.Resize(work, w, 0, imaging.CatmullRom)
	}

	work = imaging.Grayscale(work)
	if invert {
		work = imaging.Invert(work)
	}
	work = imaging.AdjustContrast(work, 15)

	gray := toGray(work)
	return binarize(gray, otsuThreshold(gray))
}

func toGray(img image.Image) *image.Gray {
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.Set(x, y, img.At(x, y))
		}
	}
	return gray
}

// otsuThreshold finds the global threshold maximizing between-class variance
// over the grayscale histogram.
func otsuThreshold(gray *image.Gray) uint8 {
	var hist [256]int
	total := 0
	bounds := gray.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			hist[gray.GrayAt(x, y).Y]++
			total++
		}
	}
	if total == 0 {
		return 128
	}

	var sum float64
	for i, n := range hist {
		sum += float64(i) * float64(n)
	}

	var sumB, wB float64
	var maxVariance float64
	best := uint8(128)
	for t := 0; t < 256; t++ {
		wB += float64(hist[t])
		if wB == 0 {
			continue
		}
		wF := float64(total) - wB
		if wF == 0 {
			break
		}
		sumB += float64(t) * float64(hist[t])
		mB := sumB / wB
		mF := (sum - sumB) / wF
		variance := wB * wF * (mB - mF) * (mB - mF)
		if variance > maxVariance {
			maxVariance = variance
			best = uint8(t)
		}
	}
	return best
}

func binarize(gray *image.Gray, threshold uint8) *image.Gray {
	bounds := gray.Bounds()
	out := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if gray.GrayAt(x, y).Y > threshold {
				out.SetGray(x, y, color.Gray{Y: 255})
			} else {
				out.SetGray(x, y, color.Gray{Y: 0})
			}
		}
	}
	return out
}
