package domain

// Rect is an axis-aligned rectangle in screen (or ROI) coordinates.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Area returns the rectangle area; degenerate rects have area 0.
func (r Rect) Area() int {
	if r.Width <= 0 || r.Height <= 0 {
		return 0
	}
	return r.Width * r.Height
}

// Empty reports whether the rectangle covers no pixels.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// IoU computes Intersection-over-Union with another rectangle.
// Identical rects yield 1.0, disjoint rects 0.0.
func (r Rect) IoU(o Rect) float64 {
	ix0 := maxInt(r.X, o.X)
	iy0 := maxInt(r.Y, o.Y)
	ix1 := minInt(r.X+r.Width, o.X+o.Width)
	iy1 := minInt(r.Y+r.Height, o.Y+o.Height)

	if ix1 <= ix0 || iy1 <= iy0 {
		return 0.0
	}
	intersection := (ix1 - ix0) * (iy1 - iy0)
	union := r.Area() + o.Area() - intersection
	if union <= 0 {
		return 0.0
	}
	return float64(intersection) / float64(union)
}

// Offset returns the rectangle translated by (dx, dy).
func (r Rect) Offset(dx, dy int) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, Width: r.Width, Height: r.Height}
}

// Match is the outcome of one catalog-matching pass: the normalized key that
// won and its similarity score (0-100, 100 meaning exact).
type Match struct {
	Key   string
	Score int
}

// Detection is a transient result of one scan call. It is created per call
// and returned to the caller; only the hover scanner retains detections, in
// its coarse position cache.
type Detection struct {
	Item       *Item          `json:"-"`
	ItemID     string         `json:"id"`
	Name       string         `json:"name"`
	ShortName  string         `json:"shortName"`
	SourceText string         `json:"ocr_text,omitempty"`
	Score      int            `json:"confidence"`
	Region     Rect           `json:"-"`
	Slots      int            `json:"slots"`
	Price      *PriceSnapshot `json:"-"`
}

// TemplateMatch is one template-correlation hit on a frame.
type TemplateMatch struct {
	ItemID     string  `json:"itemId"`
	Rect       Rect    `json:"-"`
	Confidence float64 `json:"confidence"`
}

// TextRegion is one OCR-detected text span with its bounding rectangle,
// in the coordinates of the scanned image.
type TextRegion struct {
	Text string
	Rect Rect
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
