package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/tarkovlens/scanner/config"
	"github.com/tarkovlens/scanner/internal/domain"
	"github.com/tarkovlens/scanner/internal/infrastructure/capture"
	"github.com/tarkovlens/scanner/internal/infrastructure/catalog"
)

// ScanService orchestrates capture, extraction, matching and price
// enrichment for every scan flavor the control plane exposes.
type ScanService struct {
	screen    domain.ScreenCapturer
	text      domain.TextEngine
	templates domain.TemplateEngine
	matcher   *Matcher
	prices    *PriceResolver
	catalog   *catalog.Store
	cfg       *config.Config
}

// NewScanService wires the scan pipeline.
func NewScanService(
	screen domain.ScreenCapturer,
	text domain.TextEngine,
	templates domain.TemplateEngine,
	matcher *Matcher,
	prices *PriceResolver,
	store *catalog.Store,
	cfg *config.Config,
) *ScanService {
	return &ScanService{
		screen:    screen,
		text:      text,
		templates: templates,
		matcher:   matcher,
		prices:    prices,
		catalog:   store,
		cfg:       cfg,
	}
}

// FullScreenResult is the outcome of one whole-screen template sweep.
type FullScreenResult struct {
	Matches       []domain.TemplateMatch
	TemplateCount int
	ScanTime      time.Duration
}

// ScanFullScreen correlates every template against the whole screen, keeps
// hits above the scan threshold and suppresses overlapping duplicates.
func (s *ScanService) ScanFullScreen(ctx context.Context) (*FullScreenResult, error) {
	start := time.Now()

	w, h, err := s.screen.ScreenSize()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCaptureFailed, err)
	}
	frame, err := s.screen.CaptureRect(domain.Rect{Width: w, Height: h})
	if err != nil {
		return nil, err
	}

	candidates, err := s.templates.MatchAll(frame)
	if err != nil {
		return nil, err
	}

	accepted := candidates[:0]
	for _, c := range candidates {
		if c.Confidence >= s.cfg.Template.ScanThreshold {
			accepted = append(accepted, c)
		}
	}
	matches := DedupeMatches(accepted, s.cfg.Template.DedupeIoU)

	log.Printf("[Scan] Full screen: %d/%d templates above %.2f in %dms",
		len(matches), len(candidates), s.cfg.Template.ScanThreshold, time.Since(start).Milliseconds())

	return &FullScreenResult{
		Matches:       matches,
		TemplateCount: len(s.templates.TemplateIDs()),
		ScanTime:      time.Since(start),
	}, nil
}

// ScanIconAt captures a square around (x, y) and correlates templates
// against it. The point threshold is laxer than the full-screen one; a
// cursor-anchored capture is already pre-localized.
func (s *ScanService) ScanIconAt(ctx context.Context, x, y int) (*domain.Detection, error) {
	region := capture.CenteredRegion(x, y, s.cfg.Capture.IconSize, s.cfg.Capture.IconSize)
	img, err := s.screen.CaptureRect(region)
	if err != nil {
		return nil, err
	}

	match, err := s.templates.MatchAt(img)
	if err != nil {
		return nil, err
	}
	if match.Confidence < s.cfg.Template.PointThreshold {
		return nil, fmt.Errorf("%w: best %.2f below %.2f",
			domain.ErrNoDetection, match.Confidence, s.cfg.Template.PointThreshold)
	}

	item, ok := s.catalog.ByID(match.ItemID)
	if !ok {
		return nil, fmt.Errorf("%w: template id %s", domain.ErrItemNotFound, match.ItemID)
	}

	det := s.newDetection(ctx, item, "", int(match.Confidence*100))
	det.Region = match.Rect.Offset(region.X, region.Y)
	return det, nil
}

// OCRScanResult carries the matched detection plus which capture geometry
// produced it.
type OCRScanResult struct {
	Detection *domain.Detection
	Method    string
}

// ScanOCRAt reads the item name around (x, y). The cursor-centered label
// capture is tried first; on a miss the tooltip-offset capture is tried,
// since the name may render top-right of the cursor instead of under it.
func (s *ScanService) ScanOCRAt(ctx context.Context, x, y int) (*OCRScanResult, error) {
	geom := s.cfg.Capture

	label := capture.CenteredRegion(x, y, geom.LabelWidth, geom.LabelHeight)
	if det, err := s.scanTextRegion(ctx, label); err == nil {
		return &OCRScanResult{Detection: det, Method: "label"}, nil
	} else if !isRecoverable(err) {
		return nil, err
	}

	tooltip := capture.OffsetRegion(x, y, geom.TooltipOffsetX, geom.TooltipOffsetY, geom.TooltipWidth, geom.TooltipHeight)
	det, err := s.scanTextRegion(ctx, tooltip)
	if err != nil {
		return nil, err
	}
	return &OCRScanResult{Detection: det, Method: "tooltip"}, nil
}

// ScanHoverAt reads the tooltip zone left-above the cursor, used by the
// dwell scanner where the tooltip has had time to render fully.
func (s *ScanService) ScanHoverAt(ctx context.Context, x, y int) (*domain.Detection, error) {
	region := capture.OffsetRegion(x, y, -200, -120, 400, 100)
	return s.scanTextRegion(ctx, region)
}

// scanTextRegion captures one region, extracts text, and matches each line
// independently, keeping the best-scoring line.
func (s *ScanService) scanTextRegion(ctx context.Context, region domain.Rect) (*domain.Detection, error) {
	img, err := s.screen.CaptureRect(region)
	if err != nil {
		return nil, err
	}
	text, err := s.text.ExtractText(img)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: no text in region", domain.ErrNoDetection)
	}

	var best *domain.Detection
	for _, line := range strings.Split(text, "\n") {
		match, err := s.matcher.Match(line, s.cfg.Match.SingleCutoff)
		if err != nil {
			continue
		}
		item, ok := s.catalog.Lookup(match.Key)
		if !ok {
			continue
		}
		if best == nil || match.Score > best.Score {
			det := s.newDetection(ctx, item, strings.TrimSpace(line), match.Score)
			det.Region = region
			best = det
		}
	}
	if best == nil {
		return nil, fmt.Errorf("%w: %q", domain.ErrNoDetection, strings.TrimSpace(text))
	}
	return best, nil
}

// GearScanResult is the outcome of one gear-zone sweep.
type GearScanResult struct {
	Items            []*domain.Detection
	ROI              domain.Rect
	TotalValue       int
	TotalTraderValue int
	ScanTime         time.Duration
}

// ScanGear captures the gear zone, extracts all text spans with locations in
// one pass, and resolves each span against the catalog. Compound spans are
// split into tokens and the span width sliced evenly across them.
func (s *ScanService) ScanGear(ctx context.Context) (*GearScanResult, error) {
	start := time.Now()

	w, h, err := s.screen.ScreenSize()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCaptureFailed, err)
	}
	geom := s.cfg.Capture
	roi := capture.PercentRegion(w, h, geom.GearLeftPct, geom.GearTopPct, geom.GearWidthPct, geom.GearHeightPct)

	img, err := s.screen.CaptureRect(roi)
	if err != nil {
		return nil, err
	}

	regions, err := s.text.ExtractTextRegions(img)
	if err != nil {
		return nil, err
	}
	log.Printf("[Scan] Gear zone: %d text regions in %dms", len(regions), time.Since(start).Milliseconds())

	result := &GearScanResult{ROI: roi}
	for _, region := range regions {
		if len(strings.TrimSpace(region.Text)) < 2 {
			continue
		}

		parts := s.matcher.SplitCompound(region.Text, s.cfg.Match.ZoneCutoff)
		sliceWidth := region.Rect.Width
		if len(parts) > 1 {
			sliceWidth = region.Rect.Width / len(parts)
		}

		for idx, part := range parts {
			if part.Match == nil {
				if s.cfg.Match.Debug && !s.matcher.Blacklisted(part.Text) && len(part.Text) >= 3 {
					log.Printf("[Scan] REJECTED: %q (no match >= %d)", part.Text, s.cfg.Match.ZoneCutoff)
				}
				continue
			}
			item, ok := s.catalog.Lookup(part.Match.Key)
			if !ok {
				continue
			}

			det := s.newDetection(ctx, item, part.Text, part.Match.Score)
			det.Region = domain.Rect{
				X:      roi.X + region.Rect.X + idx*sliceWidth,
				Y:      roi.Y + region.Rect.Y,
				Width:  sliceWidth,
				Height: region.Rect.Height,
			}
			result.Items = append(result.Items, det)

			result.TotalValue += det.Price.FleaPrice
			result.TotalTraderValue += det.Price.TraderPrice
		}
	}

	result.ScanTime = time.Since(start)
	log.Printf("[Scan] Gear zone complete: %d items, total %d in %dms",
		len(result.Items), result.TotalValue, result.ScanTime.Milliseconds())
	return result, nil
}

// newDetection builds a price-enriched detection for a catalog item.
func (s *ScanService) newDetection(ctx context.Context, item *domain.Item, sourceText string, score int) *domain.Detection {
	return &domain.Detection{
		Item:       item,
		ItemID:     item.ID,
		Name:       item.Name,
		ShortName:  item.ShortName,
		SourceText: sourceText,
		Score:      score,
		Slots:      item.Slots(),
		Price:      s.prices.Resolve(ctx, item),
	}
}

// GroupedItem is one stack of identical detections for the overlay's
// summary panel.
type GroupedItem struct {
	ItemID     string `json:"id"`
	Name       string `json:"name"`
	ShortName  string `json:"shortName"`
	Quantity   int    `json:"quantity"`
	UnitPrice  int    `json:"unitPrice"`
	TotalPrice int    `json:"totalPrice"`
	Slots      int    `json:"slots"`
}

// GroupDetections stacks detections of the same item name, ordered by total
// value descending.
func GroupDetections(items []*domain.Detection) []GroupedItem {
	byName := map[string]*GroupedItem{}
	order := []string{}
	for _, det := range items {
		if g, ok := byName[det.Name]; ok {
			g.Quantity++
			g.TotalPrice = g.Quantity * g.UnitPrice
			continue
		}
		unit := 0
		if det.Price != nil {
			unit = det.Price.FleaPrice
		}
		byName[det.Name] = &GroupedItem{
			ItemID:     det.ItemID,
			Name:       det.Name,
			ShortName:  det.ShortName,
			Quantity:   1,
			UnitPrice:  unit,
			TotalPrice: unit,
			Slots:      det.Slots,
		}
		order = append(order, det.Name)
	}

	grouped := make([]GroupedItem, 0, len(byName))
	for _, name := range order {
		grouped = append(grouped, *byName[name])
	}
	sort.SliceStable(grouped, func(i, j int) bool {
		return grouped[i].TotalPrice > grouped[j].TotalPrice
	})
	return grouped
}

// isRecoverable reports whether a scan error means "nothing there" rather
// than a broken capability.
func isRecoverable(err error) bool {
	return errors.Is(err, domain.ErrNoDetection) ||
		errors.Is(err, domain.ErrBlacklisted) ||
		errors.Is(err, domain.ErrCaptureFailed)
}
