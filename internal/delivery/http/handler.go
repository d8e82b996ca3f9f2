package http

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tarkovlens/scanner/internal/domain"
	"github.com/tarkovlens/scanner/internal/infrastructure/catalog"
	"github.com/tarkovlens/scanner/internal/infrastructure/ocr"
	"github.com/tarkovlens/scanner/internal/usecase"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	scans     *usecase.ScanService
	hover     *usecase.HoverScanner
	scroll    *usecase.ScrollMonitor
	prices    *usecase.PriceResolver
	text      domain.TextEngine
	templates domain.TemplateEngine
	input     domain.InputListener
	catalog   *catalog.Store
}

// NewHandler creates a new HTTP handler
func NewHandler(
	scans *usecase.ScanService,
	hover *usecase.HoverScanner,
	scroll *usecase.ScrollMonitor,
	prices *usecase.PriceResolver,
	text domain.TextEngine,
	templates domain.TemplateEngine,
	input domain.InputListener,
	store *catalog.Store,
) *Handler {
	return &Handler{
		scans:     scans,
		hover:     hover,
		scroll:    scroll,
		prices:    prices,
		text:      text,
		templates: templates,
		input:     input,
		catalog:   store,
	}
}

// HealthCheck returns service status and which capabilities survived
// startup probing.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "tarkovlens-scanner",
		"version": "1.0.0",
		"capabilities": gin.H{
			"ocr":       h.text.Available(),
			"templates": h.templates.Available(),
			"input":     h.input.Available(),
			"catalog":   h.catalog.Len() > 0,
		},
	})
}

type pointRequest struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Scan runs the full-screen template sweep.
func (h *Handler) Scan(c *gin.Context) {
	result, err := h.scans.ScanFullScreen(c.Request.Context())
	if err != nil {
		h.scanError(c, err)
		return
	}

	matches := make([]gin.H, 0, len(result.Matches))
	for _, m := range result.Matches {
		matches = append(matches, gin.H{
			"itemId":     m.ItemID,
			"x":          m.Rect.X,
			"y":          m.Rect.Y,
			"width":      m.Rect.Width,
			"height":     m.Rect.Height,
			"confidence": m.Confidence,
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"matches":        matches,
		"scan_time_ms":   result.ScanTime.Milliseconds(),
		"template_count": result.TemplateCount,
	})
}

// ListTemplates returns the ids of all loaded reference icons.
func (h *Handler) ListTemplates(c *gin.Context) {
	if !h.templates.Available() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "no templates loaded"})
		return
	}
	ids := h.templates.TemplateIDs()
	c.JSON(http.StatusOK, gin.H{"success": true, "templates": ids, "count": len(ids)})
}

// ScanIcon runs a template match on a square around the given point.
func (h *Handler) ScanIcon(c *gin.Context) {
	var req pointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "x and y are required"})
		return
	}

	det, err := h.scans.ScanIconAt(c.Request.Context(), req.X, req.Y)
	if err != nil {
		h.scanError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "item": itemPayload(det)})
}

// ScanOCR reads and matches the item name around the given point.
func (h *Handler) ScanOCR(c *gin.Context) {
	var req pointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "x and y are required"})
		return
	}

	result, err := h.scans.ScanOCRAt(c.Request.Context(), req.X, req.Y)
	if err != nil {
		h.scanError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"method":  result.Method,
		"item":    itemPayload(result.Detection),
	})
}

// OCRStats exposes the text engine's usage counters.
func (h *Handler) OCRStats(c *gin.Context) {
	engine, ok := h.text.(*ocr.Engine)
	if !ok || !engine.Available() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "ocr engine unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "stats": engine.Snapshot()})
}

// ScanGear sweeps the gear zone and returns flat and grouped item lists.
func (h *Handler) ScanGear(c *gin.Context) {
	result, err := h.scans.ScanGear(c.Request.Context())
	if err != nil {
		h.scanError(c, err)
		return
	}

	items := make([]gin.H, 0, len(result.Items))
	for _, det := range result.Items {
		payload := itemPayload(det)
		payload["x"] = det.Region.X
		payload["y"] = det.Region.Y
		payload["width"] = det.Region.Width
		payload["height"] = det.Region.Height
		items = append(items, payload)
	}

	c.JSON(http.StatusOK, gin.H{
		"success":            true,
		"items":              items,
		"groupedItems":       usecase.GroupDetections(result.Items),
		"total_value":        result.TotalValue,
		"total_trader_value": result.TotalTraderValue,
		"item_count":         len(result.Items),
		"unique_item_count":  len(usecase.GroupDetections(result.Items)),
		"scan_time_ms":       result.ScanTime.Milliseconds(),
		"roi":                result.ROI,
	})
}

// HoverStart enables the dwell scanner.
func (h *Handler) HoverStart(c *gin.Context) {
	if err := h.hover.Start(); err != nil {
		h.scanError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "running": true})
}

// HoverStop disables the dwell scanner.
func (h *Handler) HoverStop(c *gin.Context) {
	h.hover.Stop()
	c.JSON(http.StatusOK, gin.H{"success": true, "running": false})
}

// HoverStatus reports dwell scanner state.
func (h *Handler) HoverStatus(c *gin.Context) {
	status := h.hover.Status()
	c.JSON(http.StatusOK, gin.H{"success": true, "status": status})
}

// RefreshPrices kicks off a catalog-wide price refresh in the background.
// A refresh already in flight is reported, not duplicated.
func (h *Handler) RefreshPrices(c *gin.Context) {
	if h.prices.Status().Running {
		c.JSON(http.StatusOK, gin.H{"success": true, "running": true})
		return
	}
	go func() {
		if err := h.prices.RefreshAll(context.Background()); err != nil &&
			!errors.Is(err, domain.ErrRefreshInProgress) {
			log.Printf("[HTTP] Price refresh failed: %v", err)
		}
	}()
	c.JSON(http.StatusOK, gin.H{"success": true, "running": true})
}

// PricesStatus reports price refresh and feed freshness.
func (h *Handler) PricesStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"refresh": h.prices.Status(),
		"feed":    h.prices.FeedStatus(),
	})
}

// ScrollStart enables scroll monitoring.
func (h *Handler) ScrollStart(c *gin.Context) {
	if err := h.scroll.Start(); err != nil {
		h.scanError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "running": true})
}

// ScrollStop disables scroll monitoring.
func (h *Handler) ScrollStop(c *gin.Context) {
	h.scroll.Stop()
	c.JSON(http.StatusOK, gin.H{"success": true, "running": false})
}

// ScrollCheck returns and resets the scrolled-since-last-check flag.
func (h *Handler) ScrollCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"running":  h.scroll.Running(),
		"scrolled": h.scroll.Check(),
	})
}

// scanError maps pipeline errors onto HTTP responses. "Nothing found" is a
// successful call with success=false; a missing capability is 503; anything
// else is a 500 but the process keeps serving.
func (h *Handler) scanError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNoDetection), errors.Is(err, domain.ErrBlacklisted):
		c.JSON(http.StatusOK, gin.H{"success": false, "error": "no item detected"})
	case errors.Is(err, domain.ErrCaptureFailed):
		c.JSON(http.StatusOK, gin.H{"success": false, "error": "screen capture failed"})
	case errors.Is(err, domain.ErrEngineUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "capability unavailable"})
	case errors.Is(err, domain.ErrItemNotFound):
		c.JSON(http.StatusOK, gin.H{"success": false, "error": "matched item missing from catalog"})
	default:
		log.Printf("[HTTP] Scan error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
	}
}

// itemPayload renders one detection in the overlay's item shape.
func itemPayload(det *domain.Detection) gin.H {
	payload := gin.H{
		"id":         det.ItemID,
		"name":       det.Name,
		"shortName":  det.ShortName,
		"confidence": det.Score,
		"slots":      det.Slots,
		"iconUrl":    fmt.Sprintf("https://assets.tarkov.dev/%s-icon.webp", det.ItemID),
	}
	if det.SourceText != "" {
		payload["ocr_text"] = det.SourceText
	}
	if det.Item != nil {
		payload["width"] = det.Item.Width
		payload["height"] = det.Item.Height
	}
	if det.Price != nil {
		payload["price"] = det.Price.FleaPrice
		payload["fleaPrice"] = det.Price.FleaPrice
		payload["traderName"] = det.Price.TraderName
		payload["traderPrice"] = det.Price.TraderPrice
		payload["priceSource"] = det.Price.Source
	}
	return payload
}
