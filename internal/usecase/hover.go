package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/tarkovlens/scanner/config"
	"github.com/tarkovlens/scanner/internal/domain"
)

// HoverScanner watches the cursor and scans automatically once it has sat
// still long enough for the game to render a tooltip. One goroutine tracks
// cursor movement through the input hook; a second polls for the dwell
// condition and runs the scan.
type HoverScanner struct {
	input domain.InputListener
	scans *ScanService
	cfg   config.HoverConfig

	mu         sync.Mutex
	running    bool
	cursorX    int
	cursorY    int
	lastMove   time.Time
	lastScan   time.Time
	lastResult *domain.Detection
	scanCount  int
	cache      map[string]*domain.Detection
	cancelMove func()
	stop       chan struct{}
}

// NewHoverScanner wires the dwell scanner. It starts idle.
func NewHoverScanner(input domain.InputListener, scans *ScanService, cfg config.HoverConfig) *HoverScanner {
	return &HoverScanner{
		input: input,
		scans: scans,
		cfg:   cfg,
		cache: map[string]*domain.Detection{},
	}
}

// Start installs the mouse listener and launches the dwell poll loop.
// Starting an already-running scanner is a no-op.
func (h *HoverScanner) Start() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return nil
	}
	if !h.input.Available() {
		return fmt.Errorf("%w: no input hook on this platform", domain.ErrEngineUnavailable)
	}

	cancel, err := h.input.OnMouseMove(h.onMove)
	if err != nil {
		return fmt.Errorf("install mouse listener: %w", err)
	}

	h.cancelMove = cancel
	h.stop = make(chan struct{})
	h.running = true
	h.lastMove = time.Now()
	go h.poll(h.stop)

	log.Printf("[Hover] Scanner started (dwell=%s, poll=%s)", h.cfg.DwellThreshold, h.cfg.PollInterval)
	return nil
}

// Stop tears down the listener and poll loop and drops the position cache.
func (h *HoverScanner) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.running {
		return
	}
	h.cancelMove()
	close(h.stop)
	h.running = false
	h.cache = map[string]*domain.Detection{}
	log.Printf("[Hover] Scanner stopped (%d scans this session)", h.scanCount)
}

// onMove records the cursor position. Jitter within the move tolerance does
// not reset the dwell timer; a rendered tooltip survives small movements.
func (h *HoverScanner) onMove(x, y int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	dx := x - h.cursorX
	dy := y - h.cursorY
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	moved := dx > h.cfg.MoveTolerance || dy > h.cfg.MoveTolerance
	h.cursorX, h.cursorY = x, y
	if moved {
		h.lastMove = time.Now()
	}
}

func (h *HoverScanner) poll(stop chan struct{}) {
	ticker := time.NewTicker(h.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			h.maybeScan()
		}
	}
}

func (h *HoverScanner) maybeScan() {
	h.mu.Lock()
	now := time.Now()
	dwelling := now.Sub(h.lastMove) >= h.cfg.DwellThreshold
	cooled := now.Sub(h.lastScan) >= h.cfg.ScanCooldown
	x, y := h.cursorX, h.cursorY
	if !h.running || !dwelling || !cooled {
		h.mu.Unlock()
		return
	}

	key := h.gridKey(x, y)
	if cached, ok := h.cache[key]; ok {
		h.lastResult = cached
		h.lastScan = now
		h.mu.Unlock()
		return
	}
	h.mu.Unlock()

	det, err := h.scans.ScanHoverAt(context.Background(), x, y)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastScan = time.Now()
	h.scanCount++
	if err != nil {
		if !errors.Is(err, domain.ErrNoDetection) && !errors.Is(err, domain.ErrBlacklisted) {
			log.Printf("[Hover] Scan failed: %v", err)
		}
		return
	}
	h.cache[key] = det
	h.lastResult = det
	log.Printf("[Hover] %s (%d) at (%d, %d)", det.ShortName, det.Score, x, y)
}

// gridKey coarsens a cursor position so nearby hovers share a cache entry.
func (h *HoverScanner) gridKey(x, y int) string {
	grid := h.cfg.GridSize
	if grid <= 0 {
		grid = 1
	}
	return fmt.Sprintf("%d,%d", x/grid, y/grid)
}

// HoverStatus is the control-plane view of the scanner.
type HoverStatus struct {
	Running    bool              `json:"running"`
	ScanCount  int               `json:"scan_count"`
	CachedHits int               `json:"cached_positions"`
	LastResult *domain.Detection `json:"last_result,omitempty"`
}

// Status reports current scanner state.
func (h *HoverScanner) Status() HoverStatus {
	h.mu.Lock()
	defer h.mu.Unlock()
	return HoverStatus{
		Running:    h.running,
		ScanCount:  h.scanCount,
		CachedHits: len(h.cache),
		LastResult: h.lastResult,
	}
}
