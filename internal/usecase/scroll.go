package usecase

import (
	"fmt"
	"log"
	"sync"

	"github.com/tarkovlens/scanner/internal/domain"
)

// ScrollMonitor raises a one-shot flag when the user scrolls, letting the
// overlay know its pinned annotations are stale. Checking the flag resets
// it, so each scroll burst is reported once.
type ScrollMonitor struct {
	input domain.InputListener

	mu       sync.Mutex
	running  bool
	scrolled bool
	cancel   func()
}

// NewScrollMonitor creates an idle monitor.
func NewScrollMonitor(input domain.InputListener) *ScrollMonitor {
	return &ScrollMonitor{input: input}
}

// Start installs the wheel listener. Idempotent.
func (s *ScrollMonitor) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}
	if !s.input.Available() {
		return fmt.Errorf("%w: no input hook on this platform", domain.ErrEngineUnavailable)
	}

	cancel, err := s.input.OnScroll(s.onScroll)
	if err != nil {
		return fmt.Errorf("install scroll listener: %w", err)
	}
	s.cancel = cancel
	s.running = true
	s.scrolled = false
	log.Printf("[Scroll] Monitor started")
	return nil
}

// Stop removes the listener and clears the flag.
func (s *ScrollMonitor) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.cancel()
	s.running = false
	s.scrolled = false
	log.Printf("[Scroll] Monitor stopped")
}

func (s *ScrollMonitor) onScroll() {
	s.mu.Lock()
	s.scrolled = true
	s.mu.Unlock()
}

// Check returns whether a scroll happened since the last check, and resets
// the flag.
func (s *ScrollMonitor) Check() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	scrolled := s.scrolled
	s.scrolled = false
	return scrolled
}

// Running reports whether the monitor is active.
func (s *ScrollMonitor) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
