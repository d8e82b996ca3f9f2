package input

import (
	"log"
	"sync"

	hook "github.com/robotn/gohook"
)

// Listener bridges the global input hook into the callback-based
// domain.InputListener contract. The hook library exposes one process-wide
// event channel, so the channel is consumed by a single goroutine that fans
// events out to registered callbacks; the goroutine starts with the first
// registration and stops with the last cancel.
type Listener struct {
	mu        sync.Mutex
	moveSubs  map[int]func(x, y int)
	wheelSubs map[int]func()
	nextID    int
	running   bool
	stop      chan struct{}
}

// NewListener creates an idle listener. The hook is not installed until the
// first callback registration.
func NewListener() *Listener {
	return &Listener{
		moveSubs:  map[int]func(x, y int){},
		wheelSubs: map[int]func(){},
	}
}

// Available reports whether the global hook can be used on this platform.
// The hook library panics on unsupported display servers only at Start time,
// so availability is optimistic here and failures surface in the pump.
func (l *Listener) Available() bool { return true }

// OnMouseMove registers fn for cursor position updates. The returned cancel
// removes the registration and tears down the hook when it was the last one.
func (l *Listener) OnMouseMove(fn func(x, y int)) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := l.nextID
	l.nextID++
	l.moveSubs[id] = fn
	l.ensureRunning()

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.moveSubs, id)
		l.maybeStop()
	}, nil
}

// OnScroll registers fn for mouse-wheel events.
func (l *Listener) OnScroll(fn func()) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := l.nextID
	l.nextID++
	l.wheelSubs[id] = fn
	l.ensureRunning()

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.wheelSubs, id)
		l.maybeStop()
	}, nil
}

// ensureRunning starts the event pump if it is not already live. Caller must
// hold l.mu.
func (l *Listener) ensureRunning() {
	if l.running {
		return
	}
	l.running = true
	l.stop = make(chan struct{})
	go l.pump(l.stop)
	log.Printf("[Input] Global hook started")
}

// maybeStop ends the hook when no subscribers remain. Caller must hold l.mu.
func (l *Listener) maybeStop() {
	if !l.running || len(l.moveSubs) > 0 || len(l.wheelSubs) > 0 {
		return
	}
	close(l.stop)
	l.running = false
	hook.End()
	log.Printf("[Input] Global hook stopped")
}

func (l *Listener) pump(stop chan struct{}) {
	events := hook.Start()
	for {
		select {
		case <-stop:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			switch ev.Kind {
			case hook.MouseMove, hook.MouseDrag:
				l.fanOutMove(int(ev.X), int(ev.Y))
			case hook.MouseWheel:
				l.fanOutWheel()
			}
		}
	}
}

func (l *Listener) fanOutMove(x, y int) {
	l.mu.Lock()
	subs := make([]func(int, int), 0, len(l.moveSubs))
	for _, fn := range l.moveSubs {
		subs = append(subs, fn)
	}
	l.mu.Unlock()
	for _, fn := range subs {
		fn(x, y)
	}
}

func (l *Listener) fanOutWheel() {
	l.mu.Lock()
	subs := make([]func(), 0, len(l.wheelSubs))
	for _, fn := range l.wheelSubs {
		subs = append(subs, fn)
	}
	l.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}
