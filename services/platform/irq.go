package platform

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

type Edge uint8

const (
	EdgeNone Edge = iota
	EdgeRising
	EdgeFalling
)

// IRQPin is an input with edge interrupts.
type IRQPin interface {
	Get() bool
	SetIRQ(edge Edge, handler func()) error
	ClearIRQ() error
}

// PinLookup resolves a GPIO number to an interrupt-capable pin.
type PinLookup func(n int) (IRQPin, bool)

// WakeLine turns interrupts on one pin into wake events. The handler runs in
// ISR context and only does a non-blocking send.
type WakeLine struct {
	isrQ chan bool

	mu        sync.Mutex
	pin       IRQPin
	active    bool // level that counts as "asserted"
	debounce  time.Duration
	lastEvent time.Time

	drops uint32
}

func NewWakeLine(buf int) *WakeLine {
	if buf <= 0 {
		buf = 8
	}
	return &WakeLine{isrQ: make(chan bool, buf)}
}

// Arm attaches to pin. activeHigh selects the rising edge, otherwise falling.
func (w *WakeLine) Arm(pin IRQPin, activeHigh bool, debounce time.Duration) error {
	w.Disarm()
	edge := EdgeFalling
	if activeHigh {
		edge = EdgeRising
	}
	handler := func() {
		select {
		case w.isrQ <- pin.Get():
		default:
			atomic.AddUint32(&w.drops, 1)
		}
	}
	if err := pin.SetIRQ(edge, handler); err != nil {
		return err
	}
	w.mu.Lock()
	w.pin, w.active, w.debounce = pin, activeHigh, debounce
	w.lastEvent = time.Time{}
	w.mu.Unlock()
	return nil
}

// Disarm detaches from the pin and discards queued events.
func (w *WakeLine) Disarm() {
	w.mu.Lock()
	pin := w.pin
	w.pin = nil
	w.mu.Unlock()
	if pin != nil {
		_ = pin.ClearIRQ()
	}
	for {
		select {
		case <-w.isrQ:
		default:
			return
		}
	}
}

// Asserted reports whether the armed pin currently sits at its active level.
func (w *WakeLine) Asserted() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pin != nil && w.pin.Get() == w.active
}

// Wait blocks until an asserting edge arrives or ctx ends.
func (w *WakeLine) Wait(ctx context.Context) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case level := <-w.isrQ:
			if w.accept(level) {
				return true
			}
		}
	}
}

func (w *WakeLine) accept(level bool) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pin == nil || level != w.active {
		return false
	}
	now := time.Now()
	if !w.lastEvent.IsZero() && now.Sub(w.lastEvent) < w.debounce {
		return false
	}
	w.lastEvent = now
	return true
}

func (w *WakeLine) ISRDrops() uint32 { return atomic.LoadUint32(&w.drops) }
