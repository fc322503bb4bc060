package platform

import (
	"context"
	"time"

	"tpmsbridge-go/errcode"
	"tpmsbridge-go/types"
)

// Sleeper emulates deep sleep: it blocks until the wake pin asserts or the
// timer expires, then reports the cause the next boot will see.
type Sleeper struct {
	pins  PinLookup
	line  *WakeLine
	cause types.WakeCause

	ext   bool
	timer time.Duration

	// Enter and Leave wrap the wait; boards use them to power peripherals down.
	Enter func()
	Leave func()
}

func NewSleeper(pins PinLookup) *Sleeper {
	return &Sleeper{pins: pins, line: NewWakeLine(4), cause: types.WakePowerOn}
}

func (s *Sleeper) WakeCause() types.WakeCause { return s.cause }

func (s *Sleeper) EnableExtWakeup(pin int, activeHigh bool) error {
	if s.pins == nil {
		return errcode.Unsupported
	}
	p, ok := s.pins(pin)
	if !ok {
		return &errcode.E{C: errcode.InvalidParams, Op: "sleep.ext", Msg: "unknown pin"}
	}
	if err := s.line.Arm(p, activeHigh, 0); err != nil {
		return errcode.Wrap(errcode.Error, "sleep.ext", err)
	}
	s.ext = true
	return nil
}

func (s *Sleeper) EnableTimerWakeup(d time.Duration) error {
	if d <= 0 {
		return &errcode.E{C: errcode.InvalidParams, Op: "sleep.timer", Msg: "non-positive duration"}
	}
	s.timer = d
	return nil
}

// DeepSleep waits for a wake source. An asserted wake pin wakes at once, as
// a level-triggered source would. Wake sources are cleared afterwards.
func (s *Sleeper) DeepSleep(ctx context.Context) types.WakeCause {
	if s.Enter != nil {
		s.Enter()
	}
	cause := s.wait(ctx)
	if s.Leave != nil {
		s.Leave()
	}
	s.line.Disarm()
	s.ext, s.timer = false, 0
	s.cause = cause
	return cause
}

func (s *Sleeper) wait(ctx context.Context) types.WakeCause {
	if s.ext && s.line.Asserted() {
		return types.WakeExtInterrupt
	}

	var timerC <-chan time.Time
	if s.timer > 0 {
		t := time.NewTimer(s.timer)
		defer t.Stop()
		timerC = t.C
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	extC := make(chan struct{})
	if s.ext {
		go func() {
			if s.line.Wait(ctx) {
				close(extC)
			}
		}()
	}

	select {
	case <-extC:
		return types.WakeExtInterrupt
	case <-timerC:
		return types.WakeTimer
	case <-ctx.Done():
		return types.WakeOther
	}
}
