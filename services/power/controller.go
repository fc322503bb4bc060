// Package power decides when the node goes to deep sleep and runs the
// sleep/wake sequence.
package power

import (
	"time"

	"tpmsbridge-go/types"
)

type Decision uint8

const (
	DecisionStay Decision = iota
	DecisionSleep
)

type Config struct {
	// IdleTimeout is how long the node may sit disconnected and idle.
	IdleTimeout time.Duration
	// BatteryActiveMV: a battery sample above this (on charger) counts as activity.
	BatteryActiveMV uint32
}

func DefaultConfig() Config {
	return Config{IdleTimeout: 30 * time.Second, BatteryActiveMV: 4000}
}

// Controller tracks the last activity and issues at most one sleep decision.
type Controller struct {
	cfg          Config
	lastActivity time.Time
	fired        bool
}

func NewController(cfg Config, now time.Time) *Controller {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultConfig().IdleTimeout
	}
	return &Controller{cfg: cfg, lastActivity: now}
}

// Tick evaluates one loop iteration. battery is nil on ticks without a fresh
// sample. A connection event since the last tick counts as activity even when
// the peer is already gone. Once DecisionSleep has been returned the
// controller stays latched.
func (c *Controller) Tick(now time.Time, s *Session, battery *types.BatterySample) Decision {
	if battery != nil && battery.MilliVolts > c.cfg.BatteryActiveMV {
		c.lastActivity = now
	}
	if s.TakeActivity() {
		c.lastActivity = now
	}
	if s.Connected() > 0 {
		c.lastActivity = now
		return DecisionStay
	}
	if c.fired {
		return DecisionStay
	}
	if now.Sub(c.lastActivity) >= c.cfg.IdleTimeout {
		c.fired = true
		return DecisionSleep
	}
	return DecisionStay
}

// Idle returns the time since the last activity.
func (c *Controller) Idle(now time.Time) time.Duration { return now.Sub(c.lastActivity) }

// Fired reports whether the sleep decision has been issued.
func (c *Controller) Fired() bool { return c.fired }
