// Package node runs the single cooperative loop: it folds BLE and decoder
// events into the session, pushes values to the GATT characteristics,
// samples the battery and hands control to the sleep controller.
package node

import (
	"context"
	"strconv"
	"time"

	"tpmsbridge-go/bus"
	"tpmsbridge-go/services/ble"
	"tpmsbridge-go/services/decoder"
	"tpmsbridge-go/services/power"
	"tpmsbridge-go/types"
	"tpmsbridge-go/x/logx"
	"tpmsbridge-go/x/timex"
)

var TopicStatus = bus.T("node", "status")

type BatteryReader interface {
	ReadMilliVolts() (uint32, error)
}

type AccelReader interface {
	ReadAcceleration() (types.AccelSample, bool)
}

type Publisher interface {
	Telemetry(r types.TelemetryRecord, peers ble.Peers) bool
	Battery(mv uint32, peers ble.Peers) bool
	Accel(s types.AccelSample, peers ble.Peers) bool
}

// Deps are the loop's collaborators. Battery and Accel may be nil; a nil
// Accel also disables the accelerometer wake source.
type Deps struct {
	Bus       *bus.Bus
	Clock     timex.Clock
	Battery   BatteryReader
	Accel     AccelReader
	Publisher Publisher
	Sleeper   power.Sleeper
	Light     power.Light
	Log       logx.Logger
}

type Loop struct {
	cfg  types.Config
	d    Deps
	log  logx.Logger
	conn *bus.Connection

	bleSub *bus.Subscription
	telSub *bus.Subscription

	session *power.Session
	ctrl    *power.Controller

	sampled     bool
	nextBattery time.Time
	lastMV      uint32
	decoded     uint32
}

// New subscribes to the event topics right away so nothing published before
// Run is lost.
func New(cfg types.Config, d Deps) *Loop {
	if d.Clock == nil {
		d.Clock = timex.System
	}
	if d.Log == nil {
		d.Log = logx.Nop
	}
	conn := d.Bus.NewConnection("node")
	l := &Loop{
		cfg:     cfg,
		d:       d,
		log:     d.Log.With("node"),
		conn:    conn,
		bleSub:  conn.Subscribe(bus.T("ble", "#")),
		telSub:  conn.Subscribe(decoder.TopicDecoded),
		session: power.NewSession(),
	}
	l.ctrl = power.NewController(power.Config{
		IdleTimeout:     cfg.IdleTimeout(),
		BatteryActiveMV: uint32(cfg.Power.BatteryActiveMV),
	}, d.Clock.Now())
	return l
}

func (l *Loop) Session() *power.Session { return l.session }

// Close releases the loop's bus subscriptions.
func (l *Loop) Close() { l.conn.Disconnect() }

// Run ticks until the controller decides to sleep, then runs the sleep
// sequence and returns the cause of the following wake. It returns ctx's
// error when cancelled, also when the cancellation ended the sleep.
func (l *Loop) Run(ctx context.Context) (types.WakeCause, error) {
	tick := time.NewTicker(l.cfg.Tick())
	defer tick.Stop()

	for {
		if l.Step(l.d.Clock.Now()) == power.DecisionSleep {
			l.log.Info("Idle time reached with no BLE connection. Entering deep sleep.")
			cause := power.EnterDeepSleep(ctx, l.d.Sleeper, l.d.Light, l.log, l.wakeConfig())
			return cause, ctx.Err()
		}
		select {
		case <-ctx.Done():
			return types.WakeOther, ctx.Err()
		case <-tick.C:
		}
	}
}

func (l *Loop) wakeConfig() power.WakeConfig {
	return power.WakeConfig{
		ExtPin:     l.cfg.Power.WakePin,
		ExtEnabled: l.d.Accel != nil && l.cfg.MotionEnabled(),
		Timer:      l.cfg.SleepDuration(),
	}
}

// Step runs one loop iteration at now.
func (l *Loop) Step(now time.Time) power.Decision {
	l.drain()

	var sample *types.BatterySample
	if l.d.Battery != nil && (!l.sampled || !now.Before(l.nextBattery)) {
		l.sampled = true
		l.nextBattery = now.Add(l.cfg.BatteryEvery())
		sample = l.sampleBattery(now)
	}

	if l.d.Accel != nil && l.session.Connected() > 0 && l.session.Subscribed(types.CharAccel) {
		if s, ok := l.d.Accel.ReadAcceleration(); ok {
			l.d.Publisher.Accel(s, l.session)
		}
	}

	return l.ctrl.Tick(now, l.session, sample)
}

func (l *Loop) sampleBattery(now time.Time) *types.BatterySample {
	mv, err := l.d.Battery.ReadMilliVolts()
	if err != nil {
		l.log.Warn("battery read failed", "err", err)
		return nil
	}
	l.lastMV = mv
	l.log.Info(strconv.FormatUint(uint64(mv), 10) + " mV")
	l.d.Publisher.Battery(mv, l.session)

	l.conn.Publish(l.conn.NewMessage(TopicStatus, types.NodeStatus{
		Peers:     l.session.Connected(),
		BatteryMV: mv,
		Decoded:   l.decoded,
		Idle:      l.ctrl.Idle(now),
	}, true))
	return &types.BatterySample{MilliVolts: mv, TSms: now.UnixMilli()}
}

// drain applies every pending event. BLE events go first so a record that
// arrives with a new connection is published to it.
func (l *Loop) drain() {
	for {
		select {
		case m, ok := <-l.bleSub.Channel():
			if !ok {
				return
			}
			l.onBLE(m.Payload)
			continue
		default:
		}
		select {
		case m, ok := <-l.telSub.Channel():
			if !ok {
				return
			}
			if rec, ok := m.Payload.(types.TelemetryRecord); ok {
				l.decoded++
				l.d.Publisher.Telemetry(rec, l.session)
			}
			continue
		default:
		}
		return
	}
}

func (l *Loop) onBLE(p any) {
	switch e := p.(type) {
	case types.ConnEvent:
		if !e.Connected {
			l.log.Info("Client disconnected - start advertising")
		}
	case types.SubscribeEvent:
		if e.Mode.Active() {
			l.log.Info("Subscribed to "+e.Mode.String(), "char", string(e.Char))
		} else {
			l.log.Info("Unsubscribed", "char", string(e.Char))
		}
	case types.WriteEvent:
		l.log.Info("onWrite()", "char", string(e.Char), "value", e.Value)
	}
	l.session.Apply(p)
}
