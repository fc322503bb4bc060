package power

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tpmsbridge-go/types"
	"tpmsbridge-go/x/logx"
)

var t0 = time.Unix(1000, 0)

func at(ms int) time.Time { return t0.Add(time.Duration(ms) * time.Millisecond) }

func TestController_StaysAwakeBelowTimeout(t *testing.T) {
	c := NewController(DefaultConfig(), t0)
	s := NewSession()
	for ms := 0; ms < 30000; ms += 1000 {
		assert.Equal(t, DecisionStay, c.Tick(at(ms), s, nil), "ms=%d", ms)
	}
	assert.Equal(t, DecisionStay, c.Tick(at(29999), s, nil))
	assert.False(t, c.Fired())
}

func TestController_SleepsExactlyOnce(t *testing.T) {
	c := NewController(DefaultConfig(), t0)
	s := NewSession()
	n := 0
	for ms := 0; ms <= 60000; ms += 10 {
		if c.Tick(at(ms), s, &types.BatterySample{MilliVolts: 3700}) == DecisionSleep {
			n++
			assert.Equal(t, 30000, ms)
		}
	}
	assert.Equal(t, 1, n)
	assert.True(t, c.Fired())
}

func TestController_ConnectionResetsIdle(t *testing.T) {
	c := NewController(DefaultConfig(), t0)
	s := NewSession()

	s.Apply(types.ConnEvent{Connected: true})
	assert.Equal(t, DecisionStay, c.Tick(at(25000), s, nil))
	assert.Equal(t, DecisionStay, c.Tick(at(90000), s, nil))

	// The disconnect itself is a connection event: idle restarts at 100000.
	s.Apply(types.ConnEvent{Connected: false})
	assert.Equal(t, DecisionStay, c.Tick(at(100000), s, nil))
	assert.Equal(t, DecisionStay, c.Tick(at(129999), s, nil))
	assert.Equal(t, DecisionSleep, c.Tick(at(130000), s, nil))
}

func TestController_ShortConnectionBetweenTicksResetsIdle(t *testing.T) {
	c := NewController(DefaultConfig(), t0)
	s := NewSession()

	assert.Equal(t, DecisionStay, c.Tick(at(0), s, nil))
	s.Apply(types.ConnEvent{Connected: true, Peer: "a"})
	s.Apply(types.ConnEvent{Connected: false, Peer: "a"})
	require.Equal(t, 0, s.Connected())

	assert.Equal(t, DecisionStay, c.Tick(at(31000), s, nil))
	assert.Equal(t, time.Duration(0), c.Idle(at(31000)))
	assert.Equal(t, DecisionStay, c.Tick(at(60999), s, nil))
	assert.Equal(t, DecisionSleep, c.Tick(at(61000), s, nil))
}

func TestController_HighBatteryIsActivity(t *testing.T) {
	c := NewController(DefaultConfig(), t0)
	s := NewSession()

	assert.Equal(t, DecisionStay, c.Tick(at(20000), s, &types.BatterySample{MilliVolts: 4150}))
	assert.Equal(t, DecisionStay, c.Tick(at(40000), s, nil))
	// 4000 mV exactly is not above the threshold.
	assert.Equal(t, DecisionStay, c.Tick(at(45000), s, &types.BatterySample{MilliVolts: 4000}))
	assert.Equal(t, DecisionSleep, c.Tick(at(50000), s, nil))
}

func TestSession(t *testing.T) {
	s := NewSession()
	s.Apply(types.ConnEvent{Connected: true, Peer: "a"})
	s.Apply(types.ConnEvent{Connected: true, Peer: "b"})
	s.Apply(types.SubscribeEvent{Char: types.CharAccel, Mode: types.SubNotify})
	s.Apply(types.SubscribeEvent{Char: types.CharBattery, Mode: types.SubIndicate})
	assert.Equal(t, 2, s.Connected())
	assert.True(t, s.Subscribed(types.CharAccel))

	s.Apply(types.ConnEvent{Connected: false, Peer: "a"})
	assert.Equal(t, 1, s.Connected())
	assert.False(t, s.Subscribed(types.CharAccel))
	assert.True(t, s.Subscribed(types.CharBattery))

	s.Apply(types.SubscribeEvent{Char: types.CharBattery, Mode: types.SubNone})
	assert.False(t, s.Subscribed(types.CharBattery))

	s.Apply(types.ConnEvent{Connected: false})
	s.Apply(types.ConnEvent{Connected: false})
	assert.Equal(t, 0, s.Connected())

	s.Apply("ignored")
	s.Reset()
	assert.Equal(t, 0, s.Connected())
	assert.False(t, s.TakeActivity())
}

func TestSession_TakeActivity(t *testing.T) {
	s := NewSession()
	assert.False(t, s.TakeActivity())

	s.Apply(types.ConnEvent{Connected: true})
	s.Apply(types.ConnEvent{Connected: false})
	assert.True(t, s.TakeActivity())
	assert.False(t, s.TakeActivity())

	s.Apply(types.SubscribeEvent{Char: types.CharAccel, Mode: types.SubNotify})
	s.Apply(types.PeerCount{N: 2})
	assert.False(t, s.TakeActivity())
}

func TestSession_PeerCountSeedsAndReplaces(t *testing.T) {
	s := NewSession()
	s.Apply(types.PeerCount{N: 1})
	assert.Equal(t, 1, s.Connected())

	// Event followed by the stack's own count: no double counting.
	s.Apply(types.ConnEvent{Connected: true, Peer: "b"})
	s.Apply(types.PeerCount{N: 2})
	assert.Equal(t, 2, s.Connected())

	s.Apply(types.SubscribeEvent{Char: types.CharAccel, Mode: types.SubNotify})
	s.Apply(types.PeerCount{N: 0})
	assert.Equal(t, 0, s.Connected())
	assert.False(t, s.Subscribed(types.CharAccel))

	s.Apply(types.PeerCount{N: -3})
	assert.Equal(t, 0, s.Connected())
}

// -----------------------------------------------------------------------------
// sleep sequence
// -----------------------------------------------------------------------------

type recorder struct {
	calls []string
}

type fakeSleeper struct {
	rec    *recorder
	cause  types.WakeCause
	sleeps int
}

func (f *fakeSleeper) WakeCause() types.WakeCause { return f.cause }
func (f *fakeSleeper) EnableExtWakeup(pin int, high bool) error {
	f.rec.calls = append(f.rec.calls, "ext")
	return nil
}
func (f *fakeSleeper) EnableTimerWakeup(d time.Duration) error {
	f.rec.calls = append(f.rec.calls, "timer:"+d.String())
	return nil
}
func (f *fakeSleeper) DeepSleep(ctx context.Context) types.WakeCause {
	f.sleeps++
	f.rec.calls = append(f.rec.calls, "sleep")
	return types.WakeTimer
}

type fakeLED struct{ rec *recorder }

func (l fakeLED) Off() error { l.rec.calls = append(l.rec.calls, "led-off"); return nil }

type fakeAccel struct {
	rec     *recorder
	cleared int
}

func (a *fakeAccel) ClearInterruptSource() types.Click {
	a.cleared++
	a.rec.calls = append(a.rec.calls, "clear")
	return types.ClickSingle
}

func (a *fakeAccel) ReadAcceleration() {
	a.rec.calls = append(a.rec.calls, "read")
}

func TestEnterDeepSleep_Order(t *testing.T) {
	rec := &recorder{}
	sl := &fakeSleeper{rec: rec}
	log := logx.NewMemory()

	cause := EnterDeepSleep(context.Background(), sl, fakeLED{rec}, log,
		WakeConfig{ExtPin: 26, ExtEnabled: true, Timer: 5 * time.Minute})

	assert.Equal(t, types.WakeTimer, cause)
	assert.Equal(t, []string{"led-off", "ext", "timer:5m0s", "sleep"}, rec.calls)
	assert.Equal(t, 1, log.Flushes())
	assert.Contains(t, strings.Join(log.Lines(), "\n"), "Enabling EXT0 wakeup on GPIO 26 (Active HIGH)")
	assert.Contains(t, strings.Join(log.Lines(), "\n"), "Enabling timer wakeup in 5 minutes.")
}

func TestEnterDeepSleep_NoExtWhenAccelFailed(t *testing.T) {
	rec := &recorder{}
	sl := &fakeSleeper{rec: rec}

	EnterDeepSleep(context.Background(), sl, nil, logx.Nop,
		WakeConfig{ExtPin: 26, ExtEnabled: false, Timer: 5 * time.Minute})
	assert.Equal(t, []string{"timer:5m0s", "sleep"}, rec.calls)
}

func TestIdleDisconnectedLowBattery_SleepsOnce(t *testing.T) {
	rec := &recorder{}
	sl := &fakeSleeper{rec: rec}
	c := NewController(DefaultConfig(), t0)
	s := NewSession()

	for ms := 0; ms <= 40000; ms += 10 {
		var b *types.BatterySample
		if ms%1000 == 0 {
			b = &types.BatterySample{MilliVolts: 3900}
		}
		if c.Tick(at(ms), s, b) == DecisionSleep {
			EnterDeepSleep(context.Background(), sl, nil, logx.Nop, WakeConfig{Timer: time.Minute})
		}
	}
	require.Equal(t, 1, sl.sleeps)
}

func TestHandleWake_ExtClearsLatchFirst(t *testing.T) {
	rec := &recorder{}
	a := &fakeAccel{rec: rec}
	log := logx.NewMemory()

	HandleWake(types.WakeExtInterrupt, a, log)
	a.ReadAcceleration()
	assert.Equal(t, []string{"clear", "read"}, rec.calls)

	HandleWake(types.WakeTimer, a, log)
	HandleWake(types.WakePowerOn, a, log)
	assert.Equal(t, 1, a.cleared)

	out := strings.Join(log.Lines(), "\n")
	assert.Contains(t, out, "LIS3DH Interrupt")
	assert.Contains(t, out, "Wakeup caused by timer.")
	assert.Contains(t, out, "Wakeup was not by EXT0 or Timer")
}

type adcFunc func() (uint32, error)

func (f adcFunc) MilliVolts() (uint32, error) { return f() }

func TestBattery_Divider(t *testing.T) {
	b := Battery{ADC: adcFunc(func() (uint32, error) { return 2050, nil }), Divider: 2}
	mv, err := b.ReadMilliVolts()
	require.NoError(t, err)
	assert.Equal(t, uint32(4100), mv)

	b.Divider = 0
	mv, _ = b.ReadMilliVolts()
	assert.Equal(t, uint32(2050), mv)

	_, err = Battery{}.ReadMilliVolts()
	assert.Error(t, err)
}
