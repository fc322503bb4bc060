// config/config_test.go
package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tpmsbridge-go/bus"
	"tpmsbridge-go/errcode"
	"tpmsbridge-go/x/logx"
)

func TestConfig_PublishEmbedded_RetainedPerKey(t *testing.T) {
	// Override lookup for this test.
	oldLookup := EmbeddedConfigLookup
	EmbeddedConfigLookup = func(device string) ([]byte, bool) {
		if device != "pico" {
			return nil, false
		}
		return []byte(`{
			"ble": {"name": "TPMS-A"},
			"heartbeat": {"interval": 2},
			"debug": true
		}`), true
	}
	t.Cleanup(func() { EmbeddedConfigLookup = oldLookup })

	b := bus.NewBus(16)
	conn := b.NewConnection("test-config")
	svc := NewConfigService(logx.Nop)

	ctx := WithDevice(context.Background(), "pico")
	svc.Start(ctx, conn)

	// Subscribe; retained messages should arrive immediately.
	sub := conn.Subscribe(bus.T(configPrefix, "#"))

	got := map[string]any{}
	deadline := time.Now().Add(600 * time.Millisecond)
	for len(got) < 3 && time.Now().Before(deadline) {
		select {
		case m := <-sub.Channel():
			require.Len(t, m.Topic, 2)
			assert.Equal(t, configPrefix, m.Topic[0])
			key, ok := m.Topic[1].(string)
			require.True(t, ok, "topic[1] type %T", m.Topic[1])
			assert.True(t, m.Retained)
			got[key] = m.Payload
		case <-time.After(10 * time.Millisecond):
		}
	}
	require.Len(t, got, 3)
	assert.Equal(t, true, got["debug"])
	assert.Equal(t, map[string]any{"interval": float64(2)}, got["heartbeat"])
	assert.Equal(t, map[string]any{"name": "TPMS-A"}, got["ble"])
}

func TestConfig_PublishConfig_MissingDevice(t *testing.T) {
	b := bus.NewBus(4)
	conn := b.NewConnection("test-missing-device")
	svc := NewConfigService(logx.Nop)

	assert.Error(t, svc.publishConfig(context.Background(), conn))
}

func TestConfig_PublishConfig_NoConfigFound(t *testing.T) {
	oldLookup := EmbeddedConfigLookup
	EmbeddedConfigLookup = func(device string) ([]byte, bool) { return nil, false }
	t.Cleanup(func() { EmbeddedConfigLookup = oldLookup })

	b := bus.NewBus(4)
	conn := b.NewConnection("test-no-config")
	svc := NewConfigService(logx.Nop)

	ctx := WithDevice(context.Background(), "unknown-device")
	assert.Error(t, svc.publishConfig(ctx, conn))

	_, err := Load("unknown-device")
	assert.Equal(t, errcode.InvalidParams, errcode.Of(err))
}

func TestDefaults(t *testing.T) {
	c := Defaults()
	assert.Equal(t, 10*time.Millisecond, c.Tick())
	assert.Equal(t, 30*time.Second, c.IdleTimeout())
	assert.Equal(t, 5*time.Minute, c.SleepDuration())
	assert.Equal(t, time.Second, c.BatteryEvery())
	assert.Equal(t, 4000, c.Power.BatteryActiveMV)
	assert.Equal(t, 2, c.Power.BatteryDivider)
	assert.Equal(t, 26, c.Power.WakePin)
	assert.Equal(t, 80, c.Motion.ClickThreshold)
	assert.Equal(t, 64, c.Indicator.Brightness)
	assert.Equal(t, "HLLYTPMS123456789", c.BLE.Name)
	assert.True(t, c.MotionEnabled())
}

func TestDecode_ClampsAndDefaults(t *testing.T) {
	c, err := Decode([]byte(`{
		"power": {"idle_timeout_ms": 5, "battery_divider": 99},
		"indicator": {"brightness": 900},
		"motion": {"enabled": false},
		"ble": {"name": "a-very-long-name-that-does-not-fit-in-adv"}
	}`))
	require.NoError(t, err)
	assert.Equal(t, 1000, c.Power.IdleTimeoutMS)
	assert.Equal(t, 16, c.Power.BatteryDivider)
	assert.Equal(t, 255, c.Indicator.Brightness)
	assert.False(t, c.MotionEnabled())
	assert.Len(t, c.BLE.Name, 29)
	assert.Equal(t, 5, c.Power.SleepMinutes)

	_, err = Decode([]byte(`{"power":`))
	assert.Equal(t, errcode.InvalidPayload, errcode.Of(err))
}

func TestLoad_Embedded(t *testing.T) {
	for _, dev := range []string{"pico", "pico2", "gateway"} {
		c, err := Load(dev)
		require.NoError(t, err, dev)
		assert.Equal(t, 30000, c.Power.IdleTimeoutMS, dev)
	}
	c, _ := Load("gateway")
	assert.Equal(t, "exec", c.Decoder.Source)
	assert.False(t, c.MotionEnabled())
}
