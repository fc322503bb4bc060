package types

import "time"

// Config is the node configuration. Zero values are replaced by defaults in
// config.Normalize.
type Config struct {
	Node      NodeConfig      `json:"node"`
	Power     PowerConfig     `json:"power"`
	BLE       BLEConfig       `json:"ble"`
	Motion    MotionConfig    `json:"motion"`
	Decoder   DecoderConfig   `json:"decoder"`
	Indicator IndicatorConfig `json:"indicator"`
	Heartbeat HeartbeatConfig `json:"heartbeat"`
}

type NodeConfig struct {
	TickMS     int `json:"tick_ms"`
	SerialBaud int `json:"serial_baud"`
}

type PowerConfig struct {
	IdleTimeoutMS   int `json:"idle_timeout_ms"`
	SleepMinutes    int `json:"sleep_minutes"`
	BatteryActiveMV int `json:"battery_active_mv"`
	BatteryEveryMS  int `json:"battery_every_ms"`
	BatteryPin      int `json:"battery_pin"`
	BatteryDivider  int `json:"battery_divider"`
	WakePin         int `json:"wake_pin"`
}

type BLEConfig struct {
	Name string `json:"name"`
}

type MotionConfig struct {
	Enabled        *bool `json:"enabled,omitempty"`
	I2CAddr        int   `json:"i2c_addr"`
	ClickThreshold int   `json:"click_threshold"`
}

type DecoderConfig struct {
	Source  string   `json:"source"` // "uart" or "exec"
	UART    string   `json:"uart"`
	Baud    int      `json:"baud"`
	TXPin   int      `json:"tx_pin"`
	RXPin   int      `json:"rx_pin"`
	Command []string `json:"command,omitempty"` // host only
}

type IndicatorConfig struct {
	Pin        int `json:"pin"`
	Brightness int `json:"brightness"`
}

type HeartbeatConfig struct {
	IntervalS int `json:"interval"`
}

func (c Config) Tick() time.Duration { return time.Duration(c.Node.TickMS) * time.Millisecond }

func (c Config) IdleTimeout() time.Duration {
	return time.Duration(c.Power.IdleTimeoutMS) * time.Millisecond
}

func (c Config) SleepDuration() time.Duration {
	return time.Duration(c.Power.SleepMinutes) * time.Minute
}

func (c Config) BatteryEvery() time.Duration {
	return time.Duration(c.Power.BatteryEveryMS) * time.Millisecond
}

func (c Config) MotionEnabled() bool { return c.Motion.Enabled == nil || *c.Motion.Enabled }
