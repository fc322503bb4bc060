package config

// -----------------------------------------------------------------------------
// Embedded configuration
//
// Key: device ID (same value placed in ctx via WithDevice)
// Val: raw JSON bytes for that device
// -----------------------------------------------------------------------------

const cfgPico = `{
  "node": {"tick_ms": 10, "serial_baud": 921600},
  "power": {
    "idle_timeout_ms": 30000,
    "sleep_minutes": 5,
    "battery_active_mv": 4000,
    "battery_every_ms": 1000,
    "battery_pin": 28,
    "battery_divider": 2,
    "wake_pin": 26
  },
  "ble": {"name": "HLLYTPMS123456789"},
  "motion": {"i2c_addr": 24, "click_threshold": 80},
  "decoder": {"source": "uart", "uart": "uart1", "baud": 115200, "tx_pin": 8, "rx_pin": 9},
  "indicator": {"pin": 16, "brightness": 64},
  "heartbeat": {"interval": 10}
}`

const cfgGateway = `{
  "node": {"tick_ms": 10},
  "power": {"idle_timeout_ms": 30000, "sleep_minutes": 5, "battery_divider": 1},
  "ble": {"name": "HLLYTPMS123456789"},
  "motion": {"enabled": false},
  "decoder": {"source": "exec", "command": ["rtl_433", "-F", "json", "-M", "level"]},
  "heartbeat": {"interval": 30}
}`

var embeddedConfigs = map[string][]byte{
	"pico":    []byte(cfgPico),
	"pico2":   []byte(cfgPico),
	"gateway": []byte(cfgGateway),
}
