package types

// TelemetryRecord is one decoded radio packet. It lives for a single bus
// delivery and is never persisted.
type TelemetryRecord struct {
	ID           string `json:"id"`
	PressurePSI  int    `json:"pressure_PSI"`
	TemperatureF int    `json:"temperature_F"`
	RSSI         int    `json:"rssi"`

	// Informational; not published over BLE.
	Model    string `json:"model,omitempty"`
	Protocol string `json:"protocol,omitempty"`
	Raw      string `json:"-"`
}

// BatterySample is a battery voltage reading after the divider correction.
type BatterySample struct {
	MilliVolts uint32
	TSms       int64
}

// AccelSample holds normalized acceleration in g.
type AccelSample struct {
	X, Y, Z float32
}

// Click is the decoded click-source register.
type Click uint8

const (
	ClickSingle Click = 0x10
	ClickDouble Click = 0x20
)

func (c Click) Single() bool { return c&ClickSingle != 0 }
func (c Click) Double() bool { return c&ClickDouble != 0 }
