package ble

import (
	"github.com/google/uuid"
	"tinygo.org/x/bluetooth"

	"tpmsbridge-go/types"
)

const (
	ServiceUUIDString       = "e5e84350-ffd5-4b15-ba12-024b7e65ed06"
	TelemetryCharUUIDString = "e5e84351-ffd5-4b15-ba12-024b7e65ed06"
	BatteryCharUUIDString   = "e5e84352-ffd5-4b15-ba12-024b7e65ed06"
	AccelCharUUIDString     = "e5e84353-ffd5-4b15-ba12-024b7e65ed06"
	DefaultName             = "HLLYTPMS123456789"
)

var (
	ServiceUUID       = bluetooth.NewUUID(uuid.MustParse(ServiceUUIDString))
	TelemetryCharUUID = bluetooth.NewUUID(uuid.MustParse(TelemetryCharUUIDString))
	BatteryCharUUID   = bluetooth.NewUUID(uuid.MustParse(BatteryCharUUIDString))
	AccelCharUUID     = bluetooth.NewUUID(uuid.MustParse(AccelCharUUIDString))
)

// CharUUID maps a characteristic id to its UUID.
func CharUUID(c types.CharID) (bluetooth.UUID, bool) {
	switch c {
	case types.CharTelemetry:
		return TelemetryCharUUID, true
	case types.CharBattery:
		return BatteryCharUUID, true
	case types.CharAccel:
		return AccelCharUUID, true
	}
	return bluetooth.UUID{}, false
}
