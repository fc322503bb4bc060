package config

import (
	"encoding/json"

	"tpmsbridge-go/errcode"
	"tpmsbridge-go/services/ble"
	"tpmsbridge-go/types"
	"tpmsbridge-go/x/mathx"
	"tpmsbridge-go/x/strx"
)

const (
	defaultTickMS          = 10
	defaultSerialBaud      = 921600
	defaultIdleTimeoutMS   = 30000
	defaultSleepMinutes    = 5
	defaultBatteryActiveMV = 4000
	defaultBatteryEveryMS  = 1000
	defaultBatteryPin      = 28
	defaultBatteryDivider  = 2
	defaultWakePin         = 26
	defaultI2CAddr         = 0x18
	defaultClickThreshold  = 80
	defaultDecoderBaud     = 115200
	defaultLEDPin          = 16
	defaultBrightness      = 64
	defaultHeartbeatS      = 10
)

// Defaults returns the stock node configuration.
func Defaults() types.Config {
	var c types.Config
	Normalize(&c)
	return c
}

// Normalize fills zero fields with defaults and clamps the rest to sane ranges.
func Normalize(c *types.Config) {
	c.Node.TickMS = mathx.OrDefault(c.Node.TickMS, defaultTickMS, 1, 1000)
	c.Node.SerialBaud = mathx.OrDefault(c.Node.SerialBaud, defaultSerialBaud, 9600, 3000000)

	p := &c.Power
	p.IdleTimeoutMS = mathx.OrDefault(p.IdleTimeoutMS, defaultIdleTimeoutMS, 1000, 3600000)
	p.SleepMinutes = mathx.OrDefault(p.SleepMinutes, defaultSleepMinutes, 1, 24*60)
	p.BatteryActiveMV = mathx.OrDefault(p.BatteryActiveMV, defaultBatteryActiveMV, 1000, 10000)
	p.BatteryEveryMS = mathx.OrDefault(p.BatteryEveryMS, defaultBatteryEveryMS, 100, 600000)
	p.BatteryPin = mathx.OrDefault(p.BatteryPin, defaultBatteryPin, 0, 47)
	p.BatteryDivider = mathx.OrDefault(p.BatteryDivider, defaultBatteryDivider, 1, 16)
	p.WakePin = mathx.OrDefault(p.WakePin, defaultWakePin, 0, 47)

	c.BLE.Name = strx.Coalesce(c.BLE.Name, ble.DefaultName)
	if len(c.BLE.Name) > 29 {
		// Local name must fit the advertising payload.
		c.BLE.Name = c.BLE.Name[:29]
	}

	c.Motion.I2CAddr = mathx.OrDefault(c.Motion.I2CAddr, defaultI2CAddr, 0x08, 0x77)
	c.Motion.ClickThreshold = mathx.OrDefault(c.Motion.ClickThreshold, defaultClickThreshold, 1, 127)

	d := &c.Decoder
	d.Source = strx.Coalesce(d.Source, "uart")
	d.UART = strx.Coalesce(d.UART, "uart1")
	d.Baud = mathx.OrDefault(d.Baud, defaultDecoderBaud, 1200, 3000000)
	if len(d.Command) == 0 {
		d.Command = []string{"rtl_433", "-F", "json", "-M", "level"}
	}

	c.Indicator.Pin = mathx.OrDefault(c.Indicator.Pin, defaultLEDPin, 0, 47)
	c.Indicator.Brightness = mathx.OrDefault(c.Indicator.Brightness, defaultBrightness, 1, 255)

	c.Heartbeat.IntervalS = mathx.OrDefault(c.Heartbeat.IntervalS, defaultHeartbeatS, 1, 3600)
}

// Decode parses a JSON config object and normalizes it.
func Decode(raw []byte) (types.Config, error) {
	var c types.Config
	if err := json.Unmarshal(raw, &c); err != nil {
		return Defaults(), errcode.Wrap(errcode.InvalidPayload, "config.decode", err)
	}
	Normalize(&c)
	return c, nil
}
