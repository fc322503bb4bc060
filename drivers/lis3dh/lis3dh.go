// Package lis3dh drives an LIS3DH accelerometer for motion wake-up.
// Axis readout, range and data rate are delegated to the TinyGo driver;
// this package adds the click-detection and interrupt-latch handling that
// the node uses as its deep-sleep wake source:
//
//	d := lis3dh.New(i2c)
//	err := d.Configure(lis3dh.Config{ClickThreshold: 80})
//	src := d.ClickSource()      // reading clears the INT1 latch
//	x, y, z, err := d.ReadAcceleration()
//
// NOTE: I2C.Tx MUST perform a write followed by a repeated-start read when both
// w and r are provided, without releasing the bus.
package lis3dh

import (
	"errors"

	"tinygo.org/x/drivers"
	tlis "tinygo.org/x/drivers/lis3dh"
)

// I2C address with SDO/SA0 low.
const Address = 0x18

// Registers used for click detection (datasheet DocID17530).
const (
	regCtrl3       = 0x22
	regCtrl5       = 0x24
	regClickCfg    = 0x38
	regClickSrc    = 0x39
	regClickThs    = 0x3A
	regTimeLimit   = 0x3B
	regTimeLatency = 0x3C
	regTimeWindow  = 0x3D

	ctrl3I1Click = 0x80
	ctrl3I1DRDY1 = 0x10
	ctrl5LIRInt1 = 0x08

	clickCfgSingleXYZ = 0x15
	clickCfgDoubleXYZ = 0x2A

	clickTimeLimit   = 10
	clickTimeLatency = 20
	clickTimeWindow  = 255
)

// Click-source bits.
const (
	ClickSingle = 0x10
	ClickDouble = 0x20
	clickAny    = ClickSingle | ClickDouble
)

// ClickMode selects which click raises INT1.
type ClickMode uint8

const (
	ClickSingleOnly ClickMode = iota
	ClickDoubleOnly
	ClickOff
)

// Errors returned by the driver.
var (
	ErrNotFound = errors.New("lis3dh: device not found")
)

// Config controls range and click behaviour. All fields are optional.
type Config struct {
	// Address defaults to 0x18 if zero.
	Address uint16
	// Range defaults to ±2 g.
	Range tlis.Range
	// Click defaults to ClickSingleOnly (the zero value).
	Click ClickMode
	// ClickThreshold defaults to 80; higher is less sensitive.
	ClickThreshold uint8
}

// Device wraps an I2C connection to an LIS3DH.
type Device struct {
	bus     drivers.I2C
	Address uint16

	acc tlis.Device
	cfg Config
	buf [1]byte
}

// New creates a Device. The I2C bus must already be configured.
// This function only creates the Device object; it does not touch the device.
func New(bus drivers.I2C) Device {
	return Device{bus: bus, Address: Address}
}

// Configure probes the device, sets the range, disables the data-ready
// interrupt and enables latched click detection on INT1.
func (d *Device) Configure(cfg Config) error {
	if cfg.Address != 0 {
		d.Address = cfg.Address
	}
	if cfg.Range == 0 {
		cfg.Range = tlis.RANGE_2_G
	}
	if cfg.ClickThreshold == 0 {
		cfg.ClickThreshold = 80
	}
	d.cfg = cfg

	d.acc = tlis.New(d.bus)
	d.acc.Address = d.Address
	if !d.acc.Connected() {
		return ErrNotFound
	}
	d.acc.Configure()
	d.acc.SetRange(cfg.Range)

	// Data-ready is not a wake source.
	ctrl3, err := d.read(regCtrl3)
	if err != nil {
		return err
	}
	if err := d.write(regCtrl3, ctrl3&^ctrl3I1DRDY1); err != nil {
		return err
	}
	if err := d.SetClick(cfg.Click, cfg.ClickThreshold); err != nil {
		return err
	}
	_, err = d.ClickSource()
	return err
}

// SetClick programs click detection. ClickOff disables the INT1 click route.
func (d *Device) SetClick(mode ClickMode, threshold uint8) error {
	if mode == ClickOff {
		ctrl3, err := d.read(regCtrl3)
		if err != nil {
			return err
		}
		if err := d.write(regCtrl3, ctrl3&^ctrl3I1Click); err != nil {
			return err
		}
		return d.write(regClickCfg, 0)
	}
	if err := d.write(regCtrl3, ctrl3I1Click); err != nil {
		return err
	}
	if err := d.write(regCtrl5, ctrl5LIRInt1); err != nil {
		return err
	}
	cfg := byte(clickCfgSingleXYZ)
	if mode == ClickDoubleOnly {
		cfg = clickCfgDoubleXYZ
	}
	writes := [...][2]byte{
		{regClickCfg, cfg},
		{regClickThs, threshold},
		{regTimeLimit, clickTimeLimit},
		{regTimeLatency, clickTimeLatency},
		{regTimeWindow, clickTimeWindow},
	}
	for _, w := range writes {
		if err := d.write(w[0], w[1]); err != nil {
			return err
		}
	}
	return nil
}

// ClickSource reads CLICK_SRC. The read releases a latched INT1.
func (d *Device) ClickSource() (uint8, error) {
	return d.read(regClickSrc)
}

// ReadAcceleration returns acceleration in g.
func (d *Device) ReadAcceleration() (x, y, z float32, err error) {
	ux, uy, uz, err := d.acc.ReadAcceleration()
	if err != nil {
		return 0, 0, 0, err
	}
	return float32(ux) / 1e6, float32(uy) / 1e6, float32(uz) / 1e6, nil
}

// RangeG returns the configured full-scale range in g.
func (d *Device) RangeG() int { return 2 << uint8(d.cfg.Range) }

// IsClick reports whether a click-source value carries a single or double click.
func IsClick(src uint8) bool { return src&clickAny != 0 }

func (d *Device) read(reg uint8) (uint8, error) {
	if err := d.bus.Tx(d.Address, []byte{reg}, d.buf[:]); err != nil {
		return 0, err
	}
	return d.buf[0], nil
}

func (d *Device) write(reg, val uint8) error {
	return d.bus.Tx(d.Address, []byte{reg, val}, nil)
}
