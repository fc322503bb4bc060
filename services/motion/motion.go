// Package motion adapts the LIS3DH driver to the small motion interface the
// node loop needs: initialise, drain the click latch, read three axes.
package motion

import (
	"strconv"
	"time"

	"tpmsbridge-go/drivers/lis3dh"
	"tpmsbridge-go/errcode"
	"tpmsbridge-go/types"
	"tpmsbridge-go/x/logx"
)

// Sensor is the subset of *lis3dh.Device used here.
type Sensor interface {
	Configure(cfg lis3dh.Config) error
	ClickSource() (uint8, error)
	ReadAcceleration() (x, y, z float32, err error)
	RangeG() int
}

type Accelerometer struct {
	dev       Sensor
	log       logx.Logger
	intPin    int
	threshold uint8
	ready     bool
	sleep     func(time.Duration)
}

func New(dev Sensor, threshold uint8, log logx.Logger) *Accelerometer {
	if log == nil {
		log = logx.Nop
	}
	return &Accelerometer{dev: dev, log: log.With("lis3dh"), threshold: threshold, sleep: time.Sleep}
}

// Init configures range and click detection and records the interrupt pin.
// Pin 0 means no interrupt line is wired.
func (a *Accelerometer) Init(intPin int) error {
	a.intPin = intPin
	a.log.Info("starting accelerometer")
	if err := a.dev.Configure(lis3dh.Config{Click: lis3dh.ClickSingleOnly, ClickThreshold: a.threshold}); err != nil {
		a.log.Error("could not start accelerometer", "err", err)
		a.ready = false
		return errcode.Wrap(errcode.InitFailed, "motion.init", err)
	}
	a.ready = true
	a.log.Info("accelerometer found", "range", strconv.Itoa(a.dev.RangeG())+"G")
	return nil
}

// SetInterruptPin records the INT1 line ahead of Init, so a wake latch can
// be cleared before the sensor is configured.
func (a *Accelerometer) SetInterruptPin(pin int) { a.intPin = pin }

func (a *Accelerometer) InterruptPin() int { return a.intPin }

// Ready reports whether Init succeeded.
func (a *Accelerometer) Ready() bool { return a.ready }

// ClearInterruptSource drains the click latch. Without an interrupt pin it
// does nothing and returns 0.
func (a *Accelerometer) ClearInterruptSource() types.Click {
	if a.intPin == 0 {
		return 0
	}
	return a.Process(0)
}

// Process reads the click source and returns it when a single or double
// click is flagged, 0 otherwise. A positive wait pauses after a detection.
func (a *Accelerometer) Process(wait time.Duration) types.Click {
	src, err := a.dev.ClickSource()
	if err != nil {
		a.log.Warn("click source read failed", "err", err)
		return 0
	}
	if src == 0 || !lis3dh.IsClick(src) {
		return 0
	}
	c := types.Click(src)
	kind := ""
	if c.Single() {
		kind += " single click"
	}
	if c.Double() {
		kind += " double click"
	}
	a.log.Info("Click detected (0x" + strconv.FormatUint(uint64(src), 16) + "):" + kind)
	if wait > 0 {
		a.sleep(wait)
	}
	return c
}

// ReadAcceleration returns normalized axes. Callers treat every read as
// fresh; ok is false only when the bus transaction itself failed.
func (a *Accelerometer) ReadAcceleration() (types.AccelSample, bool) {
	x, y, z, err := a.dev.ReadAcceleration()
	if err != nil {
		a.log.Warn("acceleration read failed", "err", err)
		return types.AccelSample{}, false
	}
	return types.AccelSample{X: x, Y: y, Z: z}, true
}
