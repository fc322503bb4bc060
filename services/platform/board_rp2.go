//go:build rp2040 || rp2350

package platform

import (
	"context"
	"errors"
	"io"
	"machine"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
	"tinygo.org/x/bluetooth"
	"tinygo.org/x/drivers/ws2812"

	"tpmsbridge-go/drivers/lis3dh"
	"tpmsbridge-go/services/decoder"
	"tpmsbridge-go/types"
	"tpmsbridge-go/x/logx"
)

func init() {
	decoder.RegisterSource("uart", newUARTSource)
}

// Open configures the Pico peripherals named in cfg.
func Open(cfg types.Config, log logx.Logger) (*Board, error) {
	i2c := machine.I2C0
	if err := i2c.Configure(machine.I2CConfig{
		Frequency: 400 * machine.KHz,
		SDA:       machine.I2C0_SDA_PIN,
		SCL:       machine.I2C0_SCL_PIN,
	}); err != nil {
		log.Warn("i2c0 configure failed", "err", err)
	}
	dev := lis3dh.New(i2c)
	dev.Address = uint16(cfg.Motion.I2CAddr)

	intPin := machine.Pin(cfg.Power.WakePin)
	intPin.Configure(machine.PinConfig{Mode: machine.PinInputPulldown})

	machine.InitADC()
	adc := machine.ADC{Pin: machine.Pin(cfg.Power.BatteryPin)}
	adc.Configure(machine.ADCConfig{})

	ledPin := machine.Pin(cfg.Indicator.Pin)
	ledPin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	strip := ws2812.New(ledPin)

	src, err := decoder.NewSource(cfg.Decoder.Source, cfg.Decoder)
	if err != nil {
		return nil, err
	}

	return &Board{
		Name:    "pico",
		Sensor:  &dev,
		IntPin:  cfg.Power.WakePin,
		ADC:     rp2ADC{adc},
		Decoder: src,
		Strip:   &strip,
		Sleeper: NewSleeper(rp2Pins),
		BLE:     bluetooth.DefaultAdapter,
	}, nil
}

// ---- ADC ----

type rp2ADC struct{ adc machine.ADC }

// MilliVolts scales the 16-bit reading against the 3.3 V reference.
func (a rp2ADC) MilliVolts() (uint32, error) {
	return uint32(a.adc.Get()) * 3300 / 65535, nil
}

// ---- GPIO IRQ ----

func rp2Pins(n int) (IRQPin, bool) {
	if n < 0 || n > 28 {
		return nil, false
	}
	return rp2Pin{p: machine.Pin(n)}, true
}

type rp2Pin struct{ p machine.Pin }

func (r rp2Pin) Get() bool { return r.p.Get() }

func (r rp2Pin) SetIRQ(edge Edge, handler func()) error {
	return r.p.SetInterrupt(toPinChange(edge), func(machine.Pin) { handler() })
}

func (r rp2Pin) ClearIRQ() error {
	var zero machine.PinChange
	return r.p.SetInterrupt(zero, nil)
}

func toPinChange(e Edge) machine.PinChange {
	switch e {
	case EdgeRising:
		return machine.PinRising
	case EdgeFalling:
		return machine.PinFalling
	default:
		var zero machine.PinChange
		return zero
	}
}

// ---- UART decoder stream ----

type uartSource struct {
	cfg types.DecoderConfig
	hw  *uartx.UART
}

func newUARTSource(cfg types.DecoderConfig) (decoder.Source, error) {
	var hw *uartx.UART
	switch cfg.UART {
	case "uart0":
		hw = uartx.UART0
	case "uart1":
		hw = uartx.UART1
	default:
		return nil, errors.New("unknown uart: " + cfg.UART)
	}
	return &uartSource{cfg: cfg, hw: hw}, nil
}

func (u *uartSource) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := u.hw.Configure(uartx.UARTConfig{
		BaudRate: uint32(u.cfg.Baud),
		TX:       machine.Pin(u.cfg.TXPin),
		RX:       machine.Pin(u.cfg.RXPin),
	}); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	return &uartReader{ctx: ctx, cancel: cancel, hw: u.hw}, nil
}

func (u *uartSource) String() string { return u.cfg.UART }

// uartReader adapts the context-aware receive to io.Reader.
type uartReader struct {
	ctx    context.Context
	cancel context.CancelFunc
	hw     *uartx.UART
}

func (r *uartReader) Read(p []byte) (int, error) {
	n, err := r.hw.RecvSomeContext(r.ctx, p)
	if err != nil && r.ctx.Err() != nil {
		return n, io.EOF
	}
	return n, err
}

func (r *uartReader) Close() error {
	r.cancel()
	return nil
}
