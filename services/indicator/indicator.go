// Package indicator drives the single status LED.
package indicator

import (
	"image/color"

	"tpmsbridge-go/x/logx"
)

// Strip is an addressable LED chain; ws2812.Device satisfies it.
type Strip interface {
	WriteColors(buf []color.RGBA) error
}

var Green = color.RGBA{G: 255, A: 255}

// LED shows one colour at a fixed brightness. A nil strip only logs.
type LED struct {
	strip      Strip
	brightness uint8
	log        logx.Logger
	buf        [1]color.RGBA
}

func New(strip Strip, brightness uint8, log logx.Logger) *LED {
	return &LED{strip: strip, brightness: brightness, log: log.With("led")}
}

// Set shows c scaled by the configured brightness.
func (l *LED) Set(c color.RGBA) error {
	l.buf[0] = scale(c, l.brightness)
	if l.strip == nil {
		l.log.Debug("led", "r", l.buf[0].R, "g", l.buf[0].G, "b", l.buf[0].B)
		return nil
	}
	return l.strip.WriteColors(l.buf[:])
}

// Off blanks the LED.
func (l *LED) Off() error { return l.Set(color.RGBA{}) }

func scale(c color.RGBA, b uint8) color.RGBA {
	f := func(v uint8) uint8 { return uint8((uint16(v)*uint16(b) + 255) >> 8) }
	if b == 255 {
		return c
	}
	return color.RGBA{R: f(c.R), G: f(c.G), B: f(c.B), A: c.A}
}
