package power

import "tpmsbridge-go/errcode"

// ADC reads the battery sense pin in millivolts at the pin.
type ADC interface {
	MilliVolts() (uint32, error)
}

// Battery corrects ADC readings for the resistor divider in front of the pin.
type Battery struct {
	ADC     ADC
	Divider uint32
}

// ReadMilliVolts returns the battery voltage in millivolts.
func (b Battery) ReadMilliVolts() (uint32, error) {
	if b.ADC == nil {
		return 0, errcode.Unsupported
	}
	mv, err := b.ADC.MilliVolts()
	if err != nil {
		return 0, errcode.Wrap(errcode.Error, "battery.read", err)
	}
	d := b.Divider
	if d == 0 {
		d = 1
	}
	return mv * d, nil
}
