package types

// WakeCause is why the node (re)entered boot.
type WakeCause uint8

const (
	WakePowerOn WakeCause = iota
	WakeExtInterrupt
	WakeTimer
	WakeOther
)

func (w WakeCause) String() string {
	switch w {
	case WakePowerOn:
		return "power_on"
	case WakeExtInterrupt:
		return "ext_interrupt"
	case WakeTimer:
		return "timer"
	default:
		return "other"
	}
}

// InitStatus is the outcome of bringing up one component at boot.
// Failures are reported, never fatal.
type InitStatus struct {
	Component string
	OK        bool
	Err       error
}

func Ready(component string) InitStatus { return InitStatus{Component: component, OK: true} }

func Failed(component string, err error) InitStatus {
	return InitStatus{Component: component, OK: false, Err: err}
}
