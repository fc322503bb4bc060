package power

import (
	"context"
	"strconv"
	"time"

	"tpmsbridge-go/types"
	"tpmsbridge-go/x/logx"
)

// Sleeper is the platform's low-power control.
type Sleeper interface {
	// WakeCause reports why the current boot happened.
	WakeCause() types.WakeCause
	EnableExtWakeup(pin int, activeHigh bool) error
	EnableTimerWakeup(d time.Duration) error
	// DeepSleep powers down and blocks until a wake source fires. The node
	// resumes at boot with the returned cause.
	DeepSleep(ctx context.Context) types.WakeCause
}

// Light is the status LED.
type Light interface {
	Off() error
}

// LatchClearer is implemented by the accelerometer adapter.
type LatchClearer interface {
	ClearInterruptSource() types.Click
}

type WakeConfig struct {
	// ExtPin is the accelerometer INT1 line; ignored when ExtEnabled is false.
	ExtPin     int
	ExtEnabled bool
	Timer      time.Duration
}

// EnterDeepSleep turns the LED off, arms the wake sources, flushes the log
// and sleeps. Wake-source errors are logged; sleep is entered regardless.
func EnterDeepSleep(ctx context.Context, sl Sleeper, led Light, log logx.Logger, wc WakeConfig) types.WakeCause {
	log.Info("Preparing to enter deep sleep.")

	log.Info("Turning off the led")
	if led != nil {
		if err := led.Off(); err != nil {
			log.Warn("led off failed", "err", err)
		}
	}

	if wc.ExtEnabled {
		log.Info("Enabling EXT0 wakeup on GPIO " + strconv.Itoa(wc.ExtPin) + " (Active HIGH)")
		if err := sl.EnableExtWakeup(wc.ExtPin, true); err != nil {
			log.Warn("ext wakeup not armed", "err", err)
		}
	} else {
		log.Warn("accelerometer unavailable, ext wakeup disabled")
	}

	if wc.Timer > 0 {
		log.Info("Enabling timer wakeup in " + strconv.Itoa(int(wc.Timer/time.Minute)) + " minutes.")
		if err := sl.EnableTimerWakeup(wc.Timer); err != nil {
			log.Warn("timer wakeup not armed", "err", err)
		}
	}

	log.Flush()
	return sl.DeepSleep(ctx)
}

// HandleWake logs the wake cause. A wake from the accelerometer line clears
// its latch first so the line can fire again.
func HandleWake(cause types.WakeCause, accel LatchClearer, log logx.Logger) {
	switch cause {
	case types.WakeExtInterrupt:
		log.Info("Wakeup caused by external signal on RTC_IO (LIS3DH Interrupt).")
		if accel != nil {
			accel.ClearInterruptSource()
		}
	case types.WakeTimer:
		log.Info("Wakeup caused by timer.")
	default:
		log.Info("Wakeup was not by EXT0 or Timer", "reason", int(cause), "cause", cause)
	}
}
