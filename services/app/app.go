// Package app wires the services together and runs boot/sleep cycles.
package app

import (
	"context"
	"time"

	"tpmsbridge-go/bus"
	"tpmsbridge-go/errcode"
	"tpmsbridge-go/services/ble"
	"tpmsbridge-go/services/config"
	"tpmsbridge-go/services/decoder"
	"tpmsbridge-go/services/heartbeat"
	"tpmsbridge-go/services/indicator"
	"tpmsbridge-go/services/motion"
	"tpmsbridge-go/services/node"
	"tpmsbridge-go/services/platform"
	"tpmsbridge-go/services/power"
	"tpmsbridge-go/types"
	"tpmsbridge-go/x/logx"
	"tpmsbridge-go/x/timex"
)

type Options struct {
	Config types.Config
	Board  *platform.Board
	Log    logx.Logger
	// Device selects the embedded config published on config/#.
	Device string
	// BootDelay lets the serial console attach before the first lines.
	BootDelay time.Duration
}

// Run boots the node and alternates between the active loop and emulated
// deep sleep. Each wake resumes at boot with the sleeper's cause. It
// returns when ctx ends.
func Run(ctx context.Context, opt Options) error {
	cfg, board, log := opt.Config, opt.Board, opt.Log
	b := bus.NewBus(16)

	config.NewConfigService(log).Start(config.WithDevice(ctx, opt.Device), b.NewConnection("config"))
	hb := heartbeat.New(time.Duration(cfg.Heartbeat.IntervalS)*time.Second, log)
	_ = hb.Start(ctx, b.NewConnection("heartbeat"))

	led := indicator.New(board.Strip, uint8(cfg.Indicator.Brightness), log)

	var accel *motion.Accelerometer
	if board.Sensor != nil && cfg.MotionEnabled() {
		accel = motion.New(board.Sensor, uint8(cfg.Motion.ClickThreshold), log)
		accel.SetInterruptPin(board.IntPin)
	}

	var battery node.BatteryReader
	if board.ADC != nil {
		battery = power.Battery{ADC: board.ADC, Divider: uint32(cfg.Power.BatteryDivider)}
	}

	stack := ble.NewStack(board.BLE, b.NewConnection("ble"), cfg.BLE.Name, log)
	radio := &radio{bus: b, src: board.Decoder, log: log}
	board.Sleeper.Enter = func() {
		radio.stop()
		if err := stack.StopAdvertising(); err != nil {
			log.Warn("advertising stop failed", "err", err)
		}
	}
	board.Sleeper.Leave = func() {
		if err := stack.StartAdvertising(); err != nil {
			log.Warn("advertising start failed", "err", err)
		}
	}

	bleStarted := false
	for {
		st := boot(bootDeps{
			cause: board.Sleeper.WakeCause(),
			led:   led,
			accel: accel,
			delay: opt.BootDelay,
			log:   log,
		})

		pub := ble.NewPublisher(nil, log)
		if !bleStarted {
			if err := stack.Start(); err != nil {
				log.Error("ble start failed", "err", err)
				st = append(st, types.Failed("ble", err))
			} else {
				bleStarted = true
			}
		}
		if bleStarted {
			pub = ble.NewPublisher(stack.Characteristics(), log)
			st = append(st, types.Ready("ble"))
		}

		if board.Decoder != nil {
			radio.start(ctx)
			st = append(st, types.Ready("decoder"))
		} else {
			st = append(st, types.Failed("decoder", errcode.Unsupported))
		}
		publishInit(b, st)
		log.Info("****** setup complete ******")

		d := node.Deps{
			Bus:       b,
			Clock:     timex.System,
			Battery:   battery,
			Publisher: pub,
			Sleeper:   board.Sleeper,
			Light:     led,
			Log:       log,
		}
		if accel != nil && accel.Ready() {
			d.Accel = accel
		}
		loop := node.New(cfg, d)
		_, err := loop.Run(ctx)
		loop.Close()
		if err == nil {
			err = ctx.Err()
		}
		if err != nil {
			radio.stop()
			return err
		}
	}
}

func publishInit(b *bus.Bus, st []types.InitStatus) {
	for _, s := range st {
		b.Publish(b.NewMessage(bus.T("node", "init", s.Component), s, true))
	}
}

type bootDeps struct {
	cause types.WakeCause
	led   *indicator.LED
	accel *motion.Accelerometer
	delay time.Duration
	log   logx.Logger
}

// boot runs the per-wake bring-up: LED on, wake cause handled (clearing the
// accelerometer latch first), then accelerometer init.
func boot(d bootDeps) []types.InitStatus {
	var st []types.InitStatus
	if err := d.led.Set(indicator.Green); err != nil {
		st = append(st, types.Failed("led", err))
	} else {
		st = append(st, types.Ready("led"))
	}

	if d.delay > 0 {
		time.Sleep(d.delay)
	}

	if d.accel != nil {
		power.HandleWake(d.cause, d.accel, d.log)
	} else {
		power.HandleWake(d.cause, nil, d.log)
	}

	if d.accel == nil {
		return append(st, types.Failed("accelerometer", errcode.Unsupported))
	}
	if err := d.accel.Init(d.accel.InterruptPin()); err != nil {
		return append(st, types.Failed("accelerometer", err))
	}
	d.accel.ClearInterruptSource()
	return append(st, types.Ready("accelerometer"))
}

// radio runs the decoder bridge; it is stopped while the node sleeps.
type radio struct {
	bus    *bus.Bus
	src    decoder.Source
	log    logx.Logger
	cancel context.CancelFunc
	done   chan struct{}
}

func (r *radio) start(ctx context.Context) {
	if r.cancel != nil {
		return
	}
	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})
	svc := decoder.New(r.bus.NewConnection("decoder"), r.src, r.log)
	go func(done chan struct{}) {
		defer close(done)
		svc.Run(ctx)
	}(r.done)
}

func (r *radio) stop() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done
	r.cancel, r.done = nil, nil
}
