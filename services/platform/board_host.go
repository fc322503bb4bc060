//go:build !rp2040 && !rp2350

package platform

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"tinygo.org/x/bluetooth"

	"tpmsbridge-go/drivers/lis3dh"
	"tpmsbridge-go/services/decoder"
	"tpmsbridge-go/types"
	"tpmsbridge-go/x/logx"
)

func init() {
	decoder.RegisterSource("exec", newExecSource)
}

// SysfsPowerSupply is where the host looks for battery voltage.
var SysfsPowerSupply = "/sys/class/power_supply"

// Open assembles a host board: rtl_433 as a subprocess, battery from sysfs,
// SIGUSR1 as the external wake line and a simulated accelerometer.
func Open(cfg types.Config, log logx.Logger) (*Board, error) {
	src, err := decoder.NewSource(cfg.Decoder.Source, cfg.Decoder)
	if err != nil {
		return nil, err
	}
	b := &Board{
		Name:    "host",
		Decoder: src,
		Sleeper: NewSleeper(hostPins(cfg.Power.WakePin)),
		BLE:     bluetooth.DefaultAdapter,
	}
	if adc, ok := findSysfsBattery(SysfsPowerSupply); ok {
		b.ADC = adc
	} else {
		log.Warn("no battery found in sysfs")
	}
	if cfg.MotionEnabled() {
		b.Sensor = &SimSensor{}
		b.IntPin = cfg.Power.WakePin
	}
	return b, nil
}

// ---- battery ----

type sysfsADC struct{ path string }

// MilliVolts reads voltage_now, which the kernel reports in microvolts.
func (s sysfsADC) MilliVolts() (uint32, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return 0, err
	}
	uv, err := strconv.ParseUint(strings.TrimSpace(string(raw)), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint32(uv / 1000), nil
}

func findSysfsBattery(root string) (sysfsADC, bool) {
	matches, _ := filepath.Glob(filepath.Join(root, "*", "voltage_now"))
	for _, m := range matches {
		typ, err := os.ReadFile(filepath.Join(filepath.Dir(m), "type"))
		if err == nil && strings.TrimSpace(string(typ)) == "Battery" {
			return sysfsADC{path: m}, true
		}
	}
	return sysfsADC{}, false
}

// ---- wake line ----

func hostPins(wake int) PinLookup {
	return func(n int) (IRQPin, bool) {
		if n != wake {
			return nil, false
		}
		return &signalPin{sig: syscall.SIGUSR1}, true
	}
}

// signalPin treats a POSIX signal as a rising edge on an active-high line.
type signalPin struct {
	sig os.Signal

	mu    sync.Mutex
	ch    chan os.Signal
	stop  chan struct{}
	level bool
}

func (p *signalPin) Get() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level
}

func (p *signalPin) SetIRQ(edge Edge, handler func()) error {
	if edge != EdgeRising {
		return errors.New("signal pin only supports rising edges")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		return errors.New("irq already set")
	}
	p.ch = make(chan os.Signal, 1)
	p.stop = make(chan struct{})
	signal.Notify(p.ch, p.sig)
	go func(ch chan os.Signal, stop chan struct{}) {
		for {
			select {
			case <-stop:
				return
			case <-ch:
				p.mu.Lock()
				p.level = true
				p.mu.Unlock()
				handler()
				p.mu.Lock()
				p.level = false
				p.mu.Unlock()
			}
		}
	}(p.ch, p.stop)
	return nil
}

func (p *signalPin) ClearIRQ() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch == nil {
		return nil
	}
	signal.Stop(p.ch)
	close(p.stop)
	p.ch, p.stop = nil, nil
	return nil
}

// ---- simulated accelerometer ----

// SimSensor is a resting accelerometer with no clicks.
type SimSensor struct {
	cfg lis3dh.Config
}

func (s *SimSensor) Configure(cfg lis3dh.Config) error {
	s.cfg = cfg
	return nil
}

func (s *SimSensor) ClickSource() (uint8, error) { return 0, nil }

func (s *SimSensor) ReadAcceleration() (x, y, z float32, err error) { return 0, 0, 1, nil }

func (s *SimSensor) RangeG() int { return 2 << uint8(s.cfg.Range) }

// ---- rtl_433 subprocess ----

type execSource struct {
	argv []string
}

func newExecSource(cfg types.DecoderConfig) (decoder.Source, error) {
	if len(cfg.Command) == 0 {
		return nil, errors.New("exec source requires a command")
	}
	return &execSource{argv: cfg.Command}, nil
}

func (e *execSource) Open(ctx context.Context) (io.ReadCloser, error) {
	cmd := exec.CommandContext(ctx, e.argv[0], e.argv[1:]...)
	out, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &procReader{ReadCloser: out, cmd: cmd}, nil
}

func (e *execSource) String() string { return "exec:" + e.argv[0] }

type procReader struct {
	io.ReadCloser
	cmd  *exec.Cmd
	once sync.Once
}

// Close stops the process and reaps it.
func (p *procReader) Close() error {
	var err error
	p.once.Do(func() {
		_ = p.ReadCloser.Close()
		if p.cmd.Process != nil {
			_ = p.cmd.Process.Kill()
		}
		err = p.cmd.Wait()
	})
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return nil
	}
	return err
}
