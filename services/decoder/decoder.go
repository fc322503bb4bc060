// Package decoder bridges the external radio decoder into the bus. The
// decoder (rtl_433) emits one JSON object per received packet; each line is
// parsed into a types.TelemetryRecord and published on telemetry/decoded.
package decoder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"tpmsbridge-go/bus"
	"tpmsbridge-go/types"
	"tpmsbridge-go/x/logx"
	"tpmsbridge-go/x/timex"
)

var (
	TopicDecoded = bus.T("telemetry", "decoded")
	topicState   = bus.T("decoder", "state")
)

// maxLine bounds a single JSON record; longer lines are discarded.
const maxLine = 1024

// -----------------------------------------------------------------------------
// Sources
// -----------------------------------------------------------------------------

// Source yields the decoder's byte stream. Platforms provide a UART or a
// subprocess; tests provide pipes.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	String() string
}

type sourceFactory func(types.DecoderConfig) (Source, error)

var (
	regMu    sync.RWMutex
	registry = map[string]sourceFactory{}
)

// RegisterSource makes a source kind selectable by name ("uart", "exec").
func RegisterSource(name string, f sourceFactory) {
	regMu.Lock()
	defer regMu.Unlock()
	registry[name] = f
}

// NewSource builds the registered source for kind.
func NewSource(kind string, cfg types.DecoderConfig) (Source, error) {
	regMu.RLock()
	f, ok := registry[kind]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown decoder source: %q", kind)
	}
	return f(cfg)
}

// -----------------------------------------------------------------------------
// Service
// -----------------------------------------------------------------------------

type Service struct {
	conn *bus.Connection
	src  Source
	log  logx.Logger

	// Uptime feeds the "Received message" timestamp.
	Uptime func() time.Duration
}

func New(conn *bus.Connection, src Source, log logx.Logger) *Service {
	start := time.Now()
	return &Service{
		conn:   conn,
		src:    src,
		log:    log.With("decoder"),
		Uptime: func() time.Duration { return time.Since(start) },
	}
}

// Run supervises the source until ctx is cancelled, reopening it with
// backoff when the stream fails.
func (s *Service) Run(ctx context.Context) {
	backoff := backoffSeq(250*time.Millisecond, 5*time.Second)
	for {
		if ctx.Err() != nil {
			return
		}
		rc, err := s.src.Open(ctx)
		if err != nil {
			delay := backoff()
			s.publishState("degraded", "open_failed_retrying", fmt.Errorf("%v (retry in %s)", err, delay))
			if !sleep(ctx, delay) {
				return
			}
			continue
		}

		s.publishState("up", "stream_open", nil)
		// Unblock a pending read on cancellation.
		stop := context.AfterFunc(ctx, func() { _ = rc.Close() })
		err = s.consume(ctx, rc)
		stop()
		_ = rc.Close()
		if ctx.Err() != nil {
			return
		}
		if err == nil {
			err = io.EOF
		}
		delay := backoff()
		s.publishState("degraded", "stream_lost_retrying", fmt.Errorf("%v (retry in %s)", err, delay))
		if !sleep(ctx, delay) {
			return
		}
	}
}

// consume reads lines until the stream ends. It returns nil on clean EOF.
func (s *Service) consume(ctx context.Context, r io.Reader) error {
	br := bufio.NewReaderSize(r, 256)
	line := make([]byte, 0, 256)
	overflow := false
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		chunk, err := br.ReadSlice('\n')
		if !overflow {
			line = append(line, chunk...)
		}
		if len(line) > maxLine {
			overflow = true
			line = line[:0]
		}
		switch {
		case err == nil:
			if overflow {
				s.log.Warn("line too long, dropped")
			} else {
				s.HandleLine(line)
			}
			line = line[:0]
			overflow = false
		case errors.Is(err, bufio.ErrBufferFull):
			// keep accumulating
		case errors.Is(err, io.EOF):
			if len(line) > 0 && !overflow {
				s.HandleLine(line)
			}
			return nil
		default:
			return err
		}
	}
}

// HandleLine parses one decoder line and publishes the record. Blank lines
// are ignored; malformed ones are logged and dropped.
func (s *Service) HandleLine(line []byte) {
	line = trimSpace(line)
	if len(line) == 0 {
		return
	}
	rec, err := Parse(line)
	if err != nil {
		s.log.Warn("dropping malformed record", "err", err)
		return
	}
	s.log.Info("Received message : " + timex.FormatHMS(s.Uptime()) + " - " + rec.Raw)
	s.conn.Publish(s.conn.NewMessage(TopicDecoded, rec, false))
}

func trimSpace(b []byte) []byte {
	for len(b) > 0 && isSpace(b[0]) {
		b = b[1:]
	}
	for len(b) > 0 && isSpace(b[len(b)-1]) {
		b = b[:len(b)-1]
	}
	return b
}

func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\r' || c == '\n' }

// -----------------------------------------------------------------------------
// Utilities
// -----------------------------------------------------------------------------

func (s *Service) publishState(level, status string, err error) {
	payload := map[string]any{
		"level":  level,
		"status": status,
		"source": s.src.String(),
		"ts_ms":  timex.NowMs(),
	}
	if err != nil {
		payload["error"] = err.Error()
		s.log.Warn(status, "err", err)
	}
	s.conn.Publish(s.conn.NewMessage(topicState, payload, true))
}

func backoffSeq(min, max time.Duration) func() time.Duration {
	if min <= 0 {
		min = 100 * time.Millisecond
	}
	if max < min {
		max = min
	}
	cur := min
	return func() time.Duration {
		d := cur
		cur *= 2
		if cur > max {
			cur = max
		}
		return d
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
