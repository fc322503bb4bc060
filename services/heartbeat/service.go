package heartbeat

import (
	"context"
	"time"

	"tpmsbridge-go/bus"
	"tpmsbridge-go/types"
	"tpmsbridge-go/x/logx"
	"tpmsbridge-go/x/timex"
)

var (
	topicConfigHeartbeat = bus.T("config", "heartbeat")
	topicNodeStatus      = bus.T("node", "status")
)

// Service logs a periodic diagnostic line with the latest node status.
type Service struct {
	log      logx.Logger
	interval time.Duration
	start    time.Time

	// Uptime defaults to time since Start.
	Uptime func() time.Duration
}

func New(interval time.Duration, log logx.Logger) *Service {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Service{log: log.With("heartbeat"), interval: interval}
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfigHeartbeat)
	defer conn.Unsubscribe(cfgSub)
	stSub := conn.Subscribe(topicNodeStatus)
	defer conn.Unsubscribe(stSub)

	tick := time.NewTicker(s.interval)
	defer tick.Stop()

	var last types.NodeStatus
	for {
		select {
		case <-ctx.Done():
			s.log.Info("heartbeat service stopping")
			return
		case <-tick.C:
			s.log.Info("Heartbeat",
				"uptime", timex.FormatHMS(s.Uptime()),
				"decoded", last.Decoded,
				"peers", last.Peers,
				"battery_mv", last.BatteryMV,
				"idle", last.Idle)
		case msg := <-stSub.Channel():
			if st, ok := msg.Payload.(types.NodeStatus); ok {
				last = st
			}
		case msg := <-cfgSub.Channel():
			if iv, ok := intervalOf(msg.Payload); ok {
				s.interval = iv
				tick.Reset(iv)
				s.log.Info("Heartbeat interval set", "interval", iv)
			}
		}
	}
}

// intervalOf accepts the embedded JSON object or a typed config.
func intervalOf(p any) (time.Duration, bool) {
	var secs float64
	switch v := p.(type) {
	case map[string]any:
		f, ok := v["interval"].(float64)
		if !ok {
			return 0, false
		}
		secs = f
	case types.HeartbeatConfig:
		secs = float64(v.IntervalS)
	default:
		return 0, false
	}
	if secs <= 0 {
		return 0, false
	}
	return time.Duration(secs * float64(time.Second)), true
}

// Start the heartbeat service.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	s.start = time.Now()
	if s.Uptime == nil {
		s.Uptime = func() time.Duration { return time.Since(s.start) }
	}
	go s.serviceLoop(ctx, conn)
	return nil
}
