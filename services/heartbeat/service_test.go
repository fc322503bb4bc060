package heartbeat

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"tpmsbridge-go/bus"
	"tpmsbridge-go/types"
	"tpmsbridge-go/x/logx"
)

func TestIntervalOf(t *testing.T) {
	d, ok := intervalOf(map[string]any{"interval": float64(2)})
	assert.True(t, ok)
	assert.Equal(t, 2*time.Second, d)

	d, ok = intervalOf(types.HeartbeatConfig{IntervalS: 30})
	assert.True(t, ok)
	assert.Equal(t, 30*time.Second, d)

	_, ok = intervalOf(map[string]any{"interval": "2"})
	assert.False(t, ok)
	_, ok = intervalOf(map[string]any{"interval": float64(0)})
	assert.False(t, ok)
	_, ok = intervalOf(42)
	assert.False(t, ok)
}

func TestService_LogsLatestStatus(t *testing.T) {
	b := bus.NewBus(8)
	conn := b.NewConnection("test")
	log := logx.NewMemory()

	conn.Publish(conn.NewMessage(topicNodeStatus, types.NodeStatus{Peers: 1, BatteryMV: 3950, Decoded: 7}, true))
	conn.Publish(conn.NewMessage(topicConfigHeartbeat, map[string]any{"interval": 0.02}, true))

	s := New(time.Hour, log)
	s.Uptime = func() time.Duration { return 90 * time.Second }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_ = s.Start(ctx, conn)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		out := strings.Join(log.Lines(), "\n")
		if strings.Contains(out, "Heartbeat uptime=00:01:30 decoded=7 peers=1 battery_mv=3950") {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("no heartbeat line, got:\n%s", strings.Join(log.Lines(), "\n"))
}
