package types

import "time"

// NodeStatus is the loop's retained snapshot for diagnostics.
type NodeStatus struct {
	Peers     int
	BatteryMV uint32
	Decoded   uint32
	Idle      time.Duration
}
