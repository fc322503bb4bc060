package types

// CharID names one of the GATT characteristics exposed by the node.
type CharID string

const (
	CharTelemetry CharID = "telemetry"
	CharBattery   CharID = "battery"
	CharAccel     CharID = "accel"
)

// SubMode mirrors the CCCD value: 0 none, 1 notify, 2 indicate, 3 both.
type SubMode uint8

const (
	SubNone     SubMode = 0
	SubNotify   SubMode = 1
	SubIndicate SubMode = 2
	SubBoth     SubMode = 3
)

func (m SubMode) Active() bool { return m != SubNone }

func (m SubMode) String() string {
	switch m {
	case SubNone:
		return "unsubscribed"
	case SubNotify:
		return "notifications"
	case SubIndicate:
		return "indications"
	case SubBoth:
		return "notifications and indications"
	}
	return "unknown"
}

// ConnEvent reports a peer connecting or disconnecting.
type ConnEvent struct {
	Connected bool
	Peer      string
}

// PeerCount is the number of peers the stack holds. It is published
// retained so a late subscriber starts from the current count.
type PeerCount struct {
	N int
}

// SubscribeEvent reports a change of a peer's subscription to a characteristic.
type SubscribeEvent struct {
	Char CharID
	Mode SubMode
	Peer string
}

// WriteEvent reports a peer write to a characteristic.
type WriteEvent struct {
	Char  CharID
	Value []byte
}
