package ble

import (
	"tpmsbridge-go/types"
	"tpmsbridge-go/x/logx"
)

// Characteristic is a writable GATT value. *bluetooth.Characteristic
// satisfies it; Write notifies subscribed peers.
type Characteristic interface {
	Write(p []byte) (n int, err error)
}

// Peers is the connection view the publisher gates on.
type Peers interface {
	Connected() int
	Subscribed(c types.CharID) bool
}

// Publisher pushes values to characteristics, at most once and best effort.
// Updates are dropped when no peer can receive them or the characteristic is
// absent; write errors are logged and never retried.
type Publisher struct {
	chars map[types.CharID]Characteristic
	log   logx.Logger
}

func NewPublisher(chars map[types.CharID]Characteristic, log logx.Logger) *Publisher {
	return &Publisher{chars: chars, log: log.With("ble")}
}

// Telemetry publishes a decoded record when a peer is connected.
func (p *Publisher) Telemetry(r types.TelemetryRecord, peers Peers) bool {
	if peers.Connected() == 0 {
		return false
	}
	return p.write(types.CharTelemetry, EncodeTelemetry(r))
}

// Battery publishes millivolts when a peer is connected.
func (p *Publisher) Battery(mv uint32, peers Peers) bool {
	if peers.Connected() == 0 {
		return false
	}
	return p.write(types.CharBattery, EncodeBattery(mv))
}

// Accel publishes a sample when a peer is connected and subscribed to it.
func (p *Publisher) Accel(s types.AccelSample, peers Peers) bool {
	if peers.Connected() == 0 || !peers.Subscribed(types.CharAccel) {
		return false
	}
	return p.write(types.CharAccel, EncodeAccel(s))
}

func (p *Publisher) write(c types.CharID, v []byte) bool {
	ch, ok := p.chars[c]
	if !ok || ch == nil {
		return false
	}
	if _, err := ch.Write(v); err != nil {
		p.log.Warn("characteristic write failed", "char", string(c), "err", err)
		return false
	}
	return true
}
