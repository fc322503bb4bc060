package ble

import (
	"sync"

	"tinygo.org/x/bluetooth"

	"tpmsbridge-go/bus"
	"tpmsbridge-go/errcode"
	"tpmsbridge-go/types"
	"tpmsbridge-go/x/logx"
)

var (
	TopicConn      = bus.T("ble", "conn")
	TopicPeers     = bus.T("ble", "peers")
	TopicSubscribe = bus.T("ble", "subscribe")
	TopicWrite     = bus.T("ble", "write")
)

// Stack owns the GATT server. Stack callbacks are turned into bus messages
// so the node loop sees them as ordinary events.
type Stack struct {
	adapter *bluetooth.Adapter
	adv     *bluetooth.Advertisement
	name    string

	telemetry bluetooth.Characteristic
	battery   bluetooth.Characteristic
	accel     bluetooth.Characteristic

	ev *events
}

func NewStack(adapter *bluetooth.Adapter, conn *bus.Connection, name string, log logx.Logger) *Stack {
	if name == "" {
		name = DefaultName
	}
	return &Stack{
		adapter: adapter,
		name:    name,
		ev:      &events{conn: conn, log: log.With("ble")},
	}
}

// Start enables the radio, registers the service and begins advertising.
func (s *Stack) Start() error {
	if err := s.adapter.Enable(); err != nil {
		return errcode.Wrap(errcode.InitFailed, "ble.enable", err)
	}

	s.adapter.SetConnectHandler(func(d bluetooth.Device, connected bool) {
		s.ev.connect(d.Address.String(), connected)
		if !connected && s.adv != nil {
			// Advertising stops on connect; resume it for the next peer.
			if err := s.adv.Start(); err != nil {
				s.ev.log.Warn("advertising restart failed", "err", err)
			}
		}
	})

	err := s.adapter.AddService(&bluetooth.Service{
		UUID: ServiceUUID,
		Characteristics: []bluetooth.CharacteristicConfig{
			{
				Handle: &s.telemetry,
				UUID:   TelemetryCharUUID,
				Flags: bluetooth.CharacteristicReadPermission |
					bluetooth.CharacteristicWritePermission |
					bluetooth.CharacteristicNotifyPermission,
				WriteEvent: func(_ bluetooth.Connection, _ int, value []byte) {
					s.ev.write(types.CharTelemetry, value)
				},
			},
			{
				Handle: &s.battery,
				UUID:   BatteryCharUUID,
				Flags:  bluetooth.CharacteristicReadPermission | bluetooth.CharacteristicNotifyPermission,
			},
			{
				Handle: &s.accel,
				UUID:   AccelCharUUID,
				Flags:  bluetooth.CharacteristicReadPermission | bluetooth.CharacteristicNotifyPermission,
			},
		},
	})
	if err != nil {
		return errcode.Wrap(errcode.InitFailed, "ble.add_service", err)
	}

	s.adv = s.adapter.DefaultAdvertisement()
	err = s.adv.Configure(bluetooth.AdvertisementOptions{
		LocalName:    s.name,
		ServiceUUIDs: []bluetooth.UUID{ServiceUUID},
	})
	if err != nil {
		return errcode.Wrap(errcode.InitFailed, "ble.adv_configure", err)
	}
	if err := s.adv.Start(); err != nil {
		return errcode.Wrap(errcode.InitFailed, "ble.adv_start", err)
	}
	s.ev.log.Info("advertising", "name", s.name)
	return nil
}

// StopAdvertising hides the node, e.g. while it sleeps.
func (s *Stack) StopAdvertising() error {
	if s.adv == nil {
		return nil
	}
	return s.adv.Stop()
}

func (s *Stack) StartAdvertising() error {
	if s.adv == nil {
		return errcode.NotConnected
	}
	return s.adv.Start()
}

// Characteristics returns the registered handles for a Publisher.
func (s *Stack) Characteristics() map[types.CharID]Characteristic {
	return map[types.CharID]Characteristic{
		types.CharTelemetry: &s.telemetry,
		types.CharBattery:   &s.battery,
		types.CharAccel:     &s.accel,
	}
}

// events converts stack callbacks into bus publications. The peer count is
// kept here, next to the callbacks, and republished retained on every change.
type events struct {
	conn *bus.Connection
	log  logx.Logger

	mu    sync.Mutex
	peers int
}

func (e *events) connect(peer string, connected bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if connected {
		e.peers++
		e.log.Info("Connected", "peer", peer)
	} else {
		if e.peers > 0 {
			e.peers--
		}
		e.log.Info("Disconnected", "peer", peer)
	}
	e.conn.Publish(e.conn.NewMessage(TopicConn, types.ConnEvent{Connected: connected, Peer: peer}, false))
	e.conn.Publish(e.conn.NewMessage(TopicPeers, types.PeerCount{N: e.peers}, true))
}

func (e *events) write(c types.CharID, value []byte) {
	v := append([]byte(nil), value...)
	if sub, ok := ParseControl(v); ok {
		e.log.Debug("subscription control write", "char", string(sub.Char), "mode", int(sub.Mode))
		e.conn.Publish(e.conn.NewMessage(TopicSubscribe, sub, false))
		return
	}
	e.conn.Publish(e.conn.NewMessage(TopicWrite, types.WriteEvent{Char: c, Value: v}, false))
}
