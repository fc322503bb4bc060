package power

import "tpmsbridge-go/types"

// Session is the BLE connection state seen by the loop: connected peer count
// and per-characteristic subscription modes. It is only mutated by Apply,
// which the loop calls for each event drained from the bus.
type Session struct {
	connected int
	subs      map[types.CharID]types.SubMode
	// seen is set by any connect or disconnect since the last TakeActivity.
	seen bool
}

func NewSession() *Session {
	return &Session{subs: make(map[types.CharID]types.SubMode, 3)}
}

// Apply folds one BLE event into the session. Unknown payloads are ignored.
// A PeerCount replaces the running count; it is what a session started
// after the connect sees.
func (s *Session) Apply(ev any) {
	switch e := ev.(type) {
	case types.PeerCount:
		s.connected = max(e.N, 0)
		if s.connected == 0 {
			delete(s.subs, types.CharAccel)
		}
	case types.ConnEvent:
		s.seen = true
		if e.Connected {
			s.connected++
			return
		}
		if s.connected > 0 {
			s.connected--
		}
		// A dropped peer takes its accelerometer subscription with it.
		delete(s.subs, types.CharAccel)
	case types.SubscribeEvent:
		if e.Mode.Active() {
			s.subs[e.Char] = e.Mode
		} else {
			delete(s.subs, e.Char)
		}
	}
}

func (s *Session) Connected() int { return s.connected }

// TakeActivity reports whether a connection event was applied since the
// previous call, and clears the mark.
func (s *Session) TakeActivity() bool {
	seen := s.seen
	s.seen = false
	return seen
}

func (s *Session) Subscribed(c types.CharID) bool { return s.subs[c].Active() }

// Reset forgets all peers; used when the stack restarts after a wake.
func (s *Session) Reset() {
	s.connected = 0
	s.seen = false
	for k := range s.subs {
		delete(s.subs, k)
	}
}
