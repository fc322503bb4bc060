package timex

import "time"

// NowMs returns Unix milliseconds as int64.
func NowMs() int64 { return time.Now().UnixMilli() }

// Clock abstracts time for the cooperative loop so tests can drive it.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// System is the wall/monotonic clock.
var System Clock = systemClock{}

// FormatHMS renders d as HH:MM:SS. Hours are not wrapped at 24.
func FormatHMS(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	var buf [24]byte
	b := appendPad2(buf[:0], h)
	b = append(b, ':')
	b = appendPad2(b, m)
	b = append(b, ':')
	b = appendPad2(b, s)
	return string(b)
}

func appendPad2(b []byte, v int64) []byte {
	if v < 10 {
		b = append(b, '0')
	}
	var tmp [20]byte
	i := len(tmp)
	if v == 0 {
		i--
		tmp[i] = '0'
	}
	for v > 0 {
		i--
		tmp[i] = byte('0' + v%10)
		v /= 10
	}
	return append(b, tmp[i:]...)
}

// Uptime extends a wrapping 32-bit millisecond counter to a monotonic
// duration. Feed it every raw reading; a reading smaller than the previous
// one is taken as a single wrap.
type Uptime struct {
	last  uint32
	wraps uint64
}

func (u *Uptime) Observe(ms uint32) time.Duration {
	if ms < u.last {
		u.wraps++
	}
	u.last = ms
	total := u.wraps<<32 | uint64(ms)
	return time.Duration(total) * time.Millisecond
}
