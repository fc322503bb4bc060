// Package logx is the logging seam shared by MCU and host builds. Services
// log through Logger with alternating key/value pairs; the MCU build prints
// to the serial console and the host build forwards to logrus.
package logx

import (
	"strconv"
	"time"
)

type Level uint8

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "Debug"
	case LevelInfo:
		return "Info"
	case LevelWarn:
		return "Warn"
	default:
		return "Error"
	}
}

type Logger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)
	// With returns a logger tagged with a component name.
	With(component string) Logger
	// Flush blocks until buffered output is written (before sleep).
	Flush()
}

// Nop discards everything.
var Nop Logger = nop{}

type nop struct{}

func (nop) Debug(string, ...any) {}
func (nop) Info(string, ...any)  {}
func (nop) Warn(string, ...any)  {}
func (nop) Error(string, ...any) {}
func (n nop) With(string) Logger { return n }
func (nop) Flush()               {}

// FormatValue renders common value kinds without fmt, so it stays cheap on MCU.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "<nil>"
	case string:
		return x
	case []byte:
		return string(x)
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int8:
		return strconv.FormatInt(int64(x), 10)
	case int16:
		return strconv.FormatInt(int64(x), 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint:
		return strconv.FormatUint(uint64(x), 10)
	case uint8:
		return strconv.FormatUint(uint64(x), 10)
	case uint16:
		return strconv.FormatUint(uint64(x), 10)
	case uint32:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', 3, 32)
	case float64:
		return strconv.FormatFloat(x, 'f', 3, 64)
	case time.Duration:
		return x.String()
	case error:
		return x.Error()
	case interface{ String() string }:
		return x.String()
	}
	return "?"
}
