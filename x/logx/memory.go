package logx

import "sync"

// Memory keeps formatted lines in memory. Tests use it to assert on diagnostics.
type Memory struct {
	mu        *sync.Mutex
	lines     *[]string
	component string
	flushes   *int
}

func NewMemory() *Memory {
	return &Memory{mu: &sync.Mutex{}, lines: new([]string), flushes: new(int)}
}

func (m *Memory) Debug(msg string, kv ...any) { m.add(LevelDebug, msg, kv) }
func (m *Memory) Info(msg string, kv ...any)  { m.add(LevelInfo, msg, kv) }
func (m *Memory) Warn(msg string, kv ...any)  { m.add(LevelWarn, msg, kv) }
func (m *Memory) Error(msg string, kv ...any) { m.add(LevelError, msg, kv) }

func (m *Memory) With(component string) Logger {
	return &Memory{mu: m.mu, lines: m.lines, component: component, flushes: m.flushes}
}

func (m *Memory) Flush() {
	m.mu.Lock()
	*m.flushes++
	m.mu.Unlock()
}

// Lines returns a copy of everything logged so far.
func (m *Memory) Lines() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), (*m.lines)...)
}

func (m *Memory) Flushes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.flushes
}

func (m *Memory) add(l Level, msg string, kv []any) {
	line := l.String() + ":"
	if m.component != "" {
		line += " [" + m.component + "]"
	}
	line += " " + msg
	for i := 0; i+1 < len(kv); i += 2 {
		line += " " + FormatValue(kv[i]) + "=" + FormatValue(kv[i+1])
	}
	m.mu.Lock()
	*m.lines = append(*m.lines, line)
	m.mu.Unlock()
}
