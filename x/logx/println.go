package logx

// Console prints "<Level>: [component] msg k=v ..." lines with the println
// builtin, matching the serial diagnostics the node has always produced.
type Console struct {
	Min       Level
	component string
}

func NewConsole(min Level) *Console { return &Console{Min: min} }

func (c *Console) Debug(msg string, kv ...any) { c.log(LevelDebug, msg, kv) }
func (c *Console) Info(msg string, kv ...any)  { c.log(LevelInfo, msg, kv) }
func (c *Console) Warn(msg string, kv ...any)  { c.log(LevelWarn, msg, kv) }
func (c *Console) Error(msg string, kv ...any) { c.log(LevelError, msg, kv) }

func (c *Console) With(component string) Logger {
	return &Console{Min: c.Min, component: component}
}

// Flush is a no-op: println writes synchronously.
func (c *Console) Flush() {}

func (c *Console) log(l Level, msg string, kv []any) {
	if l < c.Min {
		return
	}
	line := l.String() + ":"
	if c.component != "" {
		line += " [" + c.component + "]"
	}
	line += " " + msg
	for i := 0; i+1 < len(kv); i += 2 {
		line += " " + FormatValue(kv[i]) + "=" + FormatValue(kv[i+1])
	}
	if len(kv)%2 == 1 {
		line += " " + FormatValue(kv[len(kv)-1])
	}
	println(line)
}
