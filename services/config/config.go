package config

import (
	"context"
	"encoding/json"
	"errors"

	"tpmsbridge-go/bus"
	"tpmsbridge-go/errcode"
	"tpmsbridge-go/types"
	"tpmsbridge-go/x/logx"
)

const (
	serviceName  = "config"
	configPrefix = "config"
)

type ctxKey struct{}

// WithDevice stores the device ID whose embedded config should be published.
func WithDevice(ctx context.Context, device string) context.Context {
	return context.WithValue(ctx, ctxKey{}, device)
}

// Device returns the device ID set by WithDevice.
func Device(ctx context.Context) string {
	d, _ := ctx.Value(ctxKey{}).(string)
	return d
}

// EmbeddedConfigLookup allows overriding how configs are resolved.
var EmbeddedConfigLookup = func(device string) ([]byte, bool) {
	b, ok := embeddedConfigs[device]
	return b, ok
}

// Load returns the normalized config embedded for device.
func Load(device string) (types.Config, error) {
	raw, ok := EmbeddedConfigLookup(device)
	if !ok || len(raw) == 0 {
		return Defaults(), &errcode.E{C: errcode.InvalidParams, Op: "config.load", Msg: "no embedded config for device: " + device}
	}
	return Decode(raw)
}

// -----------------------------------------------------------------------------
// Config Service
// -----------------------------------------------------------------------------

type ConfigService struct {
	Name string
	log  logx.Logger
}

func NewConfigService(log logx.Logger) *ConfigService {
	return &ConfigService{Name: serviceName, log: log.With(serviceName)}
}

// publishConfig reads the device config from embedded data and publishes each
// top-level key as a retained config/<key> message.
func (s *ConfigService) publishConfig(ctx context.Context, conn *bus.Connection) error {
	device := Device(ctx)
	if device == "" {
		return errors.New("missing device ID in context")
	}

	raw, ok := EmbeddedConfigLookup(device)
	if !ok || len(raw) == 0 {
		return errors.New("no embedded config for device: " + device)
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return errcode.Wrap(errcode.InvalidPayload, "config.publish", err)
	}
	if m == nil {
		return errors.New("embedded config is not a JSON object")
	}

	for k, v := range m {
		conn.Publish(conn.NewMessage(bus.T(configPrefix, k), v, true))
	}
	return nil
}

// Start launches the config publisher in a goroutine.
func (s *ConfigService) Start(ctx context.Context, conn *bus.Connection) {
	go func() {
		if err := s.publishConfig(ctx, conn); err != nil {
			s.log.Warn("config not published", "err", err)
		}
	}()
}
