//go:build !rp2040 && !rp2350

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"tpmsbridge-go/services/app"
	"tpmsbridge-go/services/config"
	"tpmsbridge-go/services/platform"
	"tpmsbridge-go/types"
	"tpmsbridge-go/x/logx/logrusx"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:          "tpms-gateway",
	Short:        "Republish rtl_433 TPMS readings over BLE",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := logrusx.New(viper.GetString("log_level"))
		if err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		board, err := platform.Open(cfg, log)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log.Info("starting", "device", viper.GetString("device"), "ble_name", cfg.BLE.Name,
			"decoder", board.Decoder.String())
		err = app.Run(ctx, app.Options{
			Config: cfg,
			Board:  board,
			Log:    log,
			Device: viper.GetString("device"),
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is /etc/tpms-gateway/config.yaml)")
	pf.String("device", "gateway", "embedded config profile to start from")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.String("ble-name", "", "BLE local name")
	pf.Int("idle-timeout-ms", 0, "idle time before sleep when no peer is connected")
	pf.StringSlice("rtl433", nil, "decoder command line")

	_ = viper.BindPFlag("device", pf.Lookup("device"))
	_ = viper.BindPFlag("log_level", pf.Lookup("log-level"))
	_ = viper.BindPFlag("ble.name", pf.Lookup("ble-name"))
	_ = viper.BindPFlag("power.idle_timeout_ms", pf.Lookup("idle-timeout-ms"))
	_ = viper.BindPFlag("decoder.command", pf.Lookup("rtl433"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath("/etc/tpms-gateway")
		viper.AddConfigPath("$HOME/.tpms-gateway")
		viper.SetConfigName("config")
	}
	viper.SetEnvPrefix("TPMS")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	_ = viper.ReadInConfig()
}

// loadConfig starts from the embedded profile and overlays file, env and flags.
func loadConfig() (types.Config, error) {
	cfg, err := config.Load(viper.GetString("device"))
	if err != nil {
		return cfg, err
	}
	if err := overlay(viper.GetViper(), &cfg); err != nil {
		return cfg, err
	}
	config.Normalize(&cfg)
	return cfg, nil
}

// overlay decodes only keys that were set, so zero-valued flags do not
// clobber the profile.
func overlay(v *viper.Viper, cfg *types.Config) error {
	set := map[string]any{}
	for _, k := range v.AllKeys() {
		if !v.IsSet(k) {
			continue
		}
		val := v.Get(k)
		if isZero(val) {
			continue
		}
		setPath(set, strings.Split(k, "."), val)
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           cfg,
	})
	if err != nil {
		return err
	}
	return dec.Decode(set)
}

func setPath(m map[string]any, path []string, v any) {
	for _, p := range path[:len(path)-1] {
		next, ok := m[p].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[p] = next
		}
		m = next
	}
	m[path[len(path)-1]] = v
}

func isZero(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case int:
		return x == 0
	case []string:
		return len(x) == 0
	case []any:
		return len(x) == 0
	}
	return false
}
