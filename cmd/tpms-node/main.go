//go:build rp2040 || rp2350

package main

import (
	"context"
	"machine"
	"time"

	"tpmsbridge-go/services/app"
	"tpmsbridge-go/services/config"
	"tpmsbridge-go/services/platform"
	"tpmsbridge-go/x/logx"
)

const device = "pico"

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	log := logx.NewConsole(logx.LevelInfo)

	cfg, err := config.Load(device)
	if err != nil {
		log.Warn("using default config", "err", err)
	}
	_ = machine.Serial.Configure(machine.UARTConfig{BaudRate: uint32(cfg.Node.SerialBaud)})
	log.Info("****** setup ******")

	board, err := platform.Open(cfg, log)
	if err != nil {
		log.Error("board open failed", "err", err)
		halt()
	}

	err = app.Run(context.Background(), app.Options{
		Config:    cfg,
		Board:     board,
		Log:       log,
		Device:    device,
		BootDelay: time.Second,
	})
	log.Error("node stopped", "err", err)
	halt()
}

func halt() {
	for {
		time.Sleep(time.Hour)
	}
}
