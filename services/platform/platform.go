// Package platform gathers the board resources the node needs behind small
// interfaces. Open is provided per build: rp2040/rp2350 firmware, or a Linux
// gateway host where radio decoding runs as a subprocess.
package platform

import (
	"tinygo.org/x/bluetooth"

	"tpmsbridge-go/services/decoder"
	"tpmsbridge-go/services/indicator"
	"tpmsbridge-go/services/motion"
	"tpmsbridge-go/services/power"
)

// Board is what Open hands to main. Optional resources are nil when absent.
type Board struct {
	Name    string
	Sensor  motion.Sensor
	IntPin  int
	ADC     power.ADC
	Decoder decoder.Source
	Strip   indicator.Strip
	Sleeper *Sleeper
	BLE     *bluetooth.Adapter
}
