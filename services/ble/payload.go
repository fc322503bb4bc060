package ble

import (
	"bytes"
	"encoding/binary"
	"strconv"

	"tpmsbridge-go/types"
)

// EncodeTelemetry renders "id|pressure_PSI|temperature_F|rssi".
func EncodeTelemetry(r types.TelemetryRecord) []byte {
	b := make([]byte, 0, len(r.ID)+16)
	b = append(b, r.ID...)
	b = append(b, '|')
	b = strconv.AppendInt(b, int64(r.PressurePSI), 10)
	b = append(b, '|')
	b = strconv.AppendInt(b, int64(r.TemperatureF), 10)
	b = append(b, '|')
	b = strconv.AppendInt(b, int64(r.RSSI), 10)
	return b
}

// EncodeBattery stores millivolts as a little-endian uint32.
func EncodeBattery(mv uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], mv)
	return b[:]
}

// EncodeAccel renders "x|y|z" with three decimals.
func EncodeAccel(s types.AccelSample) []byte {
	b := make([]byte, 0, 24)
	b = strconv.AppendFloat(b, float64(s.X), 'f', 3, 32)
	b = append(b, '|')
	b = strconv.AppendFloat(b, float64(s.Y), 'f', 3, 32)
	b = append(b, '|')
	b = strconv.AppendFloat(b, float64(s.Z), 'f', 3, 32)
	return b
}

// ParseControl reads a subscription control write "<char>|<mode>", for
// example "accel|1". It reports false for anything else.
func ParseControl(v []byte) (types.SubscribeEvent, bool) {
	i := bytes.IndexByte(v, '|')
	if i <= 0 || i == len(v)-1 {
		return types.SubscribeEvent{}, false
	}
	c := types.CharID(bytes.TrimSpace(v[:i]))
	if _, ok := CharUUID(c); !ok {
		return types.SubscribeEvent{}, false
	}
	m, err := strconv.ParseUint(string(bytes.TrimSpace(v[i+1:])), 10, 8)
	if err != nil || m > uint64(types.SubBoth) {
		return types.SubscribeEvent{}, false
	}
	return types.SubscribeEvent{Char: c, Mode: types.SubMode(m)}, true
}
