package decoder

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"

	"tpmsbridge-go/errcode"
	"tpmsbridge-go/types"
	"tpmsbridge-go/x/mathx"
)

// wire is the subset of rtl_433's JSON output the bridge reads.
type wire struct {
	ID          json.RawMessage `json:"id"`
	PressurePSI *float64        `json:"pressure_PSI"`
	TempF       *float64        `json:"temperature_F"`
	RSSI        *float64        `json:"rssi"`
	Model       string          `json:"model"`
	Protocol    json.RawMessage `json:"protocol"`
}

var errNotObject = errors.New("not a JSON object")

// Parse decodes one rtl_433 record. Numeric fields are truncated toward zero
// and saturate at the int32 range.
// Absent fields stay zero; the id may be a string or a number.
func Parse(line []byte) (types.TelemetryRecord, error) {
	var rec types.TelemetryRecord
	if len(line) == 0 || line[0] != '{' {
		return rec, &errcode.E{C: errcode.InvalidPayload, Op: "decoder.parse", Err: errNotObject}
	}
	var w wire
	if err := json.Unmarshal(line, &w); err != nil {
		return rec, &errcode.E{C: errcode.InvalidPayload, Op: "decoder.parse", Err: err}
	}
	rec.ID = scalarString(w.ID)
	rec.PressurePSI = truncate(w.PressurePSI)
	rec.TemperatureF = truncate(w.TempF)
	rec.RSSI = truncate(w.RSSI)
	rec.Model = w.Model
	rec.Protocol = scalarString(w.Protocol)
	rec.Raw = string(line)
	return rec, nil
}

// scalarString renders a JSON string or number as text.
func scalarString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if json.Unmarshal(raw, &s) == nil {
			return s
		}
		return ""
	}
	// rtl_433 ids are integers; render floats without exponent.
	if f, err := strconv.ParseFloat(string(raw), 64); err == nil && f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return string(raw)
}

func truncate(p *float64) int {
	if p == nil || math.IsNaN(*p) {
		return 0
	}
	return int(mathx.Clamp(*p, math.MinInt32, math.MaxInt32))
}
