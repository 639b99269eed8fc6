package report

import (
	"fmt"
	"strconv"
	"strings"
)

// FixedEncoder writes the fixed-width, comma separated line the companion
// controller has always parsed:
//
//	tofF,tofB,sideL,sideR,frontL,frontR,frontD,pitch,roll,temp,vbus\n
//
// e.g. "0123,9999,  45.22,9999.99, 310.08, 298.40,  61.20,-12.34,  5.00,999.99,12.31".
type FixedEncoder struct{}

// Encode implements Encoder.
func (FixedEncoder) Encode(r Report) []byte {
	fields := make([]string, len(slots))
	for i, s := range slots {
		fields[i] = s.fixed(*s.field(&r))
	}
	return []byte(strings.Join(fields, ",") + "\n")
}

// DecodeFixed parses a line produced by FixedEncoder. Sentinel fields
// decode as invalid readings. The report time is left zero.
func DecodeFixed(line string) (Report, error) {
	var r Report
	fields := strings.Split(strings.TrimSpace(line), ",")
	if len(fields) != len(slots) {
		return r, fmt.Errorf("fixed report: want %d fields, got %d", len(slots), len(fields))
	}
	for i, s := range slots {
		raw := strings.TrimSpace(fields[i])
		if raw == s.sentinel {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return r, fmt.Errorf("fixed report: field %s: %w", s.name, err)
		}
		*s.field(&r) = Measured(v)
	}
	return r, nil
}
