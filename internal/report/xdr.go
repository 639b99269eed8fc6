package report

import (
	"fmt"
	"strings"

	nmea "github.com/adrianmo/go-nmea"
)

// XDREncoder writes the report as an NMEA-0183 transducer measurement
// sentence for consumers that already speak NMEA:
//
//	$HCXDR,D,0.123,M,TOF_FRONT,...,A,-12.34,D,PITCH,A,5.00,D,ROLL,...*hh
//
// Invalid readings keep their slot with an empty value.
type XDREncoder struct {
	Talker string
}

// Encode implements Encoder.
func (e XDREncoder) Encode(r Report) []byte {
	talker := e.Talker
	if talker == "" {
		talker = "HC"
	}
	var b strings.Builder
	b.WriteString(talker)
	b.WriteString(nmea.TypeXDR)
	for _, s := range slots {
		v := *s.field(&r)
		value := ""
		if v.Valid {
			value = fmt.Sprintf(s.xdrFmt, v.Value/s.xdrDiv)
		}
		fmt.Fprintf(&b, ",%s,%s,%s,%s", s.xdrType, value, s.xdrUnit, s.name)
	}
	body := b.String()
	return []byte("$" + body + "*" + nmea.Checksum(body) + "\r\n")
}

// DecodeXDR parses an XDR sentence into a report. Transducers this hub
// does not know are ignored; missing or empty ones decode as invalid.
func DecodeXDR(line string) (Report, error) {
	var r Report
	sentence, err := nmea.Parse(strings.TrimSpace(line))
	if err != nil {
		return r, fmt.Errorf("xdr report: %w", err)
	}
	if sentence.DataType() != nmea.TypeXDR {
		return r, fmt.Errorf("xdr report: unexpected sentence type %s", sentence.DataType())
	}
	xdr := sentence.(nmea.XDR)

	byName := make(map[string]slot, len(slots))
	for _, s := range slots {
		byName[s.name] = s
	}
	for i, m := range xdr.Measurements {
		s, ok := byName[m.TransducerName]
		if !ok {
			continue
		}
		// go-nmea reads an empty value as 0, so look at the raw field.
		if xdr.Fields[4*i+1] == "" {
			continue
		}
		*s.field(&r) = Measured(m.Value * s.xdrDiv)
	}
	return r, nil
}
