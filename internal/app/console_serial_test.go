package app

import (
	"strings"
	"testing"

	"github.com/relabs-tech/sensor_hub/internal/report"
)

func TestDecodeLine(t *testing.T) {
	r := report.Report{
		TofFront:  report.Measured(812),
		SideLeft:  report.Measured(452),
		Pitch:     report.Measured(-3.5),
		Roll:      report.Measured(1.25),
		FrontDown: report.Measured(61),
	}

	for _, enc := range []report.Encoder{report.FixedEncoder{}, report.XDREncoder{Talker: "HC"}} {
		line := strings.TrimSpace(string(enc.Encode(r)))
		got, err := decodeLine(line)
		if err != nil {
			t.Fatalf("%T: %v", enc, err)
		}
		if got.TofFront != r.TofFront || got.SideLeft != r.SideLeft || got.FrontDown != r.FrontDown {
			t.Errorf("%T: distances = %+v %+v %+v", enc, got.TofFront, got.SideLeft, got.FrontDown)
		}
		if got.Pitch != r.Pitch || got.Roll != r.Roll {
			t.Errorf("%T: pose = %+v %+v", enc, got.Pitch, got.Roll)
		}
		if got.TofBack.Valid || got.Temperature.Valid {
			t.Errorf("%T: unavailable slots decoded as valid", enc)
		}
	}
}

func TestDecodeLineErrors(t *testing.T) {
	for _, line := range []string{
		"$HCXDR,A,1.00,D,PITCH*00",
		"12,34",
		"garbage",
	} {
		if _, err := decodeLine(line); err == nil {
			t.Errorf("decodeLine(%q): expected an error", line)
		}
	}
}

func TestFormatReport(t *testing.T) {
	got := formatReport(report.Report{Pitch: report.Measured(-3.5), TofFront: report.Measured(812)})
	for _, want := range []string{"tof=812.00/n/a", "pitch=-3.50 roll=n/a", "vbus=n/a"} {
		if !strings.Contains(got, want) {
			t.Errorf("%q missing %q", got, want)
		}
	}
}
