package report

import (
	"math"
	"strings"
	"testing"

	nmea "github.com/adrianmo/go-nmea"
)

func sampleReport() Report {
	return Report{
		TofFront:    Measured(123),
		SideLeft:    Measured(45.224),
		FrontLeft:   Measured(310.08),
		FrontRight:  Measured(298.4),
		FrontDown:   Measured(61.2),
		Pitch:       Measured(-12.3449),
		Roll:        Measured(5),
		BusVoltage:  Measured(12.314),
		Temperature: Reading{},
	}
}

func TestFixedEncoderLine(t *testing.T) {
	got := string(FixedEncoder{}.Encode(sampleReport()))
	want := "0123,9999,  45.22,9999.99, 310.08, 298.40,  61.20,-12.34,  5.00,999.99,12.31\n"
	if got != want {
		t.Fatalf("line:\n got %q\nwant %q", got, want)
	}
}

func TestFixedEncoderAngleWidth(t *testing.T) {
	cases := map[float64]string{
		0:       "  0.00",
		-12.345: "-12.35",
		1.005:   "  1.00",
		-0.001:  " -0.00",
		179.99:  "179.99",
	}
	for v, want := range cases {
		line := string(FixedEncoder{}.Encode(Report{Pitch: Measured(v)}))
		fields := strings.Split(strings.TrimSuffix(line, "\n"), ",")
		if fields[7] != want {
			t.Errorf("pitch %v: got %q, want %q", v, fields[7], want)
		}
	}
}

func TestFixedEncoderIMUNotReady(t *testing.T) {
	line := string(FixedEncoder{}.Encode(Report{}))
	want := "9999,9999,9999.99,9999.99,9999.99,9999.99,9999.99,999.99,999.99,999.99,99.99\n"
	if line != want {
		t.Fatalf("got %q, want %q", line, want)
	}
}

func TestDecodeFixed(t *testing.T) {
	r, err := DecodeFixed("0123,9999,  45.22,9999.99, 310.08, 298.40,  61.20,-12.34,  5.00,999.99,12.31\r\n")
	if err != nil {
		t.Fatalf("DecodeFixed: %v", err)
	}
	if r.TofFront != Measured(123) || r.TofBack.Valid {
		t.Errorf("tof: %+v %+v", r.TofFront, r.TofBack)
	}
	if r.SideRight.Valid || r.Temperature.Valid {
		t.Errorf("sentinels decoded as valid: %+v %+v", r.SideRight, r.Temperature)
	}
	pose, ok := r.Pose()
	if !ok || pose.Pitch != -12.34 || pose.Roll != 5 {
		t.Errorf("pose = %+v ok=%v", pose, ok)
	}

	if _, err := DecodeFixed("1,2,3"); err == nil {
		t.Error("expected field count error")
	}
	if _, err := DecodeFixed("0123,9999,  abc,9999.99, 310.08, 298.40,  61.20,-12.34,  5.00,999.99,12.31"); err == nil {
		t.Error("expected parse error")
	}
}

func TestXDREncoderParsesWithNMEA(t *testing.T) {
	line := string(XDREncoder{}.Encode(sampleReport()))
	if !strings.HasPrefix(line, "$HCXDR,D,0.123,M,TOF_FRONT,D,,M,TOF_BACK,") {
		t.Fatalf("unexpected prefix: %q", line)
	}

	s, err := nmea.Parse(strings.TrimSpace(line))
	if err != nil {
		t.Fatalf("nmea.Parse(%q): %v", line, err)
	}
	xdr, ok := s.(nmea.XDR)
	if !ok {
		t.Fatalf("parsed %T, want nmea.XDR", s)
	}
	if len(xdr.Measurements) != len(slots) {
		t.Fatalf("%d measurements, want %d", len(xdr.Measurements), len(slots))
	}
	pitch := xdr.Measurements[7]
	if pitch.TransducerName != "PITCH" || pitch.TransducerType != "A" || pitch.Unit != "D" || pitch.Value != -12.34 {
		t.Errorf("pitch measurement = %+v", pitch)
	}
}

func TestDecodeXDR(t *testing.T) {
	r, err := DecodeXDR(string(XDREncoder{}.Encode(sampleReport())))
	if err != nil {
		t.Fatalf("DecodeXDR: %v", err)
	}
	// XDR carries distances in metres with millimetre resolution.
	if !r.SideLeft.Valid || math.Abs(r.SideLeft.Value-45) > 1e-9 {
		t.Errorf("side left = %+v", r.SideLeft)
	}
	if r.TofBack.Valid || r.Temperature.Valid {
		t.Errorf("empty slots decoded as valid: %+v %+v", r.TofBack, r.Temperature)
	}
	pose, ok := r.Pose()
	if !ok || pose.Pitch != -12.34 || pose.Roll != 5 {
		t.Errorf("pose = %+v ok=%v", pose, ok)
	}

	if _, err := DecodeXDR("$GPRMC,220516,A,5133.82,N,00042.24,W,173.8,231.8,130694,004.2,W*70"); err == nil {
		t.Error("expected type error for RMC sentence")
	}
	if _, err := DecodeXDR("$HCXDR,A,1.00,D,PITCH*00"); err == nil {
		t.Error("expected checksum error")
	}
}

func TestNewEncoder(t *testing.T) {
	for _, f := range []string{"", "fixed", "xdr"} {
		if _, err := NewEncoder(f); err != nil {
			t.Errorf("NewEncoder(%q): %v", f, err)
		}
	}
	if _, err := NewEncoder("json"); err == nil {
		t.Error("expected error for unknown format")
	}
}
