package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hub_config.txt")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaultsForEmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, "# nothing but a comment\n\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SerialBaudRate != 9600 || cfg.SampleInterval != 100 || cfg.ReportFormat != "fixed" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.QAngle != 0.001 || cfg.QBias != 0.003 || cfg.RMeasure != 0.03 {
		t.Fatalf("unexpected filter defaults: %v %v %v", cfg.QAngle, cfg.QBias, cfg.RMeasure)
	}
	if cfg.FilterDt != 0 {
		t.Fatalf("FilterDt default = %v, want 0 (measured)", cfg.FilterDt)
	}
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
SERIAL_PORT = /dev/ttyUSB0
SERIAL_BAUD_RATE=115200
REPORT_FORMAT=XDR
MQTT_BROKER=tcp://localhost:1883
IMU_ACCEL_RANGE=2
IMU_GYRO_RANGE=1
FILTER_DT=0.01
Q_ANGLE=0.002
ULTRASONIC_SIDE_LEFT_TRIG=GPIO17
ULTRASONIC_SIDE_LEFT_ECHO=GPIO16
SAMPLE_INTERVAL=10
DISPLAY_ENABLED=true
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SerialPort != "/dev/ttyUSB0" || cfg.SerialBaudRate != 115200 {
		t.Errorf("serial: %q @ %d", cfg.SerialPort, cfg.SerialBaudRate)
	}
	if cfg.ReportFormat != "xdr" {
		t.Errorf("ReportFormat = %q", cfg.ReportFormat)
	}
	if cfg.IMUAccelRange != 2 || cfg.IMUGyroRange != 1 {
		t.Errorf("ranges = %d/%d", cfg.IMUAccelRange, cfg.IMUGyroRange)
	}
	if cfg.FilterDt != 0.01 || cfg.QAngle != 0.002 {
		t.Errorf("filter: dt=%v qangle=%v", cfg.FilterDt, cfg.QAngle)
	}
	want := UltrasonicPins{Trig: "GPIO17", Echo: "GPIO16"}
	if got := cfg.Ultrasonic[SlotSideLeft]; got != want {
		t.Errorf("side left pins = %+v, want %+v", got, want)
	}
	if !cfg.DisplayEnabled || cfg.SampleInterval != 10 {
		t.Errorf("display=%v interval=%d", cfg.DisplayEnabled, cfg.SampleInterval)
	}
}

func TestLoadErrors(t *testing.T) {
	cases := []struct {
		name, body, want string
	}{
		{"malformed line", "SERIAL_PORT\n", "invalid config line 1"},
		{"unknown key", "FOO=bar\n", "unknown config key"},
		{"bad range", "IMU_GYRO_RANGE=4\n", "IMU_GYRO_RANGE must be 0-3"},
		{"bad float", "Q_BIAS=abc\n", "invalid Q_BIAS"},
		{"non-positive noise", "R_MEASURE=0\n", "must be positive"},
		{"negative dt", "FILTER_DT=-0.01\n", "FILTER_DT must not be negative"},
		{"bad format", "REPORT_FORMAT=json\n", "REPORT_FORMAT must be fixed or xdr"},
		{"half a ranger", "ULTRASONIC_FRONT_DOWN_TRIG=12\n", "ULTRASONIC_FRONT_DOWN needs both"},
		{"zero interval", "SAMPLE_INTERVAL=0\n", "SAMPLE_INTERVAL must be positive"},
		{"NaN Q_ANGLE", "Q_ANGLE=NaN\n", "Q_ANGLE must be a finite number"},
		{"infinite Q_BIAS", "Q_BIAS=Inf\n", "Q_BIAS must be a finite number"},
		{"NaN R_MEASURE", "R_MEASURE=NaN\n", "R_MEASURE must be a finite number"},
		{"infinite dt", "FILTER_DT=+Inf\n", "FILTER_DT must be a finite number"},
		{"NaN dt", "FILTER_DT=NaN\n", "FILTER_DT must be a finite number"},
		{"zero ranger timeout", "ULTRASONIC_TIMEOUT=0\n", "ULTRASONIC_TIMEOUT must be positive"},
		{"negative ranger timeout", "ULTRASONIC_TIMEOUT=-5\n", "ULTRASONIC_TIMEOUT must be positive"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, c.body))
			if err == nil || !strings.Contains(err.Error(), c.want) {
				t.Fatalf("err = %v, want it to contain %q", err, c.want)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.txt")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
