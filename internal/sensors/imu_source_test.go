package sensors

import (
	"errors"
	"testing"

	"github.com/relabs-tech/sensor_hub/internal/config"
	"github.com/relabs-tech/sensor_hub/internal/imu"
	"github.com/relabs-tech/sensor_hub/internal/orientation"
)

func TestOpenIMUWithoutDevice(t *testing.T) {
	cfg := config.Default()
	cfg.IMUCSPin = "NO_SUCH_PIN"

	s := OpenIMU(cfg)
	if s == nil {
		t.Fatal("OpenIMU returned nil")
	}
	if s.Ready() {
		t.Fatal("IMU reported ready without a chip-select pin")
	}

	var raw imu.IMURawSource = s
	if _, err := raw.ReadRaw(); !errors.Is(err, ErrIMUNotReady) {
		t.Fatalf("ReadRaw err = %v, want ErrIMUNotReady", err)
	}

	var src orientation.SampleSource = s
	if _, err := src.Next(); !errors.Is(err, ErrIMUNotReady) {
		t.Fatalf("Next err = %v, want ErrIMUNotReady", err)
	}
}
