package imu

import (
	"math"
	"testing"

	"github.com/relabs-tech/sensor_hub/internal/orientation"
)

func TestToSample(t *testing.T) {
	cases := []struct {
		name  string
		scale Scale
		raw   IMURaw
		want  orientation.Sample
	}{
		{
			name:  "1g on Z at ±2g, 1°/s on X at ±250°/s",
			scale: Scale{AccelRange: 0, GyroRange: 0},
			raw:   IMURaw{Az: 16384, Gx: 131},
			want:  orientation.Sample{AccelZ: orientation.StandardGravity, GyroX: 1},
		},
		{
			name:  "±16g and ±2000°/s",
			scale: Scale{AccelRange: 3, GyroRange: 3},
			raw:   IMURaw{Ax: -2048, Ay: 1024, Gx: 164, Gy: -328},
			want: orientation.Sample{
				AccelX: -orientation.StandardGravity,
				AccelY: orientation.StandardGravity / 2,
				GyroX:  10.01526717557252,
				GyroY:  -20.03053435114504,
			},
		},
	}
	for _, c := range cases {
		got := c.scale.ToSample(c.raw)
		if !near(got.AccelX, c.want.AccelX) || !near(got.AccelY, c.want.AccelY) || !near(got.AccelZ, c.want.AccelZ) ||
			!near(got.GyroX, c.want.GyroX) || !near(got.GyroY, c.want.GyroY) {
			t.Errorf("%s: got %+v, want %+v", c.name, got, c.want)
		}
	}
}

func TestScaleLSB(t *testing.T) {
	for code, want := range []float64{16384, 8192, 4096, 2048} {
		if got := (Scale{AccelRange: byte(code)}).AccelLSB(); got != want {
			t.Errorf("accel range %d: %v counts/g, want %v", code, got, want)
		}
	}
	for code, want := range []float64{131, 65.5, 32.75, 16.375} {
		if got := (Scale{GyroRange: byte(code)}).GyroLSB(); got != want {
			t.Errorf("gyro range %d: %v counts/°/s, want %v", code, got, want)
		}
	}
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }
