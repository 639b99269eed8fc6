package imu

import (
	"github.com/relabs-tech/sensor_hub/internal/orientation"
)

// IMURaw represents a single raw accel+gyro sample in sensor counts.
type IMURaw struct {
	Source string `json:"source"`

	Ax int16 `json:"ax"` // accel
	Ay int16 `json:"ay"`
	Az int16 `json:"az"`

	Gx int16 `json:"gx"` // gyro
	Gy int16 `json:"gy"`
	Gz int16 `json:"gz"`
}

// Scale holds the full-scale range codes the IMU was configured with.
// Accelerometer: 0=±2g, 1=±4g, 2=±8g, 3=±16g
// Gyroscope: 0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s
type Scale struct {
	AccelRange byte
	GyroRange  byte
}

// Counts per unit at range code 0; each step up halves the sensitivity.
const (
	accelCountsPerG   = 16384.0
	gyroCountsPerDegS = 131.0
)

// AccelLSB returns counts per g for the configured range.
func (s Scale) AccelLSB() float64 {
	return accelCountsPerG / float64(uint(1)<<(s.AccelRange&3))
}

// GyroLSB returns counts per deg/s for the configured range.
func (s Scale) GyroLSB() float64 {
	return gyroCountsPerDegS / float64(uint(1)<<(s.GyroRange&3))
}

// ToSample converts raw counts into the estimator's units:
// accel in m/s², gyro in deg/s.
func (s Scale) ToSample(r IMURaw) orientation.Sample {
	a := orientation.StandardGravity / s.AccelLSB()
	g := 1 / s.GyroLSB()
	return orientation.Sample{
		AccelX: float64(r.Ax) * a,
		AccelY: float64(r.Ay) * a,
		AccelZ: float64(r.Az) * a,
		GyroX:  float64(r.Gx) * g,
		GyroY:  float64(r.Gy) * g,
	}
}

// IMURawSource reads raw accelerometer and gyroscope counts.
type IMURawSource interface {
	ReadRaw() (IMURaw, error)
}
