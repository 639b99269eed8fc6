// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"
)

const radToDeg = 180.0 / math.Pi

// Pose is the filtered orientation reported downstream, in degrees.
type Pose struct {
	Pitch float64 `json:"pitch"`
	Roll  float64 `json:"roll"`
}

// Sample is one fusion cycle worth of IMU data.
// Accel may be in any consistent unit; gyro must already be in deg/s.
type Sample struct {
	AccelX float64 `json:"ax"`
	AccelY float64 `json:"ay"`
	AccelZ float64 `json:"az"`

	GyroX float64 `json:"gx"` // deg/s, drives pitch
	GyroY float64 `json:"gy"` // deg/s, drives roll
}

// SampleSource is the acquisition layer feeding the estimator.
// Ready reports whether the underlying device initialized; when it is
// false the caller must not call Next nor run the estimator for that cycle.
type SampleSource interface {
	Ready() bool
	Next() (Sample, error)
}

// ComputePoseFromAccel computes pitch and roll from accelerometer data only.
//
// Uses simple tilt formulas:
//
//	roll  = atan2(ay, az)
//	pitch = atan2(-ax, sqrt(ay² + az²))
func ComputePoseFromAccel(ax, ay, az float64) Pose {
	return Pose{
		Pitch: math.Atan2(-ax, math.Sqrt(ay*ay+az*az)) * radToDeg,
		Roll:  math.Atan2(ay, az) * radToDeg,
	}
}
