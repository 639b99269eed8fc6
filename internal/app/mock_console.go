// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"time"

	"github.com/relabs-tech/sensor_hub/internal/orientation"
)

// RunMockConsole runs the estimator against a simulated, biased and noisy
// IMU and prints the estimate next to the true attitude.
func RunMockConsole() error {
	const interval = 100 * time.Millisecond

	src := orientation.NewSimSource(orientation.SimOptions{
		Pitch:      5,
		Roll:       -3,
		GyroBiasX:  1.5,
		GyroBiasY:  -0.8,
		Sway:       10,
		AccelNoise: 0.05,
		GyroNoise:  0.2,
		Seed:       1,
		Dt:         interval.Seconds(),
	})
	est := orientation.NewEstimator(orientation.DefaultNoise())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		truth := src.Attitude(src.Elapsed())
		s, err := src.Next()
		if err != nil {
			return err
		}
		pose := est.Estimate(s, interval.Seconds())
		st := est.State()

		fmt.Printf(
			"PITCH=%6.2f (%6.2f)  ROLL=%6.2f (%6.2f)  BIAS=%5.2f %5.2f\n",
			pose.Pitch, truth.Pitch,
			pose.Roll, truth.Roll,
			st.PitchBias, st.RollBias,
		)
	}
	return nil
}
