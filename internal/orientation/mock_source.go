// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"
	"math/rand"
)

// StandardGravity in m/s².
const StandardGravity = 9.80665

// SimOptions describes the motion a SimSource synthesizes.
type SimOptions struct {
	Pitch float64 // static tilt, deg
	Roll  float64 // static tilt, deg

	GyroBiasX float64 // deg/s added to every gyro X reading
	GyroBiasY float64 // deg/s added to every gyro Y reading

	// Sway, when > 0, rocks the pitch by ±Sway deg and the roll by ±Sway/2 deg.
	Sway   float64
	Period float64 // seconds per sway cycle, defaults to 6

	AccelNoise float64 // stddev, m/s²
	GyroNoise  float64 // stddev, deg/s
	Seed       int64

	Dt float64 // seconds between samples, defaults to 0.01
}

// SimSource generates deterministic IMU samples for a known attitude.
// Two sources built from the same options produce identical sequences.
type SimSource struct {
	opts SimOptions
	rng  *rand.Rand
	t    float64
}

// NewSimSource creates a simulated acquisition source.
func NewSimSource(opts SimOptions) *SimSource {
	if opts.Dt <= 0 {
		opts.Dt = 0.01
	}
	if opts.Period <= 0 {
		opts.Period = 6
	}
	return &SimSource{opts: opts, rng: rand.New(rand.NewSource(opts.Seed))}
}

// Ready is always true for the simulator.
func (m *SimSource) Ready() bool { return true }

// Attitude returns the true pitch/roll at simulated time t.
func (m *SimSource) Attitude(t float64) Pose {
	w := 2 * math.Pi / m.opts.Period
	return Pose{
		Pitch: m.opts.Pitch + m.opts.Sway*math.Sin(w*t),
		Roll:  m.opts.Roll + m.opts.Sway/2*math.Cos(w*t),
	}
}

func (m *SimSource) rates(t float64) (pitchRate, rollRate float64) {
	w := 2 * math.Pi / m.opts.Period
	return m.opts.Sway * w * math.Cos(w*t), -m.opts.Sway / 2 * w * math.Sin(w*t)
}

// Next returns the sample for the current simulated instant and advances
// the clock by Dt.
func (m *SimSource) Next() (Sample, error) {
	pose := m.Attitude(m.t)
	pr, rr := m.rates(m.t)
	m.t += m.opts.Dt

	theta := pose.Pitch / radToDeg
	phi := pose.Roll / radToDeg

	// Gravity in the body frame for the inverse of ComputePoseFromAccel.
	s := Sample{
		AccelX: -StandardGravity * math.Sin(theta),
		AccelY: StandardGravity * math.Cos(theta) * math.Sin(phi),
		AccelZ: StandardGravity * math.Cos(theta) * math.Cos(phi),
		GyroX:  pr + m.opts.GyroBiasX,
		GyroY:  rr + m.opts.GyroBiasY,
	}
	if m.opts.AccelNoise > 0 {
		s.AccelX += m.rng.NormFloat64() * m.opts.AccelNoise
		s.AccelY += m.rng.NormFloat64() * m.opts.AccelNoise
		s.AccelZ += m.rng.NormFloat64() * m.opts.AccelNoise
	}
	if m.opts.GyroNoise > 0 {
		s.GyroX += m.rng.NormFloat64() * m.opts.GyroNoise
		s.GyroY += m.rng.NormFloat64() * m.opts.GyroNoise
	}
	return s, nil
}

// Elapsed is the simulated time consumed so far, in seconds.
func (m *SimSource) Elapsed() float64 { return m.t }
