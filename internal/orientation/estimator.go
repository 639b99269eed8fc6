// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

// Noise holds the fixed Kalman tuning constants.
// All three must be positive for the filter to stay stable.
type Noise struct {
	QAngle   float64 `json:"q_angle"`   // process noise, angle
	QBias    float64 `json:"q_bias"`    // process noise, gyro bias
	RMeasure float64 `json:"r_measure"` // accelerometer measurement noise
}

// DefaultNoise returns the tuning the hub has always shipped with.
func DefaultNoise() Noise {
	return Noise{QAngle: 0.001, QBias: 0.003, RMeasure: 0.03}
}

// FilterState is everything the estimator carries between cycles.
//
// P is a single [angle, bias] covariance shared by the pitch and the roll
// axis. A strictly correct design would keep one 2x2 matrix (and one gain)
// per axis; the shared matrix keeps the deployed firmware's behaviour, within
// floating-point tolerance since the firmware computes in float32. Do not
// split it without agreeing on that change.
type FilterState struct {
	PitchAngle float64       `json:"pitch_angle"` // deg
	RollAngle  float64       `json:"roll_angle"`  // deg
	PitchBias  float64       `json:"pitch_bias"`  // deg/s
	RollBias   float64       `json:"roll_bias"`   // deg/s
	P          [2][2]float64 `json:"p"`
}

func initialState() FilterState {
	return FilterState{P: [2][2]float64{{1, 0}, {0, 1}}}
}

// Estimator fuses gyro and accelerometer samples into pitch/roll with a
// two-state (angle, bias) Kalman filter.
//
// An Estimator is not safe for concurrent use. The hub loop owns it.
type Estimator struct {
	state FilterState
	noise Noise
}

// NewEstimator returns an estimator at angle 0, bias 0, P = I.
func NewEstimator(noise Noise) *Estimator {
	return &Estimator{state: initialState(), noise: noise}
}

// Estimate runs one predict/update cycle and returns the corrected angles.
// dt is the time since the previous call in seconds. Inputs are trusted:
// NaN in the sample propagates into the state.
func (e *Estimator) Estimate(s Sample, dt float64) Pose {
	st := &e.state
	p := &st.P
	qAngle, qBias, rMeasure := e.noise.QAngle, e.noise.QBias, e.noise.RMeasure

	meas := ComputePoseFromAccel(s.AccelX, s.AccelY, s.AccelZ)

	// Predict: integrate the bias-corrected rates.
	st.PitchAngle += (s.GyroX - st.PitchBias) * dt
	st.RollAngle += (s.GyroY - st.RollBias) * dt

	p[0][0] += dt * (dt*p[1][1] - p[0][1] - p[1][0] + qAngle)
	p[0][1] -= dt * p[1][1]
	p[1][0] -= dt * p[1][1]
	p[1][1] += qBias * dt

	// Update: one gain pair serves both axes.
	yPitch := meas.Pitch - st.PitchAngle
	yRoll := meas.Roll - st.RollAngle

	sInnov := p[0][0] + rMeasure
	k0 := p[0][0] / sInnov
	k1 := p[1][0] / sInnov

	st.PitchAngle += k0 * yPitch
	st.RollAngle += k0 * yRoll
	st.PitchBias += k1 * yPitch
	st.RollBias += k1 * yRoll

	// In-place on purpose: P10 sees the new P00, P11 sees the new P01.
	p[0][0] -= k0 * p[0][0]
	p[0][1] -= k0 * p[0][1]
	p[1][0] -= k1 * p[0][0]
	p[1][1] -= k1 * p[0][1]

	return Pose{Pitch: st.PitchAngle, Roll: st.RollAngle}
}

// State returns a copy of the current filter state.
func (e *Estimator) State() FilterState {
	return e.state
}

// Noise returns the tuning the estimator was built with.
func (e *Estimator) Noise() Noise {
	return e.noise
}

// Reset puts the filter back to its initial state, keeping the tuning.
func (e *Estimator) Reset() {
	e.state = initialState()
}
