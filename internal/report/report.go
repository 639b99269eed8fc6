// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package report holds the per-cycle hub report and its line encodings
// for the downstream link.
package report

import (
	"fmt"
	"time"

	"github.com/relabs-tech/sensor_hub/internal/orientation"
)

// Reading is one sensor value. Valid is false when the sensor is not
// initialized or the read failed; encoders then emit the slot's sentinel.
type Reading struct {
	Value float64 `json:"value"`
	Valid bool    `json:"valid"`
}

// Measured wraps a successfully read value.
func Measured(v float64) Reading {
	return Reading{Value: v, Valid: true}
}

// Report is everything the hub sends for one cycle.
type Report struct {
	Time time.Time `json:"time"`

	TofFront Reading `json:"tof_front_mm"`
	TofBack  Reading `json:"tof_back_mm"`

	SideLeft   Reading `json:"side_left_mm"`
	SideRight  Reading `json:"side_right_mm"`
	FrontLeft  Reading `json:"front_left_mm"`
	FrontRight Reading `json:"front_right_mm"`
	FrontDown  Reading `json:"front_down_mm"`

	Pitch Reading `json:"pitch_deg"`
	Roll  Reading `json:"roll_deg"`

	Temperature Reading `json:"temp_c"`
	BusVoltage  Reading `json:"vbus_v"`
}

// Pose returns the filtered orientation and whether it was produced this cycle.
func (r Report) Pose() (orientation.Pose, bool) {
	return orientation.Pose{Pitch: r.Pitch.Value, Roll: r.Roll.Value}, r.Pitch.Valid && r.Roll.Valid
}

// Encoder turns a report into one line for the downstream link.
type Encoder interface {
	Encode(r Report) []byte
}

// NewEncoder selects the line encoding by name.
func NewEncoder(format string) (Encoder, error) {
	switch format {
	case "", "fixed":
		return FixedEncoder{}, nil
	case "xdr":
		return XDREncoder{Talker: "HC"}, nil
	default:
		return nil, fmt.Errorf("unknown report format %q", format)
	}
}

// slot describes one report field on the wire.
type slot struct {
	name     string // XDR transducer name
	format   string // fixed-width format
	sentinel string // fixed-width value when not valid
	integer  bool   // formatted with %d

	xdrType string
	xdrUnit string
	xdrFmt  string
	xdrDiv  float64 // report unit / XDR unit

	field func(r *Report) *Reading
}

// slots is the field order of the downstream line.
var slots = []slot{
	{name: "TOF_FRONT", format: "%04d", sentinel: "9999", integer: true, xdrType: "D", xdrUnit: "M", xdrFmt: "%.3f", xdrDiv: 1000,
		field: func(r *Report) *Reading { return &r.TofFront }},
	{name: "TOF_BACK", format: "%04d", sentinel: "9999", integer: true, xdrType: "D", xdrUnit: "M", xdrFmt: "%.3f", xdrDiv: 1000,
		field: func(r *Report) *Reading { return &r.TofBack }},
	{name: "SIDE_LEFT", format: "%7.2f", sentinel: "9999.99", xdrType: "D", xdrUnit: "M", xdrFmt: "%.3f", xdrDiv: 1000,
		field: func(r *Report) *Reading { return &r.SideLeft }},
	{name: "SIDE_RIGHT", format: "%7.2f", sentinel: "9999.99", xdrType: "D", xdrUnit: "M", xdrFmt: "%.3f", xdrDiv: 1000,
		field: func(r *Report) *Reading { return &r.SideRight }},
	{name: "FRONT_LEFT", format: "%7.2f", sentinel: "9999.99", xdrType: "D", xdrUnit: "M", xdrFmt: "%.3f", xdrDiv: 1000,
		field: func(r *Report) *Reading { return &r.FrontLeft }},
	{name: "FRONT_RIGHT", format: "%7.2f", sentinel: "9999.99", xdrType: "D", xdrUnit: "M", xdrFmt: "%.3f", xdrDiv: 1000,
		field: func(r *Report) *Reading { return &r.FrontRight }},
	{name: "FRONT_DOWN", format: "%7.2f", sentinel: "9999.99", xdrType: "D", xdrUnit: "M", xdrFmt: "%.3f", xdrDiv: 1000,
		field: func(r *Report) *Reading { return &r.FrontDown }},
	{name: "PITCH", format: "%6.2f", sentinel: "999.99", xdrType: "A", xdrUnit: "D", xdrFmt: "%.2f", xdrDiv: 1,
		field: func(r *Report) *Reading { return &r.Pitch }},
	{name: "ROLL", format: "%6.2f", sentinel: "999.99", xdrType: "A", xdrUnit: "D", xdrFmt: "%.2f", xdrDiv: 1,
		field: func(r *Report) *Reading { return &r.Roll }},
	{name: "TEMP", format: "%6.2f", sentinel: "999.99", xdrType: "C", xdrUnit: "C", xdrFmt: "%.2f", xdrDiv: 1,
		field: func(r *Report) *Reading { return &r.Temperature }},
	{name: "VBUS", format: "%4.2f", sentinel: "99.99", xdrType: "U", xdrUnit: "V", xdrFmt: "%.2f", xdrDiv: 1,
		field: func(r *Report) *Reading { return &r.BusVoltage }},
}

func (s slot) fixed(v Reading) string {
	if !v.Valid {
		return s.sentinel
	}
	if s.integer {
		return fmt.Sprintf(s.format, int(v.Value))
	}
	return fmt.Sprintf(s.format, v.Value)
}
