// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"errors"
	"fmt"
	"log"

	"github.com/relabs-tech/sensor_hub/internal/config"
	"github.com/relabs-tech/sensor_hub/internal/imu"
	"github.com/relabs-tech/sensor_hub/internal/orientation"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/devices/v3/mpu9250"
)

// ErrIMUNotReady is returned by reads on an IMU that failed to initialize.
var ErrIMUNotReady = errors.New("IMU not initialized")

var (
	_ orientation.SampleSource = (*IMUSource)(nil)
	_ imu.IMURawSource         = (*IMUSource)(nil)
)

// IMUSource is the MPU9250 acquisition source feeding the estimator.
type IMUSource struct {
	imu     *mpu9250.MPU9250
	scale   imu.Scale
	initErr error
}

// OpenIMU initializes the MPU9250 over SPI. It never fails hard: an
// initialization error is logged and the source reports Ready() == false,
// so the hub keeps running and reports the orientation sentinel.
func OpenIMU(cfg *config.Config) *IMUSource {
	s := &IMUSource{scale: imu.Scale{AccelRange: cfg.IMUAccelRange, GyroRange: cfg.IMUGyroRange}}
	dev, err := newIMU(cfg)
	if err != nil {
		log.Printf("imu: WARNING: not available, orientation disabled: %v", err)
		s.initErr = err
		return s
	}
	s.imu = dev
	return s
}

func newIMU(cfg *config.Config) (*mpu9250.MPU9250, error) {
	if err := initHost(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}

	cs := gpioreg.ByName(cfg.IMUCSPin)
	if cs == nil {
		return nil, fmt.Errorf("CS pin %q not found", cfg.IMUCSPin)
	}

	tr, err := mpu9250.NewSpiTransport(cfg.IMUSPIDevice, cs)
	if err != nil {
		return nil, fmt.Errorf("SPI transport (%s): %w", cfg.IMUSPIDevice, err)
	}

	dev, err := mpu9250.New(*tr)
	if err != nil {
		return nil, fmt.Errorf("device creation: %w", err)
	}

	if err := dev.Init(); err != nil {
		return nil, fmt.Errorf("initialization: %w", err)
	}

	if err := dev.SetAccelRange(cfg.IMUAccelRange); err != nil {
		return nil, fmt.Errorf("set accel range: %w", err)
	}
	log.Printf("imu: accelerometer range set to %d (±%dg)", cfg.IMUAccelRange, []int{2, 4, 8, 16}[cfg.IMUAccelRange])

	if err := dev.SetGyroRange(cfg.IMUGyroRange); err != nil {
		return nil, fmt.Errorf("set gyro range: %w", err)
	}
	log.Printf("imu: gyroscope range set to %d (±%d°/s)", cfg.IMUGyroRange, []int{250, 500, 1000, 2000}[cfg.IMUGyroRange])

	// Self-test and factory offset calibration are advisory; the filter
	// estimates the remaining gyro bias itself.
	if res, err := dev.SelfTest(); err != nil {
		log.Printf("imu: WARNING: self-test failed: %v", err)
	} else {
		log.Printf("imu: self-test passed: accel dev X=%.2f%% Y=%.2f%% Z=%.2f%%, gyro dev X=%.2f%% Y=%.2f%% Z=%.2f%%",
			res.AccelDeviation.X, res.AccelDeviation.Y, res.AccelDeviation.Z,
			res.GyroDeviation.X, res.GyroDeviation.Y, res.GyroDeviation.Z)
	}
	if err := dev.Calibrate(); err != nil {
		log.Printf("imu: WARNING: calibration failed: %v", err)
	} else {
		log.Println("imu: calibration complete")
	}

	return dev, nil
}

// Ready reports whether the IMU initialized.
func (s *IMUSource) Ready() bool {
	return s.initErr == nil && s.imu != nil
}

// ReadRaw reads accelerometer and gyroscope counts.
func (s *IMUSource) ReadRaw() (imu.IMURaw, error) {
	if !s.Ready() {
		return imu.IMURaw{}, ErrIMUNotReady
	}

	ax, err := s.imu.GetAccelerationX()
	if err != nil {
		return imu.IMURaw{}, fmt.Errorf("IMU accel X: %w", err)
	}
	ay, err := s.imu.GetAccelerationY()
	if err != nil {
		return imu.IMURaw{}, fmt.Errorf("IMU accel Y: %w", err)
	}
	az, err := s.imu.GetAccelerationZ()
	if err != nil {
		return imu.IMURaw{}, fmt.Errorf("IMU accel Z: %w", err)
	}

	gx, err := s.imu.GetRotationX()
	if err != nil {
		return imu.IMURaw{}, fmt.Errorf("IMU gyro X: %w", err)
	}
	gy, err := s.imu.GetRotationY()
	if err != nil {
		return imu.IMURaw{}, fmt.Errorf("IMU gyro Y: %w", err)
	}
	gz, err := s.imu.GetRotationZ()
	if err != nil {
		return imu.IMURaw{}, fmt.Errorf("IMU gyro Z: %w", err)
	}

	return imu.IMURaw{
		Source: "mpu9250",
		Ax:     ax,
		Ay:     ay,
		Az:     az,
		Gx:     gx,
		Gy:     gy,
		Gz:     gz,
	}, nil
}

// Next reads one sample in estimator units (m/s², deg/s).
func (s *IMUSource) Next() (orientation.Sample, error) {
	raw, err := s.ReadRaw()
	if err != nil {
		return orientation.Sample{}, err
	}
	return s.scale.ToSample(raw), nil
}
