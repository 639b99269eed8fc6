package sensors

import (
	"fmt"
	"time"

	"github.com/relabs-tech/sensor_hub/internal/config"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

// speedOfSound at 20°C, in cm/µs.
const speedOfSound = 0.034

// EchoToMillimetres converts the round-trip echo pulse width into a
// one-way distance.
func EchoToMillimetres(echo time.Duration) float64 {
	us := float64(echo) / float64(time.Microsecond)
	cm := us * speedOfSound / 2
	return cm * 10
}

// Ultrasonic is an HC-SR04 style trigger/echo ranger on two GPIO lines.
type Ultrasonic struct {
	name    string
	trig    gpio.PinOut
	echo    gpio.PinIn
	timeout time.Duration
}

// OpenUltrasonic resolves the configured pins and arms the echo line for
// edge detection.
func OpenUltrasonic(name string, pins config.UltrasonicPins, timeout time.Duration) (*Ultrasonic, error) {
	if err := initHost(); err != nil {
		return nil, fmt.Errorf("%s ranger: periph host init: %w", name, err)
	}
	trig := gpioreg.ByName(pins.Trig)
	if trig == nil {
		return nil, fmt.Errorf("%s ranger: trigger pin %q not found", name, pins.Trig)
	}
	echo := gpioreg.ByName(pins.Echo)
	if echo == nil {
		return nil, fmt.Errorf("%s ranger: echo pin %q not found", name, pins.Echo)
	}
	if err := echo.In(gpio.PullDown, gpio.BothEdges); err != nil {
		return nil, fmt.Errorf("%s ranger: echo pin setup: %w", name, err)
	}
	return NewUltrasonic(name, trig, echo, timeout)
}

// NewUltrasonic builds a ranger on already configured pins.
func NewUltrasonic(name string, trig gpio.PinOut, echo gpio.PinIn, timeout time.Duration) (*Ultrasonic, error) {
	if err := trig.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("%s ranger: trigger pin setup: %w", name, err)
	}
	return &Ultrasonic{name: name, trig: trig, echo: echo, timeout: timeout}, nil
}

// ReadMillimetres fires one 10µs trigger pulse and times the echo.
func (u *Ultrasonic) ReadMillimetres() (float64, error) {
	if err := u.trig.Out(gpio.Low); err != nil {
		return 0, fmt.Errorf("%s ranger: trigger: %w", u.name, err)
	}
	time.Sleep(2 * time.Microsecond)
	if err := u.trig.Out(gpio.High); err != nil {
		return 0, fmt.Errorf("%s ranger: trigger: %w", u.name, err)
	}
	time.Sleep(10 * time.Microsecond)
	if err := u.trig.Out(gpio.Low); err != nil {
		return 0, fmt.Errorf("%s ranger: trigger: %w", u.name, err)
	}

	// Rising edge starts the echo pulse, falling edge ends it.
	if !u.echo.WaitForEdge(u.timeout) {
		return 0, fmt.Errorf("%s ranger: no echo within %s", u.name, u.timeout)
	}
	start := time.Now()
	if !u.echo.WaitForEdge(u.timeout) {
		return 0, fmt.Errorf("%s ranger: echo did not end within %s", u.name, u.timeout)
	}
	return EchoToMillimetres(time.Since(start)), nil
}
