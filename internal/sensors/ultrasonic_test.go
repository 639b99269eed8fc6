package sensors

import (
	"math"
	"strings"
	"testing"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

func TestEchoToMillimetres(t *testing.T) {
	cases := []struct {
		echo time.Duration
		want float64
	}{
		{0, 0},
		{58 * time.Microsecond, 9.86},
		{1 * time.Millisecond, 170},
		{5882 * time.Microsecond, 999.94},
	}
	for _, c := range cases {
		if got := EchoToMillimetres(c.echo); math.Abs(got-c.want) > 1e-9 {
			t.Errorf("EchoToMillimetres(%s) = %v, want %v", c.echo, got, c.want)
		}
	}
}

func TestUltrasonicTimesEcho(t *testing.T) {
	trig := &gpiotest.Pin{N: "TRIG"}
	echo := &gpiotest.Pin{N: "ECHO", EdgesChan: make(chan gpio.Level, 2)}
	u, err := NewUltrasonic("front_down", trig, echo, 50*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}

	echo.EdgesChan <- gpio.High
	echo.EdgesChan <- gpio.Low
	mm, err := u.ReadMillimetres()
	if err != nil {
		t.Fatalf("ReadMillimetres: %v", err)
	}
	if mm < 0 || mm > 1000 {
		t.Fatalf("distance %v mm out of range for an immediate echo", mm)
	}
	if trig.Read() != gpio.Low {
		t.Fatal("trigger left high after the pulse")
	}
}

func TestUltrasonicNoEcho(t *testing.T) {
	trig := &gpiotest.Pin{N: "TRIG"}
	echo := &gpiotest.Pin{N: "ECHO", EdgesChan: make(chan gpio.Level)}
	u, err := NewUltrasonic("side_left", trig, echo, 5*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	_, err = u.ReadMillimetres()
	if err == nil || !strings.Contains(err.Error(), "no echo") {
		t.Fatalf("err = %v, want no echo timeout", err)
	}
}
