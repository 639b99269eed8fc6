package sensors

import (
	"sync"

	"periph.io/x/host/v3"
)

// Ranger measures a distance in millimetres.
type Ranger interface {
	ReadMillimetres() (float64, error)
}

// Thermometer measures a temperature in °C.
type Thermometer interface {
	ReadCelsius() (float64, error)
}

// Voltmeter measures a supply voltage in volts.
type Voltmeter interface {
	ReadVolts() (float64, error)
}

var (
	hostOnce    sync.Once
	hostInitErr error
)

// initHost initializes periph drivers once per process.
func initHost() error {
	hostOnce.Do(func() {
		_, hostInitErr = host.Init()
	})
	return hostInitErr
}
