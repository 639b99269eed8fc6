package sensors

import (
	"fmt"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/bmxx80"
)

// BMP280 reads the board temperature from a BMP280/BME280 on SPI.
type BMP280 struct {
	port spi.PortCloser
	dev  *bmxx80.Dev
}

// OpenBMP280 opens the sensor on the given SPI device.
func OpenBMP280(spiDev string) (*BMP280, error) {
	if err := initHost(); err != nil {
		return nil, fmt.Errorf("BMP: periph host init: %w", err)
	}

	bus, err := spireg.Open(spiDev)
	if err != nil {
		return nil, fmt.Errorf("BMP SPI open (%s): %w", spiDev, err)
	}

	dev, err := bmxx80.NewSPI(bus, &bmxx80.DefaultOpts)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("BMP init: %w", err)
	}
	return &BMP280{port: bus, dev: dev}, nil
}

// ReadCelsius implements Thermometer.
func (b *BMP280) ReadCelsius() (float64, error) {
	var e physic.Env
	if err := b.dev.Sense(&e); err != nil {
		return 0, fmt.Errorf("BMP sense: %w", err)
	}
	return e.Temperature.Celsius(), nil
}

// Close halts the sensor and releases the SPI port.
func (b *BMP280) Close() error {
	if err := b.dev.Halt(); err != nil {
		b.port.Close()
		return err
	}
	return b.port.Close()
}
