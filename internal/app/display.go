package app

import (
	"fmt"
	"image"
	"log"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/sensor_hub/internal/report"
)

// DisplaySink mirrors the latest report on an SSD1306 OLED.
// Redraws are throttled to the configured update interval.
type DisplaySink struct {
	bus      i2c.BusCloser
	dev      *ssd1306.Dev
	interval time.Duration
	last     time.Time
}

// OpenDisplay opens the default I2C bus and shows the splash screen.
func OpenDisplay(interval time.Duration) (*DisplaySink, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph: %w", err)
	}

	bus, err := i2creg.Open("")
	if err != nil {
		return nil, fmt.Errorf("failed to open I2C bus: %w", err)
	}

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("failed to initialize display: %w", err)
	}
	log.Println("display: initialized")

	d := &DisplaySink{bus: bus, dev: dev, interval: interval}
	if err := dev.Draw(dev.Bounds(), renderSplash(), image.Point{}); err != nil {
		log.Printf("display: error showing splash: %v", err)
	}
	return d, nil
}

// Publish implements Sink.
func (d *DisplaySink) Publish(r report.Report) error {
	if !d.last.IsZero() && r.Time.Sub(d.last) < d.interval {
		return nil
	}
	d.last = r.Time
	return d.dev.Draw(d.dev.Bounds(), renderReport(r), image.Point{})
}

// Close blanks the panel and releases the bus.
func (d *DisplaySink) Close() error {
	if err := d.dev.Halt(); err != nil {
		d.bus.Close()
		return err
	}
	return d.bus.Close()
}

func newFrame() (*image1bit.VerticalLSB, *font.Drawer) {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 128, 64))
	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	return img, drawer
}

func drawLine(d *font.Drawer, x, y int, s string) {
	d.Dot = fixed.P(x, y)
	d.DrawString(s)
}

// renderReport lays out orientation and the nearest obstacles on a 128x64 frame.
func renderReport(r report.Report) *image1bit.VerticalLSB {
	img, drawer := newFrame()

	if !r.Pitch.Valid {
		drawLine(drawer, 0, 13, "Orientation")
		drawLine(drawer, 0, 26, "Waiting...")
	} else {
		drawLine(drawer, 0, 13, fmt.Sprintf("P: %6.1f", r.Pitch.Value))
		drawLine(drawer, 0, 26, fmt.Sprintf("R: %6.1f", r.Roll.Value))
	}

	drawLine(drawer, 0, 39, "F "+shortRange(r.TofFront)+" B "+shortRange(r.TofBack))
	drawLine(drawer, 0, 52, "L "+shortRange(r.SideLeft)+" R "+shortRange(r.SideRight))
	if r.Temperature.Valid {
		drawLine(drawer, 0, 64, fmt.Sprintf("T %.1fC", r.Temperature.Value))
	}
	return img
}

// shortRange prints a distance in cm, or dashes when unavailable.
func shortRange(v report.Reading) string {
	if !v.Valid {
		return "----"
	}
	return fmt.Sprintf("%4.0f", v.Value/10)
}

func renderSplash() *image1bit.VerticalLSB {
	img, drawer := newFrame()
	drawLine(drawer, 15, 26, "Sensor Hub")
	drawLine(drawer, 10, 43, "Waiting for")
	drawLine(drawer, 25, 56, "sensors")
	return img
}
