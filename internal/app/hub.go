package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/relabs-tech/sensor_hub/internal/config"
	"github.com/relabs-tech/sensor_hub/internal/orientation"
	"github.com/relabs-tech/sensor_hub/internal/report"
	"github.com/relabs-tech/sensor_hub/internal/sensors"
)

// Sensors is the acquisition layer the hub polls each cycle.
// Any nil collaborator reports its sentinel.
type Sensors struct {
	IMU orientation.SampleSource

	TofFront sensors.Ranger
	TofBack  sensors.Ranger

	// Ultrasonic rangers keyed by config slot (config.SlotSideLeft, ...).
	Ultrasonic map[string]sensors.Ranger

	Thermometer sensors.Thermometer
	Voltmeter   sensors.Voltmeter
}

// Sink receives every report the hub produces.
type Sink interface {
	Publish(r report.Report) error
}

// Hub runs the fixed-period acquisition → estimator → report loop.
// It is the only owner of the estimator.
type Hub struct {
	sensors  Sensors
	est      *orientation.Estimator
	sinks    []Sink
	interval time.Duration
	fixedDt  float64

	lastEstimate time.Time
	cycles       int
}

// NewHub creates a hub. When fixedDt is 0 the filter time step is the
// measured time since the previous estimate; the first estimate uses interval.
func NewHub(s Sensors, est *orientation.Estimator, interval time.Duration, fixedDt float64, sinks ...Sink) *Hub {
	return &Hub{
		sensors:  s,
		est:      est,
		sinks:    sinks,
		interval: interval,
		fixedDt:  fixedDt,
	}
}

// dt returns the filter time step for an estimate at t.
func (h *Hub) dt(t time.Time) float64 {
	if h.fixedDt > 0 {
		return h.fixedDt
	}
	if h.lastEstimate.IsZero() {
		return h.interval.Seconds()
	}
	return t.Sub(h.lastEstimate).Seconds()
}

// Cycle reads every sensor once, runs the estimator if the IMU is ready
// and returns the report for tick t.
func (h *Hub) Cycle(t time.Time) report.Report {
	r := report.Report{Time: t}

	r.TofFront = readRange("tof_front", h.sensors.TofFront)
	r.TofBack = readRange("tof_back", h.sensors.TofBack)

	us := h.sensors.Ultrasonic
	r.SideLeft = readRange("side_left", us[config.SlotSideLeft])
	r.SideRight = readRange("side_right", us[config.SlotSideRight])
	r.FrontLeft = readRange("front_left", us[config.SlotFrontLeft])
	r.FrontRight = readRange("front_right", us[config.SlotFrontRight])
	r.FrontDown = readRange("front_down", us[config.SlotFrontDown])

	// The estimator only ever sees validated samples; otherwise the
	// orientation slots keep their sentinel for this cycle.
	if imu := h.sensors.IMU; imu != nil && imu.Ready() {
		sample, err := imu.Next()
		if err != nil {
			log.Printf("hub: IMU read error: %v", err)
		} else {
			pose := h.est.Estimate(sample, h.dt(t))
			h.lastEstimate = t
			r.Pitch = report.Measured(pose.Pitch)
			r.Roll = report.Measured(pose.Roll)
		}
	}

	if th := h.sensors.Thermometer; th != nil {
		if c, err := th.ReadCelsius(); err != nil {
			log.Printf("hub: temperature read error: %v", err)
		} else {
			r.Temperature = report.Measured(c)
		}
	}
	if vm := h.sensors.Voltmeter; vm != nil {
		if v, err := vm.ReadVolts(); err != nil {
			log.Printf("hub: bus voltage read error: %v", err)
		} else {
			r.BusVoltage = report.Measured(v)
		}
	}

	return r
}

func readRange(name string, rg sensors.Ranger) report.Reading {
	if rg == nil {
		return report.Reading{}
	}
	mm, err := rg.ReadMillimetres()
	if err != nil {
		log.Printf("hub: %s range error: %v", name, err)
		return report.Reading{}
	}
	return report.Measured(mm)
}

func (h *Hub) publish(r report.Report) {
	for _, s := range h.sinks {
		if err := s.Publish(r); err != nil {
			log.Printf("hub: publish error (%T): %v", s, err)
		}
	}
}

// Run ticks until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) error {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	log.Printf("hub: loop started (interval=%s, dt=%s)", h.interval, h.dtMode())

	for {
		select {
		case <-ctx.Done():
			log.Printf("hub: stopping after %d cycles", h.cycles)
			return nil
		case t := <-ticker.C:
			r := h.Cycle(t)
			h.publish(r)
			h.cycles++

			if h.cycles%50 == 0 {
				st := h.est.State()
				log.Printf("hub: %s cycle %d: pitch=%s roll=%s bias=(%.3f, %.3f)°/s P00=%.5f",
					t.Format(time.RFC3339), h.cycles, fmtReading(r.Pitch), fmtReading(r.Roll),
					st.PitchBias, st.RollBias, st.P[0][0])
			}
		}
	}
}

func (h *Hub) dtMode() string {
	if h.fixedDt > 0 {
		return time.Duration(h.fixedDt * float64(time.Second)).String()
	}
	return "measured"
}

// openSensors brings up every configured sensor. A sensor that fails to
// open is logged and left nil so its slot reports the sentinel.
func openSensors(cfg *config.Config) (Sensors, func()) {
	var closers []func() error
	s := Sensors{Ultrasonic: make(map[string]sensors.Ranger)}

	s.IMU = sensors.OpenIMU(cfg)

	timeout := time.Duration(cfg.UltrasonicTimeout) * time.Millisecond
	for _, slot := range config.UltrasonicSlots {
		pins, ok := cfg.Ultrasonic[slot]
		if !ok {
			continue
		}
		u, err := sensors.OpenUltrasonic(slot, pins, timeout)
		if err != nil {
			log.Printf("hub: WARNING: ultrasonic %s not available: %v", slot, err)
			continue
		}
		s.Ultrasonic[slot] = u
		log.Printf("hub: ultrasonic %s on trig=%s echo=%s", slot, pins.Trig, pins.Echo)
	}

	if cfg.BMPSPIDevice != "" {
		bmp, err := sensors.OpenBMP280(cfg.BMPSPIDevice)
		if err != nil {
			log.Printf("hub: WARNING: BMP not available: %v", err)
		} else {
			s.Thermometer = bmp
			closers = append(closers, bmp.Close)
		}
	}

	return s, func() {
		for _, c := range closers {
			if err := c(); err != nil {
				log.Printf("hub: close error: %v", err)
			}
		}
	}
}

// RunHub wires the sensors, the estimator and every configured sink and
// runs the loop until SIGINT or SIGTERM.
func RunHub() error {
	cfg := config.Get()

	enc, err := report.NewEncoder(cfg.ReportFormat)
	if err != nil {
		return err
	}

	link, err := openSerialLink(cfg.SerialPort, cfg.SerialBaudRate)
	if err != nil {
		return err
	}
	defer link.Close()
	log.Printf("hub: downstream link on %s at %d baud (%s)", cfg.SerialPort, cfg.SerialBaudRate, cfg.ReportFormat)

	sinks := []Sink{NewSerialSink(link, enc)}

	if cfg.MQTTBroker != "" {
		client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDHub)
		if err != nil {
			return err
		}
		defer client.Disconnect(250)
		log.Printf("hub: publishing to MQTT broker at %s", cfg.MQTTBroker)
		sinks = append(sinks, NewMQTTSink(client, cfg.TopicPose, cfg.TopicReport))
	}

	if cfg.DisplayEnabled {
		d, err := OpenDisplay(time.Duration(cfg.DisplayUpdateInterval) * time.Millisecond)
		if err != nil {
			log.Printf("hub: WARNING: display not available: %v", err)
		} else {
			defer d.Close()
			sinks = append(sinks, d)
		}
	}

	s, closeSensors := openSensors(cfg)
	defer closeSensors()

	noise := orientation.Noise{QAngle: cfg.QAngle, QBias: cfg.QBias, RMeasure: cfg.RMeasure}
	est := orientation.NewEstimator(noise)
	log.Printf("hub: filter Q_angle=%g Q_bias=%g R_measure=%g", noise.QAngle, noise.QBias, noise.RMeasure)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := NewHub(s, est, time.Duration(cfg.SampleInterval)*time.Millisecond, cfg.FilterDt, sinks...)
	if err := hub.Run(ctx); err != nil {
		return fmt.Errorf("hub: %w", err)
	}
	return nil
}
