package config

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Ultrasonic slot names, in report order.
const (
	SlotSideLeft   = "SIDE_LEFT"
	SlotSideRight  = "SIDE_RIGHT"
	SlotFrontLeft  = "FRONT_LEFT"
	SlotFrontRight = "FRONT_RIGHT"
	SlotFrontDown  = "FRONT_DOWN"
)

// UltrasonicSlots lists the ultrasonic rangers in the order they are reported.
var UltrasonicSlots = []string{SlotSideLeft, SlotSideRight, SlotFrontLeft, SlotFrontRight, SlotFrontDown}

// UltrasonicPins is the trigger/echo GPIO pair of one HC-SR04 style ranger.
type UltrasonicPins struct {
	Trig string
	Echo string
}

// Config holds all application configuration values.
type Config struct {
	// Downstream link to the companion controller
	SerialPort     string
	SerialBaudRate int
	ReportFormat   string // "fixed" or "xdr"

	// MQTT (optional; empty broker disables publishing)
	MQTTBroker          string
	MQTTClientIDHub     string
	MQTTClientIDConsole string
	MQTTClientIDWeb     string

	// Topics
	TopicPose   string
	TopicReport string

	// IMU Hardware
	IMUSPIDevice string
	IMUCSPin     string

	// IMU Sensor Ranges
	// Accelerometer: 0=±2g, 1=±4g, 2=±8g, 3=±16g
	IMUAccelRange byte
	// Gyroscope: 0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s
	IMUGyroRange byte

	// Orientation filter
	FilterDt float64 // seconds; 0 derives dt from the measured loop period
	QAngle   float64
	QBias    float64
	RMeasure float64

	// Ultrasonic rangers, keyed by slot name
	Ultrasonic        map[string]UltrasonicPins
	UltrasonicTimeout int // milliseconds

	// BMP (optional temperature)
	BMPSPIDevice string

	// Timing
	SampleInterval int // milliseconds

	// Web Server
	WebServerPort int

	// Display
	DisplayEnabled        bool
	DisplayUpdateInterval int // milliseconds
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: unexported so other packages cannot modify it without locking.
//   - configOnce: ensures InitGlobal() only runs once, even if called multiple times.
//   - configMu: RWMutex; write lock for initialization, read lock for Get().
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns the configuration used for keys absent from the file.
func Default() *Config {
	return &Config{
		SerialPort:            "/dev/serial0",
		SerialBaudRate:        9600,
		ReportFormat:          "fixed",
		MQTTClientIDHub:       "sensor-hub",
		MQTTClientIDConsole:   "sensor-hub-console",
		MQTTClientIDWeb:       "sensor-hub-web",
		TopicPose:             "hub/pose",
		TopicReport:           "hub/report",
		IMUSPIDevice:          "/dev/spidev0.0",
		IMUCSPin:              "8",
		QAngle:                0.001,
		QBias:                 0.003,
		RMeasure:              0.03,
		Ultrasonic:            map[string]UltrasonicPins{},
		UltrasonicTimeout:     30,
		SampleInterval:        100,
		WebServerPort:         8080,
		DisplayUpdateInterval: 500,
	}
}

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := Default()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	if slot, pin, ok := ultrasonicKey(key); ok {
		p := c.Ultrasonic[slot]
		if pin == "TRIG" {
			p.Trig = value
		} else {
			p.Echo = value
		}
		c.Ultrasonic[slot] = p
		return nil
	}

	switch key {
	// Downstream link
	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD_RATE":
		rate, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SERIAL_BAUD_RATE %q: %w", value, err)
		}
		c.SerialBaudRate = rate
	case "REPORT_FORMAT":
		c.ReportFormat = strings.ToLower(value)

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_HUB":
		c.MQTTClientIDHub = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value

	// Topics
	case "TOPIC_POSE":
		c.TopicPose = value
	case "TOPIC_REPORT":
		c.TopicReport = value

	// IMU Hardware
	case "IMU_SPI_DEVICE":
		c.IMUSPIDevice = value
	case "IMU_CS_PIN":
		c.IMUCSPin = value

	// IMU Sensor Ranges
	case "IMU_ACCEL_RANGE":
		rangeVal, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid IMU_ACCEL_RANGE %q: %w", value, err)
		}
		if rangeVal < 0 || rangeVal > 3 {
			return fmt.Errorf("IMU_ACCEL_RANGE must be 0-3 (0=±2g, 1=±4g, 2=±8g, 3=±16g), got %d", rangeVal)
		}
		c.IMUAccelRange = byte(rangeVal)
	case "IMU_GYRO_RANGE":
		rangeVal, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid IMU_GYRO_RANGE %q: %w", value, err)
		}
		if rangeVal < 0 || rangeVal > 3 {
			return fmt.Errorf("IMU_GYRO_RANGE must be 0-3 (0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s), got %d", rangeVal)
		}
		c.IMUGyroRange = byte(rangeVal)

	// Orientation filter
	case "FILTER_DT":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid FILTER_DT %q: %w", value, err)
		}
		c.FilterDt = v
	case "Q_ANGLE":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid Q_ANGLE %q: %w", value, err)
		}
		c.QAngle = v
	case "Q_BIAS":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid Q_BIAS %q: %w", value, err)
		}
		c.QBias = v
	case "R_MEASURE":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid R_MEASURE %q: %w", value, err)
		}
		c.RMeasure = v

	case "ULTRASONIC_TIMEOUT":
		ms, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid ULTRASONIC_TIMEOUT %q: %w", value, err)
		}
		c.UltrasonicTimeout = ms

	// BMP
	case "BMP_SPI_DEVICE":
		c.BMPSPIDevice = value

	// Timing
	case "SAMPLE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SAMPLE_INTERVAL %q: %w", value, err)
		}
		c.SampleInterval = interval

	// Web Server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		c.WebServerPort = port

	// Display
	case "DISPLAY_ENABLED":
		on, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_ENABLED %q: %w", value, err)
		}
		c.DisplayEnabled = on
	case "DISPLAY_UPDATE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_UPDATE_INTERVAL %q: %w", value, err)
		}
		c.DisplayUpdateInterval = interval

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// ultrasonicKey matches ULTRASONIC_<SLOT>_TRIG and ULTRASONIC_<SLOT>_ECHO.
func ultrasonicKey(key string) (slot, pin string, ok bool) {
	rest, found := strings.CutPrefix(key, "ULTRASONIC_")
	if !found {
		return "", "", false
	}
	for _, s := range UltrasonicSlots {
		switch rest {
		case s + "_TRIG":
			return s, "TRIG", true
		case s + "_ECHO":
			return s, "ECHO", true
		}
	}
	return "", "", false
}

// validate checks that the filter and loop settings are usable.
func (c *Config) validate() error {
	if c.SerialPort == "" {
		return fmt.Errorf("SERIAL_PORT is required")
	}
	if c.SerialBaudRate <= 0 {
		return fmt.Errorf("SERIAL_BAUD_RATE must be positive, got %d", c.SerialBaudRate)
	}
	if c.ReportFormat != "fixed" && c.ReportFormat != "xdr" {
		return fmt.Errorf("REPORT_FORMAT must be fixed or xdr, got %q", c.ReportFormat)
	}
	if c.SampleInterval <= 0 {
		return fmt.Errorf("SAMPLE_INTERVAL must be positive, got %d", c.SampleInterval)
	}
	for _, f := range []struct {
		key string
		v   float64
	}{{"FILTER_DT", c.FilterDt}, {"Q_ANGLE", c.QAngle}, {"Q_BIAS", c.QBias}, {"R_MEASURE", c.RMeasure}} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("%s must be a finite number, got %g", f.key, f.v)
		}
	}
	if c.FilterDt < 0 {
		return fmt.Errorf("FILTER_DT must not be negative, got %g", c.FilterDt)
	}
	if c.QAngle <= 0 || c.QBias <= 0 || c.RMeasure <= 0 {
		return fmt.Errorf("Q_ANGLE, Q_BIAS and R_MEASURE must be positive, got %g, %g, %g", c.QAngle, c.QBias, c.RMeasure)
	}
	if c.UltrasonicTimeout <= 0 {
		return fmt.Errorf("ULTRASONIC_TIMEOUT must be positive, got %d", c.UltrasonicTimeout)
	}
	for slot, p := range c.Ultrasonic {
		if p.Trig == "" || p.Echo == "" {
			return fmt.Errorf("ULTRASONIC_%s needs both TRIG and ECHO pins", slot)
		}
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
