package app

import (
	"bufio"
	"fmt"
	"log"
	"strings"

	"github.com/relabs-tech/sensor_hub/internal/config"
	"github.com/relabs-tech/sensor_hub/internal/report"
)

// RunConsoleSerial listens on the downstream serial link the way the
// companion controller does and prints every decoded report.
func RunConsoleSerial() error {
	cfg := config.Get()

	port, err := openSerialLink(cfg.SerialPort, cfg.SerialBaudRate)
	if err != nil {
		return err
	}
	defer port.Close()
	log.Printf("console: serial port opened on %s at %d baud", cfg.SerialPort, cfg.SerialBaudRate)

	reader := bufio.NewReader(port)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			log.Printf("console: serial read error: %v", err)
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		r, err := decodeLine(line)
		if err != nil {
			// partial lines right after opening the port are expected
			log.Printf("console: decode error: %v (line: %q)", err, line)
			continue
		}
		fmt.Println(formatReport(r))
	}
}

// decodeLine accepts either wire format: NMEA XDR sentences start with '$'.
func decodeLine(line string) (report.Report, error) {
	if strings.HasPrefix(line, "$") {
		r, err := report.DecodeXDR(line)
		if err != nil {
			return report.Report{}, fmt.Errorf("xdr: %w", err)
		}
		return r, nil
	}
	r, err := report.DecodeFixed(line)
	if err != nil {
		return report.Report{}, fmt.Errorf("fixed: %w", err)
	}
	return r, nil
}
