package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/sensor_hub/internal/config"
	"github.com/relabs-tech/sensor_hub/internal/orientation"
	"github.com/relabs-tech/sensor_hub/internal/report"
)

func RunConsoleMQTT() error {
	cfg := config.Get()
	if cfg.MQTTBroker == "" {
		return fmt.Errorf("console: MQTT_BROKER is not configured")
	}

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDConsole)
	if err != nil {
		return err
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	// Subscribe to orientation
	poseToken := client.Subscribe(cfg.TopicPose, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var p orientation.Pose
		if err := json.Unmarshal(msg.Payload(), &p); err != nil {
			log.Printf("console: pose unmarshal error: %v", err)
			return
		}

		fmt.Printf("[POSE] PITCH=%6.2f  ROLL=%6.2f\n", p.Pitch, p.Roll)
	})
	poseToken.Wait()
	if poseToken.Error() != nil {
		return poseToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicPose)

	// Subscribe to the full report
	reportToken := client.Subscribe(cfg.TopicReport, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var r report.Report
		if err := json.Unmarshal(msg.Payload(), &r); err != nil {
			log.Printf("console: report unmarshal error: %v", err)
			return
		}
		fmt.Println(formatReport(r))
	})
	reportToken.Wait()
	if reportToken.Error() != nil {
		return reportToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicReport)

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}

// formatReport renders one report as a single human readable line.
func formatReport(r report.Report) string {
	return fmt.Sprintf(
		"[RPT ] tof=%s/%s side=%s/%s front=%s/%s down=%s  pitch=%s roll=%s  temp=%s vbus=%s",
		fmtReading(r.TofFront), fmtReading(r.TofBack),
		fmtReading(r.SideLeft), fmtReading(r.SideRight),
		fmtReading(r.FrontLeft), fmtReading(r.FrontRight),
		fmtReading(r.FrontDown),
		fmtReading(r.Pitch), fmtReading(r.Roll),
		fmtReading(r.Temperature), fmtReading(r.BusVoltage),
	)
}

func fmtReading(v report.Reading) string {
	if !v.Valid {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", v.Value)
}
