package app

import (
	"encoding/json"
	"fmt"
	"io"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/sensor_hub/internal/report"
)

// openSerialLink opens the point-to-point UART to the companion controller (8N1).
func openSerialLink(port string, baud int) (io.ReadWriteCloser, error) {
	opts := serial.OpenOptions{
		PortName:              port,
		BaudRate:              uint(baud),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}
	link, err := serial.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open serial link %s: %w", port, err)
	}
	return link, nil
}

// SerialSink writes one encoded line per report to the downstream link.
type SerialSink struct {
	w   io.Writer
	enc report.Encoder
}

func NewSerialSink(w io.Writer, enc report.Encoder) *SerialSink {
	return &SerialSink{w: w, enc: enc}
}

// Publish implements Sink.
func (s *SerialSink) Publish(r report.Report) error {
	if _, err := s.w.Write(s.enc.Encode(r)); err != nil {
		return fmt.Errorf("serial write: %w", err)
	}
	return nil
}

// connectMQTT connects to the broker and blocks until the handshake completes.
func connectMQTT(broker, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("MQTT connect %s: %w", broker, token.Error())
	}
	return client, nil
}

// MQTTSink publishes the pose and the full report as retained JSON.
type MQTTSink struct {
	client      mqtt.Client
	topicPose   string
	topicReport string
}

func NewMQTTSink(client mqtt.Client, topicPose, topicReport string) *MQTTSink {
	return &MQTTSink{client: client, topicPose: topicPose, topicReport: topicReport}
}

// Publish implements Sink. The pose topic is only written on cycles
// where the estimator ran.
func (s *MQTTSink) Publish(r report.Report) error {
	if pose, ok := r.Pose(); ok {
		payload, err := json.Marshal(pose)
		if err != nil {
			return fmt.Errorf("json marshal error (pose): %w", err)
		}
		if token := s.client.Publish(s.topicPose, 0, true, payload); token.Wait() && token.Error() != nil {
			return fmt.Errorf("MQTT publish error (%s): %w", s.topicPose, token.Error())
		}
	}

	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("json marshal error (report): %w", err)
	}
	if token := s.client.Publish(s.topicReport, 0, true, payload); token.Wait() && token.Error() != nil {
		return fmt.Errorf("MQTT publish error (%s): %w", s.topicReport, token.Error())
	}
	return nil
}
