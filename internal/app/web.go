package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"

	"github.com/relabs-tech/sensor_hub/internal/config"
	"github.com/relabs-tech/sensor_hub/internal/report"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsWriteTimeout bounds each push so one stalled client cannot hold the lock.
const wsWriteTimeout = time.Second

// webServer keeps the latest report and fans it out to websocket clients.
type webServer struct {
	mu           sync.RWMutex
	last         report.Report
	haveReport   bool
	clients      map[*websocket.Conn]bool
	writeTimeout time.Duration
}

func newWebServer() *webServer {
	return &webServer{clients: make(map[*websocket.Conn]bool), writeTimeout: wsWriteTimeout}
}

func (s *webServer) push(c *websocket.Conn, r report.Report) error {
	c.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	return c.WriteJSON(r)
}

// update stores r and pushes it to every connected client.
// Clients that fail the write are dropped.
func (s *webServer) update(r report.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.last = r
	s.haveReport = true
	for c := range s.clients {
		if err := s.push(c, r); err != nil {
			log.Printf("web: websocket write error: %v", err)
			c.Close()
			delete(s.clients, c)
		}
	}
}

func (s *webServer) handleOrientation(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	pose, ok := s.last.Pose()
	s.mu.RUnlock()

	if !ok {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(pose); err != nil {
		log.Printf("json encode error: %v", err)
	}
}

func (s *webServer) handleReport(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	last, ok := s.last, s.haveReport
	s.mu.RUnlock()

	if !ok {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(last); err != nil {
		log.Printf("json encode error: %v", err)
	}
}

func (s *webServer) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade error: %v", err)
		return
	}

	s.mu.Lock()
	s.clients[conn] = true
	if s.haveReport {
		if err := s.push(conn, s.last); err != nil {
			log.Printf("web: websocket write error: %v", err)
		}
	}
	s.mu.Unlock()

	// Drain until the peer goes away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.mu.Lock()
	delete(s.clients, conn)
	s.mu.Unlock()
	conn.Close()
}

func (s *webServer) routes(staticDir string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/orientation", s.handleOrientation)
	mux.HandleFunc("/api/report", s.handleReport)
	mux.HandleFunc("/ws", s.handleWS)
	mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	return mux
}

// RunWeb follows the hub's report topic and serves it over HTTP and websocket.
func RunWeb() error {
	cfg := config.Get()
	if cfg.MQTTBroker == "" {
		return fmt.Errorf("web: MQTT_BROKER is not configured")
	}

	srv := newWebServer()

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDWeb)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	log.Printf("connected to MQTT broker at %s", cfg.MQTTBroker)

	token := client.Subscribe(cfg.TopicReport, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var r report.Report
		if err := json.Unmarshal(msg.Payload(), &r); err != nil {
			log.Printf("MQTT payload unmarshal error: %v", err)
			return
		}
		srv.update(r)
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("subscribed to MQTT topic %s", cfg.TopicReport)

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	log.Printf("web server listening on %s", addr)
	return http.ListenAndServe(addr, srv.routes("web"))
}
