// Package telemetry publishes periodic device heartbeats on the uplink.
package telemetry

import (
	"context"
	"encoding/json"
	"net"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Topic is the uplink topic heartbeats are published on.
const Topic = "telemetry/heartbeat"

// Publisher is the slice of the message bus the reporter needs.
type Publisher interface {
	PublishUp(topic, payload string)
	SetDeviceID(id string)
}

// Heartbeat is the uplink payload.
type Heartbeat struct {
	DeviceID   string `json:"device_id"`
	UptimeS    int64  `json:"uptime_s"`
	HeapBytes  uint64 `json:"heap_bytes"`
	Goroutines int    `json:"goroutines"`
	IP         string `json:"ip,omitempty"`
}

// Reporter emits a heartbeat at a fixed interval and stamps the bus with
// the device id so every uplink envelope carries it.
type Reporter struct {
	bus      Publisher
	interval time.Duration
	deviceID string
	started  time.Time
	log      zerolog.Logger
}

// NewReporter creates a reporter with a fresh device id.
func NewReporter(bus Publisher, interval time.Duration, log zerolog.Logger) *Reporter {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	r := &Reporter{
		bus:      bus,
		interval: interval,
		deviceID: uuid.NewString(),
		started:  time.Now(),
		log:      log.With().Str("component", "telemetry").Logger(),
	}
	bus.SetDeviceID(r.deviceID)
	return r
}

// DeviceID returns the id stamped on this device's uplink traffic.
func (r *Reporter) DeviceID() string {
	return r.deviceID
}

// Run publishes heartbeats until ctx is canceled. The first heartbeat goes
// out immediately.
func (r *Reporter) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.publish()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.publish()
		}
	}
}

func (r *Reporter) publish() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	hb := Heartbeat{
		DeviceID:   r.deviceID,
		UptimeS:    int64(time.Since(r.started).Seconds()),
		HeapBytes:  ms.HeapAlloc,
		Goroutines: runtime.NumGoroutine(),
		IP:         localIP(),
	}
	body, err := json.Marshal(hb)
	if err != nil {
		r.log.Error().Err(err).Msg("heartbeat encode")
		return
	}
	r.bus.PublishUp(Topic, string(body))
	r.log.Debug().Int64("uptime_s", hb.UptimeS).Msg("heartbeat")
}

// localIP returns the device's outbound interface address, empty when the
// network is down.
func localIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return ""
	}
	defer conn.Close()
	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return ""
	}
	return addr.IP.String()
}
