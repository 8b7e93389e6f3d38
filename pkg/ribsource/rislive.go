package ribsource

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hervehildenbrand/peer-stats/pkg/models"
)

const (
	// RISLiveURL is the WebSocket endpoint for RIS Live.
	RISLiveURL = "wss://ris-live.ripe.net/v1/ws/"

	initialReconnectDelay = 5 * time.Second
	maxReconnectDelay     = 5 * time.Minute
	reconnectBackoff      = 2.0
	pingInterval          = 30 * time.Second
	connectionTimeout     = 60 * time.Second
	writeTimeout          = 10 * time.Second
)

// LiveSource streams RoutingRecords from one or more RIS Live collectors
// over WebSocket, with automatic reconnection. Only announcements are
// emitted: a withdrawal carries no advertised prefix to count.
type LiveSource struct {
	collectors []string
	records    chan models.RoutingRecord
	done       chan struct{}
	wg         sync.WaitGroup
	running    atomic.Bool

	messagesReceived uint64
	recordsParsed    uint64
	errors           uint64
	reconnects       uint64
}

// NewLiveSource creates a source streaming from the given collectors.
func NewLiveSource(collectors []string, bufferSize int) *LiveSource {
	return &LiveSource{
		collectors: collectors,
		records:    make(chan models.RoutingRecord, bufferSize),
		done:       make(chan struct{}),
	}
}

// Records returns the record channel. It is closed by Stop.
func (s *LiveSource) Records() <-chan models.RoutingRecord {
	return s.records
}

// Err always returns nil: connection failures trigger reconnects rather
// than ending the stream.
func (s *LiveSource) Err() error {
	return nil
}

// Start connects to all collectors.
func (s *LiveSource) Start() {
	if s.running.Swap(true) {
		return
	}
	for _, collector := range s.collectors {
		s.wg.Add(1)
		go s.runLoop(collector)
	}
	log.Printf("[rislive] Started with %d collectors", len(s.collectors))
}

// Stop disconnects all collectors and closes the record channel.
func (s *LiveSource) Stop() {
	if !s.running.Swap(false) {
		return
	}
	close(s.done)
	s.wg.Wait()
	close(s.records)
	log.Printf("[rislive] Stopped")
}

// Stats returns aggregated connection statistics.
func (s *LiveSource) Stats() map[string]interface{} {
	return map[string]interface{}{
		"collectors":        s.collectors,
		"messages_received": atomic.LoadUint64(&s.messagesReceived),
		"records_parsed":    atomic.LoadUint64(&s.recordsParsed),
		"errors":            atomic.LoadUint64(&s.errors),
		"reconnects":        atomic.LoadUint64(&s.reconnects),
		"channel_len":       len(s.records),
		"channel_cap":       cap(s.records),
	}
}

func (s *LiveSource) runLoop(collector string) {
	defer s.wg.Done()

	reconnectDelay := initialReconnectDelay

	for s.running.Load() {
		err := s.connectAndStream(collector)
		if err != nil {
			atomic.AddUint64(&s.errors, 1)
			atomic.AddUint64(&s.reconnects, 1)
			log.Printf("[rislive %s] Connection error: %v, reconnecting in %v", collector, err, reconnectDelay)
		}

		select {
		case <-s.done:
			return
		case <-time.After(reconnectDelay):
			reconnectDelay = time.Duration(float64(reconnectDelay) * reconnectBackoff)
			if reconnectDelay > maxReconnectDelay {
				reconnectDelay = maxReconnectDelay
			}
		}
	}
}

func (s *LiveSource) connectAndStream(collector string) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: connectionTimeout,
	}

	log.Printf("[rislive %s] Connecting...", collector)
	conn, _, err := dialer.Dial(RISLiveURL, nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}
	defer conn.Close()

	subscribeMsg := map[string]interface{}{
		"type": "ris_subscribe",
		"data": map[string]interface{}{
			"type": "UPDATE",
			"host": collector,
		},
	}

	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(subscribeMsg); err != nil {
		return fmt.Errorf("subscribe failed: %w", err)
	}
	log.Printf("[rislive %s] Connected and subscribed", collector)

	conn.SetPongHandler(func(string) error {
		return nil
	})

	pingDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-pingDone:
				return
			case <-s.done:
				// Close connection to unblock ReadMessage
				conn.Close()
				return
			}
		}
	}()
	defer close(pingDone)

	for s.running.Load() {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read failed: %w", err)
		}

		if messageType != websocket.TextMessage {
			continue
		}
		atomic.AddUint64(&s.messagesReceived, 1)

		recs, err := ParseRISMessage(message)
		if err != nil {
			// Not all messages are updates, this is fine
			if atomic.LoadUint64(&s.messagesReceived) <= 10 {
				log.Printf("[rislive %s] Parse error: %v", collector, err)
			}
			continue
		}

		for _, rec := range recs {
			atomic.AddUint64(&s.recordsParsed, 1)
			select {
			case s.records <- rec:
			default:
				// Channel full, log occasionally
				if atomic.LoadUint64(&s.recordsParsed)%10000 == 0 {
					log.Printf("[rislive %s] Record channel full, dropping record", collector)
				}
			}
		}
	}

	return nil
}

// risMessage is the top-level envelope from RIS Live.
type risMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// risUpdateData is the BGP update payload from RIS Live.
type risUpdateData struct {
	Peer          string            `json:"peer"`
	PeerASN       json.RawMessage   `json:"peer_asn"` // can be string or number
	Path          json.RawMessage   `json:"path"`
	Announcements []risAnnouncement `json:"announcements"`
}

type risAnnouncement struct {
	Prefixes []string `json:"prefixes"`
}

// ParseRISMessage converts a RIS Live WebSocket message into routing
// records, one per announced prefix. Non-update messages yield nil.
func ParseRISMessage(data []byte) ([]models.RoutingRecord, error) {
	var msg risMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("unmarshal message: %w", err)
	}
	if msg.Type != "ris_message" {
		return nil, nil
	}

	var update risUpdateData
	if err := json.Unmarshal(msg.Data, &update); err != nil {
		return nil, fmt.Errorf("unmarshal update data: %w", err)
	}

	peerASN := parseASN(update.PeerASN)
	asPath, err := parseASPath(update.Path)
	if err != nil {
		return nil, fmt.Errorf("parse AS path: %w", err)
	}

	var recs []models.RoutingRecord
	for _, ann := range update.Announcements {
		for _, prefix := range ann.Prefixes {
			recs = append(recs, models.RoutingRecord{
				PeerIP:  update.Peer,
				PeerASN: peerASN,
				ASPath:  asPath,
				Prefix:  prefix,
			})
		}
	}
	return recs, nil
}

// parseASN parses an ASN that can be either a string or number.
func parseASN(data json.RawMessage) uint32 {
	if len(data) == 0 {
		return 0
	}

	var num uint32
	if err := json.Unmarshal(data, &num); err == nil {
		return num
	}

	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		val, _ := strconv.ParseUint(str, 10, 32)
		return uint32(val)
	}

	return 0
}

// parseASPath flattens the AS path, which may contain nested arrays for
// AS_SETs, into the space-delimited token form used by RoutingRecord.
// Input can be: [174, 3356, 65001] or [[174], [3356, 65001], 65002]
func parseASPath(data json.RawMessage) (string, error) {
	if len(data) == 0 {
		return "", nil
	}

	var simple []uint32
	if err := json.Unmarshal(data, &simple); err == nil {
		return joinPath(simple), nil
	}

	var mixed []json.RawMessage
	if err := json.Unmarshal(data, &mixed); err != nil {
		return "", fmt.Errorf("cannot parse path: %w", err)
	}

	var flat []uint32
	for _, elem := range mixed {
		var num uint32
		if err := json.Unmarshal(elem, &num); err == nil {
			flat = append(flat, num)
			continue
		}

		var nums []uint32
		if err := json.Unmarshal(elem, &nums); err == nil {
			flat = append(flat, nums...)
		}
	}
	return joinPath(flat), nil
}

func joinPath(asns []uint32) string {
	if len(asns) == 0 {
		return ""
	}
	tokens := make([]string, len(asns))
	for i, asn := range asns {
		tokens[i] = strconv.FormatUint(uint64(asn), 10)
	}
	return strings.Join(tokens, " ")
}
