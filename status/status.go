// Package status streams conversion progress to preview server
// clients over websockets. A client that connects mid-conversion is
// immediately sent the latest event so its progress view never starts
// blank.
package status

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Event is one progress update of a running conversion. Stage is one
// of "load", "process" or "write". During the process stage Primitive
// names the last conditioned primitive and Done/Total count them.
// Detail carries the scene path on load and write events, and the
// error message when Failed is set.
type Event struct {
	Stage     string    `json:"stage"`
	Primitive string    `json:"primitive,omitempty"`
	Done      int       `json:"done,omitempty"`
	Total     int       `json:"total,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	Failed    bool      `json:"failed,omitempty"`
	Time      time.Time `json:"time"`
}

type subscriber struct {
	conn *websocket.Conn
	send chan []byte
}

func (s *subscriber) writePump() {
	ticker := time.NewTicker(time.Second * 30)
	defer func() {
		ticker.Stop()
		unsubscribe(s)
		s.conn.Close()
	}()
	for {
		select {
		case data, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(40 * time.Second))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Printf("[status] ws write event error: %v", err)
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(40 * time.Second))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("[status] ws write ping error: %v", err)
				return
			}
		}
	}
}

var (
	events      = make(chan *Event, 16)
	subscribers = make(map[*subscriber]bool)
	mu          sync.Mutex
	lastEvent   []byte
)

// Subscribe attaches a websocket connection to the event stream and
// replays the most recent event to it.
func Subscribe(conn *websocket.Conn) {
	s := &subscriber{conn: conn, send: make(chan []byte, 32)}
	go s.writePump()
	mu.Lock()
	defer mu.Unlock()
	subscribers[s] = true
	if lastEvent != nil {
		s.send <- lastEvent
	}
}

func unsubscribe(s *subscriber) {
	mu.Lock()
	defer mu.Unlock()
	delete(subscribers, s)
}

func init() {
	go func() {
		for e := range events {
			data, err := json.Marshal(e)
			if err != nil {
				panic(err)
			}
			mu.Lock()
			lastEvent = data
			for s := range subscribers {
				// Slow clients drop events rather than stall the
				// conversion.
				select {
				case s.send <- data:
				default:
				}
			}
			mu.Unlock()
		}
	}()
}

func publish(e *Event) {
	e.Time = time.Now()
	events <- e
}

// Loading announces that the scene at path is being parsed.
func Loading(path string) {
	publish(&Event{Stage: "load", Detail: path})
}

// Writing announces that the conditioned scene is being serialized.
func Writing(path string) {
	publish(&Event{Stage: "write", Detail: path})
}

// PrimitiveDone reports one conditioned primitive of the process stage.
func PrimitiveDone(name string, done, total int) {
	publish(&Event{Stage: "process", Primitive: name, Done: done, Total: total})
}

// Failed marks the given stage as aborted.
func Failed(stage, detail string) {
	publish(&Event{Stage: stage, Detail: detail, Failed: true})
}
