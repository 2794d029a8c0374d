// Package events streams delivery state changes to websocket subscribers.
package events

import (
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/op/go-logging"

	"github.com/marcosistoocommon/ReoCamara/pkg/models"
)

var log = logging.MustGetLogger("events")

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const writeTimeout = 10 * time.Second

type subscriber struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans delivery events out to connected subscribers
type Hub struct {
	mu          sync.RWMutex
	subscribers map[*subscriber]struct{}
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[*subscriber]struct{}),
	}
}

// Publish sends the event to every subscriber. Slow subscribers miss events.
func (h *Hub) Publish(event models.DeliveryEvent) {
	data, err := sonic.Marshal(event)
	if err != nil {
		log.Errorf("Failed to marshal event: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subscribers {
		select {
		case sub.send <- data:
		default:
			log.Warningf("⚠️ Event buffer full for %s", sub.conn.RemoteAddr())
		}
	}
}

// Subscribers returns the number of connected subscribers
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// HandleConnection upgrades the request and streams events until the client leaves
func (h *Hub) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warningf("Failed to upgrade connection: %v", err)
		return
	}
	defer conn.Close()

	// Clear the deadline inherited from the HTTP server; events can be minutes apart.
	conn.SetReadDeadline(time.Time{})

	sub := &subscriber{conn: conn, send: make(chan []byte, 32)}
	h.add(sub)
	defer h.remove(sub)

	log.Infof("✅ Event subscriber connected from %s", conn.RemoteAddr())

	// Reader: only used to notice the client going away
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Warningf("WebSocket error: %v", err)
				}
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			log.Infof("Event subscriber %s disconnected", conn.RemoteAddr())
			return
		case data := <-sub.send:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Warningf("Failed to write event: %v", err)
				return
			}
		}
	}
}

func (h *Hub) add(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subscribers[sub] = struct{}{}
}

func (h *Hub) remove(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subscribers, sub)
}
