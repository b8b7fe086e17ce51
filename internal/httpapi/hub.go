package httpapi

import (
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/karowl/chessd/internal/obslog"
	"github.com/karowl/chessd/pkg/chessdto"
)

// sendBuf bounds how far a subscriber may lag before it is dropped.
const sendBuf = 16

// subscriber owns all writes to one websocket connection. Events are
// queued on send and written by a single goroutine, which is also the
// only place the connection is unregistered and closed.
type subscriber struct {
	matchID string
	conn    *websocket.Conn
	send    chan chessdto.Event
	done    chan struct{}
	once    sync.Once
}

// stop asks the writer goroutine to shut the connection down. Safe to
// call from any goroutine, any number of times.
func (c *subscriber) stop() {
	c.once.Do(func() { close(c.done) })
}

// Hub fans match events out to websocket subscribers, grouped by match
// ID. A subscriber that fails a write or falls too far behind is
// dropped; clients are expected to reconnect.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[*subscriber]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*subscriber]struct{})}
}

// Subscribe registers conn for matchID and starts the goroutine owning
// its writes. first is delivered before any broadcast event, so the
// client always starts from a current snapshot.
func (h *Hub) Subscribe(matchID string, conn *websocket.Conn, first chessdto.Event) *subscriber {
	sub := &subscriber{
		matchID: matchID,
		conn:    conn,
		send:    make(chan chessdto.Event, sendBuf),
		done:    make(chan struct{}),
	}
	sub.send <- first

	h.mu.Lock()
	set, ok := h.subs[matchID]
	if !ok {
		set = make(map[*subscriber]struct{})
		h.subs[matchID] = set
	}
	set[sub] = struct{}{}
	h.mu.Unlock()

	go h.writeLoop(sub)
	return sub
}

// Broadcast queues ev for every subscriber of the match. A subscriber
// whose queue is full is stopped rather than allowed to stall the hub.
func (h *Hub) Broadcast(matchID string, ev chessdto.Event) {
	h.mu.RLock()
	subs := make([]*subscriber, 0, len(h.subs[matchID]))
	for sub := range h.subs[matchID] {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()

	for _, sub := range subs {
		select {
		case sub.send <- ev:
		default:
			obslog.L().Debug("ws_subscriber_lagging",
				zap.String("match_id", matchID),
			)
			sub.stop()
		}
	}
}

func (h *Hub) writeLoop(sub *subscriber) {
	defer func() {
		h.remove(sub)
		_ = sub.conn.Close()
	}()
	for {
		select {
		case <-sub.done:
			return
		case ev := <-sub.send:
			if err := sub.conn.WriteJSON(ev); err != nil {
				obslog.L().Debug("ws_write_failed",
					zap.String("match_id", sub.matchID),
					zap.Error(err),
				)
				return
			}
		}
	}
}

func (h *Hub) remove(sub *subscriber) {
	h.mu.Lock()
	if set, ok := h.subs[sub.matchID]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.subs, sub.matchID)
		}
	}
	h.mu.Unlock()
}
