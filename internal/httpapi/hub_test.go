package httpapi

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/karowl/chessd/pkg/chessdto"
)

// Many goroutines broadcasting to one subscriber must never interleave
// frames: the hub funnels all writes through the connection's single
// writer goroutine.
func TestHubConcurrentBroadcasts(t *testing.T) {
	hub := NewHub()
	up := websocket.Upgrader{}
	subscribed := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Subscribe("m1", conn, chessdto.Event{Type: "state"})
		close(subscribed)
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	<-subscribed

	// Reader fails on any malformed or out-of-order event; a read error
	// just means the feed ended (our close below, or a lag drop).
	done := make(chan error, 1)
	go func() {
		var first chessdto.Event
		if err := conn.ReadJSON(&first); err != nil {
			done <- fmt.Errorf("snapshot read: %v", err)
			return
		}
		if first.Type != "state" {
			done <- fmt.Errorf("first event %q, want state", first.Type)
			return
		}
		for {
			var ev chessdto.Event
			if err := conn.ReadJSON(&ev); err != nil {
				done <- nil
				return
			}
			if ev.Type != "move" {
				done <- fmt.Errorf("unexpected event type %q", ev.Type)
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				hub.Broadcast("m1", chessdto.Event{Type: "move"})
			}
		}()
	}
	wg.Wait()
	conn.Close()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("subscriber feed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("subscriber never finished")
	}
}
