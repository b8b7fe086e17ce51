package chessclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
)

// A peer that stops answering pings must count as a connection failure,
// not a clean stop: the subscriber has to redial.
func TestSubscriberReconnectsAfterPingFailure(t *testing.T) {
	var dials int32
	stop := make(chan struct{})
	up := gws.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		atomic.AddInt32(&dials, 1)
		// Hold the socket open without ever reading, so pings are
		// never answered.
		<-stop
		conn.Close()
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(stop) })

	sub := NewSubscriber(srv.URL, "m1", nil)
	sub.pingInterval = 50 * time.Millisecond
	sub.pingTimeout = 100 * time.Millisecond
	sub.reconnectDelay = 50 * time.Millisecond
	sub.maxAttempts = 5

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	sub.Start(ctx)
	t.Cleanup(sub.Stop)

	deadline := time.After(5 * time.Second)
	for atomic.LoadInt32(&dials) < 2 {
		select {
		case <-deadline:
			t.Fatalf("no reconnect after ping failure, dials = %d", atomic.LoadInt32(&dials))
		case <-time.After(20 * time.Millisecond):
		}
	}
}
