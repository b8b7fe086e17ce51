package chessclient

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/karowl/chessd/pkg/chessdto"
)

// errPingFailed marks a run ended by the keepalive, so the reconnect
// loop treats it as a connection failure rather than a clean stop.
var errPingFailed = errors.New("keepalive ping failed")

// EventHandler receives match events as they arrive.
type EventHandler func(chessdto.Event)

// Subscriber follows one match over the websocket feed, reconnecting with
// a fixed delay until stopped or the attempt budget runs out.
type Subscriber struct {
	wsURL   string
	handler EventHandler

	maxAttempts    int
	reconnectDelay time.Duration
	pingInterval   time.Duration
	pingTimeout    time.Duration

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewSubscriber builds a subscriber for matchID against baseURL (the same
// http(s) address the Client uses).
func NewSubscriber(baseURL, matchID string, handler EventHandler) *Subscriber {
	ws := strings.TrimRight(baseURL, "/")
	switch {
	case strings.HasPrefix(ws, "https://"):
		ws = "wss://" + strings.TrimPrefix(ws, "https://")
	case strings.HasPrefix(ws, "http://"):
		ws = "ws://" + strings.TrimPrefix(ws, "http://")
	}
	return &Subscriber{
		wsURL:          ws + "/ws/matches/" + matchID,
		handler:        handler,
		maxAttempts:    10,
		reconnectDelay: 3 * time.Second,
		pingInterval:   30 * time.Second,
		pingTimeout:    5 * time.Second,
		stopCh:         make(chan struct{}),
	}
}

// Start launches the feed loop. It returns immediately; events are
// delivered on an internal goroutine until Stop or ctx cancellation.
func (s *Subscriber) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		attempts := 0
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopCh:
				return
			default:
			}

			if err := s.run(ctx); err != nil && ctx.Err() == nil {
				attempts++
				if s.maxAttempts > 0 && attempts >= s.maxAttempts {
					return
				}
				if serr := sleepWithContext(ctx, s.reconnectDelay); serr != nil {
					return
				}
				continue
			}
			return
		}
	}()
}

// Stop ends the feed and waits for the internal goroutine.
func (s *Subscriber) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.wg.Wait()
}

func (s *Subscriber) run(ctx context.Context) error {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	conn, _, err := websocket.Dial(dialCtx, s.wsURL, &websocket.DialOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	cancel()
	if err != nil {
		return err
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	runCtx, cancelRun := context.WithCancelCause(ctx)
	defer cancelRun(nil)
	go func() {
		select {
		case <-s.stopCh:
			cancelRun(nil)
		case <-runCtx.Done():
		}
	}()

	// Keepalive; a dead peer cancels the run with errPingFailed so the
	// reconnect path engages instead of a clean stop.
	go func() {
		t := time.NewTicker(s.pingInterval)
		defer t.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-t.C:
				pingCtx, cancelPing := context.WithTimeout(runCtx, s.pingTimeout)
				err := conn.Ping(pingCtx)
				cancelPing()
				if err != nil {
					cancelRun(errPingFailed)
					return
				}
			}
		}
	}()

	for {
		var ev chessdto.Event
		if err := wsjson.Read(runCtx, conn, &ev); err != nil {
			if errors.Is(context.Cause(runCtx), errPingFailed) {
				return errPingFailed
			}
			if ctx.Err() != nil || runCtx.Err() != nil {
				return nil
			}
			return err
		}
		if s.handler != nil {
			s.handler(ev)
		}
	}
}
