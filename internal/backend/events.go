package backend

import (
	"context"
	"encoding/json"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/five82/cbzmeta/internal/comic"
)

const (
	reconnectInterval = time.Second
	maxBackoff        = 30 * time.Second
)

type eventQuery struct {
	Event string `schema:"event"`
}

type eventMessage struct {
	Event   comic.ArchiveEvent `json:"event"`
	Payload string             `json:"payload"`
}

// Subscribe listens for event on the service's event websocket and calls
// handler with each payload. A dropped connection is re-established with
// exponential backoff until the returned function is called; that function
// blocks until the handler can no longer run.
func (c *Client) Subscribe(ctx context.Context, event comic.ArchiveEvent, handler func(payload string)) (func(), error) {
	rel, err := c.withQuery("/api/events", eventQuery{Event: string(event)})
	if err != nil {
		return nil, err
	}
	conn, err := c.dial(ctx, rel)
	if err != nil {
		return nil, err
	}

	subCtx, cancel := context.WithCancel(context.Background())
	sub := &subscription{
		client:  c,
		event:   event,
		handler: handler,
		ctx:     subCtx,
		cancel:  cancel,
		conn:    conn,
		done:    make(chan struct{}),
	}
	go sub.run(rel)
	return sub.close, nil
}

type subscription struct {
	client  *Client
	event   comic.ArchiveEvent
	handler func(string)

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once

	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *subscription) run(rel *url.URL) {
	defer close(s.done)
	logger := s.client.logger.With("event", string(s.event))

	failures := 0
	for {
		if conn := s.current(); conn != nil {
			s.read(conn)
			if s.ctx.Err() != nil {
				return
			}
			logger.Warn("event subscription lost, reconnecting")
			failures = 0
		}

		delay := calculateBackoff(failures, reconnectInterval)
		select {
		case <-s.ctx.Done():
			return
		case <-time.After(delay):
		}

		next, err := s.client.dial(s.ctx, rel)
		if err != nil {
			failures++
			logger.Debug("event subscription reconnect failed", "failures", failures, "error", err)
			s.setConn(nil)
			continue
		}
		if !s.setConn(next) {
			_ = next.Close()
			return
		}
		logger.Info("event subscription restored")
	}
}

func (s *subscription) read(conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg eventMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.client.logger.Warn("skipping malformed event", "event", string(s.event), "error", err)
			continue
		}
		if msg.Event != "" && msg.Event != s.event {
			continue
		}
		if s.ctx.Err() != nil {
			return
		}
		s.handler(msg.Payload)
	}
}

func (s *subscription) current() *websocket.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn
}

// setConn installs conn unless the subscription was closed meanwhile.
func (s *subscription) setConn(conn *websocket.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx.Err() != nil {
		return false
	}
	s.conn = conn
	return true
}

func (s *subscription) close() {
	s.once.Do(func() {
		s.mu.Lock()
		s.cancel()
		conn := s.conn
		s.mu.Unlock()
		if conn != nil {
			closeGracefully(conn)
			_ = conn.Close()
		}
		<-s.done
	})
}

// calculateBackoff doubles interval per consecutive failure, capped at
// maxBackoff.
func calculateBackoff(failures int, interval time.Duration) time.Duration {
	if failures <= 0 {
		return interval
	}
	backoff := interval
	for i := 0; i < failures; i++ {
		backoff *= 2
		if backoff >= maxBackoff {
			return maxBackoff
		}
	}
	return backoff
}
