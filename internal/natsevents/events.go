package natsevents

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/five82/cbzmeta/internal/comic"
)

// DefaultPrefix is the subject prefix used when none is configured.
const DefaultPrefix = "cbz"

var _ comic.EventSource = (*Events)(nil)

// natsConnectFunc allows test injection.
var natsConnectFunc = nats.Connect

// subscriber is the part of a NATS connection Events needs.
type subscriber interface {
	Subscribe(subject string, handler func(data []byte)) (unsubscribe func() error, err error)
	Close()
}

type natsConn struct {
	nc *nats.Conn
}

func (c natsConn) Subscribe(subject string, handler func([]byte)) (func() error, error) {
	sub, err := c.nc.Subscribe(subject, func(m *nats.Msg) { handler(m.Data) })
	if err != nil {
		return nil, err
	}
	return sub.Unsubscribe, nil
}

func (c natsConn) Close() {
	if err := c.nc.Drain(); err != nil {
		c.nc.Close()
	}
}

// Events is a comic.EventSource over NATS subjects.
type Events struct {
	conn   subscriber
	prefix string
	logger *slog.Logger
}

// Connect dials the NATS server at url. An empty url uses nats.DefaultURL
// and an empty prefix uses DefaultPrefix.
func Connect(url, prefix string, logger *slog.Logger) (*Events, error) {
	if url == "" {
		url = nats.DefaultURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	nc, err := natsConnectFunc(url,
		nats.Name("cbzmeta"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats at %s: %w", url, err)
	}
	return newEvents(natsConn{nc: nc}, prefix, logger), nil
}

func newEvents(conn subscriber, prefix string, logger *slog.Logger) *Events {
	prefix = strings.Trim(strings.TrimSpace(prefix), ".")
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Events{conn: conn, prefix: prefix, logger: logger}
}

// Subject returns the subject event is published on.
func (e *Events) Subject(event comic.ArchiveEvent) string {
	return e.prefix + "." + string(event)
}

// Subscribe calls handler with the archive path of every message on the
// subject of event. The returned function unsubscribes; once it returns no
// further handler call starts.
func (e *Events) Subscribe(_ context.Context, event comic.ArchiveEvent, handler func(payload string)) (func(), error) {
	subject := e.Subject(event)

	var mu sync.Mutex
	closed := false
	unsubscribe, err := e.conn.Subscribe(subject, func(data []byte) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		handler(string(data))
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", subject, err)
	}
	e.logger.Debug("subscribed", "subject", subject)

	var once sync.Once
	return func() {
		once.Do(func() {
			mu.Lock()
			closed = true
			mu.Unlock()
			if err := unsubscribe(); err != nil {
				e.logger.Warn("unsubscribe", "subject", subject, "error", err)
			}
		})
	}, nil
}

// Close drains the connection.
func (e *Events) Close() {
	e.conn.Close()
}
