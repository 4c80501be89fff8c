package natsevents

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/cbzmeta/internal/comic"
)

type fakeConn struct {
	mu       sync.Mutex
	handlers map[string]func([]byte)
	unsubErr error
	closed   bool
}

func (f *fakeConn) Subscribe(subject string, handler func([]byte)) (func() error, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.handlers == nil {
		f.handlers = make(map[string]func([]byte))
	}
	f.handlers[subject] = handler
	return func() error {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.handlers, subject)
		return f.unsubErr
	}, nil
}

func (f *fakeConn) Close() { f.closed = true }

func (f *fakeConn) deliver(subject, data string) {
	f.mu.Lock()
	h := f.handlers[subject]
	f.mu.Unlock()
	if h != nil {
		h([]byte(data))
	}
}

func TestSubject(t *testing.T) {
	tests := []struct {
		prefix string
		want   string
	}{
		{"", "cbz.reload-archive"},
		{"  ", "cbz.reload-archive"},
		{"comics", "comics.reload-archive"},
		{"lib.comics.", "lib.comics.reload-archive"},
	}
	for _, tt := range tests {
		e := newEvents(&fakeConn{}, tt.prefix, nil)
		assert.Equal(t, tt.want, e.Subject(comic.EventReloadArchive), "prefix %q", tt.prefix)
	}
}

func TestSubscribeDeliversPaths(t *testing.T) {
	conn := &fakeConn{}
	e := newEvents(conn, "", nil)

	var got []string
	unsubscribe, err := e.Subscribe(context.Background(), comic.EventArchiveCreated, func(p string) {
		got = append(got, p)
	})
	require.NoError(t, err)

	conn.deliver("cbz.archive-created", "/c/a.cbz")
	conn.deliver("cbz.reload-archive", "/c/b.cbz")
	assert.Equal(t, []string{"/c/a.cbz"}, got)

	conn.unsubErr = errors.New("connection closed")
	unsubscribe()
	unsubscribe()
	assert.Empty(t, conn.handlers)

	e.Close()
	assert.True(t, conn.closed)
}

func TestHandlerSuppressedAfterUnsubscribe(t *testing.T) {
	conn := &fakeConn{}
	e := newEvents(conn, "", nil)

	calls := 0
	unsubscribe, err := e.Subscribe(context.Background(), comic.EventReloadArchive, func(string) { calls++ })
	require.NoError(t, err)

	conn.mu.Lock()
	late := conn.handlers["cbz.reload-archive"]
	conn.mu.Unlock()

	unsubscribe()
	late([]byte("/c/a.cbz"))
	assert.Zero(t, calls)
}

func TestConnectFailure(t *testing.T) {
	orig := natsConnectFunc
	defer func() { natsConnectFunc = orig }()

	natsConnectFunc = func(url string, _ ...nats.Option) (*nats.Conn, error) {
		assert.Equal(t, nats.DefaultURL, url)
		return nil, errors.New("connection refused")
	}

	_, err := Connect("", "", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}
