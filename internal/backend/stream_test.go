package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/cbzmeta/internal/comic"
)

var testUpgrader = websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

func TestStreamPreviews(t *testing.T) {
	var got streamRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/archive/stream", r.URL.Path)
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		if err := conn.ReadJSON(&got); err != nil {
			return
		}
		_ = conn.WriteJSON(comic.StreamEvent{Kind: comic.StreamStarted, TotalFiles: 2})
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"bogus"}`))
		_ = conn.WriteJSON(comic.StreamEvent{Kind: comic.StreamPreview, FileName: "001.jpg", DataBase64: "AA=="})
		_ = conn.WriteJSON(comic.StreamEvent{Kind: comic.StreamError, FileName: "002.jpg", Message: "corrupt"})
		_ = conn.WriteJSON(comic.StreamEvent{Kind: comic.StreamFinished})
		_, _, _ = conn.ReadMessage()
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var events []comic.StreamEvent
	err = c.StreamPreviews(ctx, "/c/a.cbz", []string{"001.jpg", "002.jpg"}, func(ev comic.StreamEvent) {
		events = append(events, ev)
	})
	require.NoError(t, err)

	assert.Equal(t, streamRequest{Path: "/c/a.cbz", FileNames: []string{"001.jpg", "002.jpg"}}, got)
	require.Len(t, events, 4)
	assert.Equal(t, comic.StreamEvent{Kind: comic.StreamStarted, TotalFiles: 2}, events[0])
	assert.Equal(t, "001.jpg", events[1].FileName)
	assert.Equal(t, "AA==", events[1].DataBase64)
	assert.Equal(t, comic.StreamError, events[2].Kind)
	assert.Equal(t, "corrupt", events[2].Message)
	assert.Equal(t, comic.StreamFinished, events[3].Kind)
}

func TestStreamPreviewsServerGoesAway(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		var req streamRequest
		_ = conn.ReadJSON(&req)
		_ = conn.WriteJSON(comic.StreamEvent{Kind: comic.StreamStarted, TotalFiles: 1})
		_ = conn.Close()
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	require.NoError(t, err)

	var kinds []comic.StreamEventKind
	err = c.StreamPreviews(context.Background(), "/c/a.cbz", []string{"001.jpg"}, func(ev comic.StreamEvent) {
		kinds = append(kinds, ev.Kind)
	})
	require.Error(t, err)
	assert.Equal(t, []comic.StreamEventKind{comic.StreamStarted}, kinds)
}

func TestStreamPreviewsBadHandshake(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	require.NoError(t, err)

	err = c.StreamPreviews(context.Background(), "/c/a.cbz", []string{"001.jpg"}, func(comic.StreamEvent) {
		t.Fatal("no events expected")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestSubscribeDeliversMatchingEvents(t *testing.T) {
	conns := make(chan *websocket.Conn, 1)
	var gotEvent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotEvent = r.URL.Query().Get("event")
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conns <- conn
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	require.NoError(t, err)

	var mu sync.Mutex
	var payloads []string
	unsubscribe, err := c.Subscribe(context.Background(), comic.EventReloadArchive, func(payload string) {
		mu.Lock()
		defer mu.Unlock()
		payloads = append(payloads, payload)
	})
	require.NoError(t, err)
	assert.Equal(t, string(comic.EventReloadArchive), gotEvent)

	conn := <-conns
	defer conn.Close()
	require.NoError(t, conn.WriteJSON(eventMessage{Event: comic.EventArchiveCreated, Payload: "/c/other.cbz"}))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, conn.WriteJSON(eventMessage{Event: comic.EventReloadArchive, Payload: "/c/a.cbz"}))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(payloads) == 1
	}, 2*time.Second, 10*time.Millisecond)

	unsubscribe()
	unsubscribe()

	_ = conn.WriteJSON(eventMessage{Event: comic.EventReloadArchive, Payload: "/c/late.cbz"})
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"/c/a.cbz"}, payloads)
}

func TestSubscribeDialFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	require.NoError(t, err)

	_, err = c.Subscribe(context.Background(), comic.EventReloadArchive, func(string) {})
	require.Error(t, err)
}
