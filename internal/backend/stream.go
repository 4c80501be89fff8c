package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gorilla/websocket"

	"github.com/five82/cbzmeta/internal/comic"
)

type streamRequest struct {
	Path      string   `json:"path"`
	FileNames []string `json:"file_names"`
}

// StreamPreviews requests the previews of pageIDs over one websocket and
// passes every event to onEvent in arrival order. It returns after the
// finished event, when the server closes the stream, or when ctx ends.
func (c *Client) StreamPreviews(ctx context.Context, path string, pageIDs []string, onEvent func(comic.StreamEvent)) error {
	conn, err := c.dial(ctx, &url.URL{Path: "/api/archive/stream"})
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if err := conn.WriteJSON(streamRequest{Path: path, FileNames: pageIDs}); err != nil {
		return fmt.Errorf("send stream request: %w", err)
	}

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				c.logger.Debug("preview stream closed before finish", "path", path)
				return nil
			}
			return fmt.Errorf("read stream event: %w", err)
		}

		var ev comic.StreamEvent
		if err := json.Unmarshal(msg, &ev); err != nil {
			c.logger.Warn("skipping malformed stream event", "path", path, "error", err)
			continue
		}
		onEvent(ev)
		if ev.Kind == comic.StreamFinished {
			closeGracefully(conn)
			return nil
		}
	}
}

// dial opens a websocket to rel on the service host, switching the scheme
// to ws or wss.
func (c *Client) dial(ctx context.Context, rel *url.URL) (*websocket.Conn, error) {
	u := c.baseURL.ResolveReference(rel)
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}

	header := http.Header{}
	header.Set("User-Agent", c.userAgent)
	conn, resp, err := c.dialer.DialContext(ctx, u.String(), header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if errors.Is(err, websocket.ErrBadHandshake) && resp != nil {
			return nil, fmt.Errorf("websocket %s returned status %d", rel.Path, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", rel.Path, err)
	}
	return conn, nil
}

func closeGracefully(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteMessage(websocket.CloseMessage, msg)
}
