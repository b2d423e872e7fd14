package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/websocket"

	"revostream/internal/api"
)

// EventOptions controls the websocket event stream.
type EventOptions struct {
	// Replay requests buffered journal entries above Since before live ones.
	Replay bool
	Since  uint64
}

// Events streams daemon events to handle until ctx ends, the daemon closes
// the stream, or handle returns an error.
func (c *Client) Events(ctx context.Context, opts EventOptions, handle func(api.Event) error) error {
	if c == nil {
		return ErrUnavailable
	}
	endpoint := c.endpoint("/api/events/ws", nil)
	switch endpoint.Scheme {
	case "https":
		endpoint.Scheme = "wss"
	default:
		endpoint.Scheme = "ws"
	}
	if opts.Replay {
		endpoint.RawQuery = url.Values{"since": {strconv.FormatUint(opts.Since, 10)}}.Encode()
	}

	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, endpoint.String(), header)
	if err != nil {
		if resp != nil {
			return &Error{Status: resp.StatusCode, Message: fmt.Sprintf("event stream rejected: %s", resp.Status)}
		}
		return err
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer stop()

	for {
		var evt api.Event
		if err := conn.ReadJSON(&evt); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				return fmt.Errorf("event stream closed: %w", err)
			}
			return err
		}
		if err := handle(evt); err != nil {
			return err
		}
	}
}
