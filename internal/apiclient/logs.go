package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"revostream/internal/api"
)

// LogQuery selects daemon log events from the stream hub.
type LogQuery struct {
	Since     uint64
	Limit     int
	Follow    bool
	Tail      bool
	Component string
}

func (q LogQuery) values() url.Values {
	values := url.Values{}
	if q.Since > 0 {
		values.Set("since", strconv.FormatUint(q.Since, 10))
	}
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Follow {
		values.Set("follow", "1")
	}
	if q.Tail {
		values.Set("tail", "1")
	}
	if strings.TrimSpace(q.Component) != "" {
		values.Set("component", q.Component)
	}
	return values
}

// Logs fetches one batch of log events. With Follow set the call blocks
// until an event arrives or ctx ends.
func (c *Client) Logs(ctx context.Context, q LogQuery) (api.LogStreamResponse, error) {
	var resp api.LogStreamResponse
	err := c.do(ctx, http.MethodGet, "/api/logs", q.values(), nil, &resp)
	return resp, err
}
