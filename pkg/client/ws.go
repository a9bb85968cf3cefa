package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/coder/websocket"
)

// DialWS establishes a WebSocket connection to the given path with auth and
// custom headers applied. The URL scheme is derived from BaseURL: https
// becomes wss, http becomes ws. It returns the WebSocket connection and
// the HTTP response from the handshake.
func (c *Client) DialWS(ctx context.Context, path string) (*websocket.Conn, *http.Response, error) {
	u := c.wsURL(path)

	conn, resp, err := websocket.Dial(ctx, u, &websocket.DialOptions{
		HTTPClient: c.httpClient(),
		HTTPHeader: c.wsHeaders(),
	})
	if err != nil {
		return nil, resp, fmt.Errorf("dial websocket: %w", err)
	}

	return conn, resp, nil
}
