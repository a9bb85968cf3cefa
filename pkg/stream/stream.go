// Package stream runs one streaming exchange against the agent service and
// surfaces its decoded events live, without buffering the response. The
// underlying reader is an exclusively owned resource: it is released
// exactly once on every exit path, whether the stream completes, the
// consumer stops early, or an error occurs.
package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/germanamz/agentwire/pkg/client"
	"github.com/germanamz/agentwire/pkg/convo/message"
	"github.com/germanamz/agentwire/pkg/wire"
	"github.com/germanamz/agentwire/pkg/wire/framing"
)

// Stop is returned by an Each consumer to end the stream early. Each
// reports nil in that case; the reader is still released.
var Stop = errors.New("stream: stop")

const readBufferSize = 32 * 1024

// Session owns one streaming exchange. It feeds the frame decoder as bytes
// arrive, yields each decoded chunk to the consumer immediately, and
// collects every embedded message for later inspection.
// A Session is single-use and not safe for concurrent use.
type Session struct {
	r    io.ReadCloser
	dec  *framing.Decoder
	log  *slog.Logger
	msgs []message.Message

	closeOnce sync.Once
	closeErr  error
}

// NewSession wraps an already-open reader. A nil logger falls back to
// slog.Default. The session takes ownership of r.
func NewSession(r io.ReadCloser, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}

	return &Session{
		r:   r,
		dec: framing.New(logger),
		log: logger,
	}
}

// Open issues a streaming POST exchange and returns a live session. A
// non-2xx status is reported as *client.APIError before any parsing
// begins.
func Open(ctx context.Context, c *client.Client, path string, payload any) (*Session, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("stream: marshal payload: %w", err)
	}

	req, err := c.NewRequest(ctx, http.MethodPost, path, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/x-ndjson, application/json")

	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, &client.APIError{Status: resp.StatusCode, Body: string(body)}
	}

	return NewSession(resp.Body, nil), nil
}

// OpenWS opens the same streaming exchange over a WebSocket connection.
// The payload is written as one text message; reply frames are decoded
// through the same framing path as HTTP bodies. A normal close from the
// server ends the stream like EOF.
func OpenWS(ctx context.Context, c *client.Client, path string, payload any) (*Session, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("stream: marshal payload: %w", err)
	}

	conn, _, err := c.DialWS(ctx, path)
	if err != nil {
		return nil, err
	}

	nc := websocket.NetConn(ctx, conn, websocket.MessageText)

	if _, err := nc.Write(append(raw, '\n')); err != nil {
		_ = nc.Close()
		return nil, fmt.Errorf("stream: send request: %w", err)
	}

	return NewSession(nc, nil), nil
}

// Each reads the stream to completion, yielding every decoded chunk to fn
// as it is parsed. Returning Stop from fn ends the stream early without
// error; any other error aborts and is returned. The reader is closed on
// every exit path.
func (s *Session) Each(fn func(wire.StreamChunk) error) error {
	defer func() { _ = s.Close() }()

	buf := make([]byte, readBufferSize)

	for {
		n, rerr := s.r.Read(buf)

		if n > 0 {
			if err := s.dispatch(s.dec.Feed(buf[:n]), fn); err != nil {
				return stopToNil(err)
			}
		}

		if rerr == io.EOF {
			return stopToNil(s.dispatch(s.dec.Finish(), fn))
		}

		if rerr != nil {
			return rerr
		}
	}
}

// dispatch decodes frames into chunks, collects embedded messages, and
// forwards each chunk to fn. A frame that fails to decode is logged and
// skipped; it never fails the stream.
func (s *Session) dispatch(frames []json.RawMessage, fn func(wire.StreamChunk) error) error {
	for _, frame := range frames {
		chunk, err := wire.DecodeChunk(frame)
		if err != nil {
			s.log.Debug("stream: discarding undecodable frame", "err", err)
			continue
		}

		if chunk.Message != nil {
			s.msgs = append(s.msgs, *chunk.Message)
		}

		if err := fn(chunk); err != nil {
			return err
		}
	}

	return nil
}

// Messages returns a copy of every message embedded in chunks yielded so
// far, in arrival order.
func (s *Session) Messages() []message.Message {
	cp := make([]message.Message, len(s.msgs))
	copy(cp, s.msgs)
	return cp
}

// Close releases the underlying reader. It is idempotent; only the first
// call closes.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.r.Close()
	})
	return s.closeErr
}

func stopToNil(err error) error {
	if errors.Is(err, Stop) {
		return nil
	}
	return err
}
