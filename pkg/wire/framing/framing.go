// Package framing reassembles complete JSON frames from a stream of raw
// byte chunks delivered at arbitrary granularity. Two framings are
// supported: newline-delimited JSON and JSON objects concatenated without
// separators. Chunk boundaries may fall anywhere, including inside a
// multi-byte character; pending bytes are buffered until they resolve.
package framing

import (
	"bytes"
	"encoding/json"
	"log/slog"
)

// Decoder turns a sequence of byte chunks into an ordered sequence of JSON
// frames. The zero value is not ready for use; call New. A Decoder belongs
// to a single stream and is not safe for concurrent use.
type Decoder struct {
	buf []byte
	log *slog.Logger
}

// New creates a Decoder. A nil logger falls back to slog.Default.
func New(logger *slog.Logger) *Decoder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Decoder{log: logger}
}

// Feed appends a chunk of bytes and returns all frames that became
// complete. Newline-delimited frames are consumed first; the newline-free
// remainder is then scanned for concatenated balanced objects. Incomplete
// trailing content stays buffered for the next call.
func (d *Decoder) Feed(p []byte) []json.RawMessage {
	d.buf = append(d.buf, p...)
	return d.drain()
}

// Finish flushes the decoder at end of stream. If buffered text remains, a
// last parse is attempted on the whole remainder; on failure the fragment
// is dropped with a warning, never an error.
func (d *Decoder) Finish() []json.RawMessage {
	frames := d.drain()

	rest := bytes.TrimSpace(d.buf)
	d.buf = nil

	if len(rest) == 0 {
		return frames
	}

	if json.Valid(rest) {
		return append(frames, json.RawMessage(bytes.Clone(rest)))
	}

	d.log.Warn("framing: dropping unterminated trailing fragment", "bytes", len(rest))

	return frames
}

func (d *Decoder) drain() []json.RawMessage {
	var frames []json.RawMessage

	// Newline framing: consume every complete line.
	for {
		i := bytes.IndexByte(d.buf, '\n')
		if i < 0 {
			break
		}

		line := bytes.TrimSpace(d.buf[:i])
		d.buf = d.buf[i+1:]

		if len(line) == 0 {
			continue
		}

		if !json.Valid(line) {
			d.log.Debug("framing: discarding malformed line", "line", string(line))
			continue
		}

		frames = append(frames, json.RawMessage(bytes.Clone(line)))
	}

	// Concatenated framing: extract balanced objects from the remainder.
	for {
		span, rest, ok := extractObject(d.buf)
		if !ok {
			break
		}
		d.buf = rest

		if json.Valid(span) {
			frames = append(frames, json.RawMessage(bytes.Clone(span)))
			continue
		}

		d.log.Debug("framing: discarding malformed object", "object", string(span))
	}

	return frames
}

// extractObject scans buf for the first balanced {...} span, tracking
// string-literal and escape state so braces and quotes inside JSON strings
// are ignored. It returns the span, the remaining buffer, and whether a
// complete span was found. Leading whitespace is skipped; a buffer that
// does not open an object, or never closes one, is left intact.
func extractObject(buf []byte) (span, rest []byte, ok bool) {
	start := 0
	for start < len(buf) && isSpace(buf[start]) {
		start++
	}

	if start == len(buf) || buf[start] != '{' {
		return nil, buf, false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(buf); i++ {
		c := buf[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return buf[start : i+1], buf[i+1:], true
			}
		}
	}

	return nil, buf, false
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}
