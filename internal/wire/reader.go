package wire

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// Reader defaults.
const (
	DefaultChunkSize      = 1024
	DefaultMaxRequestSize = 64 << 10
)

// Reader accumulates a single HTTP request from a connection.
//
// It is stateless between calls; one Reader can serve every connection.
type Reader struct {
	chunkSize int
	maxSize   int
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithChunkSize sets the size of each read. Non-positive values are ignored.
func WithChunkSize(n int) ReaderOption {
	return func(r *Reader) {
		if n > 0 {
			r.chunkSize = n
		}
	}
}

// WithMaxRequestSize caps the accumulated request. Non-positive values are ignored.
func WithMaxRequestSize(n int) ReaderOption {
	return func(r *Reader) {
		if n > 0 {
			r.maxSize = n
		}
	}
}

// NewReader creates a Reader.
func NewReader(opts ...ReaderOption) *Reader {
	r := &Reader{
		chunkSize: DefaultChunkSize,
		maxSize:   DefaultMaxRequestSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Read blocks until a complete request has been read from conn.
//
// Reading stops when the blank-line marker has been seen anywhere in the
// accumulated stream (including across chunk boundaries), when a chunk is
// exactly a bare CRLF, or when conn reports end of stream. The body is
// whatever arrived after the marker by then; header values such as
// Content-Length are not consulted.
//
// Read returns ErrMalformedRequest if the stream ended without a marker.
func (r *Reader) Read(conn io.Reader) (*Request, error) {
	buf := make([]byte, 0, r.chunkSize)
	chunk := make([]byte, r.chunkSize)

	for {
		n, err := conn.Read(chunk)
		if n > 0 {
			if len(buf)+n > r.maxSize {
				return nil, fmt.Errorf("%w: more than %d bytes", ErrRequestTooLarge, r.maxSize)
			}
			buf = append(buf, chunk[:n]...)

			// Rescan the tail of the previous chunks so a marker split
			// across reads is still found.
			start := max(len(buf)-n-(len(marker)-1), 0)
			if bytes.Contains(buf[start:], []byte(marker)) || string(chunk[:n]) == crlf {
				break
			}
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("%w: %w", ErrReadFailed, err)
		}
		if n == 0 {
			break
		}
	}

	return split(string(buf))
}
