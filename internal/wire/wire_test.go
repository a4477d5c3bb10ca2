package wire

import (
	"bytes"
	"errors"
	"io"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedConn returns one scripted chunk per Read, then io.EOF.
type scriptedConn struct {
	chunks []string
	reads  int
	err    error
}

func (c *scriptedConn) Read(p []byte) (int, error) {
	if c.reads >= len(c.chunks) {
		if c.err != nil {
			return 0, c.err
		}
		return 0, io.EOF
	}
	chunk := c.chunks[c.reads]
	c.reads++
	return copy(p, chunk), nil
}

// recordingConn captures writes and close calls.
type recordingConn struct {
	bytes.Buffer
	closed   bool
	writeErr error
}

func (c *recordingConn) Write(p []byte) (int, error) {
	if c.writeErr != nil {
		return 0, c.writeErr
	}
	return c.Buffer.Write(p)
}

func (c *recordingConn) Close() error {
	c.closed = true
	return nil
}

const alertRequest = "POST /hook HTTP/1.1\r\n" +
	"Host: alarm.local\r\n" +
	"Content-Type: application/json\r\n" +
	"\r\n" +
	`{"state":"alerting"}`

func TestRead_SingleChunk(t *testing.T) {
	conn := &scriptedConn{chunks: []string{alertRequest}}

	req, err := NewReader().Read(conn)
	require.NoError(t, err)

	assert.Equal(t, "POST", req.Method)
	assert.Equal(t, []string{
		"POST /hook HTTP/1.1",
		"Host: alarm.local",
		"Content-Type: application/json",
	}, req.Headers)
	assert.Equal(t, `{"state":"alerting"}`, req.Body)
	assert.Equal(t, 1, conn.reads, "stops as soon as the marker is seen")
}

func TestRead_MarkerSplitAcrossChunks(t *testing.T) {
	head, body, _ := strings.Cut(alertRequest, marker)

	for split := 1; split < len(marker); split++ {
		t.Run(strings.Repeat("x", split), func(t *testing.T) {
			conn := &scriptedConn{chunks: []string{
				head + marker[:split],
				marker[split:] + body,
			}}

			req, err := NewReader().Read(conn)
			require.NoError(t, err)
			assert.Equal(t, "POST", req.Method)
			assert.Equal(t, body, req.Body)
			assert.Equal(t, 2, conn.reads)
		})
	}
}

func TestRead_ByteAtATime(t *testing.T) {
	chunks := make([]string, 0, len(alertRequest))
	for i := range alertRequest {
		chunks = append(chunks, alertRequest[i:i+1])
	}
	conn := &scriptedConn{chunks: chunks}

	req, err := NewReader(WithChunkSize(1)).Read(conn)
	require.NoError(t, err)

	assert.Equal(t, "POST", req.Method)
	assert.Len(t, req.Headers, 3)
	assert.Empty(t, req.Body, "bytes after the marker chunk are not awaited")
}

func TestRead_ContentLengthIgnored(t *testing.T) {
	body := `{"state":"alerting"}`

	tests := []struct {
		name   string
		length string
	}{
		{name: "understated zero", length: "0"},
		{name: "understated", length: "5"},
		{name: "overstated", length: "100"},
		{name: "not a number", length: "twenty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := &scriptedConn{chunks: []string{
				"POST / HTTP/1.1\r\nContent-Type: application/json\r\nContent-Length: " + tt.length + "\r\n\r\n" + body,
				"never read",
			}}

			req, err := NewReader().Read(conn)
			require.NoError(t, err)
			assert.Equal(t, body, req.Body, "body is everything after the marker")
			assert.Equal(t, 1, conn.reads)
		})
	}
}

func TestRead_OverstatedContentLengthDoesNotBlock(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()
	defer client.Close()

	go func() {
		// The client keeps the connection open after writing.
		client.Write([]byte("POST / HTTP/1.1\r\nContent-Length: 100\r\n\r\n{\"state\":\"alerting\"}"))
	}()

	done := make(chan *Request, 1)
	go func() {
		req, err := NewReader().Read(server)
		if err == nil {
			done <- req
		}
		close(done)
	}()

	select {
	case req, ok := <-done:
		require.True(t, ok, "read failed")
		assert.Equal(t, `{"state":"alerting"}`, req.Body)
	case <-time.After(2 * time.Second):
		t.Fatal("read still blocked after the blank-line marker arrived")
	}
}

func TestRead_EndOfStreamWithoutMarker(t *testing.T) {
	conn := &scriptedConn{chunks: []string{"POST / HTTP/1.1\r\nHost: x\r\n"}}

	_, err := NewReader().Read(conn)
	assert.ErrorIs(t, err, ErrMalformedRequest)
}

func TestRead_BareCRLFChunkStops(t *testing.T) {
	conn := &scriptedConn{chunks: []string{"\r\n", "never read"}}

	_, err := NewReader().Read(conn)
	assert.ErrorIs(t, err, ErrMalformedRequest)
	assert.Equal(t, 1, conn.reads)
}

func TestRead_HeadersEndingInCRLFChunk(t *testing.T) {
	conn := &scriptedConn{chunks: []string{"GET / HTTP/1.1\r\nHost: x\r\n", "\r\n"}}

	req, err := NewReader().Read(conn)
	require.NoError(t, err)
	assert.Equal(t, "GET", req.Method)
	assert.Empty(t, req.Body)
}

func TestRead_EmptyStream(t *testing.T) {
	_, err := NewReader().Read(&scriptedConn{})
	assert.ErrorIs(t, err, ErrMalformedRequest)
}

func TestRead_TooLarge(t *testing.T) {
	conn := &scriptedConn{chunks: []string{strings.Repeat("a", 600), strings.Repeat("a", 600)}}

	_, err := NewReader(WithChunkSize(1024), WithMaxRequestSize(1000)).Read(conn)
	assert.ErrorIs(t, err, ErrRequestTooLarge)
}

func TestRead_ConnectionError(t *testing.T) {
	boom := errors.New("connection reset")
	conn := &scriptedConn{chunks: []string{"POST / HTTP/1.1\r\n"}, err: boom}

	_, err := NewReader().Read(conn)
	assert.ErrorIs(t, err, ErrReadFailed)
	assert.ErrorIs(t, err, boom)
}

func TestRead_OverNetPipe(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()

	go func() {
		defer client.Close()
		client.Write([]byte("POST / HTTP/1.1\r\nContent-Type: application/json\r\n"))
		client.Write([]byte("\r\n{\"state\":\"idle\"}"))
	}()

	req, err := NewReader().Read(server)
	require.NoError(t, err)
	assert.Equal(t, "POST", req.Method)
}

func TestRequest_HeaderLine(t *testing.T) {
	req := &Request{Headers: []string{
		"POST / HTTP/1.1",
		"X-Content-Type: something",
		"Content-Type: application/json",
	}}

	line, ok := req.HeaderLine("Content-Type: ")
	require.True(t, ok)
	assert.Equal(t, "X-Content-Type: something", line, "first substring match in order")

	_, ok = req.HeaderLine("content-type: ")
	assert.False(t, ok, "lookup is case-sensitive")
}

func TestSplit_MethodToken(t *testing.T) {
	tests := []struct {
		text   string
		method string
	}{
		{text: "POST / HTTP/1.1\r\n\r\n", method: "POST"},
		{text: "GET /status HTTP/1.1\r\n\r\n", method: "GET"},
		{text: "POSTX / HTTP/1.1\r\n\r\n", method: "POSTX"},
		{text: "\r\n\r\n", method: ""},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			req, err := split(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.method, req.Method)
		})
	}
}

func TestEncodeStatus_RoundTrip(t *testing.T) {
	for code, text := range statusText {
		raw := string(EncodeStatus(code))

		require.True(t, strings.HasPrefix(raw, "HTTP/1.1 "), raw)
		require.True(t, strings.HasSuffix(raw, " \r\n\r\n"), raw)

		decoded := strings.TrimSuffix(strings.TrimPrefix(raw, "HTTP/1.1 "), " \r\n\r\n")
		assert.Equal(t, strconv.Itoa(code)+" "+text, decoded)
	}

	assert.Equal(t, "HTTP/1.1 204 No Content \r\n\r\n", string(EncodeStatus(204)))
}

func TestStatusTable(t *testing.T) {
	want := []int{100, 101, 200, 201, 202, 203, 204, 205, 206, 300, 301, 302, 303, 304, 305, 307}
	for c := 400; c <= 417; c++ {
		want = append(want, c)
	}
	for c := 500; c <= 505; c++ {
		want = append(want, c)
	}

	assert.Len(t, statusText, len(want))
	for _, code := range want {
		_, ok := StatusText(code)
		assert.True(t, ok, "code %d", code)
	}

	_, ok := StatusText(306)
	assert.False(t, ok)
}

func TestEncodeStatus_UnknownCodePanics(t *testing.T) {
	assert.Panics(t, func() { EncodeStatus(418) })
}

func TestSend(t *testing.T) {
	conn := &recordingConn{}

	require.NoError(t, Send(conn, 405))

	assert.Equal(t, "HTTP/1.1 405 Method Not Allowed \r\n\r\n", conn.String())
	assert.True(t, conn.closed)
}

func TestSend_ClosesOnWriteError(t *testing.T) {
	conn := &recordingConn{writeErr: io.ErrClosedPipe}

	err := Send(conn, 204)

	assert.ErrorIs(t, err, ErrWriteFailed)
	assert.ErrorIs(t, err, io.ErrClosedPipe)
	assert.True(t, conn.closed)
}

func TestSend_UnknownCodeWritesNothing(t *testing.T) {
	conn := &recordingConn{}

	assert.Panics(t, func() { _ = Send(conn, 999) })
	assert.Zero(t, conn.Len())
}
