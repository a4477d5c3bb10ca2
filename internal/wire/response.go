package wire

import (
	"errors"
	"fmt"
	"io"
)

// httpVersion is written on every status line.
const httpVersion = "HTTP/1.1"

// statusText is the fixed table of codes the listener may send.
var statusText = map[int]string{
	100: "Continue",
	101: "Switching Protocols",

	200: "OK",
	201: "Created",
	202: "Accepted",
	203: "Non-Authoritative Information",
	204: "No Content",
	205: "Reset Content",
	206: "Partial Content",

	300: "Multiple Choices",
	301: "Moved Permanently",
	302: "Found",
	303: "See Other",
	304: "Not Modified",
	305: "Use Proxy",
	307: "Temporary Redirect",

	400: "Bad Request",
	401: "Unauthorized",
	402: "Payment Required",
	403: "Forbidden",
	404: "Not Found",
	405: "Method Not Allowed",
	406: "Not Acceptable",
	407: "Proxy Authentication Required",
	408: "Request Timeout",
	409: "Conflict",
	410: "Gone",
	411: "Length Required",
	412: "Precondition Failed",
	413: "Request Entity Too Large",
	414: "Request-URI Too Long",
	415: "Unsupported Media Type",
	416: "Requested Range Not Satisfiable",
	417: "Expectation Failed",

	500: "Internal Server Error",
	501: "Not Implemented",
	502: "Bad Gateway",
	503: "Service Unavailable",
	504: "Gateway Timeout",
	505: "HTTP Version Not Supported",
}

// StatusText returns the reason phrase for code.
func StatusText(code int) (string, bool) {
	text, ok := statusText[code]
	return text, ok
}

// EncodeStatus renders the status line for code followed by an empty line.
//
// It panics if code is not in the status table: every code the listener
// sends is chosen by this program, so an unknown one is a bug.
func EncodeStatus(code int) []byte {
	text, ok := statusText[code]
	if !ok {
		panic(fmt.Sprintf("wire: unregistered status code %d", code))
	}
	return []byte(fmt.Sprintf("%s %d %s \r\n\r\n", httpVersion, code, text))
}

// Send writes the status line for code to conn and closes conn.
//
// The connection is closed even if the write fails. Send panics for an
// unregistered code, before anything is written.
func Send(conn io.WriteCloser, code int) error {
	line := EncodeStatus(code)

	_, writeErr := conn.Write(line)
	closeErr := conn.Close()

	if err := errors.Join(writeErr, closeErr); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	return nil
}
