package wire

import "strings"

// Line terminator and the blank-line marker separating headers from body.
const (
	crlf   = "\r\n"
	marker = "\r\n\r\n"
)

// Request is one raw HTTP request as read off a connection.
type Request struct {
	// Method is the leading token of the request line.
	Method string

	// Headers holds the raw header block lines in arrival order,
	// starting with the request line.
	Headers []string

	// Body is everything after the blank-line marker.
	Body string
}

// HeaderLine returns the first header line containing substr.
// The match is a case-sensitive substring search.
func (r *Request) HeaderLine(substr string) (string, bool) {
	for _, line := range r.Headers {
		if strings.Contains(line, substr) {
			return line, true
		}
	}
	return "", false
}

// split turns accumulated request text into a Request.
func split(text string) (*Request, error) {
	head, body, ok := strings.Cut(text, marker)
	if !ok {
		return nil, ErrMalformedRequest
	}

	headers := strings.Split(head, crlf)

	var method string
	if fields := strings.Fields(headers[0]); len(fields) > 0 {
		method = fields[0]
	}

	return &Request{
		Method:  method,
		Headers: headers,
		Body:    body,
	}, nil
}
