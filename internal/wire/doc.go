// Package wire reads single HTTP requests off a connection and writes
// bodiless status responses.
//
// It does not build on net/http: the listener answers exactly one request
// per connection with a bare status line and then closes, so all it needs is
// the method, the raw header lines and the body.
//
//	req, err := wire.NewReader().Read(conn)
//	if err != nil {
//	    return wire.Send(conn, 400)
//	}
//	return wire.Send(conn, 204)
package wire
