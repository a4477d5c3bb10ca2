// Package server runs the single-threaded accept loop.
//
// Connections are handled strictly one after another: read with a
// wire.Reader, dispatched, answered with one status line and closed. On
// Linux the listening socket is created with golang.org/x/sys/unix so the
// accept backlog matches the MAX_CON setting.
package server
