package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/sidingsmedia/alarm/internal/wire"
)

const (
	statusBadRequest      = 400
	statusRequestTooLarge = 413

	// acceptBackoff is the pause after a transient accept failure.
	acceptBackoff = 50 * time.Millisecond
)

// Dispatcher maps a parsed request to a status code.
type Dispatcher interface {
	Dispatch(ctx context.Context, req *wire.Request) int
}

// RequestObserver is told the outcome of every connection. A status of
// zero means the connection was closed without a response.
type RequestObserver interface {
	ObserveRequest(status int, elapsed time.Duration)
}

// Logger is the logging interface used by the server.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Option configures a Server.
type Option func(*Server)

// WithReader replaces the default request reader.
func WithReader(r *wire.Reader) Option {
	return func(s *Server) { s.reader = r }
}

// WithReadTimeout sets a read deadline on every accepted connection.
// Zero leaves connections without a deadline.
func WithReadTimeout(d time.Duration) Option {
	return func(s *Server) { s.readTimeout = d }
}

// WithLogger sets the server logger.
func WithLogger(l Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithObserver adds a request observer.
func WithObserver(o RequestObserver) Option {
	return func(s *Server) {
		if o != nil {
			s.observers = append(s.observers, o)
		}
	}
}

// Server answers one request per connection, one connection at a time.
type Server struct {
	ln          net.Listener
	dispatcher  Dispatcher
	reader      *wire.Reader
	readTimeout time.Duration
	observers   []RequestObserver
	logger      Logger
}

// New creates a Server accepting on ln.
func New(ln net.Listener, d Dispatcher, opts ...Option) *Server {
	s := &Server{
		ln:         ln,
		dispatcher: d,
		reader:     wire.NewReader(),
		logger:     noopLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Addr returns the listener address.
func (s *Server) Addr() net.Addr {
	return s.ln.Addr()
}

// Serve accepts connections until ctx is cancelled, then closes the
// listener and returns nil. Each connection is read, dispatched and
// answered before the next is accepted.
func (s *Server) Serve(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-gctx.Done()
		if err := s.ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			return fmt.Errorf("closing listener: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return s.acceptLoop(gctx)
	})

	s.logger.Info("waiting for requests", "addr", s.ln.Addr().String())
	return g.Wait()
}

func (s *Server) acceptLoop(ctx context.Context) error {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return fmt.Errorf("%w: %w", ErrListenerClosed, err)
			}
			s.logger.Warn("accept failed", "error", err)
			time.Sleep(acceptBackoff)
			continue
		}

		s.handle(ctx, conn)
	}
}

// handle serves a single connection and always closes it.
func (s *Server) handle(ctx context.Context, conn net.Conn) {
	start := time.Now()
	id := uuid.New().String()
	remote := conn.RemoteAddr().String()
	s.logger.Info("got connection", "request_id", id, "remote", remote)

	if s.readTimeout > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(s.readTimeout)); err != nil {
			s.logger.Warn("could not set read deadline", "request_id", id, "error", err)
		}
	}

	var code int
	req, err := s.reader.Read(conn)
	switch {
	case errors.Is(err, wire.ErrRequestTooLarge):
		s.logger.Info("request too large", "request_id", id)
		code = statusRequestTooLarge
	case errors.Is(err, wire.ErrMalformedRequest):
		s.logger.Info("malformed request", "request_id", id)
		code = statusBadRequest
	case err != nil:
		s.logger.Error("failed to read request", "request_id", id, "error", err)
		_ = conn.Close()
		s.observe(0, time.Since(start))
		return
	default:
		code = s.dispatcher.Dispatch(ctx, req)
	}

	if err := wire.Send(conn, code); err != nil {
		s.logger.Warn("failed to send response", "request_id", id, "status", code, "error", err)
	} else {
		s.logger.Debug("closed connection", "request_id", id, "status", code)
	}
	s.observe(code, time.Since(start))
}

func (s *Server) observe(status int, elapsed time.Duration) {
	for _, o := range s.observers {
		o.ObserveRequest(status, elapsed)
	}
}
