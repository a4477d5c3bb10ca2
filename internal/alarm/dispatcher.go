package alarm

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/sidingsmedia/alarm/internal/buzzer"
	"github.com/sidingsmedia/alarm/internal/wire"
)

// Status codes produced by Dispatch.
const (
	StatusNoContent        = 204
	StatusBadRequest       = 400
	StatusMethodNotAllowed = 405
	StatusInternalError    = 500
)

// StateAlerting is the state value that sounds the buzzer.
const StateAlerting = "alerting"

const (
	contentTypePrefix = "Content-Type: "
	contentTypeJSON   = "application/json"
)

// AlertPattern is sounded for every alerting notification.
var AlertPattern = buzzer.Pattern{
	Duration: 5000 * time.Millisecond,
	On:       500 * time.Millisecond,
	Off:      100 * time.Millisecond,
}

// Buzzer is the output driven on an alert.
type Buzzer interface {
	Activate(ctx context.Context, p buzzer.Pattern) error
}

// Received describes a successfully decoded notification.
type Received struct {
	ID        uuid.UUID
	State     string
	Alerting  bool
	Timestamp time.Time
}

// EventSink receives every decoded notification.
type EventSink interface {
	Record(ctx context.Context, ev Received) error
}

// Logger is the logging interface used by the dispatcher.
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

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithPattern replaces the alert pattern.
func WithPattern(p buzzer.Pattern) Option {
	return func(d *Dispatcher) { d.pattern = p }
}

// WithLogger sets the dispatcher logger.
func WithLogger(l Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithSink adds an event sink. Sinks are called in the order added.
func WithSink(s EventSink) Option {
	return func(d *Dispatcher) {
		if s != nil {
			d.sinks = append(d.sinks, s)
		}
	}
}

// Dispatcher maps a parsed request to a response status, sounding the
// buzzer for alerting notifications.
type Dispatcher struct {
	buzzer  Buzzer
	pattern buzzer.Pattern
	sinks   []EventSink
	logger  Logger
	now     func() time.Time
}

// NewDispatcher creates a Dispatcher driving b.
func NewDispatcher(b Buzzer, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		buzzer:  b,
		pattern: AlertPattern,
		logger:  noopLogger{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch validates req and returns the status to send.
//
// An alerting notification blocks until the buzzer pattern has finished.
// Only the first failing check determines the status.
func (d *Dispatcher) Dispatch(ctx context.Context, req *wire.Request) int {
	if req.Method != "POST" {
		d.logger.Info("request was not a POST request", "method", req.Method)
		return StatusMethodNotAllowed
	}

	// The matched line contains the prefix, so it is at least that long.
	line, ok := req.HeaderLine(contentTypePrefix)
	if !ok {
		d.logger.Info("could not find Content-Type header")
		return StatusBadRequest
	}

	if contentType := line[len(contentTypePrefix):]; contentType != contentTypeJSON {
		d.logger.Info("unexpected content type", "expected", contentTypeJSON, "got", contentType)
		return StatusBadRequest
	}

	state, err := decodeState(req.Body)
	if err != nil {
		d.logger.Error("failed to decode JSON body", "error", err)
		return StatusInternalError
	}

	ev := Received{
		ID:        uuid.New(),
		State:     state,
		Alerting:  state == StateAlerting,
		Timestamp: d.now(),
	}
	d.record(ctx, ev)

	if ev.Alerting {
		d.logger.Info("received alerting notification", "event_id", ev.ID)
		if err := d.buzzer.Activate(ctx, d.pattern); err != nil {
			d.logger.Warn("buzzer activation failed", "event_id", ev.ID, "error", err)
		}
	} else {
		d.logger.Debug("received notification", "event_id", ev.ID, "state", state)
	}

	return StatusNoContent
}

func (d *Dispatcher) record(ctx context.Context, ev Received) {
	for _, s := range d.sinks {
		if err := s.Record(ctx, ev); err != nil {
			d.logger.Warn("event sink failed", "event_id", ev.ID, "error", err)
		}
	}
}

// decodeState parses body as JSON and returns its top-level "state" string.
// Valid JSON without a string state yields "".
func decodeState(body string) (string, error) {
	var v any
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		return "", err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return "", nil
	}
	state, _ := obj["state"].(string)
	return state, nil
}
