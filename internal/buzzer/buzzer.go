package buzzer

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Pattern is an on/off cadence sounded for a total duration.
type Pattern struct {
	// Duration is how long the pattern repeats. A cycle that starts before
	// Duration elapses always runs to completion.
	Duration time.Duration
	On       time.Duration
	Off      time.Duration
}

// Validate rejects patterns that would never advance.
func (p Pattern) Validate() error {
	if p.Duration < 0 || p.On < 0 || p.Off < 0 {
		return fmt.Errorf("%w: negative duration", ErrInvalidPattern)
	}
	if p.Duration > 0 && p.On+p.Off == 0 {
		return fmt.Errorf("%w: on and off are both zero", ErrInvalidPattern)
	}
	return nil
}

// Pin is a single digital output.
type Pin interface {
	Set(on bool) error
	Close() error
}

// Logger is the logging interface used by the buzzer.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Buzzer drives a Pin through timed patterns.
//
// Activate blocks for the whole pattern. Calls are serialised so two
// patterns never interleave on the pin.
type Buzzer struct {
	pin    Pin
	logger Logger

	mu sync.Mutex

	// now and sleep are replaced in tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Buzzer on pin, leaving the pin off.
func New(pin Pin) (*Buzzer, error) {
	if err := pin.Set(false); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPinWrite, err)
	}
	return &Buzzer{
		pin:    pin,
		logger: noopLogger{},
		now:    time.Now,
		sleep:  sleepContext,
	}, nil
}

// SetLogger sets the logger for pattern start and stop messages.
func (b *Buzzer) SetLogger(logger Logger) {
	b.logger = logger
}

// Activate sounds p and returns once it has finished.
//
// If ctx is cancelled mid-pattern the pin is switched off and ctx's error
// returned. The pin is always left off.
func (b *Buzzer) Activate(ctx context.Context, p Pattern) (err error) {
	if err := p.Validate(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.logger.Debug("buzzer pattern started",
		"duration_ms", p.Duration.Milliseconds(),
		"on_ms", p.On.Milliseconds(),
		"off_ms", p.Off.Milliseconds(),
	)

	defer func() {
		if offErr := b.pin.Set(false); offErr != nil && err == nil {
			err = fmt.Errorf("%w: %w", ErrPinWrite, offErr)
		}
		b.logger.Debug("buzzer pattern finished", "error", err)
	}()

	start := b.now()
	for b.now().Sub(start) < p.Duration {
		if err := b.pin.Set(true); err != nil {
			return fmt.Errorf("%w: %w", ErrPinWrite, err)
		}
		if err := b.sleep(ctx, p.On); err != nil {
			return err
		}
		if err := b.pin.Set(false); err != nil {
			return fmt.Errorf("%w: %w", ErrPinWrite, err)
		}
		if err := b.sleep(ctx, p.Off); err != nil {
			return err
		}
	}

	return nil
}

// Close switches the pin off and releases it.
func (b *Buzzer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.pin.Set(false); err != nil {
		b.logger.Warn("failed to switch buzzer off", "error", err)
	}
	return b.pin.Close()
}

// sleepContext sleeps for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
