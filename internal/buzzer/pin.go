package buzzer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sidingsmedia/alarm/internal/infrastructure/config"
)

// DefaultGPIOPath is the sysfs GPIO class directory.
const DefaultGPIOPath = "/sys/class/gpio"

// exportSettle is how long to wait for udev to create pin files after export.
const exportSettle = 100 * time.Millisecond

// SysfsPin drives a GPIO line through the sysfs interface.
type SysfsPin struct {
	root      string
	number    int
	activeLow bool
	value     *os.File
}

// OpenSysfsPin exports pin number under root, sets it to output and opens
// its value file. An already exported pin is reused.
func OpenSysfsPin(root string, number int, activeLow bool) (*SysfsPin, error) {
	if root == "" {
		root = DefaultGPIOPath
	}
	dir := filepath.Join(root, "gpio"+strconv.Itoa(number))

	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		if err := writeFile(filepath.Join(root, "export"), strconv.Itoa(number)); err != nil {
			return nil, fmt.Errorf("%w: exporting gpio%d: %w", ErrPinSetup, number, err)
		}
		time.Sleep(exportSettle)
	}

	if err := writeFile(filepath.Join(dir, "direction"), "out"); err != nil {
		return nil, fmt.Errorf("%w: setting gpio%d direction: %w", ErrPinSetup, number, err)
	}

	value, err := os.OpenFile(filepath.Join(dir, "value"), os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: opening gpio%d value: %w", ErrPinSetup, number, err)
	}

	return &SysfsPin{root: root, number: number, activeLow: activeLow, value: value}, nil
}

// Set drives the line. With activeLow the electrical level is inverted.
func (p *SysfsPin) Set(on bool) error {
	level := on != p.activeLow
	b := []byte("0")
	if level {
		b = []byte("1")
	}
	_, err := p.value.WriteAt(b, 0)
	return err
}

// Close releases the value file and unexports the pin.
func (p *SysfsPin) Close() error {
	closeErr := p.value.Close()
	unexportErr := writeFile(filepath.Join(p.root, "unexport"), strconv.Itoa(p.number))
	return errors.Join(closeErr, unexportErr)
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0)
}

// SimPin records transitions instead of driving hardware.
type SimPin struct {
	mu          sync.Mutex
	on          bool
	transitions int
	logger      Logger
}

// NewSimPin creates a simulated pin that logs each transition at debug
// level.
func NewSimPin(logger Logger) *SimPin {
	if logger == nil {
		logger = noopLogger{}
	}
	return &SimPin{logger: logger}
}

// Set records the new level.
func (p *SimPin) Set(on bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.on != on {
		p.transitions++
		p.logger.Debug("sim buzzer", "on", on)
	}
	p.on = on
	return nil
}

// On reports the current level.
func (p *SimPin) On() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.on
}

// Transitions reports how many level changes have been made.
func (p *SimPin) Transitions() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.transitions
}

// Close is a no-op.
func (p *SimPin) Close() error { return nil }

// Open builds a Buzzer for the configured driver.
func Open(cfg config.BuzzerConfig, logger Logger) (*Buzzer, error) {
	var pin Pin
	switch strings.ToLower(cfg.Driver) {
	case "", "sim":
		pin = NewSimPin(logger)
	case "sysfs":
		p, err := OpenSysfsPin(cfg.GPIOPath, cfg.GPIOPin, cfg.ActiveLow)
		if err != nil {
			return nil, err
		}
		pin = p
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}

	b, err := New(pin)
	if err != nil {
		_ = pin.Close()
		return nil, err
	}
	if logger != nil {
		b.SetLogger(logger)
	}
	return b, nil
}
