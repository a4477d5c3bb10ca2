package netup

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultCommand is the network manager CLI.
	DefaultCommand = "nmcli"

	// DefaultInterface is the wireless interface joined when none is given.
	DefaultInterface = "wlan0"

	// Profile is the connection profile name managed by Connect.
	Profile = "alarm"

	// loopbackDNS is set on static profiles; the device never resolves names.
	loopbackDNS = "127.0.0.1"

	// commandGrace is added to the join timeout for the command itself.
	commandGrace = 5 * time.Second
)

// Params describe the network to join.
type Params struct {
	SSID    string
	Key     string
	Timeout time.Duration

	// Static addressing is applied to the profile before it is brought up.
	Static  bool
	Addr    string
	Mask    string
	Gateway string
	IPv6    bool

	Interface string
	Command   string
}

// Runner executes an external command and returns its combined output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput() //nolint:gosec // name comes from runtime configuration
}

// Logger is the logging interface used during bring-up.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}

// Manager brings the wireless interface up.
type Manager struct {
	runner Runner
	logger Logger
}

// New creates a Manager. A nil runner uses ExecRunner.
func New(runner Runner) *Manager {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Manager{runner: runner, logger: noopLogger{}}
}

// SetLogger sets the logger for bring-up messages.
func (m *Manager) SetLogger(logger Logger) {
	m.logger = logger
}

// Connect joins the network described by p using the default Manager.
func Connect(ctx context.Context, p Params) (bool, error) {
	return New(nil).Connect(ctx, p)
}

// Connect joins the network described by p and reports whether the
// interface came up within p.Timeout.
//
// A false result with a nil error means the network manager ran but the
// join did not complete. Errors report invalid parameters or a network
// manager that could not be run at all.
func (m *Manager) Connect(ctx context.Context, p Params) (bool, error) {
	if p.SSID == "" {
		return false, ErrMissingSSID
	}
	if p.Command == "" {
		p.Command = DefaultCommand
	}
	if p.Interface == "" {
		p.Interface = DefaultInterface
	}
	if p.Timeout <= 0 {
		p.Timeout = 10 * time.Second
	}

	addArgs, err := profileArgs(p)
	if err != nil {
		return false, err
	}

	// A stale profile from a previous boot is replaced.
	if _, err := m.runner.Run(ctx, p.Command, "connection", "delete", Profile); err != nil {
		if isNotFound(err) {
			return false, fmt.Errorf("%w: %w", ErrCommandFailed, err)
		}
		m.logger.Debug("no previous connection profile", "profile", Profile)
	}

	if p.Static {
		m.logger.Info("setting static IP", "addr", p.Addr, "mask", p.Mask, "gateway", p.Gateway)
	}
	if out, err := m.runner.Run(ctx, p.Command, addArgs...); err != nil {
		return false, fmt.Errorf("%w: creating profile: %w: %s", ErrCommandFailed, err, strings.TrimSpace(string(out)))
	}

	m.logger.Info("connecting to wireless network", "ssid", p.SSID, "interface", p.Interface, "timeout", p.Timeout)

	upCtx, cancel := context.WithTimeout(ctx, p.Timeout+commandGrace)
	defer cancel()

	wait := strconv.Itoa(int(p.Timeout.Round(time.Second) / time.Second))
	if out, err := m.runner.Run(upCtx, p.Command, "--wait", wait, "connection", "up", Profile); err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return false, ctx.Err()
		}
		m.logger.Warn("could not connect to wireless network",
			"ssid", p.SSID,
			"error", err,
			"output", strings.TrimSpace(string(out)),
		)
		return false, nil
	}

	m.logInterface(ctx, p)
	return true, nil
}

// logInterface logs the addressing the interface ended up with.
func (m *Manager) logInterface(ctx context.Context, p Params) {
	family := "IP4"
	if p.IPv6 {
		family = "IP6"
	}
	fields := family + ".ADDRESS," + family + ".GATEWAY,GENERAL.STATE"

	out, err := m.runner.Run(ctx, p.Command, "-t", "-f", fields, "device", "show", p.Interface)
	if err != nil {
		m.logger.Debug("could not read interface configuration", "error", err)
		return
	}

	args := []any{"interface", p.Interface}
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		k, v, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		args = append(args, strings.ToLower(k), v)
	}
	m.logger.Info("network config", args...)
}

// profileArgs builds the "connection add" arguments for p.
func profileArgs(p Params) ([]string, error) {
	args := []string{
		"connection", "add",
		"type", "wifi",
		"con-name", Profile,
		"ifname", p.Interface,
		"ssid", p.SSID,
	}
	if p.Key != "" {
		args = append(args, "wifi-sec.key-mgmt", "wpa-psk", "wifi-sec.psk", p.Key)
	}

	if !p.Static {
		return args, nil
	}

	if p.Addr == "" || p.Mask == "" || p.Gateway == "" {
		return nil, ErrIncompleteStatic
	}
	prefix, err := prefixLength(p.Mask, p.IPv6)
	if err != nil {
		return nil, err
	}

	ns := "ipv4"
	if p.IPv6 {
		ns = "ipv6"
	}
	return append(args,
		ns+".method", "manual",
		ns+".addresses", p.Addr+"/"+strconv.Itoa(prefix),
		ns+".gateway", p.Gateway,
		ns+".dns", loopbackDNS,
	), nil
}

// prefixLength accepts either a prefix length ("24") or, for IPv4, a
// dotted netmask ("255.255.255.0").
func prefixLength(mask string, ipv6 bool) (int, error) {
	maxBits := 32
	if ipv6 {
		maxBits = 128
	}

	if n, err := strconv.Atoi(mask); err == nil {
		if n < 0 || n > maxBits {
			return 0, fmt.Errorf("%w: prefix %d out of range", ErrInvalidMask, n)
		}
		return n, nil
	}

	ip := net.ParseIP(mask)
	if ip == nil || ipv6 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMask, mask)
	}
	ip4 := ip.To4()
	if ip4 == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMask, mask)
	}

	ones, bits := net.IPMask(ip4).Size()
	if bits == 0 {
		return 0, fmt.Errorf("%w: %q is not contiguous", ErrInvalidMask, mask)
	}
	return ones, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, exec.ErrNotFound)
}
