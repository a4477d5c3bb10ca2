package server

import (
	"fmt"
	"net"

	"github.com/sidingsmedia/alarm/internal/settings"
)

// ListenConfig describes the listening socket.
type ListenConfig struct {
	// Family is settings.FamilyINET or settings.FamilyINET6.
	Family string

	// Port is the TCP port bound on every local address. Zero picks one.
	Port int

	// Backlog is the kernel accept queue length.
	Backlog int
}

// Listen opens a TCP listener on all local addresses of the configured
// family.
func Listen(cfg ListenConfig) (net.Listener, error) {
	if cfg.Port < 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("%w: port %d", ErrInvalidListen, cfg.Port)
	}
	if cfg.Backlog <= 0 {
		return nil, fmt.Errorf("%w: backlog %d", ErrInvalidListen, cfg.Backlog)
	}
	switch cfg.Family {
	case "", settings.FamilyINET, settings.FamilyINET6:
	default:
		return nil, fmt.Errorf("%w: address family %q", ErrInvalidListen, cfg.Family)
	}

	ln, err := listenSocket(cfg)
	if err != nil {
		return nil, fmt.Errorf("listening on port %d: %w", cfg.Port, err)
	}
	return ln, nil
}
