//go:build !linux

package server

import (
	"context"
	"net"
	"strconv"

	"github.com/sidingsmedia/alarm/internal/settings"
)

// listenSocket falls back to the net package. The backlog is left to the
// platform default.
func listenSocket(cfg ListenConfig) (net.Listener, error) {
	network := "tcp4"
	if cfg.Family == settings.FamilyINET6 {
		network = "tcp6"
	}
	var lc net.ListenConfig
	return lc.Listen(context.Background(), network, ":"+strconv.Itoa(cfg.Port))
}
