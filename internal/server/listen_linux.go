//go:build linux

package server

import (
	"net"
	"os"

	"golang.org/x/sys/unix"

	"github.com/sidingsmedia/alarm/internal/settings"
)

// listenSocket builds the socket by hand so the backlog is exactly
// cfg.Backlog rather than the kernel's somaxconn.
func listenSocket(cfg ListenConfig) (net.Listener, error) {
	domain := unix.AF_INET
	var sa unix.Sockaddr = &unix.SockaddrInet4{Port: cfg.Port}
	if cfg.Family == settings.FamilyINET6 {
		domain = unix.AF_INET6
		sa = &unix.SockaddrInet6{Port: cfg.Port}
	}

	fd, err := unix.Socket(domain, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, unix.IPPROTO_TCP)
	if err != nil {
		return nil, os.NewSyscallError("socket", err)
	}

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		_ = unix.Close(fd)
		return nil, os.NewSyscallError("setsockopt", err)
	}
	if domain == unix.AF_INET6 {
		if err := unix.SetsockoptInt(fd, unix.IPPROTO_IPV6, unix.IPV6_V6ONLY, 1); err != nil {
			_ = unix.Close(fd)
			return nil, os.NewSyscallError("setsockopt", err)
		}
	}
	if err := unix.Bind(fd, sa); err != nil {
		_ = unix.Close(fd)
		return nil, os.NewSyscallError("bind", err)
	}
	if err := unix.Listen(fd, cfg.Backlog); err != nil {
		_ = unix.Close(fd)
		return nil, os.NewSyscallError("listen", err)
	}

	// FileListener dups the descriptor, so the file is closed either way.
	f := os.NewFile(uintptr(fd), "alarm-listener")
	defer f.Close()

	return net.FileListener(f)
}
