//go:build !linux && !darwin

package transport

import (
	"fmt"
	"net"
)

// listenUDP on non-Unix platforms skips the SO_REUSEADDR/SO_BROADCAST
// tuning in socket_unix.go, which depends on golang.org/x/sys/unix and
// github.com/higebu/netfd's fd extraction.
func listenUDP(addr *net.UDPAddr, broadcast bool) (*net.UDPConn, error) {
	conn, err := net.ListenUDP("udp4", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: listen %v: %w", addr, err)
	}
	return conn, nil
}
