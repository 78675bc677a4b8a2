//go:build linux || darwin

package transport

import (
	"fmt"
	"net"

	"github.com/higebu/netfd"
	"golang.org/x/sys/unix"
)

// listenUDP binds a UDP socket at addr and applies extra socket options
// via the raw fd. net.ListenUDP doesn't expose SO_BROADCAST, so the fd
// is pulled back out with netfd.GetFdFromConn and tuned directly with
// unix.SetsockoptInt, the same pattern runZeroInc-sockstats's exporter
// uses to reach into an already-established net.Conn for raw socket
// state (there it's tcpinfo; here it's the listen-side options).
func listenUDP(addr *net.UDPAddr, broadcast bool) (*net.UDPConn, error) {
	conn, err := net.ListenUDP("udp4", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: listen %v: %w", addr, err)
	}

	fd := netfd.GetFdFromConn(conn)
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		conn.Close()
		return nil, fmt.Errorf("transport: SO_REUSEADDR: %w", err)
	}
	if broadcast {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_BROADCAST, 1); err != nil {
			conn.Close()
			return nil, fmt.Errorf("transport: SO_BROADCAST: %w", err)
		}
	}
	return conn, nil
}
