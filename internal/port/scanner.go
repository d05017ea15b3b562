package port

import (
	"fmt"
	"net"
)

// Scanner checks whether specific ports are available on the host machine.
//
// It uses the operating system's network stack (net.Listen /
// net.ListenPacket) to determine if a port is free, rather than parsing
// /proc/net/* or shelling out to lsof/ss which may require elevated
// permissions.
//
// The struct is currently stateless but defined as a struct so future
// options (bind address, timeout) can be added without breaking the API,
// and so it is injectable as a dependency.
type Scanner struct{}

// NewScanner creates a new Scanner instance.
func NewScanner() *Scanner {
	return &Scanner{}
}

// IsPortAvailable checks whether a single port is free on the host.
//
// For TCP it attempts net.Listen, for UDP net.ListenPacket; a successful
// bind means the port is available and the listener is closed immediately.
// The bind targets all interfaces (":port") because Docker publishes on
// 0.0.0.0, so the same address space must be checked to avoid false
// positives.
//
// Returns true if the port is free, false if it is in use or the protocol
// is unknown.
func (s *Scanner) IsPortAvailable(port int, protocol string) bool {
	addr := fmt.Sprintf(":%d", port)

	switch protocol {
	case "tcp":
		listener, err := net.Listen("tcp", addr)
		if err != nil {
			return false
		}
		defer func() { _ = listener.Close() }()
		return true

	case "udp":
		conn, err := net.ListenPacket("udp", addr)
		if err != nil {
			return false
		}
		defer func() { _ = conn.Close() }()
		return true

	default:
		// Unknown protocol — treat as unavailable to fail safe.
		return false
	}
}

// FindAvailablePort scans [startPort, endPort] (inclusive) and returns
// the first port available for the given protocol. The sequential search
// makes the selection deterministic for a given host state.
//
// Returns an error if no port in the range is free.
func (s *Scanner) FindAvailablePort(startPort, endPort int, protocol string) (int, error) {
	for port := startPort; port <= endPort; port++ {
		if s.IsPortAvailable(port, protocol) {
			return port, nil
		}
	}
	return 0, fmt.Errorf("no available %s port found in range %d-%d", protocol, startPort, endPort)
}

// GetUsedPorts returns the ports currently in use within
// [startPort, endPort] (inclusive), scanning TCP only — TCP conflicts are
// the relevant concern for the stack's web and metrics endpoints.
func (s *Scanner) GetUsedPorts(startPort, endPort int) []int {
	var used []int
	for port := startPort; port <= endPort; port++ {
		if !s.IsPortAvailable(port, "tcp") {
			used = append(used, port)
		}
	}
	return used
}
