package port

import (
	"context"
	"fmt"
	"net"
	"time"
)

// probeInterval is the delay between successive connection attempts while
// waiting for a port to come up.
const probeInterval = 500 * time.Millisecond

// dialTimeout bounds a single connection attempt.
const dialTimeout = 2 * time.Second

// Prober waits for published ports to accept TCP connections. Used after
// a deploy to confirm each service actually bound its host port before
// reporting success.
type Prober struct {
	// Host is the address the ports are probed on. Defaults to
	// "127.0.0.1" — stack ports are published on all interfaces, so
	// loopback reachability implies host reachability.
	Host string
}

// NewProber creates a Prober targeting the loopback interface.
func NewProber() *Prober {
	return &Prober{Host: "127.0.0.1"}
}

// IsReachable attempts a single TCP connection to the port.
func (p *Prober) IsReachable(port int) bool {
	conn, err := net.DialTimeout("tcp", p.addr(port), dialTimeout)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// WaitReachable dials the port repeatedly until it accepts a connection,
// the timeout elapses, or the context is cancelled. Containers need a
// moment between "running" and actually listening, hence the retry loop.
func (p *Prober) WaitReachable(ctx context.Context, port int, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)

	for {
		if p.IsReachable(port) {
			return nil
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("port %d on %s not reachable within %s", port, p.Host, timeout)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("probe of port %d cancelled: %w", port, ctx.Err())
		case <-time.After(probeInterval):
		}
	}
}

// WaitAllReachable probes a set of ports sequentially against a shared
// deadline. The first failure is returned; ports already confirmed
// reachable are not re-probed.
func (p *Prober) WaitAllReachable(ctx context.Context, ports []int, timeout time.Duration) error {
	start := time.Now()
	for _, port := range ports {
		remaining := timeout - time.Since(start)
		if remaining <= 0 {
			return fmt.Errorf("probe deadline exceeded before reaching port %d", port)
		}
		if err := p.WaitReachable(ctx, port, remaining); err != nil {
			return err
		}
	}
	return nil
}

// addr formats the host:port dial target.
func (p *Prober) addr(port int) string {
	host := p.Host
	if host == "" {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, fmt.Sprintf("%d", port))
}
