package port

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// listenLoopback starts a TCP listener on an OS-assigned loopback port and
// returns its port number.
func listenLoopback(t *testing.T) (net.Listener, int) {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = listener.Close() })
	return listener, listener.Addr().(*net.TCPAddr).Port
}

// TestIsReachable verifies a listening port is reachable and a closed one
// is not.
func TestIsReachable(t *testing.T) {
	prober := NewProber()

	listener, port := listenLoopback(t)
	assert.True(t, prober.IsReachable(port))

	require.NoError(t, listener.Close())
	assert.False(t, prober.IsReachable(port))
}

// TestWaitReachable_Immediate verifies an already-listening port returns
// without waiting out the timeout.
func TestWaitReachable_Immediate(t *testing.T) {
	prober := NewProber()
	_, port := listenLoopback(t)

	start := time.Now()
	err := prober.WaitReachable(context.Background(), port, 5*time.Second)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

// TestWaitReachable_Timeout verifies the deadline error for a port nobody
// listens on.
func TestWaitReachable_Timeout(t *testing.T) {
	prober := NewProber()

	// Bind and close to get a port that is almost certainly unused.
	listener, port := listenLoopback(t)
	require.NoError(t, listener.Close())

	err := prober.WaitReachable(context.Background(), port, 700*time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not reachable")
}

// TestWaitReachable_Cancelled verifies context cancellation interrupts the
// retry loop.
func TestWaitReachable_Cancelled(t *testing.T) {
	prober := NewProber()
	listener, port := listenLoopback(t)
	require.NoError(t, listener.Close())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	err := prober.WaitReachable(ctx, port, 30*time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cancelled")
}

// TestWaitAllReachable verifies multiple listening ports pass under one
// shared deadline.
func TestWaitAllReachable(t *testing.T) {
	prober := NewProber()
	_, port1 := listenLoopback(t)
	_, port2 := listenLoopback(t)

	err := prober.WaitAllReachable(context.Background(), []int{port1, port2}, 5*time.Second)
	assert.NoError(t, err)
}
