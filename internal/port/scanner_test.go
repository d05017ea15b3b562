package port

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestIsPortAvailable_Free verifies a freshly released port reports as
// available for both protocols.
func TestIsPortAvailable_Free(t *testing.T) {
	scanner := NewScanner()

	// Grab an OS-assigned port, release it, then check availability.
	listener, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	require.NoError(t, listener.Close())

	assert.True(t, scanner.IsPortAvailable(port, "tcp"))
	assert.True(t, scanner.IsPortAvailable(port, "udp"))
}

// TestIsPortAvailable_InUse verifies a bound port reports as unavailable.
func TestIsPortAvailable_InUse(t *testing.T) {
	scanner := NewScanner()

	listener, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer func() { _ = listener.Close() }()
	port := listener.Addr().(*net.TCPAddr).Port

	assert.False(t, scanner.IsPortAvailable(port, "tcp"))
}

// TestIsPortAvailable_UnknownProtocol verifies unknown protocols fail safe.
func TestIsPortAvailable_UnknownProtocol(t *testing.T) {
	scanner := NewScanner()
	assert.False(t, scanner.IsPortAvailable(40000, "sctp"))
}

// TestFindAvailablePort verifies a free port is found within a range and
// that an exhausted range errors.
func TestFindAvailablePort(t *testing.T) {
	scanner := NewScanner()

	port, err := scanner.FindAvailablePort(47000, 47100, "tcp")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, port, 47000)
	assert.LessOrEqual(t, port, 47100)

	// Occupy a single-port range to force exhaustion.
	listener, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer func() { _ = listener.Close() }()
	busy := listener.Addr().(*net.TCPAddr).Port

	_, err = scanner.FindAvailablePort(busy, busy, "tcp")
	assert.Error(t, err)
}

// TestGetUsedPorts verifies a bound port shows up in the used list.
func TestGetUsedPorts(t *testing.T) {
	scanner := NewScanner()

	listener, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer func() { _ = listener.Close() }()
	busy := listener.Addr().(*net.TCPAddr).Port

	used := scanner.GetUsedPorts(busy, busy)
	assert.Equal(t, []int{busy}, used)
}
