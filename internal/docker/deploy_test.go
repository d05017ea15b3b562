package docker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/go-connections/nat"

	"github.com/Roman-Andr/botstack/internal/model"
)

// TestBuildPortMap verifies the translation of port bindings into the
// SDK's exposed set and host binding map.
func TestBuildPortMap(t *testing.T) {
	exposed, bindings, err := buildPortMap([]model.PortBinding{
		{ServiceName: "prometheus", ContainerPort: 9090, HostPort: 9090, Protocol: "tcp"},
		{ServiceName: "bot", ContainerPort: 8000, HostPort: 18000, Protocol: "tcp"},
	})
	require.NoError(t, err)

	promPort := nat.Port("9090/tcp")
	botPort := nat.Port("8000/tcp")

	assert.Contains(t, exposed, promPort)
	assert.Contains(t, exposed, botPort)

	require.Len(t, bindings[promPort], 1)
	assert.Equal(t, "9090", bindings[promPort][0].HostPort)
	assert.Equal(t, "", bindings[promPort][0].HostIP, "empty host IP publishes on all interfaces")

	require.Len(t, bindings[botPort], 1)
	assert.Equal(t, "18000", bindings[botPort][0].HostPort)
}

// TestBuildPortMap_Empty verifies a service without published ports gets
// empty (not nil) maps, which the SDK accepts as "expose nothing".
func TestBuildPortMap_Empty(t *testing.T) {
	exposed, bindings, err := buildPortMap(nil)
	require.NoError(t, err)
	assert.Empty(t, exposed)
	assert.Empty(t, bindings)
}

// TestBuildMounts verifies volume and read-only bind translation.
func TestBuildMounts(t *testing.T) {
	mounts := buildMounts([]model.Mount{
		{Kind: model.MountVolume, Source: "prometheus-data", Target: "/prometheus"},
		{Kind: model.MountBind, Source: "/proc", Target: "/host/proc", ReadOnly: true},
	})

	require.Len(t, mounts, 2)

	assert.Equal(t, mount.TypeVolume, mounts[0].Type)
	assert.Equal(t, "prometheus-data", mounts[0].Source)
	assert.Equal(t, "/prometheus", mounts[0].Target)
	assert.False(t, mounts[0].ReadOnly)

	assert.Equal(t, mount.TypeBind, mounts[1].Type)
	assert.Equal(t, "/proc", mounts[1].Source)
	assert.True(t, mounts[1].ReadOnly)
}

// TestRestartPolicy verifies the domain-to-SDK restart policy mapping.
func TestRestartPolicy(t *testing.T) {
	assert.Equal(t, container.RestartPolicyUnlessStopped, restartPolicy(model.RestartUnlessStopped).Name)
	assert.Equal(t, container.RestartPolicyAlways, restartPolicy(model.RestartAlways).Name)
	assert.Equal(t, container.RestartPolicyOnFailure, restartPolicy(model.RestartOnFailure).Name)
	assert.Equal(t, container.RestartPolicyDisabled, restartPolicy(model.RestartNo).Name)
}
