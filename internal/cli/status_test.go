// Package cli — status_test.go contains unit tests for the pure data
// transformation functions behind the status and up output.
//
// These tests verify formatting logic without requiring a Docker daemon
// or any external dependencies.
package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Roman-Andr/botstack/internal/docker"
	"github.com/Roman-Andr/botstack/internal/model"
	"github.com/Roman-Andr/botstack/internal/stack"
)

// managedContainer builds a ContainerInfo with the botstack labels set,
// as ListManagedContainers would return it.
func managedContainer(stackName, service, status string, createdAt time.Time) model.ContainerInfo {
	return model.ContainerInfo{
		ContainerID:   "abcdef123456",
		ContainerName: stackName + "-" + service,
		ServiceName:   service,
		Status:        status,
		CreatedAt:     createdAt,
		Labels: map[string]string{
			docker.LabelManagedBy: docker.ManagedByValue,
			docker.LabelStack:     stackName,
			docker.LabelService:   service,
			docker.LabelDeployID:  "deploy-1",
		},
	}
}

// TestSummarizeStacks verifies grouping, aggregate status, and sort order.
func TestSummarizeStacks(t *testing.T) {
	now := time.Now()
	containers := []model.ContainerInfo{
		managedContainer("zeta", "bot", "running", now),
		managedContainer("alpha", "grafana", "running", now),
		managedContainer("alpha", "prometheus", "exited", now),
		managedContainer("alpha", "bot", "running", now),
	}

	summaries := summarizeStacks(containers)
	require.Len(t, summaries, 2)

	// Sorted by stack name.
	assert.Equal(t, "alpha", summaries[0].Name)
	assert.Equal(t, model.StatusDegraded, summaries[0].Status)
	assert.Equal(t, 3, summaries[0].Containers)
	assert.Equal(t, 2, summaries[0].Running)

	assert.Equal(t, "zeta", summaries[1].Name)
	assert.Equal(t, model.StatusRunning, summaries[1].Status)
}

// TestSummarizeStacks_Empty verifies no containers yields no summaries.
func TestSummarizeStacks_Empty(t *testing.T) {
	assert.Empty(t, summarizeStacks(nil))
}

// TestServiceRows verifies uptime derivation from the created-at label.
func TestServiceRows(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

	running := managedContainer("cosmetic-bot", "grafana", "running", now.Add(-3*time.Hour))
	stopped := managedContainer("cosmetic-bot", "bot", "exited", now.Add(-3*time.Hour))
	noTimestamp := managedContainer("cosmetic-bot", "prometheus", "running", time.Time{})

	rows := serviceRows([]model.ContainerInfo{running, stopped, noTimestamp}, now)
	require.Len(t, rows, 3)

	assert.Equal(t, "grafana", rows[0].Service)
	assert.Equal(t, "cosmetic-bot-grafana", rows[0].ContainerName)
	assert.Equal(t, "3 hours", rows[0].Uptime)
	assert.Equal(t, "deploy-1", rows[0].DeployID)

	// Stopped containers and containers without a timestamp show no uptime.
	assert.Empty(t, rows[1].Uptime)
	assert.Empty(t, rows[2].Uptime)
}

// TestFormatServiceAddress verifies the first published port becomes a
// local URL and portless services render empty.
func TestFormatServiceAddress(t *testing.T) {
	svc := stack.Service{
		Name: "grafana",
		Ports: []model.PortBinding{
			{ServiceName: "grafana", ContainerPort: 3000, HostPort: 3000, Protocol: "tcp"},
		},
	}
	assert.Equal(t, "http://localhost:3000", formatServiceAddress(svc))

	assert.Empty(t, formatServiceAddress(stack.Service{Name: "worker"}))
}

// TestArgOrEmpty verifies optional positional argument handling.
func TestArgOrEmpty(t *testing.T) {
	assert.Equal(t, "", argOrEmpty(nil))
	assert.Equal(t, "", argOrEmpty([]string{}))
	assert.Equal(t, "cosmetic-bot", argOrEmpty([]string{"cosmetic-bot"}))
}
