package docker

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/docker/docker/api/types"

	"github.com/Roman-Andr/botstack/internal/model"
)

// TestContainerToInfo verifies the Docker API to domain mapping, including
// the leading-slash name artifact and label-derived fields.
func TestContainerToInfo(t *testing.T) {
	c := types.Container{
		ID:    "abc123",
		Names: []string{"/cosmetic-bot-grafana"},
		State: "running",
		Labels: map[string]string{
			LabelManagedBy: ManagedByValue,
			LabelStack:     "cosmetic-bot",
			LabelService:   "grafana",
			LabelCreatedAt: "2026-08-25T10:00:00Z",
		},
	}

	info := containerToInfo(c)

	assert.Equal(t, "abc123", info.ContainerID)
	assert.Equal(t, "cosmetic-bot-grafana", info.ContainerName, "leading slash should be stripped")
	assert.Equal(t, "grafana", info.ServiceName)
	assert.Equal(t, "running", info.Status)
	assert.False(t, info.CreatedAt.IsZero())
}

// TestGroupContainersByStack verifies grouping and that unlabeled
// containers are skipped.
func TestGroupContainersByStack(t *testing.T) {
	containers := []model.ContainerInfo{
		{ContainerID: "1", Labels: map[string]string{LabelStack: "cosmetic-bot"}},
		{ContainerID: "2", Labels: map[string]string{LabelStack: "cosmetic-bot"}},
		{ContainerID: "3", Labels: map[string]string{LabelStack: "other"}},
		{ContainerID: "4", Labels: map[string]string{}},
	}

	groups := GroupContainersByStack(containers)

	assert.Len(t, groups, 2)
	assert.Len(t, groups["cosmetic-bot"], 2)
	assert.Len(t, groups["other"], 1)
}

// TestAggregateStatus covers the running/degraded/stopped aggregation.
func TestAggregateStatus(t *testing.T) {
	tests := []struct {
		name   string
		states []string
		want   model.StackStatus
	}{
		{"all running", []string{"running", "running", "running", "running"}, model.StatusRunning},
		{"partially running", []string{"running", "exited", "running", "running"}, model.StatusDegraded},
		{"none running", []string{"exited", "exited", "created"}, model.StatusStopped},
		{"no containers", nil, model.StatusStopped},
		{"single running", []string{"running"}, model.StatusRunning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			containers := make([]model.ContainerInfo, 0, len(tt.states))
			for _, s := range tt.states {
				containers = append(containers, model.ContainerInfo{Status: s})
			}
			assert.Equal(t, tt.want, AggregateStatus(containers))
		})
	}
}

// TestContainerName pins the "<stack>-<service>" naming contract that
// deploys and teardown both rely on.
func TestContainerName(t *testing.T) {
	assert.Equal(t, "cosmetic-bot-node-exporter", ContainerName("cosmetic-bot", "node-exporter"))
}
