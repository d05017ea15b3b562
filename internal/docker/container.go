// container.go implements Docker container lifecycle operations for the
// botstack CLI: listing, grouping, starting, stopping, and removing the
// containers that belong to a deployed stack.
//
// All managed containers are identified by the "botstack.managed-by"
// label, which separates them from unrelated containers on the same host.
package docker

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"

	"github.com/Roman-Andr/botstack/internal/model"
)

// ListManagedContainers queries the Docker daemon for all containers that
// carry the "botstack.managed-by=botstack" label, including stopped ones.
// This is the primary entry point for discovering what stacks currently
// exist — all state is derived from Docker labels, not from any external
// database.
func ListManagedContainers(ctx context.Context, cli *Client) ([]model.ContainerInfo, error) {
	// Docker performs label filtering server-side, which is cheaper than
	// listing everything and filtering in Go.
	filterArgs := filters.NewArgs(
		filters.Arg("label", LabelManagedBy+"="+ManagedByValue),
	)

	containers, err := cli.Inner().ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filterArgs,
	})
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitDockerNotRunning,
			"failed to list Docker containers",
			err,
		)
	}

	result := make([]model.ContainerInfo, 0, len(containers))
	for _, c := range containers {
		result = append(result, containerToInfo(c))
	}

	return result, nil
}

// ListStackContainers lists the managed containers of a single stack,
// sorted by service name for deterministic iteration.
func ListStackContainers(ctx context.Context, cli *Client, stackName string) ([]model.ContainerInfo, error) {
	all, err := ListManagedContainers(ctx, cli)
	if err != nil {
		return nil, err
	}

	var result []model.ContainerInfo
	for _, c := range all {
		if c.Labels[LabelStack] == stackName {
			result = append(result, c)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ServiceName < result[j].ServiceName
	})
	return result, nil
}

// containerToInfo converts a Docker API Container struct to the domain
// ContainerInfo. Pure mapping, no side effects.
func containerToInfo(c types.Container) model.ContainerInfo {
	// Docker returns names as a slice with a leading "/" artifact.
	name := ""
	if len(c.Names) > 0 {
		name = strings.TrimPrefix(c.Names[0], "/")
	}

	return model.ContainerInfo{
		ContainerID:   c.ID,
		ContainerName: name,
		ServiceName:   c.Labels[LabelService],
		Status:        c.State,
		CreatedAt:     ParseCreatedAt(c.Labels),
		Labels:        c.Labels,
	}
}

// GroupContainersByStack groups ContainerInfo by their "botstack.stack"
// label value, for the status command's per-stack display. Containers
// without the label cannot be attributed and are skipped.
func GroupContainersByStack(containers []model.ContainerInfo) map[string][]model.ContainerInfo {
	groups := make(map[string][]model.ContainerInfo)

	for _, c := range containers {
		stackName, ok := c.Labels[LabelStack]
		if !ok || stackName == "" {
			continue
		}
		groups[stackName] = append(groups[stackName], c)
	}

	return groups
}

// AggregateStatus calculates the overall status of a stack from its
// containers' states:
//   - running: every container is running
//   - stopped: no container is running
//   - degraded: anything in between
//
// With the stack's unless-stopped restart policy, a degraded state is
// normally transient — the engine relaunches crashed containers on its
// own.
func AggregateStatus(containers []model.ContainerInfo) model.StackStatus {
	if len(containers) == 0 {
		return model.StatusStopped
	}

	running := 0
	for _, c := range containers {
		if c.Status == "running" {
			running++
		}
	}

	switch running {
	case 0:
		return model.StatusStopped
	case len(containers):
		return model.StatusRunning
	default:
		return model.StatusDegraded
	}
}

// ContainerName returns the canonical container name for a stack service:
// "<stack>-<service>". One stack deploys each service exactly once, so
// the pair is unique on the host.
func ContainerName(stackName, serviceName string) string {
	return stackName + "-" + serviceName
}

// StartContainer starts a stopped container by its ID. If the container
// is already running, Docker returns an error.
func StartContainer(ctx context.Context, cli *Client, containerID string) error {
	err := cli.Inner().ContainerStart(ctx, containerID, container.StartOptions{})
	if err != nil {
		return model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("failed to start container %q", containerID),
			err,
		)
	}
	return nil
}

// StopContainer stops a running container by its ID. The engine sends
// SIGTERM and escalates to SIGKILL after its default timeout.
// Stopping through this call is an explicit operator stop: the
// unless-stopped restart policy will not relaunch the container.
func StopContainer(ctx context.Context, cli *Client, containerID string) error {
	// Nil timeout uses Docker's default (10 seconds) for graceful shutdown.
	err := cli.Inner().ContainerStop(ctx, containerID, container.StopOptions{})
	if err != nil {
		return model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("failed to stop container %q", containerID),
			err,
		)
	}
	return nil
}

// RemoveContainer removes a container by its ID. The container must be
// stopped first unless force is true, in which case the engine kills it
// before removal.
func RemoveContainer(ctx context.Context, cli *Client, containerID string, force bool) error {
	err := cli.Inner().ContainerRemove(ctx, containerID, container.RemoveOptions{
		Force: force,
	})
	if err != nil {
		return model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("failed to remove container %q", containerID),
			err,
		)
	}
	return nil
}
