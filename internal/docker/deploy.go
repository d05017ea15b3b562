// deploy.go implements the resource-creation side of a stack deploy:
// named volumes, and containers with their port bindings, mounts, and
// restart policies.
//
// Named volumes follow the engine's lifecycle contract: created on first
// use, reused across container recreation, destroyed only on explicit
// removal. EnsureVolume is therefore idempotent — the volume is created
// exactly once per name, no matter how many deploys run.
package docker

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/api/types/volume"
	"github.com/docker/go-connections/nat"

	"github.com/Roman-Andr/botstack/internal/model"
	"github.com/Roman-Andr/botstack/internal/stack"
)

// EnsureVolume creates a named volume with stack labels if it does not
// already exist. Returns true if the volume was created by this call.
//
// VolumeCreate is idempotent on the engine side, but it would overwrite
// nothing and report success even for a pre-existing unlabeled volume, so
// existence is checked first to keep the created/reused distinction for
// the caller's output.
//
// A pre-existing volume is only reused when its labels mark it as
// belonging to this stack. The engine cannot relabel an existing volume,
// and silently adopting a foreign one would make `up` succeed on state
// that `verify` (which discovers volumes by label) then reports missing.
func EnsureVolume(ctx context.Context, cli *Client, stackName, volumeName string) (bool, error) {
	existing, err := cli.Inner().VolumeList(ctx, volume.ListOptions{
		Filters: filters.NewArgs(filters.Arg("name", volumeName)),
	})
	if err != nil {
		return false, model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("failed to list volumes while ensuring %q", volumeName),
			err,
		)
	}

	// The name filter is a substring match; check for the exact name.
	for _, v := range existing.Volumes {
		if v.Name != volumeName {
			continue
		}
		if !VolumeOwnedByStack(v.Labels, stackName) {
			return false, model.NewCLIError(
				model.ExitGeneralError,
				fmt.Sprintf("volume %q already exists but is not managed by this stack; remove or rename it before deploying", volumeName),
			)
		}
		return false, nil
	}

	_, err = cli.Inner().VolumeCreate(ctx, volume.CreateOptions{
		Name:   volumeName,
		Labels: BuildVolumeLabels(stackName),
	})
	if err != nil {
		return false, model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("failed to create volume %q", volumeName),
			err,
		)
	}
	return true, nil
}

// ListStackVolumes returns the names of volumes labeled as belonging to
// the stack.
func ListStackVolumes(ctx context.Context, cli *Client, stackName string) ([]string, error) {
	resp, err := cli.Inner().VolumeList(ctx, volume.ListOptions{
		Filters: filters.NewArgs(
			filters.Arg("label", LabelManagedBy+"="+ManagedByValue),
			filters.Arg("label", LabelStack+"="+stackName),
		),
	})
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("failed to list volumes for stack %q", stackName),
			err,
		)
	}

	names := make([]string, 0, len(resp.Volumes))
	for _, v := range resp.Volumes {
		names = append(names, v.Name)
	}
	return names, nil
}

// RemoveVolume removes a named volume. Only called from `down --volumes`;
// every other operation leaves volumes untouched so data persists across
// stop/start and container recreation.
func RemoveVolume(ctx context.Context, cli *Client, volumeName string) error {
	if err := cli.Inner().VolumeRemove(ctx, volumeName, false); err != nil {
		return model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("failed to remove volume %q", volumeName),
			err,
		)
	}
	return nil
}

// CreateService creates (but does not start) a container for a stack
// service, translating the normalized definition into the engine's
// Config/HostConfig pair: published ports, volume and bind mounts, the
// restart policy, and the botstack management labels.
//
// The container is named "<stack>-<service>". Returns the new container ID.
func CreateService(ctx context.Context, cli *Client, stackName string, svc *stack.Service, deployID string) (string, error) {
	exposed, bindings, err := buildPortMap(svc.Ports)
	if err != nil {
		return "", model.WrapCLIError(model.ExitValidationFailed,
			fmt.Sprintf("invalid port bindings for service %q", svc.Name), err)
	}

	cfg := &container.Config{
		Image:        svc.Image,
		Cmd:          svc.Command,
		Env:          svc.Environment,
		ExposedPorts: exposed,
		Labels:       BuildServiceLabels(stackName, svc, deployID, time.Now()),
	}

	hostCfg := &container.HostConfig{
		PortBindings:  bindings,
		Mounts:        buildMounts(svc.Mounts),
		RestartPolicy: restartPolicy(svc.Restart),
	}

	resp, err := cli.Inner().ContainerCreate(ctx, cfg, hostCfg, nil, nil,
		ContainerName(stackName, svc.Name))
	if err != nil {
		return "", model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("failed to create container for service %q", svc.Name),
			err,
		)
	}

	return resp.ID, nil
}

// buildPortMap translates PortBindings into the SDK's exposed-port set
// and host binding map.
func buildPortMap(ports []model.PortBinding) (nat.PortSet, nat.PortMap, error) {
	exposed := nat.PortSet{}
	bindings := nat.PortMap{}

	for _, pb := range ports {
		port, err := nat.NewPort(pb.Protocol, fmt.Sprintf("%d", pb.ContainerPort))
		if err != nil {
			return nil, nil, fmt.Errorf("port %d/%s: %w", pb.ContainerPort, pb.Protocol, err)
		}

		exposed[port] = struct{}{}
		bindings[port] = append(bindings[port], nat.PortBinding{
			// Empty HostIP publishes on all interfaces, matching the
			// descriptor's "host:container" shorthand semantics.
			HostPort: fmt.Sprintf("%d", pb.HostPort),
		})
	}

	return exposed, bindings, nil
}

// buildMounts translates domain mounts into SDK mount specs.
func buildMounts(mounts []model.Mount) []mount.Mount {
	result := make([]mount.Mount, 0, len(mounts))
	for _, m := range mounts {
		kind := mount.TypeVolume
		if m.Kind == model.MountBind {
			kind = mount.TypeBind
		}
		result = append(result, mount.Mount{
			Type:     kind,
			Source:   m.Source,
			Target:   m.Target,
			ReadOnly: m.ReadOnly,
		})
	}
	return result
}

// restartPolicy translates the domain restart policy into the SDK enum.
func restartPolicy(p model.RestartPolicy) container.RestartPolicy {
	switch p {
	case model.RestartAlways:
		return container.RestartPolicy{Name: container.RestartPolicyAlways}
	case model.RestartOnFailure:
		return container.RestartPolicy{Name: container.RestartPolicyOnFailure}
	case model.RestartUnlessStopped:
		return container.RestartPolicy{Name: container.RestartPolicyUnlessStopped}
	default:
		return container.RestartPolicy{Name: container.RestartPolicyDisabled}
	}
}
