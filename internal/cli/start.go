// Package cli — start.go implements the "botstack start" command.
//
// Start resumes a previously stopped stack. Before starting containers,
// it verifies that all published host ports are still available. If any
// port is in use by another process, the command fails with exit code 4
// (port conflict) instead of silently starting containers with broken
// port mappings.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Roman-Andr/botstack/internal/docker"
	"github.com/Roman-Andr/botstack/internal/model"
	"github.com/Roman-Andr/botstack/internal/port"
)

// NewStartCommand creates the "start" cobra command.
func NewStartCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start [stack]",
		Short: "Start a stopped stack",
		Long: `Start all containers of a previously stopped stack.

Before starting, the command verifies that all published host ports are
still available. If any port conflict is detected, the command exits
with code 4 and reports which ports are in use.

Without an argument the stack name is read from the descriptor.

Examples:
  botstack start
  botstack start cosmetic-bot`,

		Args: cobra.MaximumNArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runStart(cmd.Context(), argOrEmpty(args))
		},
	}

	return cmd
}

// runStart checks port availability and starts every stopped container of
// the stack.
func runStart(ctx context.Context, stackName string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if stackName == "" {
		st, err := loadStack(cfg)
		if err != nil {
			return err
		}
		stackName = st.Name
	}

	cli, err := connectDocker(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()

	containers, err := docker.ListStackContainers(ctx, cli, stackName)
	if err != nil {
		return err
	}
	if len(containers) == 0 {
		return model.NewCLIError(model.ExitStackNotFound,
			fmt.Sprintf("no deployed stack %q found on this host", stackName))
	}

	// Port availability is checked against the stopped containers'
	// configured bindings, read back from the engine. A running container
	// of this stack holds its own ports, so only stopped ones count.
	scanner := port.NewScanner()
	var conflicts []int
	for _, c := range containers {
		if c.Status == "running" {
			continue
		}
		bindings, err := containerPortBindings(ctx, cli, c.ContainerID)
		if err != nil {
			return err
		}
		for _, b := range bindings {
			if !scanner.IsPortAvailable(b.hostPort, b.protocol) {
				conflicts = append(conflicts, b.hostPort)
			}
		}
	}
	if len(conflicts) > 0 {
		return model.NewCLIError(model.ExitPortConflict,
			fmt.Sprintf("port conflict: the following ports are already in use: %v", conflicts))
	}

	started := 0
	for _, c := range containers {
		if c.Status == "running" {
			VerboseLog("Container %s already running, skipping", c.ContainerName)
			continue
		}
		VerboseLog("Starting container %s (%s)...", c.ContainerName, c.ContainerID[:12])
		if err := docker.StartContainer(ctx, cli, c.ContainerID); err != nil {
			return err
		}
		started++
	}

	printStartResult(stackName, started, len(containers))
	return nil
}

// hostBinding is one host-side port binding read from a container's
// configuration.
type hostBinding struct {
	hostPort int
	protocol string
}

// containerPortBindings inspects a container and returns its configured
// host port bindings.
func containerPortBindings(ctx context.Context, cli *docker.Client, containerID string) ([]hostBinding, error) {
	inspect, err := cli.Inner().ContainerInspect(ctx, containerID)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitDockerNotRunning,
			fmt.Sprintf("failed to inspect container %q", containerID), err)
	}
	if inspect.HostConfig == nil {
		return nil, nil
	}

	var bindings []hostBinding
	for natPort, hostPorts := range inspect.HostConfig.PortBindings {
		proto := natPort.Proto()
		for _, hp := range hostPorts {
			n, err := strconv.Atoi(strings.TrimSpace(hp.HostPort))
			if err != nil {
				continue
			}
			bindings = append(bindings, hostBinding{hostPort: n, protocol: proto})
		}
	}
	return bindings, nil
}

// printStartResult outputs the start command result in text or JSON
// format.
func printStartResult(stackName string, started, total int) {
	if IsJSONOutput() {
		result := map[string]interface{}{
			"stack":             stackName,
			"action":            "started",
			"containersStarted": started,
			"containersTotal":   total,
		}
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("Started stack %q (%d of %d containers were stopped)\n", stackName, started, total)
}
