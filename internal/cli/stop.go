// Package cli — stop.go implements the "botstack stop" command.
//
// Stop halts a deployed stack's containers without removing them or
// their volumes. A stop through this command is an explicit operator
// stop: the unless-stopped restart policy will not relaunch the
// containers until "start" or "up" runs again.
package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Roman-Andr/botstack/internal/docker"
	"github.com/Roman-Andr/botstack/internal/model"
)

// NewStopCommand creates the "stop" cobra command.
func NewStopCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stop [stack]",
		Short: "Stop a deployed stack without removing it",
		Long: `Stop all containers of a deployed stack. Containers and named
volumes stay on the host, so "start" resumes the stack with its data
intact.

Without an argument the stack name is read from the descriptor.

Examples:
  botstack stop
  botstack stop cosmetic-bot`,

		Args: cobra.MaximumNArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runStop(cmd.Context(), argOrEmpty(args))
		},
	}

	return cmd
}

// runStop stops every container of the stack.
func runStop(ctx context.Context, stackName string) error {
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

	stopped := 0
	for _, c := range containers {
		if c.Status != "running" {
			VerboseLog("Container %s already stopped, skipping", c.ContainerName)
			continue
		}
		VerboseLog("Stopping container %s (%s)...", c.ContainerName, c.ContainerID[:12])
		if err := docker.StopContainer(ctx, cli, c.ContainerID); err != nil {
			return err
		}
		stopped++
	}

	printStopResult(stackName, stopped, len(containers))
	return nil
}

// printStopResult outputs the stop command result in text or JSON format.
func printStopResult(stackName string, stopped, total int) {
	if IsJSONOutput() {
		result := map[string]interface{}{
			"stack":             stackName,
			"action":            "stopped",
			"containersStopped": stopped,
			"containersTotal":   total,
		}
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("Stopped stack %q (%d of %d containers were running)\n", stackName, stopped, total)
}
