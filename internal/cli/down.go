// Package cli — down.go implements the "botstack down" command.
//
// Down tears a deployed stack off the host: all its containers are
// stopped and removed. Named volumes are preserved by default so metric
// history and dashboards survive a full redeploy; --volumes removes them
// too for a clean slate.
package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Roman-Andr/botstack/internal/docker"
	"github.com/Roman-Andr/botstack/internal/model"
)

// NewDownCommand creates the "down" cobra command.
func NewDownCommand() *cobra.Command {
	var removeVolumes bool

	cmd := &cobra.Command{
		Use:   "down [stack]",
		Short: "Stop and remove a deployed stack",
		Long: `Stop and remove all containers of a deployed stack.

Without an argument the stack name is read from the descriptor. Named
volumes are kept unless --volumes is given, so a later "up" picks up the
existing metric history and dashboards.

Examples:
  botstack down
  botstack down cosmetic-bot
  botstack down --volumes`,

		Args: cobra.MaximumNArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runDown(cmd.Context(), argOrEmpty(args), removeVolumes)
		},
	}

	cmd.Flags().BoolVar(&removeVolumes, "volumes", false, "Also remove the stack's named volumes")

	return cmd
}

// runDown removes the stack's containers and optionally its volumes.
func runDown(ctx context.Context, stackName string, removeVolumes bool) error {
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

	for _, c := range containers {
		VerboseLog("Removing container %s (%s)...", c.ContainerName, c.ContainerID[:12])
		if err := docker.RemoveContainer(ctx, cli, c.ContainerID, true); err != nil {
			return err
		}
	}

	var removedVolumes []string
	if removeVolumes {
		names, err := docker.ListStackVolumes(ctx, cli, stackName)
		if err != nil {
			return err
		}
		for _, name := range names {
			VerboseLog("Removing volume %q...", name)
			if err := docker.RemoveVolume(ctx, cli, name); err != nil {
				return err
			}
			removedVolumes = append(removedVolumes, name)
		}
	}

	printDownResult(stackName, len(containers), removedVolumes)
	return nil
}

// printDownResult outputs the down command result in text or JSON format.
func printDownResult(stackName string, removed int, volumes []string) {
	if IsJSONOutput() {
		result := map[string]interface{}{
			"stack":             stackName,
			"action":            "removed",
			"containersRemoved": removed,
		}
		if len(volumes) > 0 {
			result["volumesRemoved"] = volumes
		}
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("Removed stack %q (%d containers)\n", stackName, removed)
	for _, name := range volumes {
		fmt.Printf("  Removed volume %s\n", name)
	}
	if len(volumes) == 0 {
		fmt.Println("  Named volumes kept; use --volumes to remove them")
	}
}

// argOrEmpty returns the first positional argument or "".
func argOrEmpty(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}
