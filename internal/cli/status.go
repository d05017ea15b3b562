// Package cli — status.go implements the "botstack status" command.
//
// Status is read-only: everything shown is derived from the Docker API
// and the botstack.* labels, never from local state files. Without an
// argument it summarizes every managed stack on the host; with a stack
// name it lists that stack's containers.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	units "github.com/docker/go-units"
	"github.com/spf13/cobra"

	"github.com/Roman-Andr/botstack/internal/docker"
	"github.com/Roman-Andr/botstack/internal/model"
)

// stackSummary is one row of the all-stacks overview.
type stackSummary struct {
	Name       string            `json:"name"`
	Status     model.StackStatus `json:"status"`
	Containers int               `json:"containers"`
	Running    int               `json:"running"`
}

// serviceStatus is one row of the per-stack detail view.
type serviceStatus struct {
	Service       string `json:"service"`
	ContainerName string `json:"containerName"`
	Status        string `json:"status"`
	Uptime        string `json:"uptime,omitempty"`
	DeployID      string `json:"deployId,omitempty"`
}

// NewStatusCommand creates the "status" cobra command.
func NewStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status [stack]",
		Short: "Show the state of deployed stacks",
		Long: `Show deployed stacks and their container states.

Without an argument, every botstack-managed stack on the host is listed
with its aggregate status (running, degraded, or stopped). With a stack
name, the individual containers are shown.

Examples:
  botstack status
  botstack status cosmetic-bot
  botstack status --json`,

		Args: cobra.MaximumNArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.Context(), argOrEmpty(args))
		},
	}

	return cmd
}

// runStatus dispatches to the overview or the per-stack detail view.
func runStatus(ctx context.Context, stackName string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	cli, err := connectDocker(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()

	if stackName == "" {
		return printAllStacks(ctx, cli)
	}
	return printStackDetail(ctx, cli, stackName)
}

// printAllStacks lists every managed stack with its aggregate status.
func printAllStacks(ctx context.Context, cli *docker.Client) error {
	containers, err := docker.ListManagedContainers(ctx, cli)
	if err != nil {
		return err
	}

	summaries := summarizeStacks(containers)

	if IsJSONOutput() {
		data, _ := json.MarshalIndent(summaries, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	if len(summaries) == 0 {
		fmt.Println("No botstack-managed stacks found")
		return nil
	}

	fmt.Printf("%-24s %-10s %s\n", "STACK", "STATUS", "CONTAINERS")
	for _, s := range summaries {
		fmt.Printf("%-24s %-10s %d/%d running\n", s.Name, s.Status, s.Running, s.Containers)
	}
	return nil
}

// summarizeStacks groups containers by stack and aggregates their states.
// Pure function, separated from printAllStacks for testability.
func summarizeStacks(containers []model.ContainerInfo) []stackSummary {
	groups := docker.GroupContainersByStack(containers)

	summaries := make([]stackSummary, 0, len(groups))
	for name, group := range groups {
		running := 0
		for _, c := range group {
			if c.Status == "running" {
				running++
			}
		}
		summaries = append(summaries, stackSummary{
			Name:       name,
			Status:     docker.AggregateStatus(group),
			Containers: len(group),
			Running:    running,
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Name < summaries[j].Name
	})
	return summaries
}

// printStackDetail lists the containers of one stack.
func printStackDetail(ctx context.Context, cli *docker.Client, stackName string) error {
	containers, err := docker.ListStackContainers(ctx, cli, stackName)
	if err != nil {
		return err
	}
	if len(containers) == 0 {
		return model.NewCLIError(model.ExitStackNotFound,
			fmt.Sprintf("no deployed stack %q found on this host", stackName))
	}

	rows := serviceRows(containers, time.Now())

	if IsJSONOutput() {
		out := struct {
			Stack    string            `json:"stack"`
			Status   model.StackStatus `json:"status"`
			Services []serviceStatus   `json:"services"`
		}{
			Stack:    stackName,
			Status:   docker.AggregateStatus(containers),
			Services: rows,
		}
		data, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("Stack %q: %s\n\n", stackName, docker.AggregateStatus(containers))
	fmt.Printf("  %-24s %-30s %-10s %s\n", "SERVICE", "CONTAINER", "STATUS", "UPTIME")
	for _, row := range rows {
		uptime := row.Uptime
		if uptime == "" {
			uptime = "-"
		}
		fmt.Printf("  %-24s %-30s %-10s %s\n", row.Service, row.ContainerName, row.Status, uptime)
	}
	return nil
}

// serviceRows converts container infos into display rows. The uptime is
// derived from the botstack.created-at label; containers that are not
// running, or whose label is missing, show no uptime.
func serviceRows(containers []model.ContainerInfo, now time.Time) []serviceStatus {
	rows := make([]serviceStatus, 0, len(containers))
	for _, c := range containers {
		row := serviceStatus{
			Service:       c.ServiceName,
			ContainerName: c.ContainerName,
			Status:        c.Status,
			DeployID:      c.Labels[docker.LabelDeployID],
		}
		if c.Status == "running" && !c.CreatedAt.IsZero() {
			row.Uptime = units.HumanDuration(now.Sub(c.CreatedAt))
		}
		rows = append(rows, row)
	}
	return rows
}
