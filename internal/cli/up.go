// Package cli — up.go implements the "botstack up" command.
//
// Up is the convergence operation: it makes the Docker host match the
// stack descriptor. Named volumes are created once and reused, images are
// built for services with a build context, and containers are created or
// recreated depending on whether their stored config hash still matches
// the descriptor. Services whose definition has not changed are left
// running untouched, so repeated `up` runs are cheap and data in named
// volumes survives.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Roman-Andr/botstack/internal/config"
	"github.com/Roman-Andr/botstack/internal/docker"
	"github.com/Roman-Andr/botstack/internal/model"
	"github.com/Roman-Andr/botstack/internal/port"
	"github.com/Roman-Andr/botstack/internal/stack"
	"github.com/Roman-Andr/botstack/internal/watch"
)

// serviceAction describes what `up` did to a single service.
type serviceAction struct {
	Name   string `json:"name"`
	Action string `json:"action"` // created, recreated, started, unchanged
	Ports  []int  `json:"ports,omitempty"`
}

// upResult is the aggregate outcome of one up run.
type upResult struct {
	Stack          string          `json:"stack"`
	DeployID       string          `json:"deployId"`
	VolumesCreated []string        `json:"volumesCreated,omitempty"`
	Services       []serviceAction `json:"services"`
}

// NewUpCommand creates the "up" cobra command.
func NewUpCommand() *cobra.Command {
	var watchMode bool

	cmd := &cobra.Command{
		Use:   "up",
		Short: "Deploy the stack described by the descriptor",
		Long: `Create or update the stack on the Docker host so it matches the
descriptor.

Named volumes are created on first deploy and reused afterwards. Services
with a build context get their image rebuilt. Containers whose definition
changed since the last deploy are recreated; unchanged running containers
are left alone.

With --watch, botstack keeps running after the initial deploy and re-runs
the convergence whenever the descriptor file changes.

Examples:
  botstack up
  botstack up --watch
  botstack up --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runUp(cmd.Context(), watchMode)
		},
	}

	cmd.Flags().BoolVarP(&watchMode, "watch", "w", false, "Re-deploy whenever the descriptor file changes")

	return cmd
}

// runUp performs one deploy, then optionally enters watch mode.
func runUp(ctx context.Context, watchMode bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := deployOnce(ctx, cfg); err != nil {
		return err
	}

	if !watchMode {
		return nil
	}
	return watchLoop(ctx, cfg)
}

// deployOnce loads the descriptor and converges the host to it.
func deployOnce(ctx context.Context, cfg *config.Config) error {
	st, err := loadStack(cfg)
	if err != nil {
		return err
	}

	cli, err := connectDocker(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()

	// One deploy ID per run; every container created below carries it.
	deployID := uuid.NewString()
	result := &upResult{Stack: st.Name, DeployID: deployID}

	// Step 1: Named volumes. Created exactly once, reused forever after.
	for _, name := range st.Volumes {
		created, err := docker.EnsureVolume(ctx, cli, st.Name, name)
		if err != nil {
			return err
		}
		if created {
			VerboseLog("Created volume %q", name)
			result.VolumesCreated = append(result.VolumesCreated, name)
		} else {
			VerboseLog("Volume %q already exists, reusing", name)
		}
	}

	// Step 2: Build images for services that declare a build context.
	for _, name := range st.ServiceNames() {
		svc := st.Services[name]
		if svc.BuildContext == "" {
			continue
		}
		VerboseLog("Building image %q from %s...", svc.Image, svc.BuildContext)
		if err := docker.BuildImage(ctx, svc.Image, svc.BuildContext); err != nil {
			return err
		}
	}

	// Step 3: Diff desired services against existing containers.
	existing, err := docker.ListStackContainers(ctx, cli, st.Name)
	if err != nil {
		return err
	}
	current := make(map[string]model.ContainerInfo, len(existing))
	for _, c := range existing {
		current[c.ServiceName] = c
	}

	for _, name := range st.ServiceNames() {
		svc := st.Services[name]
		action, err := convergeService(ctx, cli, st.Name, &svc, current, deployID)
		if err != nil {
			return err
		}
		result.Services = append(result.Services, action)
	}

	// Step 4: Wait for every published TCP port to accept connections.
	var tcpPorts []int
	for _, pb := range st.PortBindings() {
		if pb.Protocol == "tcp" {
			tcpPorts = append(tcpPorts, pb.HostPort)
		}
	}
	VerboseLog("Waiting for %d published ports to become reachable...", len(tcpPorts))
	prober := port.NewProber()
	if err := prober.WaitAllReachable(ctx, tcpPorts, cfg.ProbeTimeout.Std()); err != nil {
		return model.WrapCLIError(model.ExitGeneralError,
			"stack deployed but some services did not become reachable", err)
	}

	printUpResult(st, result)
	return nil
}

// convergeService brings one service to the desired state: create it if
// absent, recreate it if its definition changed, start it if stopped, or
// leave it alone.
func convergeService(ctx context.Context, cli *docker.Client, stackName string, svc *stack.Service, current map[string]model.ContainerInfo, deployID string) (serviceAction, error) {
	action := serviceAction{Name: svc.Name}
	for _, pb := range svc.Ports {
		action.Ports = append(action.Ports, pb.HostPort)
	}

	wantHash := docker.ServiceConfigHash(svc)
	existing, exists := current[svc.Name]

	if exists && existing.Labels[docker.LabelConfigHash] == wantHash {
		if existing.Status == "running" {
			VerboseLog("Service %q unchanged, leaving container %s running", svc.Name, existing.ContainerID[:12])
			action.Action = "unchanged"
			return action, nil
		}
		// Definition unchanged but container stopped: just start it.
		VerboseLog("Service %q unchanged but stopped, starting container %s", svc.Name, existing.ContainerID[:12])
		if err := docker.StartContainer(ctx, cli, existing.ContainerID); err != nil {
			return action, err
		}
		action.Action = "started"
		return action, nil
	}

	if exists {
		// Definition changed: the old container goes away first so the
		// replacement can claim its name and ports.
		VerboseLog("Service %q changed, removing container %s", svc.Name, existing.ContainerID[:12])
		if err := docker.RemoveContainer(ctx, cli, existing.ContainerID, true); err != nil {
			return action, err
		}
		action.Action = "recreated"
	} else {
		action.Action = "created"
	}

	// Ports must be free before creating a fresh container; binding
	// failures surface late and leave a half-created container behind.
	scanner := port.NewScanner()
	var conflicts []int
	for _, pb := range svc.Ports {
		if !scanner.IsPortAvailable(pb.HostPort, pb.Protocol) {
			conflicts = append(conflicts, pb.HostPort)
		}
	}
	if len(conflicts) > 0 {
		return action, model.NewCLIError(model.ExitPortConflict,
			fmt.Sprintf("cannot deploy service %q: ports already in use: %v", svc.Name, conflicts))
	}

	containerID, err := docker.CreateService(ctx, cli, stackName, svc, deployID)
	if err != nil {
		return action, err
	}
	VerboseLog("Created container %s for service %q", containerID[:12], svc.Name)

	if err := docker.StartContainer(ctx, cli, containerID); err != nil {
		return action, err
	}
	return action, nil
}

// watchLoop blocks, re-running the deploy whenever the descriptor changes.
func watchLoop(ctx context.Context, cfg *config.Config) error {
	watcher, err := watch.New(cfg.StackFile)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("failed to watch %q", cfg.StackFile), err)
	}
	defer func() { _ = watcher.Close() }()

	fmt.Fprintf(os.Stderr, "Watching %s for changes (Ctrl-C to stop)...\n", cfg.StackFile)

	go func() {
		for err := range watcher.Errs {
			printError("re-deploy failed", err)
		}
	}()

	err = watcher.Run(ctx, func(ctx context.Context) error {
		fmt.Fprintf(os.Stderr, "Descriptor changed, re-deploying...\n")
		return deployOnce(ctx, cfg)
	})
	if err == context.Canceled {
		return nil
	}
	return err
}

// printUpResult outputs the up command result in text or JSON format.
func printUpResult(st *stack.Stack, result *upResult) {
	if IsJSONOutput() {
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("Stack %q is up (deploy %s)\n", result.Stack, result.DeployID[:8])

	if len(result.VolumesCreated) > 0 {
		fmt.Println()
		fmt.Println("  Volumes created:")
		for _, name := range result.VolumesCreated {
			fmt.Printf("    %s\n", name)
		}
	}

	fmt.Println()
	fmt.Println("  Services:")
	for _, action := range result.Services {
		addr := ""
		if svc, ok := st.Services[action.Name]; ok {
			addr = formatServiceAddress(svc)
		}
		fmt.Printf("    %-22s %-10s %s\n", action.Name, action.Action, addr)
	}
}

// formatServiceAddress renders the first published port of a service as a
// local URL, or empty when the service publishes nothing.
func formatServiceAddress(svc stack.Service) string {
	if len(svc.Ports) == 0 {
		return ""
	}
	return fmt.Sprintf("http://localhost:%d", svc.Ports[0].HostPort)
}
