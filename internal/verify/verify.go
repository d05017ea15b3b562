package verify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Roman-Andr/botstack/internal/docker"
	"github.com/Roman-Andr/botstack/internal/model"
	"github.com/Roman-Andr/botstack/internal/port"
	"github.com/Roman-Andr/botstack/internal/stack"
)

// CheckResult is the outcome of a single verification check.
type CheckResult struct {
	// Name identifies the check (e.g., "services-running").
	Name string `json:"name"`

	// Detail is a short human-readable summary of what was observed.
	Detail string `json:"detail"`

	// Err is non-nil if the check failed. Serialized as a string.
	Err error `json:"-"`
}

// OK reports whether the check passed.
func (r *CheckResult) OK() bool {
	return r.Err == nil
}

// Report aggregates the results of a verification run.
type Report struct {
	Stack   string        `json:"stack"`
	Results []CheckResult `json:"results"`
}

// Failed returns the number of failed checks.
func (r *Report) Failed() int {
	n := 0
	for i := range r.Results {
		if !r.Results[i].OK() {
			n++
		}
	}
	return n
}

// OK reports whether every check passed.
func (r *Report) OK() bool {
	return r.Failed() == 0
}

// Err converts a failed report into a CLIError with ExitVerifyFailed,
// or nil if everything passed.
func (r *Report) Err() error {
	if r.OK() {
		return nil
	}
	return model.NewCLIError(model.ExitVerifyFailed,
		fmt.Sprintf("%d of %d verification checks failed", r.Failed(), len(r.Results)))
}

// Options configures a verification run.
type Options struct {
	// Stack is the normalized descriptor the deployment is checked
	// against.
	Stack *stack.Stack

	// Docker is the engine client used for container and volume checks.
	Docker *docker.Client

	// PrometheusURL is the base URL of the deployed metrics database.
	// When empty, the Prometheus checks are skipped (e.g., a stack
	// without a prometheus service).
	PrometheusURL string

	// ProbeTimeout bounds the port reachability checks.
	ProbeTimeout time.Duration
}

// Run executes the full check suite and returns a Report. Individual
// check failures do not abort the run: every check always executes, so
// one report shows the whole state of the stack.
func Run(ctx context.Context, opts Options) *Report {
	report := &Report{Stack: opts.Stack.Name}

	report.Results = append(report.Results, checkServicesRunning(ctx, opts))
	report.Results = append(report.Results, checkVolumesPresent(ctx, opts))
	report.Results = append(report.Results, checkPortsReachable(ctx, opts))

	if opts.PrometheusURL != "" {
		checker, err := NewPromChecker(opts.PrometheusURL)
		if err != nil {
			report.Results = append(report.Results, CheckResult{
				Name: "metrics-retention", Err: err,
			})
		} else {
			report.Results = append(report.Results, checker.CheckRetention(ctx, retentionFromStack(opts.Stack)))
			report.Results = append(report.Results, checker.CheckQueryBack(ctx))
			report.Results = append(report.Results, checker.CheckFilesystemMounts(ctx, stack.MountExcludeRegex))
		}
	}

	return report
}

// checkServicesRunning verifies every declared service has a running
// container on the host.
func checkServicesRunning(ctx context.Context, opts Options) CheckResult {
	result := CheckResult{Name: "services-running"}

	containers, err := docker.ListStackContainers(ctx, opts.Docker, opts.Stack.Name)
	if err != nil {
		result.Err = err
		return result
	}

	state := make(map[string]string, len(containers))
	for _, c := range containers {
		state[c.ServiceName] = c.Status
	}

	var missing, stopped []string
	for _, name := range opts.Stack.ServiceNames() {
		status, ok := state[name]
		switch {
		case !ok:
			missing = append(missing, name)
		case status != "running":
			stopped = append(stopped, fmt.Sprintf("%s(%s)", name, status))
		}
	}

	if len(missing) > 0 || len(stopped) > 0 {
		var parts []string
		if len(missing) > 0 {
			parts = append(parts, "no container for: "+strings.Join(missing, ", "))
		}
		if len(stopped) > 0 {
			parts = append(parts, "not running: "+strings.Join(stopped, ", "))
		}
		result.Err = fmt.Errorf("%s", strings.Join(parts, "; "))
		return result
	}

	result.Detail = fmt.Sprintf("all %d services running", len(opts.Stack.Services))
	return result
}

// checkVolumesPresent verifies every declared named volume exists on the
// host. Volumes are created exactly once on first deploy and must survive
// stop/start cycles, so a missing volume means data did not persist.
func checkVolumesPresent(ctx context.Context, opts Options) CheckResult {
	result := CheckResult{Name: "volumes-present"}

	existing, err := docker.ListStackVolumes(ctx, opts.Docker, opts.Stack.Name)
	if err != nil {
		result.Err = err
		return result
	}

	have := make(map[string]bool, len(existing))
	for _, name := range existing {
		have[name] = true
	}

	var missing []string
	for _, name := range opts.Stack.Volumes {
		if !have[name] {
			missing = append(missing, name)
		}
	}

	if len(missing) > 0 {
		result.Err = fmt.Errorf("declared volumes not found: %s", strings.Join(missing, ", "))
		return result
	}

	result.Detail = fmt.Sprintf("all %d declared volumes present", len(opts.Stack.Volumes))
	return result
}

// checkPortsReachable verifies every published TCP port accepts a
// connection from the host within the probe timeout.
func checkPortsReachable(ctx context.Context, opts Options) CheckResult {
	result := CheckResult{Name: "ports-reachable"}

	var ports []int
	for _, pb := range opts.Stack.PortBindings() {
		if pb.Protocol == "tcp" {
			ports = append(ports, pb.HostPort)
		}
	}

	prober := port.NewProber()
	if err := prober.WaitAllReachable(ctx, ports, opts.ProbeTimeout); err != nil {
		result.Err = err
		return result
	}

	result.Detail = fmt.Sprintf("%d published ports reachable: %v", len(ports), ports)
	return result
}

// retentionFromStack extracts the retention value from the prometheus
// service's command flags, falling back to the canonical default when the
// flag is absent.
func retentionFromStack(st *stack.Stack) string {
	const flag = "--storage.tsdb.retention.time="
	for _, svc := range st.Services {
		for _, arg := range svc.Command {
			if strings.HasPrefix(arg, flag) {
				return strings.TrimPrefix(arg, flag)
			}
		}
	}
	return stack.RetentionTime
}
