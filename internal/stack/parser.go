// parser.go loads a stack descriptor from YAML and normalizes the
// shorthand forms into typed values.
//
// Port shorthand follows the familiar "host:container[/protocol]" format.
// Volume shorthand follows "source:target[:ro]": a source starting with
// "/", "./" or "../" is a host bind mount (relative paths are resolved
// against the descriptor's directory), anything else references a named
// volume declared at the top level.
package stack

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Roman-Andr/botstack/internal/model"
)

// Load reads and parses a stack descriptor file, returning the normalized
// Stack. The file's directory is used as the base for resolving relative
// bind mount sources and build contexts.
//
// Returns a model.CLIError with ExitStackFileNotFound if the file does not
// exist, and ExitValidationFailed for parse or normalization errors.
func Load(path string) (*Stack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, model.WrapCLIError(model.ExitStackFileNotFound,
				fmt.Sprintf("stack file %q not found", path), err)
		}
		return nil, model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("failed to read stack file %q", path), err)
	}

	baseDir := filepath.Dir(path)
	st, err := Parse(data, baseDir)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitValidationFailed,
			fmt.Sprintf("invalid stack file %q", path), err)
	}
	return st, nil
}

// Parse parses raw descriptor YAML and normalizes it into a Stack.
// baseDir is the directory relative bind sources and build contexts are
// resolved against (typically the descriptor's directory).
func Parse(data []byte, baseDir string) (*Stack, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse stack YAML: %w", err)
	}
	return Normalize(&file, baseDir)
}

// Normalize expands a raw File into a typed Stack, applying defaults and
// resolving shorthand. Structural invariants are checked afterwards by
// Validate; Normalize only rejects forms it cannot represent.
func Normalize(file *File, baseDir string) (*Stack, error) {
	if file.Stack == "" {
		return nil, fmt.Errorf("stack name is required")
	}
	if err := model.ValidateName(file.Stack); err != nil {
		return nil, err
	}
	if len(file.Services) == 0 {
		return nil, fmt.Errorf("stack %q declares no services", file.Stack)
	}

	st := &Stack{
		Name:     file.Stack,
		Services: make(map[string]Service, len(file.Services)),
	}

	for name := range file.Volumes {
		st.Volumes = append(st.Volumes, name)
	}
	sort.Strings(st.Volumes)

	for name, raw := range file.Services {
		svc, err := normalizeService(file.Stack, name, raw, baseDir)
		if err != nil {
			return nil, fmt.Errorf("service %q: %w", name, err)
		}
		st.Services[name] = *svc
	}

	return st, nil
}

// normalizeService converts one raw service definition into its typed form.
func normalizeService(stackName, name string, raw ServiceFile, baseDir string) (*Service, error) {
	if err := model.ValidateName(name); err != nil {
		return nil, err
	}

	restart, err := model.ParseRestartPolicy(raw.Restart)
	if err != nil {
		return nil, err
	}

	svc := &Service{
		Name:        name,
		Image:       raw.Image,
		Command:     raw.Command,
		Environment: raw.Environment,
		Restart:     restart,
	}

	if raw.Build != "" {
		// Build-based services get a deterministic local tag so repeated
		// deploys reuse the tag instead of accumulating dangling images.
		svc.BuildContext = resolveHostPath(raw.Build, baseDir)
		svc.Image = stackName + "-" + name
	}

	for _, spec := range raw.Ports {
		pb, err := parsePortShorthand(name, spec)
		if err != nil {
			return nil, err
		}
		svc.Ports = append(svc.Ports, *pb)
	}

	for _, spec := range raw.Volumes {
		m, err := parseMountShorthand(spec, baseDir)
		if err != nil {
			return nil, err
		}
		svc.Mounts = append(svc.Mounts, *m)
	}

	return svc, nil
}

// parsePortShorthand parses "host:container[/protocol]" into a PortBinding.
// A bare "port" publishes the same number on host and container.
func parsePortShorthand(serviceName, spec string) (*model.PortBinding, error) {
	portPart := spec
	protocol := "tcp"
	if idx := strings.LastIndex(spec, "/"); idx >= 0 {
		portPart = spec[:idx]
		protocol = spec[idx+1:]
	}

	var hostStr, containerStr string
	switch parts := strings.Split(portPart, ":"); len(parts) {
	case 1:
		hostStr, containerStr = parts[0], parts[0]
	case 2:
		hostStr, containerStr = parts[0], parts[1]
	default:
		return nil, fmt.Errorf("invalid port %q (expected host:container[/protocol])", spec)
	}

	hostPort, err := strconv.Atoi(hostStr)
	if err != nil {
		return nil, fmt.Errorf("invalid host port in %q: %w", spec, err)
	}
	containerPort, err := strconv.Atoi(containerStr)
	if err != nil {
		return nil, fmt.Errorf("invalid container port in %q: %w", spec, err)
	}

	pb := &model.PortBinding{
		ServiceName:   serviceName,
		HostPort:      hostPort,
		ContainerPort: containerPort,
		Protocol:      protocol,
	}
	if err := pb.Validate(); err != nil {
		return nil, err
	}
	return pb, nil
}

// parseMountShorthand parses "source:target[:ro]" into a Mount. The mount
// kind is decided by the source: paths are binds, names are volumes.
func parseMountShorthand(spec, baseDir string) (*model.Mount, error) {
	parts := strings.Split(spec, ":")

	readOnly := false
	if len(parts) == 3 {
		switch parts[2] {
		case "ro":
			readOnly = true
		case "rw":
			// rw is the default; accepted for compose compatibility.
		default:
			return nil, fmt.Errorf("invalid mount option %q in %q (valid: ro, rw)", parts[2], spec)
		}
		parts = parts[:2]
	}
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid mount %q (expected source:target[:ro])", spec)
	}

	source, target := parts[0], parts[1]
	if source == "" || target == "" {
		return nil, fmt.Errorf("invalid mount %q: source and target are required", spec)
	}

	m := &model.Mount{
		Target:   target,
		ReadOnly: readOnly,
	}

	if isHostPath(source) {
		m.Kind = model.MountBind
		m.Source = resolveHostPath(source, baseDir)
	} else {
		m.Kind = model.MountVolume
		m.Source = source
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// isHostPath reports whether a mount source denotes a host filesystem path
// rather than a named volume.
func isHostPath(source string) bool {
	return strings.HasPrefix(source, "/") ||
		strings.HasPrefix(source, "./") ||
		strings.HasPrefix(source, "../") ||
		source == "."
}

// resolveHostPath makes a host path absolute, resolving relative paths
// against the descriptor's directory so the deploy does not depend on the
// CLI's working directory.
func resolveHostPath(p, baseDir string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Clean(filepath.Join(baseDir, p))
}
