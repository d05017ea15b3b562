package model

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// StackStatus represents the aggregate lifecycle state of a deployed stack.
// The state transitions are:
//
//	[Deployed] → Running ⇄ Stopped → [Removed]
//	Running → Degraded (when only some containers are running)
type StackStatus string

const (
	// StatusRunning indicates all containers in the stack are running.
	StatusRunning StackStatus = "running"

	// StatusDegraded indicates some, but not all, containers are running.
	// The restart policy normally heals this state without operator action.
	StatusDegraded StackStatus = "degraded"

	// StatusStopped indicates containers exist but none are running.
	// Named volumes and their data are preserved.
	StatusStopped StackStatus = "stopped"
)

// String returns the string representation of StackStatus.
func (s StackStatus) String() string {
	return string(s)
}

// IsValid checks whether the StackStatus value is one of the
// predefined valid states.
func (s StackStatus) IsValid() bool {
	switch s {
	case StatusRunning, StatusDegraded, StatusStopped:
		return true
	default:
		return false
	}
}

// ParseStackStatus converts a string to a StackStatus.
// Returns an error if the string does not match any valid status.
func ParseStackStatus(s string) (StackStatus, error) {
	status := StackStatus(strings.ToLower(s))
	if !status.IsValid() {
		return "", fmt.Errorf("invalid stack status: %q (valid: running, degraded, stopped)", s)
	}
	return status, nil
}

// RestartPolicy is the orchestrator rule for relaunching a stopped or
// crashed container. Values mirror the Docker engine's restart policy names.
type RestartPolicy string

const (
	// RestartNo disables automatic restarts.
	RestartNo RestartPolicy = "no"

	// RestartAlways restarts the container regardless of exit status,
	// including after a daemon restart even if the container was stopped.
	RestartAlways RestartPolicy = "always"

	// RestartOnFailure restarts the container only on non-zero exit.
	RestartOnFailure RestartPolicy = "on-failure"

	// RestartUnlessStopped restarts the container indefinitely unless it
	// was explicitly stopped by an operator. This is the default policy
	// for every service in the stack.
	RestartUnlessStopped RestartPolicy = "unless-stopped"
)

// String returns the string representation of RestartPolicy.
func (p RestartPolicy) String() string {
	return string(p)
}

// IsValid checks whether the RestartPolicy value is one of the policies
// the Docker engine accepts.
func (p RestartPolicy) IsValid() bool {
	switch p {
	case RestartNo, RestartAlways, RestartOnFailure, RestartUnlessStopped:
		return true
	default:
		return false
	}
}

// ParseRestartPolicy converts a string to a RestartPolicy. The empty
// string defaults to "unless-stopped", matching the stack descriptor's
// default. Returns an error for unrecognized values.
func ParseRestartPolicy(s string) (RestartPolicy, error) {
	if s == "" {
		return RestartUnlessStopped, nil
	}
	policy := RestartPolicy(strings.ToLower(s))
	if !policy.IsValid() {
		return "", fmt.Errorf("invalid restart policy: %q (valid: no, always, on-failure, unless-stopped)", s)
	}
	return policy, nil
}

// nameRegex validates stack and service names: alphanumeric + hyphens only,
// must start and end with alphanumeric.
var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-]*[a-zA-Z0-9]$|^[a-zA-Z0-9]$`)

// ValidateName checks if the given name is a valid stack or service name.
// Valid names contain only alphanumeric characters and hyphens,
// and must start/end with an alphanumeric character.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("name must not be empty")
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("invalid name %q: must contain only alphanumeric characters and hyphens, and start/end with alphanumeric", name)
	}
	return nil
}

// PortBinding represents a single published port: a container port exposed
// on a host port. Collisions on the host side are rejected at descriptor
// validation time, before anything touches the Docker daemon.
type PortBinding struct {
	// ServiceName is the stack service that owns this binding.
	ServiceName string `json:"serviceName"`

	// ContainerPort is the port number inside the container (1-65535).
	ContainerPort int `json:"containerPort"`

	// HostPort is the port number published on the host (1-65535).
	// Must be unique across all services in the stack for a given protocol.
	HostPort int `json:"hostPort"`

	// Protocol is the network protocol for the binding.
	// Defaults to "tcp". Also supports "udp".
	Protocol string `json:"protocol"`
}

// Validate checks whether the PortBinding has valid field values.
func (p *PortBinding) Validate() error {
	if p.ServiceName == "" {
		return fmt.Errorf("port binding: service name must not be empty")
	}
	if p.ContainerPort < 1 || p.ContainerPort > 65535 {
		return fmt.Errorf("port binding: container port %d out of range (1-65535)", p.ContainerPort)
	}
	if p.HostPort < 1 || p.HostPort > 65535 {
		return fmt.Errorf("port binding: host port %d out of range (1-65535)", p.HostPort)
	}
	if p.Protocol == "" {
		p.Protocol = "tcp"
	}
	if p.Protocol != "tcp" && p.Protocol != "udp" {
		return fmt.Errorf("port binding: invalid protocol %q (valid: tcp, udp)", p.Protocol)
	}
	return nil
}

// String returns a human-readable representation of the binding.
// Format: "service:hostPort->containerPort/protocol".
func (p *PortBinding) String() string {
	proto := p.Protocol
	if proto == "" {
		proto = "tcp"
	}
	return fmt.Sprintf("%s:%d->%d/%s", p.ServiceName, p.HostPort, p.ContainerPort, proto)
}

// ValidatePortBindings checks a slice of PortBindings for individual
// validity and host port uniqueness. Each host port/protocol pair can be
// bound exactly once: a second binding — whether from another service or
// a duplicate entry in the same service — would fail at container
// creation, so the collision is rejected up front.
func ValidatePortBindings(bindings []PortBinding) error {
	// Key: "hostPort/protocol", Value: service name that owns it.
	seen := make(map[string]string)

	for i := range bindings {
		if err := bindings[i].Validate(); err != nil {
			return err
		}

		// Different protocols on the same port are allowed (e.g., 9090/tcp
		// and 9090/udp).
		key := fmt.Sprintf("%d/%s", bindings[i].HostPort, bindings[i].Protocol)
		if existing, exists := seen[key]; exists {
			if existing == bindings[i].ServiceName {
				return fmt.Errorf("port binding: host port %s is listed twice by service %q",
					key, existing)
			}
			return fmt.Errorf("port binding: host port %s is published by both %q and %q",
				key, existing, bindings[i].ServiceName)
		}
		seen[key] = bindings[i].ServiceName
	}
	return nil
}

// MountKind distinguishes named volumes from host bind mounts.
type MountKind string

const (
	// MountVolume is an engine-managed named volume. Its lifecycle is
	// independent of any container: created on first use, it survives
	// container recreation and is destroyed only on explicit removal.
	MountVolume MountKind = "volume"

	// MountBind is a direct mapping of a host path into the container's
	// filesystem namespace. Its lifecycle is tied to the host filesystem.
	MountBind MountKind = "bind"
)

// Mount represents one mount entry of a service: either a named volume or
// a host bind, mounted at a container path, optionally read-only.
type Mount struct {
	// Kind is "volume" or "bind".
	Kind MountKind `json:"kind"`

	// Source is the volume name (Kind == MountVolume) or the host path
	// (Kind == MountBind).
	Source string `json:"source"`

	// Target is the absolute mount path inside the container.
	Target string `json:"target"`

	// ReadOnly marks the mount read-only inside the container. Used for
	// the host /proc, /sys and / mounts consumed by node-exporter.
	ReadOnly bool `json:"readOnly,omitempty"`
}

// Validate checks whether the Mount has valid field values.
func (m *Mount) Validate() error {
	if m.Kind != MountVolume && m.Kind != MountBind {
		return fmt.Errorf("mount: invalid kind %q (valid: volume, bind)", m.Kind)
	}
	if m.Source == "" {
		return fmt.Errorf("mount: source must not be empty")
	}
	if m.Target == "" {
		return fmt.Errorf("mount: target must not be empty")
	}
	if !strings.HasPrefix(m.Target, "/") {
		return fmt.Errorf("mount: target %q must be an absolute container path", m.Target)
	}
	return nil
}

// String returns a human-readable "source:target[:ro]" representation.
func (m *Mount) String() string {
	s := m.Source + ":" + m.Target
	if m.ReadOnly {
		s += ":ro"
	}
	return s
}

// ContainerInfo holds runtime information about a Docker container.
// This data is fetched dynamically from the Docker API, not persisted.
type ContainerInfo struct {
	// ContainerID is the unique Docker container identifier.
	ContainerID string `json:"containerId"`

	// ContainerName is the human-readable Docker container name.
	ContainerName string `json:"containerName"`

	// ServiceName is the stack service this container was created for,
	// read from the botstack.service label.
	ServiceName string `json:"serviceName,omitempty"`

	// Status is the Docker container state (e.g., "running", "exited").
	Status string `json:"status"`

	// CreatedAt is the container creation time reported by the engine.
	CreatedAt time.Time `json:"createdAt"`

	// Labels is the full set of Docker labels on the container, including
	// the botstack.* management labels.
	Labels map[string]string `json:"labels,omitempty"`
}

// ExitCode defines standard CLI exit codes. These codes allow scripts and
// CI systems to programmatically determine the outcome of a command.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitStackFileNotFound indicates the stack descriptor was not found
	// in the expected location.
	ExitStackFileNotFound ExitCode = 2

	// ExitDockerNotRunning indicates the Docker daemon is not accessible.
	ExitDockerNotRunning ExitCode = 3

	// ExitPortConflict indicates a published host port is unavailable or
	// declared twice.
	ExitPortConflict ExitCode = 4

	// ExitValidationFailed indicates the stack descriptor violates one of
	// its structural invariants.
	ExitValidationFailed ExitCode = 5

	// ExitStackNotFound indicates no deployed stack with the given name
	// exists on the Docker host.
	ExitStackNotFound ExitCode = 6

	// ExitVerifyFailed indicates one or more runtime verification checks
	// failed against the deployed stack.
	ExitVerifyFailed ExitCode = 7
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
