package stack

import (
	"sort"

	"github.com/Roman-Andr/botstack/internal/model"
)

// File is the raw YAML structure of a stack descriptor as written by the
// operator. Shorthand string forms are kept as-is here; Normalize converts
// them into the typed Stack representation.
type File struct {
	// Stack is the stack name. It namespaces container names, labels, and
	// named volumes on the Docker host.
	Stack string `yaml:"stack"`

	// Services maps service names to their definitions.
	Services map[string]ServiceFile `yaml:"services"`

	// Volumes declares the named volumes services may reference. The map
	// values are reserved for future driver options and are currently
	// ignored; only the keys matter.
	Volumes map[string]VolumeFile `yaml:"volumes,omitempty"`
}

// ServiceFile is the raw YAML form of a single service definition.
type ServiceFile struct {
	// Image is a pre-built image reference (e.g., "prom/prometheus:latest").
	// Mutually exclusive with Build.
	Image string `yaml:"image,omitempty"`

	// Build is a local build context directory. Mutually exclusive with
	// Image. The image is built and tagged as "<stack>-<service>".
	Build string `yaml:"build,omitempty"`

	// Ports lists published ports in "host:container[/protocol]" shorthand.
	Ports []string `yaml:"ports,omitempty"`

	// Volumes lists mounts in "source:target[:ro]" shorthand. A source
	// starting with "/", "./" or "../" is a host bind; anything else must
	// name a declared volume.
	Volumes []string `yaml:"volumes,omitempty"`

	// Command overrides the image's default command. Arguments are passed
	// verbatim to the container (e.g., Prometheus retention flags).
	Command []string `yaml:"command,omitempty"`

	// Environment lists "KEY=value" environment entries.
	Environment []string `yaml:"environment,omitempty"`

	// Restart is the restart policy name. Empty defaults to
	// "unless-stopped".
	Restart string `yaml:"restart,omitempty"`
}

// VolumeFile is the raw YAML form of a named volume declaration.
// Currently empty — a declaration is just a key in the volumes map —
// but kept as a struct so driver options can be added without a format
// break.
type VolumeFile struct {
	Driver string `yaml:"driver,omitempty"`
}

// Stack is the normalized, validated form of a descriptor. All shorthand
// has been expanded into typed values and defaults applied.
type Stack struct {
	// Name is the stack name.
	Name string `json:"name"`

	// Services holds the normalized service definitions, keyed by name.
	Services map[string]Service `json:"services"`

	// Volumes lists the declared named volume names, sorted.
	Volumes []string `json:"volumes,omitempty"`
}

// Service is the normalized definition of one stack service.
type Service struct {
	// Name is the service name within the stack.
	Name string `json:"name"`

	// Image is the image reference to run. For build-based services this
	// is the local tag assigned after the build ("<stack>-<service>").
	Image string `json:"image"`

	// BuildContext is the local build context directory, empty for
	// image-based services.
	BuildContext string `json:"buildContext,omitempty"`

	// Ports are the normalized published ports.
	Ports []model.PortBinding `json:"ports,omitempty"`

	// Mounts are the normalized volume and bind mounts.
	Mounts []model.Mount `json:"mounts,omitempty"`

	// Command is the container command override, if any.
	Command []string `json:"command,omitempty"`

	// Environment lists "KEY=value" environment entries.
	Environment []string `json:"environment,omitempty"`

	// Restart is the restart policy applied to the container.
	Restart model.RestartPolicy `json:"restart"`
}

// ServiceNames returns the stack's service names in sorted order, for
// deterministic iteration in deploys and output.
func (s *Stack) ServiceNames() []string {
	names := make([]string, 0, len(s.Services))
	for name := range s.Services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PortBindings returns all published ports of all services, ordered by
// service name. Used for cross-service collision checks and for the
// post-deploy reachability probe.
func (s *Stack) PortBindings() []model.PortBinding {
	var bindings []model.PortBinding
	for _, name := range s.ServiceNames() {
		bindings = append(bindings, s.Services[name].Ports...)
	}
	return bindings
}

// VolumeRefs returns the named volumes referenced by any service mount,
// sorted and deduplicated. Validation requires every entry to appear in
// the stack's declared Volumes list.
func (s *Stack) VolumeRefs() []string {
	seen := make(map[string]bool)
	for _, svc := range s.Services {
		for _, m := range svc.Mounts {
			if m.Kind == model.MountVolume {
				seen[m.Source] = true
			}
		}
	}
	refs := make([]string, 0, len(seen))
	for name := range seen {
		refs = append(refs, name)
	}
	sort.Strings(refs)
	return refs
}
