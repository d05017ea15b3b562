// render.go converts a normalized Stack back into descriptor YAML.
// Used by `botstack init` to write a starter descriptor and by
// `botstack render` to show the normalized form of an existing one.
package stack

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/Roman-Andr/botstack/internal/model"
)

// ToFile converts a normalized Stack into its raw descriptor form,
// re-collapsing typed ports and mounts into shorthand strings.
func ToFile(st *Stack) *File {
	file := &File{
		Stack:    st.Name,
		Services: make(map[string]ServiceFile, len(st.Services)),
	}

	if len(st.Volumes) > 0 {
		file.Volumes = make(map[string]VolumeFile, len(st.Volumes))
		for _, name := range st.Volumes {
			file.Volumes[name] = VolumeFile{}
		}
	}

	for _, name := range st.ServiceNames() {
		svc := st.Services[name]
		raw := ServiceFile{
			Command:     svc.Command,
			Environment: svc.Environment,
			Restart:     svc.Restart.String(),
		}

		if svc.BuildContext != "" {
			raw.Build = svc.BuildContext
		} else {
			raw.Image = svc.Image
		}

		for _, pb := range svc.Ports {
			raw.Ports = append(raw.Ports, renderPort(pb))
		}
		for _, m := range svc.Mounts {
			raw.Volumes = append(raw.Volumes, renderMount(m))
		}

		file.Services[name] = raw
	}

	return file
}

// renderMount collapses a Mount into "source:target[:ro]" shorthand.
// A bind mount whose source does not look like a path (a relative source
// such as "prometheus.yml") gets a "./" prefix, otherwise re-parsing
// would misread it as a named volume reference.
func renderMount(m model.Mount) string {
	source := m.Source
	if m.Kind == model.MountBind && !isHostPath(source) {
		source = "./" + source
	}

	s := source + ":" + m.Target
	if m.ReadOnly {
		s += ":ro"
	}
	return s
}

// renderPort collapses a PortBinding into "host:container[/protocol]"
// shorthand, omitting the default tcp protocol.
func renderPort(pb model.PortBinding) string {
	s := fmt.Sprintf("%d:%d", pb.HostPort, pb.ContainerPort)
	if pb.Protocol != "" && pb.Protocol != "tcp" {
		s += "/" + pb.Protocol
	}
	return s
}

// Marshal renders a Stack as descriptor YAML with a short header comment.
// yaml.v3 emits map keys alphabetically, so the output is deterministic
// and reproducible across runs.
func Marshal(st *Stack) ([]byte, error) {
	out, err := yaml.Marshal(ToFile(st))
	if err != nil {
		return nil, fmt.Errorf("failed to serialize stack %q: %w", st.Name, err)
	}

	header := fmt.Sprintf("# botstack descriptor for stack %q\n", st.Name)
	return append([]byte(header), out...), nil
}
