// validate.go enforces the structural invariants of a normalized stack.
//
// The checks mirror what the Docker engine would reject at deploy time,
// surfaced early with field-level messages: undeclared volume references,
// host port collisions across services, and image/build conflicts.
package stack

import (
	"fmt"
	"sort"

	"github.com/Roman-Andr/botstack/internal/model"
)

// ValidationError represents a specific validation failure in a stack
// descriptor.
type ValidationError struct {
	// Field is the descriptor field path that failed validation
	// (e.g., "services.prometheus.volumes").
	Field string

	// Message describes what's wrong with the field value.
	Message string
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("stack validation error: %s: %s", e.Field, e.Message)
}

// Validate performs structural checks on a normalized Stack. It returns a
// list of validation errors (empty list = valid stack).
//
// Checks performed:
//   - each service has exactly one of image or build
//   - every named volume referenced by a mount is declared at top level
//   - no declared volume is mounted by more than one service
//   - no two services publish the same host port/protocol
//   - restart policies are valid engine policy names
func Validate(st *Stack) []ValidationError {
	var errs []ValidationError

	declared := make(map[string]bool, len(st.Volumes))
	for _, name := range st.Volumes {
		declared[name] = true
	}

	// volumeUsers tracks which service mounts each declared volume.
	// A named volume is mounted into exactly one container path; two
	// services sharing one would couple their data lifecycles silently.
	volumeUsers := make(map[string]string)

	for _, name := range sortedServiceNames(st) {
		svc := st.Services[name]
		prefix := "services." + name

		if svc.Image == "" && svc.BuildContext == "" {
			errs = append(errs, ValidationError{
				Field:   prefix,
				Message: "one of image or build is required",
			})
		}

		if !svc.Restart.IsValid() {
			errs = append(errs, ValidationError{
				Field:   prefix + ".restart",
				Message: fmt.Sprintf("invalid restart policy %q", svc.Restart),
			})
		}

		for _, m := range svc.Mounts {
			if m.Kind != model.MountVolume {
				continue
			}
			if !declared[m.Source] {
				errs = append(errs, ValidationError{
					Field:   prefix + ".volumes",
					Message: fmt.Sprintf("volume %q is not declared in the top-level volumes section", m.Source),
				})
				continue
			}
			if owner, used := volumeUsers[m.Source]; used && owner != name {
				errs = append(errs, ValidationError{
					Field:   prefix + ".volumes",
					Message: fmt.Sprintf("volume %q is already mounted by service %q", m.Source, owner),
				})
				continue
			}
			volumeUsers[m.Source] = name
		}
	}

	if err := model.ValidatePortBindings(st.PortBindings()); err != nil {
		errs = append(errs, ValidationError{
			Field:   "services",
			Message: err.Error(),
		})
	}

	return errs
}

// ValidateStrict runs Validate and converts any failures into a single
// CLIError with ExitValidationFailed, joining the individual messages.
// This is the form the CLI layer consumes.
func ValidateStrict(st *Stack) error {
	errs := Validate(st)
	if len(errs) == 0 {
		return nil
	}

	msg := fmt.Sprintf("stack %q failed validation with %d error(s):", st.Name, len(errs))
	for i := range errs {
		msg += "\n  - " + errs[i].Field + ": " + errs[i].Message
	}
	return model.NewCLIError(model.ExitValidationFailed, msg)
}

// sortedServiceNames returns service names in sorted order so validation
// errors are reported deterministically.
func sortedServiceNames(st *Stack) []string {
	names := make([]string, 0, len(st.Services))
	for name := range st.Services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
