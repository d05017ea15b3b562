package docker

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Roman-Andr/botstack/internal/stack"
)

// Label key constants define the Docker label keys used to persist stack
// metadata on containers and volumes. These labels serve as the sole
// persistence mechanism — there is no external state file.
//
// All keys share the "botstack." prefix to namespace them and avoid
// collisions with labels set by other tools.
const (
	// LabelPrefix is the common prefix for all botstack labels.
	LabelPrefix = "botstack."

	// LabelManagedBy identifies containers and volumes managed by
	// botstack. This is the primary label used for filtering.
	// Key: "botstack.managed-by", Value: always "botstack".
	LabelManagedBy = LabelPrefix + "managed-by"

	// LabelStack stores the stack name.
	// Key: "botstack.stack", Value: stack name (e.g., "cosmetic-bot").
	LabelStack = LabelPrefix + "stack"

	// LabelService stores the stack service name a container was created
	// for. Key: "botstack.service", Value: service name (e.g., "grafana").
	// Not set on volumes — a volume belongs to the stack, not to the
	// container that currently mounts it.
	LabelService = LabelPrefix + "service"

	// LabelDeployID stores the UUID of the up-run that created the
	// container. All containers created in one `up` share an ID, which
	// groups them in `status --json` output and engine-side debugging.
	LabelDeployID = LabelPrefix + "deploy-id"

	// LabelConfigHash stores a short hash of the normalized service
	// definition. `up` compares it against the descriptor to decide
	// whether an existing container must be recreated.
	LabelConfigHash = LabelPrefix + "config-hash"

	// LabelCreatedAt stores the RFC3339 timestamp of container creation.
	LabelCreatedAt = LabelPrefix + "created-at"
)

// ManagedByValue is the constant value for the LabelManagedBy label.
const ManagedByValue = "botstack"

// BuildServiceLabels constructs the Docker label map applied to a service
// container. The container can be fully attributed (stack, service,
// deploy run, config revision) from inspection alone.
func BuildServiceLabels(stackName string, svc *stack.Service, deployID string, createdAt time.Time) map[string]string {
	return map[string]string{
		LabelManagedBy:  ManagedByValue,
		LabelStack:      stackName,
		LabelService:    svc.Name,
		LabelDeployID:   deployID,
		LabelConfigHash: ServiceConfigHash(svc),
		// UTC keeps the timestamp stable regardless of host timezone.
		LabelCreatedAt: createdAt.UTC().Format(time.RFC3339),
	}
}

// BuildVolumeLabels constructs the Docker label map applied to a named
// volume. Volumes carry no service label: their lifecycle is independent
// of any container.
func BuildVolumeLabels(stackName string) map[string]string {
	return map[string]string{
		LabelManagedBy: ManagedByValue,
		LabelStack:     stackName,
	}
}

// ServiceConfigHash returns a short, stable hash of a normalized service
// definition. Two definitions hash equal exactly when a container created
// from one would be valid for the other, so `up` can skip recreating
// unchanged services.
func ServiceConfigHash(svc *stack.Service) string {
	// The JSON encoding of the normalized Service is deterministic:
	// struct field order is fixed and slices preserve descriptor order.
	data, err := json.Marshal(svc)
	if err != nil {
		// Service contains only plain data types; Marshal cannot fail.
		// Fall back to the name so the container is recreated rather
		// than silently kept.
		data = []byte(svc.Name)
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:12]
}

// VolumeOwnedByStack reports whether a volume's labels mark it as managed
// by botstack for the given stack.
func VolumeOwnedByStack(labels map[string]string, stackName string) bool {
	return labels[LabelManagedBy] == ManagedByValue && labels[LabelStack] == stackName
}

// RequireStackLabels verifies that a label map carries the botstack
// management labels and returns the stack and service names.
// Used when reconstructing stack state from container listings.
func RequireStackLabels(labels map[string]string) (stackName, serviceName string, err error) {
	var missing []string
	for _, key := range []string{LabelManagedBy, LabelStack, LabelService} {
		if _, ok := labels[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return "", "", fmt.Errorf("missing required Docker labels: %s", strings.Join(missing, ", "))
	}

	if labels[LabelManagedBy] != ManagedByValue {
		return "", "", fmt.Errorf(
			"label %s has unexpected value %q (expected %q)",
			LabelManagedBy, labels[LabelManagedBy], ManagedByValue,
		)
	}

	return labels[LabelStack], labels[LabelService], nil
}

// ParseCreatedAt reads the creation timestamp label, returning the zero
// time if the label is absent or malformed. The timestamp is advisory
// display data, not state, so parse failures are not fatal.
func ParseCreatedAt(labels map[string]string) time.Time {
	raw, ok := labels[LabelCreatedAt]
	if !ok {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
