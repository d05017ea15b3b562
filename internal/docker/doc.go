// Package docker provides Docker Engine API wrappers and container and
// volume lifecycle management for the botstack CLI.
//
// This package handles:
//   - Docker client initialization with automatic socket detection
//     (Linux, macOS, Windows)
//   - Container and volume label management for persisting stack metadata
//     (Docker labels are the sole state storage mechanism)
//   - Volume lifecycle: named volumes are created on first use and survive
//     container recreation; they are removed only on explicit request
//   - Container lifecycle: create (ports, mounts, restart policy), start,
//     stop, remove, list, and stack-level status aggregation
//   - Image builds for local build contexts via the docker CLI
//
// The package uses github.com/docker/docker/client as the underlying
// Docker SDK, with version negotiation enabled for broad compatibility.
package docker
