// Package stack defines the deployment descriptor for a botstack stack
// and its parsing, normalization, and validation.
//
// A stack descriptor is a small compose-style YAML document: a stack name,
// a map of services (image or build source, published ports, mounts,
// command arguments, restart policy), and a map of declared named volumes.
//
// Shorthand forms ("host:container" ports, "source:target[:ro]" volume
// entries) are normalized into the typed model representations during
// parsing. Validation enforces the structural invariants: every referenced
// named volume must be declared, no two services may publish the same host
// port, and each service must have exactly one of image or build.
package stack
