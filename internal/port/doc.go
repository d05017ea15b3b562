// Package port implements host port availability scanning and
// post-deploy reachability probing for stack services.
//
// Before a deploy, the Scanner verifies that every published host port
// can actually be bound, turning would-be engine startup failures into a
// clear pre-flight error. After a deploy, the Prober dials the published
// ports until each accepts a connection or the probe deadline passes.
package port
