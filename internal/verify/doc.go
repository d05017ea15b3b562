// Package verify checks a deployed stack against its runtime contract.
//
// The checks cover the observable properties of the topology rather than
// any component's internals: every declared service has a running
// container, every declared named volume exists, every published port
// accepts connections, the metrics database reports the configured
// retention and answers an instant query (query-back), and the host
// metrics exporter's filesystem series contain no docker-internal or
// duplicated mountpoints.
//
// Prometheus access goes through the prometheus/client_golang API client;
// everything else is Docker API and plain TCP.
package verify
