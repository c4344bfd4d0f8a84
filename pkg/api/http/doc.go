// Package http provides the HTTP REST API implementation.
//
// The HTTP server exposes endpoints for:
//   - Topology and snapshot reads
//   - Value cell mutation and recomputation
//   - Health checks
//   - Prometheus metrics
package http
