// Package storage provides snapshot store implementations.
//
// Implementations:
//   - redis: Redis with JSON serialization and TTL, for readers in other
//     processes
//   - memory: In-memory for single-process deployments and tests
package storage
