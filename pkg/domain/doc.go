// Package domain holds the core types of the reactive graph: cell and value
// declarations, the per-cell state machine, snapshots, and the error
// taxonomy shared by the builder and the engine.
package domain
