// Package ports defines the interfaces between the engine and its adapters:
// event bus, snapshot store, and metrics collector.
package ports
