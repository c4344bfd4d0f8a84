// Package websocket provides real-time event streaming via WebSocket.
//
// Clients can connect to /api/v1/stream to receive value changes, cell
// results, and pass completions as they happen.
package websocket
