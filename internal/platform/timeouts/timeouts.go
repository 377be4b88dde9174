// Package timeouts defines shared timeout constants used across binaries.
package timeouts

import "time"

// GRPCDial caps the wait time when dialing the court server.
const GRPCDial = 2 * time.Second

// GRPCRequest caps the time allowed for a single client request.
const GRPCRequest = 5 * time.Second

// Shutdown limits how long the server waits for in-flight calls during
// graceful shutdown before forcing a stop.
const Shutdown = 5 * time.Second

// CommandQueue caps how long a caller waits to enqueue a command when the
// processor queue is full.
const CommandQueue = 2 * time.Second
