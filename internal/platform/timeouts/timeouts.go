// Package timeouts defines shared timeout constants used across the viewer.
// Centralizing these values prevents drift between boundaries and makes the
// durations discoverable.
package timeouts

import "time"

// EngineCall caps the time allowed for a single request/reply exchange with
// the engine over the websocket boundary.
const EngineCall = 10 * time.Second

// InitialLoad caps the startup fetch of settings and the conversation index.
const InitialLoad = 5 * time.Second

// ReadHeader limits how long the HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long the HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second
