// Package internal implements the queue service core.
//
// Import "github.com/dmitrymomot/tasks" instead; it re-exports this API.
//
// # Components
//
//   - Registry: queue name to Handle, with fail-closed resolution
//   - Service: create, get, remove and find over resolved handles, plus SetupQueue
//   - Bridge: raw handle events republished as service events
//   - SubTasks: parent/child fan-out and fan-in that survives restarts
//   - Run: signal-aware runtime with graceful shutdown
//
// # Errors
//
// Every error returned by the service matches one class with errors.Is:
// ErrConfiguration, ErrResolution, ErrValidation, ErrNotFound or ErrEngine.
// Validation failures carry *FieldError details.
package internal
