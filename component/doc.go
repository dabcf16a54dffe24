// Package component defines the lifecycle contract shared by the long-lived
// pieces of a microhttp process: the dispatcher with its transport clients
// and the telemetry providers.
//
// Components are registered with a Registry, started in registration order
// and stopped in reverse.
//
// # Interfaces
//
//   - Component: Name/Start/Stop/Health
//   - Describable: one-line startup summary
package component
