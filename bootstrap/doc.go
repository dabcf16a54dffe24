// Package bootstrap wires a typed configuration, the global logger and a
// component registry into a single lifecycle for one-shot commands.
//
// RunTask starts every registered component in order, runs the OnStart
// hooks, the configure callbacks, a ready check and the OnReady hooks,
// executes the task with a context canceled on SIGINT or SIGTERM, and
// finally runs the OnStop hooks and stops the components in reverse order.
package bootstrap
