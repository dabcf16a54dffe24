// Package logger provides structured logging on top of zerolog.
//
// It supports JSON and console output, level configuration, component-scoped
// loggers, and a small registry of named loggers used by the dispatcher,
// transport, and CLI.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//	  output: "stderr"
//
// # Usage
//
//	log := logger.Get("dispatch")
//	log.Info("batch finished", logger.Fields(logger.FieldBatchSize, 3))
package logger
