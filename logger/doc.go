// Package logger provides structured logging for flowgraph using zerolog.
//
// Loggers are created from a Config (level, format, output), tagged per
// component, and looked up by name through a small registry so the engine
// can log through logger.Get("flow") without being handed a logger.
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
//	log := logger.Get("flow")
//	log.Info("run completed", logger.Fields(logger.FieldGraph, "calc"))
package logger
