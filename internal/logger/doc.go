// Package logger provides a simple, thread-safe logging facility.
//
// The logger supports four levels: Debug, Info, Warn, and Error.
// Each log entry includes a timestamp, level, optional scope, and message.
// Scopes name the emitter, typically a worker thread ("thread-3") or a
// benchmark phase.
//
// # Basic Usage
//
// Using the default logger:
//
//	logger.Info("", "loading keys from %s", path)
//	logger.Info(logger.ThreadScope(3), "finished chunk")
//	logger.Error("", "load failed: %v", err)
//
// Creating a custom logger:
//
//	l := logger.New(os.Stderr, logger.LevelDebug)
//	l.Debug("trial", "Debug message")
//
// # Log Levels
//
// Messages below the configured level are filtered. ParseLevel maps the
// --log-level flag values ("debug", "info", "warn", "error") to a Level.
//
// # Thread Safety
//
// All logging operations are protected by a mutex and safe for concurrent use.
// Worker threads only log outside their hot loop.
package logger
