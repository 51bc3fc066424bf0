// Package logging provides structured logging with per-module log level configuration.
//
// # Overview
//
// The logging system uses Go's slog package with automatic output routing:
//   - Logs to systemd journal when available (Linux systems with journald)
//   - Logs to stdout when a terminal, pipe, or file is connected
//   - Logs to both when both are available
//
// # Usage
//
// Initialize the logging system once at startup:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",      // Global log level: debug, info, warn, error
//		Format: "text",      // Output format: text or json
//		Modules: map[string]string{
//			"trigger": "debug",  // Per-module overrides
//			"serial":  "warn",
//		},
//	})
//
// Get a logger for your module:
//
//	logger := logging.GetLogger("trigger")
//	logger.Info("Starting up", "port", "/dev/ttyACM0")
//	logger.Debug("Details", "config", cfg)
//
// Add contextual attributes:
//
//	logger := logging.GetLogger("playback").With("button", id)
//	logger.Info("Playback started")  // Includes button in all logs
//
// # Viewing Logs
//
// When running as a systemd service or on a system with journald:
//
//	journalctl -t soundbox              # All soundbox logs
//	journalctl -t soundbox -f           # Follow live
//	journalctl -t soundbox -p err       # Errors only
//
// Filter by structured fields:
//
//	journalctl -t soundbox MODULE=trigger
//	journalctl -t soundbox BUTTON=3
//
// # Configuration
//
// Log levels can be set globally or per-module. Module-specific levels
// override the global level for that module only.
//
// Example TOML configuration:
//
//	[logging]
//	level = "info"
//	format = "text"
//	trigger = "debug"
//	pipe = "warn"
package logging
