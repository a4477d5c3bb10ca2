// Package logging is the alarm's structured logger, a thin layer over
// log/slog.
//
// Entries carry service=alarm and the build version. Components log
// through Module, which adds a module attribute (Settings, Network,
// Buzzer) so one device log can be filtered per subsystem:
//
//	log := logging.New(cfg.Logging, version)
//	log.Module("Settings").Info("using default", "key", "PORT", "value", 80)
//
// Levels run trace, debug, info, warn, error, fatal. Fatal writes the
// entry and exits the process with status 1.
//
// The wireless key and broker credentials must never be logged.
package logging
