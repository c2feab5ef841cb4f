// Package log provides logging for check runs, built on top of the
// standard slog package.
//
// This package extends slog to provide:
//   - Fan-out of every record to the console and the run's log file
//   - Configurable log levels with verbose mode support
//   - Consistent log formatting across the application
//
// The console stays at the configured level while the run.log file
// always receives debug records, so a quiet console run still leaves
// a complete trace inside the run directory.
//
// # Usage
//
//	logFile, _ := log.OpenRunLog(run.LogPath())
//	defer logFile.Close()
//
//	logger := log.NewRunLogger(os.Stderr, logFile, verbose)
//	logger.Info("checking site", "site", site)
package log
