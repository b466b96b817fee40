package logger

import (
	"sync"
)

// Log levels used across the application.
const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)

// FileOptions configures the rotating text log. A zero Path disables the
// file sink entirely.
type FileOptions struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
}

var (
	// globalLogger holds the singleton logger instance.
	globalLogger *Logger
	once         sync.Once
)

// Get returns a singleton console logger configured with the provided level.
// The first call initializes the logger; subsequent calls ignore the level
// and return the already initialized instance.
func Get(level string) *Logger {
	once.Do(func() {
		globalLogger = newZapLogger(level, FileOptions{})
	})
	return globalLogger
}

// GetWithFile is like Get but tees output into a size-capped rotating file
// so every significant workflow event leaves one human-readable line on
// disk. Only the first Get/GetWithFile call decides the configuration.
func GetWithFile(level string, file FileOptions) *Logger {
	once.Do(func() {
		globalLogger = newZapLogger(level, file)
	})
	return globalLogger
}
