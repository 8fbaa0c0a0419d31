// Package monitoring holds the process-wide diagnostic logger.
package monitoring

import (
	"log"
	"strings"
	"sync/atomic"
)

type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps a verbosity name to a Level. Unknown names mean info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "verbose":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logf is the package-level sink. It defaults to log.Printf but may be
// replaced by SetLogger.
var Logf func(format string, v ...any) = log.Printf

var level atomic.Int32

func init() {
	level.Store(int32(LevelInfo))
}

// SetLogger replaces the sink. Passing nil mutes all output.
func SetLogger(f func(format string, v ...any)) {
	if f == nil {
		Logf = func(string, ...any) {}
		return
	}
	Logf = f
}

func SetLevel(l Level) { level.Store(int32(l)) }

func Enabled(l Level) bool { return l >= Level(level.Load()) }

func Debugf(format string, v ...any) {
	if Enabled(LevelDebug) {
		Logf(format, v...)
	}
}

func Infof(format string, v ...any) {
	if Enabled(LevelInfo) {
		Logf(format, v...)
	}
}

func Warnf(format string, v ...any) {
	if Enabled(LevelWarn) {
		Logf(format, v...)
	}
}

func Errorf(format string, v ...any) {
	if Enabled(LevelError) {
		Logf(format, v...)
	}
}
