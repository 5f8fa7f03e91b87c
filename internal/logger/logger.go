// Package logger wraps charmbracelet/log the way the teacher's
// internal/logger does: a package-level logger, level control via
// LOG_LEVEL, and a UI-notifier hook so the Bubble Tea log panel can
// mirror entries without the logger importing the UI package.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

var (
	Logger        *log.Logger
	currentWriter io.Writer = os.Stderr
	uiNotifier    func(level, message string)
)

func init() {
	Logger = log.New(os.Stderr)
	SetLevel(strings.ToUpper(os.Getenv("LOG_LEVEL")))
}

// SetUINotifier sets a callback invoked on every logged entry, used by
// the TUI's status/log panel.
func SetUINotifier(notifier func(level, message string)) {
	uiNotifier = notifier
}

func notifyUI(level, message string) {
	if uiNotifier != nil {
		uiNotifier(level, message)
	}
}

// Trace logs at debug level with a "trace" component tag: charmbracelet/log
// has no dedicated trace level, so command-receipt tracing (spec.md
// section 6) rides on Debug the same way the teacher collapses levels
// the underlying library doesn't offer.
func Trace(msg interface{}, keyvals ...interface{}) {
	Logger.Debug(msg, append([]interface{}{"component", "trace"}, keyvals...)...)
}

func Info(msg interface{}, keyvals ...interface{}) {
	Logger.Info(msg, keyvals...)
	notifyUI("INFO", fmt.Sprintf("%v", msg))
}

func Debug(msg interface{}, keyvals ...interface{}) {
	Logger.Debug(msg, keyvals...)
	if Logger.GetLevel() <= log.DebugLevel {
		notifyUI("DEBUG", fmt.Sprintf("%v", msg))
	}
}

func Warn(msg interface{}, keyvals ...interface{}) {
	Logger.Warn(msg, keyvals...)
	notifyUI("WARN", fmt.Sprintf("%v", msg))
}

func Error(msg interface{}, keyvals ...interface{}) {
	Logger.Error(msg, keyvals...)
	notifyUI("ERROR", fmt.Sprintf("%v", msg))
}

func Fatal(msg interface{}, keyvals ...interface{}) {
	Logger.Fatal(msg, keyvals...)
	notifyUI("FATAL", fmt.Sprintf("%v", msg))
}

func Infof(format string, args ...interface{}) {
	Logger.Infof(format, args...)
	notifyUI("INFO", fmt.Sprintf(format, args...))
}

func Debugf(format string, args ...interface{}) {
	Logger.Debugf(format, args...)
	if Logger.GetLevel() <= log.DebugLevel {
		notifyUI("DEBUG", fmt.Sprintf(format, args...))
	}
}

func Warnf(format string, args ...interface{}) {
	Logger.Warnf(format, args...)
	notifyUI("WARN", fmt.Sprintf(format, args...))
}

func Errorf(format string, args ...interface{}) {
	Logger.Errorf(format, args...)
	notifyUI("ERROR", fmt.Sprintf(format, args...))
}

// SetLevel sets the log level from a string; unrecognized or empty
// values default to Info.
func SetLevel(level string) {
	switch strings.ToUpper(level) {
	case "DEBUG":
		Logger.SetLevel(log.DebugLevel)
	case "WARN", "WARNING":
		Logger.SetLevel(log.WarnLevel)
	case "ERROR":
		Logger.SetLevel(log.ErrorLevel)
	case "FATAL":
		Logger.SetLevel(log.FatalLevel)
	default:
		Logger.SetLevel(log.InfoLevel)
	}
}

// SetupFileLogging redirects the logger to a file under
// ~/.local/share/powerkey so it never fights the TUI for the terminal,
// mirroring the teacher's SetupFileLogging.
func SetupFileLogging() (*os.File, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	logDir := filepath.Join(home, ".local", "share", "powerkey")
	if err := os.MkdirAll(logDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	logPath := filepath.Join(logDir, "powerkey.log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", logPath, err)
	}

	fmt.Fprintf(logFile, "\n%s === New session started ===\n", time.Now().Format("15:04:05"))

	savedLevel := Logger.GetLevel()
	currentWriter = logFile
	Logger = log.NewWithOptions(logFile, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
		Prefix:          "powerkey",
	})
	Logger.SetLevel(savedLevel)

	return logFile, nil
}

// Get returns the underlying charmbracelet/log logger.
func Get() *log.Logger {
	return Logger
}
