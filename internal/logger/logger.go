package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"depthcapture/internal/config"

	"github.com/op/go-logging"
)

const module = "depthcapture"

var format = logging.MustStringFormatter(
	`%{time:2006-01-02 15:04:05.000} %{level:-7s} %{shortfile} %{message}`,
)

// Logger provides leveled logging (debug/info/warning/error) to per-level
// files and the console.
type Logger struct {
	log    *logging.Logger
	logDir string
	files  []*os.File
	mu     sync.Mutex
}

// NewLogger creates a Logger writing info.log, warning.log and error.log under
// the configured log directory, plus the console at the configured level.
func NewLogger(cfg *config.Config) (*Logger, error) {
	if err := os.MkdirAll(cfg.LogDirectory, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	l := &Logger{logDir: cfg.LogDirectory}

	backends := []logging.Backend{leveled(os.Stdout, parseLevel(cfg.LogLevel))}
	for _, f := range []struct {
		name  string
		level logging.Level
	}{
		{"info.log", logging.INFO},
		{"warning.log", logging.WARNING},
		{"error.log", logging.ERROR},
	} {
		file, err := l.openLogFile(filepath.Join(l.logDir, f.name))
		if err != nil {
			l.Close()
			return nil, err
		}
		l.files = append(l.files, file)
		backends = append(backends, leveled(file, f.level))
	}

	l.log = newModuleLogger(logging.MultiLogger(backends...))
	return l, nil
}

// NewConsoleLogger creates a Logger that writes only to w. Used by the capture
// client and tests.
func NewConsoleLogger(w io.Writer, level string) *Logger {
	return &Logger{log: newModuleLogger(leveled(w, parseLevel(level)))}
}

func newModuleLogger(backend logging.LeveledBackend) *logging.Logger {
	log := logging.MustGetLogger(module)
	log.SetBackend(backend)
	log.ExtraCalldepth = 1
	return log
}

func leveled(w io.Writer, level logging.Level) logging.LeveledBackend {
	backend := logging.NewBackendFormatter(logging.NewLogBackend(w, "", 0), format)
	lb := logging.AddModuleLevel(backend)
	lb.SetLevel(level, "")
	return lb
}

func parseLevel(level string) logging.Level {
	if level == "WARN" {
		level = "WARNING"
	}
	lvl, err := logging.LogLevel(level)
	if err != nil {
		return logging.INFO
	}
	return lvl
}

// openLogFile opens or creates a log file for appending.
func (l *Logger) openLogFile(filename string) (*os.File, error) {
	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", filename, err)
	}
	return file, nil
}

// Directory returns the directory holding the level files, or "" for a
// console logger.
func (l *Logger) Directory() string {
	return l.logDir
}

func (l *Logger) Debug(format string, v ...interface{}) {
	l.log.Debugf(format, v...)
}

// Info writes a formatted info-level log entry.
func (l *Logger) Info(format string, v ...interface{}) {
	l.log.Infof(format, v...)
}

// Warning writes a formatted warning-level log entry.
func (l *Logger) Warning(format string, v ...interface{}) {
	l.log.Warningf(format, v...)
}

// Error writes a formatted error-level log entry.
func (l *Logger) Error(format string, v ...interface{}) {
	l.log.Errorf(format, v...)
}

// CleanLogs truncates the specified log file.
func (l *Logger) CleanLogs(fileName string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.logDir == "" {
		return nil
	}

	filePath := filepath.Join(l.logDir, filepath.Base(fileName))
	if err := os.Truncate(filePath, 0); err != nil {
		l.Error("Error truncating %s: %v", fileName, err)
		return err
	}

	l.Info("Log file %s has been cleared.", fileName)
	return nil
}

// Close releases the log files.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var firstErr error
	for _, f := range l.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	l.files = nil
	return firstErr
}
