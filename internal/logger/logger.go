package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"slidecast/config"
)

// Manager manages application loggers and their underlying files.
type Manager struct {
	infoLogger  zerolog.Logger
	errorLogger zerolog.Logger
	infoFile    *os.File
	errorFile   *os.File
}

var global *Manager

// Initialize configures the global logger manager.
func Initialize(cfg *config.Config) (*Manager, error) {
	manager, err := New(cfg)
	if err != nil {
		return nil, err
	}
	global = manager
	return manager, nil
}

// New creates a new Manager instance.
func New(cfg *config.Config) (*Manager, error) {
	dir := cfg.LogDirectory
	if dir == "" {
		dir = "./logs"
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	outputFile := cfg.LogOutputFile
	if outputFile == "" {
		outputFile = "app.log"
	}
	errorFile := cfg.LogErrorFile
	if errorFile == "" {
		errorFile = "app.error.log"
	}

	infoPath := filepath.Join(dir, outputFile)
	errPath := filepath.Join(dir, errorFile)

	infoHandle, err := os.OpenFile(infoPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open info log file: %w", err)
	}

	errorHandle, err := os.OpenFile(errPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		infoHandle.Close()
		return nil, fmt.Errorf("open error log file: %w", err)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	infoWriter := io.MultiWriter(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}, infoHandle)
	errorWriter := io.MultiWriter(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}, errorHandle)

	return &Manager{
		infoLogger:  zerolog.New(infoWriter).Level(level).With().Timestamp().Logger(),
		errorLogger: zerolog.New(errorWriter).Level(level).With().Timestamp().Logger(),
		infoFile:    infoHandle,
		errorFile:   errorHandle,
	}, nil
}

// NewWithWriter builds a Manager that writes both streams to w. Used by tests and the CLI.
func NewWithWriter(w io.Writer) *Manager {
	l := zerolog.New(w).With().Timestamp().Logger()
	return &Manager{infoLogger: l, errorLogger: l}
}

// Install replaces the global manager and returns the previous one.
func Install(m *Manager) *Manager {
	prev := global
	global = m
	return prev
}

// Logger returns the info logger.
func (m *Manager) Logger() *zerolog.Logger {
	return &m.infoLogger
}

// Close releases file handles.
func (m *Manager) Close() error {
	var firstErr error
	if m.infoFile != nil {
		if err := m.infoFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if m.errorFile != nil {
		if err := m.errorFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Close releases the global logger manager if initialized.
func Close() error {
	if global == nil {
		return nil
	}
	err := global.Close()
	global = nil
	return err
}

// Info starts an info-level event on the global info logger.
func Info() *zerolog.Event {
	if global != nil {
		return global.infoLogger.Info()
	}
	return fallback().Info()
}

// Debug starts a debug-level event on the global info logger.
func Debug() *zerolog.Event {
	if global != nil {
		return global.infoLogger.Debug()
	}
	return fallback().Debug()
}

// Warn starts a warn-level event on the global error logger.
func Warn() *zerolog.Event {
	if global != nil {
		return global.errorLogger.Warn()
	}
	return fallback().Warn()
}

// Error starts an error-level event on the global error logger.
func Error() *zerolog.Event {
	if global != nil {
		return global.errorLogger.Error()
	}
	return fallback().Error()
}

func fallback() *zerolog.Logger {
	l := zerolog.New(os.Stderr).With().Timestamp().Logger()
	return &l
}
