package logger

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"
)

// LogLevel represents the logging level
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "INFO"
	}
}

// ParseLogLevel parses a string into a LogLevel
func ParseLogLevel(level string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return DebugLevel
	case "INFO":
		return InfoLevel
	case "WARN", "WARNING":
		return WarnLevel
	case "ERROR":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

type Logger struct {
	outLogger *log.Logger
	errLogger *log.Logger
	level     LogLevel
}

var defaultLogger *Logger

func init() {
	logLevelStr := os.Getenv("LOG_LEVEL")
	if logLevelStr == "" {
		logLevelStr = "INFO"
	}
	defaultLogger = NewLoggerWithLevel(ParseLogLevel(logLevelStr))
}

// NewLogger creates a new logger instance with INFO level
func NewLogger() *Logger {
	return NewLoggerWithLevel(InfoLevel)
}

// NewLoggerWithLevel creates a new logger instance with specified level
func NewLoggerWithLevel(level LogLevel) *Logger {
	return &Logger{
		outLogger: log.New(os.Stdout, "", 0),
		errLogger: log.New(os.Stderr, "", 0),
		level:     level,
	}
}

// SetLogLevel sets the log level for the default logger
func SetLogLevel(level LogLevel) {
	defaultLogger.level = level
}

// GetLogLevel returns the current log level
func GetLogLevel() LogLevel {
	return defaultLogger.level
}

func (l *Logger) shouldLog(level LogLevel) bool {
	return level >= l.level
}

// formatMessage adds UTC timestamp prefix to the message
func (l *Logger) formatMessage(level string, message string) string {
	timestamp := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
	return fmt.Sprintf("[%s] %s: %s", timestamp, level, message)
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.shouldLog(DebugLevel) {
		l.outLogger.Println(l.formatMessage("DEBUG", fmt.Sprintf(format, args...)))
	}
}

// Info logs an info message
func (l *Logger) Info(format string, args ...interface{}) {
	if l.shouldLog(InfoLevel) {
		l.outLogger.Println(l.formatMessage("INFO", fmt.Sprintf(format, args...)))
	}
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	if l.shouldLog(WarnLevel) {
		l.outLogger.Println(l.formatMessage("WARN", fmt.Sprintf(format, args...)))
	}
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	if l.shouldLog(ErrorLevel) {
		l.errLogger.Println(l.formatMessage("ERROR", fmt.Sprintf(format, args...)))
	}
}

// Package-level convenience functions using the default logger

// Debug logs a debug message using the default logger
func Debug(format string, args ...interface{}) {
	defaultLogger.Debug(format, args...)
}

// Info logs an info message using the default logger
func Info(format string, args ...interface{}) {
	defaultLogger.Info(format, args...)
}

// Warn logs a warning message using the default logger
func Warn(format string, args ...interface{}) {
	defaultLogger.Warn(format, args...)
}

// Error logs an error message using the default logger
func Error(format string, args ...interface{}) {
	defaultLogger.Error(format, args...)
}

// SetLogLevelFromString sets the log level from a string (convenience function)
func SetLogLevelFromString(level string) {
	SetLogLevel(ParseLogLevel(level))
}
