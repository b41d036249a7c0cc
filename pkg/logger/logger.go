package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var defaultLogger *logrus.Logger

func init() {
	defaultLogger = logrus.New()

	isTest := os.Getenv("GO_ENV") == "test"

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		if isTest {
			logLevel = "silent"
		} else {
			logLevel = "info"
		}
	}

	defaultLogger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	defaultLogger.SetOutput(os.Stderr)

	if logLevel == "silent" {
		defaultLogger.SetOutput(io.Discard)
		return
	}

	level, err := logrus.ParseLevel(strings.ToLower(logLevel))
	if err != nil {
		level = logrus.InfoLevel
	}
	defaultLogger.SetLevel(level)
}

// GetLogger returns the default logger instance.
func GetLogger() *logrus.Logger {
	return defaultLogger
}

// WithName creates a child logger with a name field.
func WithName(name string) *logrus.Entry {
	return defaultLogger.WithField("name", name)
}

// WithFields creates a logger with additional fields.
func WithFields(fields logrus.Fields) *logrus.Entry {
	return defaultLogger.WithFields(fields)
}

// IsLevelEnabled checks if a log level is enabled.
func IsLevelEnabled(level logrus.Level) bool {
	return defaultLogger.IsLevelEnabled(level)
}

// ConfigureFromString configures the logger from a string level. Used to
// apply the level stored in the settings document. Test mode wins.
func ConfigureFromString(levelStr string) error {
	if os.Getenv("GO_ENV") == "test" || levelStr == "silent" {
		defaultLogger.SetOutput(io.Discard)
		return nil
	}

	level, err := logrus.ParseLevel(strings.ToLower(levelStr))
	if err != nil {
		return err
	}
	defaultLogger.SetLevel(level)
	return nil
}

var operationLogging = true

// SetOperationLogging honors the settings toggle for operation summaries.
func SetOperationLogging(enabled bool) {
	operationLogging = enabled
}

// OperationLogging reports whether apply/undo summaries should be logged.
func OperationLogging() bool {
	return operationLogging
}
