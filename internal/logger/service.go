package logger

import (
	"github.com/sirupsen/logrus"
)

// logrusService wraps logrus.Logger to provide consistent logging across the application
type logrusService struct {
	logger *logrus.Logger
}

// NewLogger creates a new logger instance with the specified configuration
func NewLogger(config Config) (Logger, error) {
	l := logrus.New()

	if config.Format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	// Set log level from config
	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		return nil, err
	}
	l.SetLevel(level)

	return &logrusService{logger: l}, nil
}

// LogInfo logs an informational message with optional fields
func (l *logrusService) LogInfo(message string, fields map[string]interface{}) {
	if fields != nil {
		l.logger.WithFields(fields).Info(message)
	} else {
		l.logger.Info(message)
	}
}

// LogError logs an error with context and returns the error for propagation
func (l *logrusService) LogError(err error, context string) error {
	l.logger.WithError(err).Error(context)
	return err
}

// LogErrorf logs a formatted error message with context and returns an error
func (l *logrusService) LogErrorf(err error, format string, args ...interface{}) error {
	l.logger.WithError(err).Errorf(format, args...)
	return err
}

// LogFatal logs a fatal error and exits the application
func (l *logrusService) LogFatal(err error, context string) {
	l.logger.WithError(err).Fatal(context)
}

// LogDebug logs a debug message with optional fields
func (l *logrusService) LogDebug(message string, fields map[string]interface{}) {
	if fields != nil {
		l.logger.WithFields(fields).Debug(message)
	} else {
		l.logger.Debug(message)
	}
}

// LogWarn logs a warning message with optional fields
func (l *logrusService) LogWarn(message string, fields map[string]interface{}) {
	if fields != nil {
		l.logger.WithFields(fields).Warn(message)
	} else {
		l.logger.Warn(message)
	}
}
