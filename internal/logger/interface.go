package logger

// Logger defines the interface for logging operations used across the engine
type Logger interface {
	LogInfo(msg string, fields map[string]interface{})
	LogError(err error, msg string) error
	LogErrorf(err error, format string, args ...interface{}) error
	LogFatal(err error, context string)
	LogDebug(message string, fields map[string]interface{})
	LogWarn(message string, fields map[string]interface{})
}

// Config holds the logger configuration
type Config struct {
	// Log level (debug, info, warn, error)
	Level string `mapstructure:"level" yaml:"level"`

	// Output format (text or json)
	Format string `mapstructure:"format" yaml:"format"`
}
