package types

// Logger defines methods for structured logging.
//
// The shape matches zap.SugaredLogger, so most structured loggers can be
// passed in directly. All methods accept alternating key-value pairs.
type Logger interface {
	// Debug logs a message at DebugLevel.
	Debug(msg string, keysAndValues ...any)

	// Info logs a message at InfoLevel.
	Info(msg string, keysAndValues ...any)

	// Warn logs a message at WarnLevel.
	Warn(msg string, keysAndValues ...any)

	// Error logs a message at ErrorLevel.
	Error(msg string, keysAndValues ...any)

	// Fatal logs a message at FatalLevel and calls os.Exit(1).
	//
	// The worker itself never calls Fatal; it is reserved for command entry points.
	Fatal(msg string, keysAndValues ...any)
}
