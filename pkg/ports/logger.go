package ports

// LogLevel is the severity of a log message.
type LogLevel int

const (
	// LevelDebug covers per-stage diagnostics: frame timing, queue
	// activity, protocol round trips.
	LevelDebug LogLevel = iota
	// LevelInfo covers run-level progress: session start, output written,
	// frame totals.
	LevelInfo
	// LevelWarn covers degraded-but-continuing conditions such as dropped
	// frames or a failed stop command on a dying connection.
	LevelWarn
	// LevelError covers failures that abort the run.
	LevelError
	// LevelQuiet suppresses all output.
	LevelQuiet
)

// String returns the level name as accepted by ParseLogLevel.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelQuiet:
		return "quiet"
	default:
		return "unknown"
	}
}

// ParseLogLevel parses a level name. Unrecognized names fall back to
// LevelInfo.
func ParseLogLevel(s string) LogLevel {
	switch s {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	case "quiet":
		return LevelQuiet
	default:
		return LevelInfo
	}
}

// Logger is the logging abstraction used throughout the pipeline. The msg
// parameter is a translatable message key with printf-style format verbs.
type Logger interface {
	// Debug logs stage-internal diagnostics.
	Debug(msg string, args ...interface{})

	// Info logs run-level progress.
	Info(msg string, args ...interface{})

	// Warn logs a recoverable problem; the run continues.
	Warn(msg string, args ...interface{})

	// Error logs a failure that aborts the run.
	Error(msg string, args ...interface{})

	// WithComponent returns a Logger that prefixes messages with the
	// pipeline stage or adapter name. Stage loggers mostly emit at debug
	// level.
	WithComponent(component string) Logger
}
