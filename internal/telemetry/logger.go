package telemetry

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog.Logger with opereon-specific field helpers.
type Logger struct {
	zlog   zerolog.Logger
	config LoggingConfig
}

// loggerContextKey is the context key under which a *Logger is stored.
type loggerContextKey struct{}

// NewLogger creates a new logger from the given configuration.
func NewLogger(cfg LoggingConfig) (*Logger, error) {
	var writer io.Writer
	switch cfg.Output {
	case "stdout":
		writer = os.Stdout
	case "stderr":
		writer = os.Stderr
	default:
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, err
		}
		writer = file
	}

	if cfg.Format == "console" {
		writer = zerolog.ConsoleWriter{
			Out:        writer,
			TimeFormat: getTimeFormat(cfg.TimeFormat),
		}
	}

	switch cfg.TimeFormat {
	case "unix":
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	case "unixms":
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	case "unixmicro":
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMicro
	default:
		zerolog.TimeFieldFormat = time.RFC3339
	}

	zlog := zerolog.New(writer).With().Timestamp().Logger()
	zlog = zlog.Level(parseLogLevel(cfg.Level))

	if cfg.EnableCaller {
		zlog = zlog.With().Caller().Logger()
	}

	if cfg.EnableSampling {
		sampler := &zerolog.BurstSampler{
			Burst:       uint32(cfg.SamplingInitial),
			Period:      time.Second,
			NextSampler: &zerolog.BasicSampler{N: uint32(cfg.SamplingThereafter)},
		}
		zlog = zlog.Sample(sampler)
	}

	return &Logger{zlog: zlog, config: cfg}, nil
}

// NewComponentLogger returns a child logger tagged with a component name.
func (l *Logger) NewComponentLogger(component string) *Logger {
	return &Logger{zlog: l.zlog.With().Str("component", component).Logger(), config: l.config}
}

// WithContext stores the logger in ctx.
func (l *Logger) WithContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, loggerContextKey{}, l)
}

// FromContext retrieves the logger from ctx, or a minimal stdout default if
// none was stored.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerContextKey{}).(*Logger); ok {
		return l
	}
	return &Logger{zlog: zerolog.New(os.Stdout).With().Timestamp().Logger()}
}

// WithFields returns a logger with additional structured fields.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	ctx := l.zlog.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &Logger{zlog: ctx.Logger(), config: l.config}
}

// WithField returns a logger with one additional structured field.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{zlog: l.zlog.With().Interface(key, value).Logger(), config: l.config}
}

// Zerolog returns the underlying zerolog.Logger, for handing to third-party
// constructors (e.g. policy.NewEngine) that take one directly rather than
// this package's wrapper.
func (l *Logger) Zerolog() zerolog.Logger { return l.zlog }

// WithOperationID tags the logger with the engine operation id it is
// logging on behalf of.
func (l *Logger) WithOperationID(id string) *Logger { return l.WithField("operation_id", id) }

// WithHostID tags the logger with the target host of a process driver call.
func (l *Logger) WithHostID(hostID string) *Logger { return l.WithField("host_id", hostID) }

// WithDriver tags the logger with the process driver (ssh, local, wasm,
// runner) handling the current task.
func (l *Logger) WithDriver(name string) *Logger { return l.WithField("driver", name) }

// WithError attaches an error to the logger's fields.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{zlog: l.zlog.With().Err(err).Logger(), config: l.config}
}

func (l *Logger) Trace(msg string)                                 { l.zlog.Trace().Msg(msg) }
func (l *Logger) Tracef(format string, args ...interface{})        { l.zlog.Trace().Msgf(format, args...) }
func (l *Logger) Debug(msg string)                                 { l.zlog.Debug().Msg(msg) }
func (l *Logger) Debugf(format string, args ...interface{})        { l.zlog.Debug().Msgf(format, args...) }
func (l *Logger) Info(msg string)                                  { l.zlog.Info().Msg(msg) }
func (l *Logger) Infof(format string, args ...interface{})         { l.zlog.Info().Msgf(format, args...) }
func (l *Logger) Warn(msg string)                                  { l.zlog.Warn().Msg(msg) }
func (l *Logger) Warnf(format string, args ...interface{})         { l.zlog.Warn().Msgf(format, args...) }
func (l *Logger) Error(msg string)                                 { l.zlog.Error().Msg(msg) }
func (l *Logger) Errorf(format string, args ...interface{})        { l.zlog.Error().Msgf(format, args...) }

func parseLogLevel(level string) zerolog.Level {
	switch level {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

func getTimeFormat(format string) string {
	if format == "unix" {
		return "unix"
	}
	return time.RFC3339
}
