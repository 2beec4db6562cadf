package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the structured logger shared by every session component.
type Logger struct {
	*zap.SugaredLogger
}

// New builds a logger writing to stderr. Unknown levels fall back to info.
func New(level, format string) (*Logger, error) {
	var cfg zap.Config
	if format == "console" {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	// CLI output goes to stdout; keep logs off it.
	cfg.OutputPaths = []string{"stderr"}

	zapLogger, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	return &Logger{zapLogger.Sugar()}, nil
}

// NewFromCore wraps an existing zap core.
func NewFromCore(core zapcore.Core) *Logger {
	return &Logger{zap.New(core, zap.AddCallerSkip(1)).Sugar()}
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{zap.NewNop().Sugar()}
}

// Component returns a child logger named after one session component.
// Its entries carry a "component" field.
func (l *Logger) Component(name string) *Logger {
	return &Logger{l.SugaredLogger.Named(name).With("component", name)}
}

func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Infow(msg, keysAndValues...)
}

func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Errorw(msg, keysAndValues...)
}

func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Debugw(msg, keysAndValues...)
}

func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Warnw(msg, keysAndValues...)
}

func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{l.SugaredLogger.With(keysAndValues...)}
}

func (l *Logger) Sync() error {
	return l.SugaredLogger.Sync()
}
