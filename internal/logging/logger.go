package logging

import (
	"os"
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls the process-wide log sinks
type Config struct {
	Level      string // debug, info, warn, error
	Format     string // console or json
	File       string // Optional rotated JSON log file
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// DefaultConfig logs info and above to the console only
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Format:     "console",
		MaxSizeMB:  20,
		MaxBackups: 5,
		MaxAgeDays: 14,
	}
}

var (
	root atomic.Pointer[zap.Logger]
	once sync.Once
)

// Initialize installs the root logger. Only the first call has an effect.
func Initialize(cfg Config, console zapcore.WriteSyncer) {
	once.Do(func() {
		level := zap.NewAtomicLevel()
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			level.SetLevel(zap.InfoLevel)
		}

		cores := []zapcore.Core{zapcore.NewCore(newEncoder(cfg.Format), console, level)}

		if cfg.File != "" {
			file := zapcore.AddSync(&lumberjack.Logger{
				Filename:   cfg.File,
				MaxSize:    cfg.MaxSizeMB,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAgeDays,
				Compress:   cfg.Compress,
			})
			cores = append(cores, zapcore.NewCore(newEncoder("json"), file, level))
		}

		root.Store(zap.New(zapcore.NewTee(cores...), zap.AddStacktrace(zap.ErrorLevel)))
	})
}

// InitializeLogger initializes logging to stderr
func InitializeLogger(cfg Config) {
	Initialize(cfg, zapcore.Lock(os.Stderr))
}

// Sync flushes buffered entries
func Sync() {
	if l := root.Load(); l != nil {
		_ = l.Sync()
	}
}

// ResetForTest clears the root logger. Tests only.
func ResetForTest() {
	root.Store(nil)
	once = sync.Once{}
}

var fallback = sync.OnceValue(func() *zap.Logger {
	return zap.New(zapcore.NewCore(newEncoder("console"), zapcore.Lock(os.Stderr), zap.InfoLevel))
})

func base() *zap.Logger {
	if l := root.Load(); l != nil {
		return l
	}
	return fallback()
}

func newEncoder(format string) zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
	if format == "json" {
		cfg.EncodeLevel = zapcore.CapitalLevelEncoder
		return zapcore.NewJSONEncoder(cfg)
	}
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncodeName = func(name string, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString("[" + name + "]")
	}
	return zapcore.NewConsoleEncoder(cfg)
}

// Logger is a component-scoped logger. The root logger is resolved on every
// call so loggers created before Initialize still honour its configuration.
type Logger struct {
	component string
}

// NewLogger creates a new logger for a specific component
func NewLogger(component string) *Logger {
	return &Logger{component: component}
}

// Component returns the component name
func (l *Logger) Component() string {
	return l.component
}

// Zap exposes the underlying named zap logger
func (l *Logger) Zap() *zap.Logger {
	return base().Named(l.component)
}

func (l *Logger) log(level zapcore.Level, message string, err error, context map[string]interface{}) {
	z := base()
	if !z.Core().Enabled(level) {
		return
	}

	fields := contextFields(context)
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	if ce := z.Named(l.component).Check(level, message); ce != nil {
		ce.Write(fields...)
	}
}

// contextFields converts a context map into fields in key order
func contextFields(context map[string]interface{}) []zap.Field {
	if len(context) == 0 {
		return nil
	}
	keys := make([]string, 0, len(context))
	for k := range context {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]zap.Field, 0, len(keys)+1)
	for _, k := range keys {
		fields = append(fields, zap.Any(k, context[k]))
	}
	return fields
}

// Debug logs a debug message
func (l *Logger) Debug(message string) {
	l.log(zap.DebugLevel, message, nil, nil)
}

// DebugWithContext logs a debug message with context
func (l *Logger) DebugWithContext(message string, context map[string]interface{}) {
	l.log(zap.DebugLevel, message, nil, context)
}

// Info logs an info message
func (l *Logger) Info(message string) {
	l.log(zap.InfoLevel, message, nil, nil)
}

// InfoWithContext logs an info message with context
func (l *Logger) InfoWithContext(message string, context map[string]interface{}) {
	l.log(zap.InfoLevel, message, nil, context)
}

// Warn logs a warning message
func (l *Logger) Warn(message string) {
	l.log(zap.WarnLevel, message, nil, nil)
}

// WarnWithContext logs a warning message with context
func (l *Logger) WarnWithContext(message string, context map[string]interface{}) {
	l.log(zap.WarnLevel, message, nil, context)
}

// Error logs an error message
func (l *Logger) Error(message string, err error) {
	l.log(zap.ErrorLevel, message, err, nil)
}

// ErrorWithContext logs an error message with context
func (l *Logger) ErrorWithContext(message string, err error, context map[string]interface{}) {
	l.log(zap.ErrorLevel, message, err, context)
}

// WithContext returns a logger that attaches context to every entry
func (l *Logger) WithContext(context map[string]interface{}) *ContextLogger {
	return &ContextLogger{
		logger:  l,
		context: context,
	}
}

// ContextLogger is a logger with pre-set context
type ContextLogger struct {
	logger  *Logger
	context map[string]interface{}
}

// Debug logs a debug message with pre-set context
func (cl *ContextLogger) Debug(message string) {
	cl.logger.log(zap.DebugLevel, message, nil, cl.context)
}

// Info logs an info message with pre-set context
func (cl *ContextLogger) Info(message string) {
	cl.logger.log(zap.InfoLevel, message, nil, cl.context)
}

// Warn logs a warning message with pre-set context
func (cl *ContextLogger) Warn(message string) {
	cl.logger.log(zap.WarnLevel, message, nil, cl.context)
}

// Error logs an error message with pre-set context
func (cl *ContextLogger) Error(message string, err error) {
	cl.logger.log(zap.ErrorLevel, message, err, cl.context)
}
