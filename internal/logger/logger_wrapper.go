package logger

import (
	"sync"
	"time"

	"github.com/leandrodaf/mididings/sdk/contracts"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger implements contracts.Logger on top of Uber's zap logger.
type ZapLogger struct {
	mu       sync.RWMutex
	logger   *zap.Logger
	level    zap.AtomicLevel
	encoding string
}

// NewZapLogger creates a JSON logger writing to stderr at info level.
func NewZapLogger() contracts.Logger {
	return newZapLogger("json")
}

// NewConsoleLogger creates a human readable logger writing to stderr.
func NewConsoleLogger() contracts.Logger {
	return newZapLogger("console")
}

// NewNopLogger creates a logger that discards everything. Meant for tests.
func NewNopLogger() contracts.Logger {
	return &ZapLogger{logger: zap.NewNop(), level: zap.NewAtomicLevel(), encoding: "json"}
}

func newZapLogger(encoding string) *ZapLogger {
	z := &ZapLogger{level: zap.NewAtomicLevelAt(zapcore.InfoLevel), encoding: encoding}
	l, err := z.build("stderr")
	if err != nil {
		l = zap.NewNop()
	}
	z.logger = l
	return z
}

// build creates a zap logger sharing z.level. The caller skip hides the
// Info/log wrapper frames so entries point at the real call site.
func (z *ZapLogger) build(outputPath string) (*zap.Logger, error) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "ts"
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(time.RFC3339)
	if z.encoding == "console" {
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	cfg := zap.Config{
		Level:            z.level,
		Encoding:         z.encoding,
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{outputPath},
		ErrorOutputPaths: []string{"stderr"},
	}
	return cfg.Build(zap.AddCaller(), zap.AddCallerSkip(2))
}

// Info logs a message at the INFO level
func (z *ZapLogger) Info(msg string, fields ...contracts.Field) {
	z.log(zapcore.InfoLevel, msg, fields...)
}

// Error logs a message at the ERROR level
func (z *ZapLogger) Error(msg string, fields ...contracts.Field) {
	z.log(zapcore.ErrorLevel, msg, fields...)
}

// Debug logs a message at the DEBUG level
func (z *ZapLogger) Debug(msg string, fields ...contracts.Field) {
	z.log(zapcore.DebugLevel, msg, fields...)
}

// Warn logs a message at the WARN level
func (z *ZapLogger) Warn(msg string, fields ...contracts.Field) {
	z.log(zapcore.WarnLevel, msg, fields...)
}

// Fatal logs a message at the FATAL level and terminates the application
func (z *ZapLogger) Fatal(msg string, fields ...contracts.Field) {
	z.log(zapcore.FatalLevel, msg, fields...)
}

// Field returns a new instance of Field
func (z *ZapLogger) Field() contracts.Field {
	return &zapField{}
}

// SetLevel sets the logging level
func (z *ZapLogger) SetLevel(level contracts.LogLevel) {
	z.level.SetLevel(toZapLevel(level))
}

// Enabled reports whether messages at level are written.
func (z *ZapLogger) Enabled(level contracts.LogLevel) bool {
	return z.level.Enabled(toZapLevel(level))
}

// SetDestination switches the output between stderr and a file. On failure
// the current destination is kept and the error is logged.
func (z *ZapLogger) SetDestination(dest contracts.LogDestination, filePath ...string) {
	path := "stderr"
	if dest == contracts.FileLog {
		if len(filePath) == 0 || filePath[0] == "" {
			z.Error("file log destination requires a path")
			return
		}
		path = filePath[0]
	}

	l, err := z.build(path)
	if err != nil {
		z.Error("failed to change log destination", z.Field().Error("error", err))
		return
	}

	z.mu.Lock()
	old := z.logger
	z.logger = l
	z.mu.Unlock()
	_ = old.Sync()
}

// Sync flushes buffered entries.
func (z *ZapLogger) Sync() error {
	z.mu.RLock()
	defer z.mu.RUnlock()
	return z.logger.Sync()
}

func (z *ZapLogger) log(level zapcore.Level, msg string, fields ...contracts.Field) {
	if !z.level.Enabled(level) {
		return
	}

	z.mu.RLock()
	l := z.logger
	z.mu.RUnlock()

	zfields := toZapFields(fields)
	switch level {
	case zapcore.InfoLevel:
		l.Info(msg, zfields...)
	case zapcore.ErrorLevel:
		l.Error(msg, zfields...)
	case zapcore.DebugLevel:
		l.Debug(msg, zfields...)
	case zapcore.WarnLevel:
		l.Warn(msg, zfields...)
	case zapcore.FatalLevel:
		l.Fatal(msg, zfields...)
	}
}

func toZapLevel(level contracts.LogLevel) zapcore.Level {
	switch level {
	case contracts.DebugLevel:
		return zapcore.DebugLevel
	case contracts.WarnLevel:
		return zapcore.WarnLevel
	case contracts.ErrorLevel:
		return zapcore.ErrorLevel
	case contracts.FatalLevel:
		return zapcore.FatalLevel
	}
	return zapcore.InfoLevel
}

// toZapFields drops fields built by other Logger implementations.
func toZapFields(fields []contracts.Field) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		if f, ok := field.(*zapField); ok && f.set {
			out = append(out, f.field)
		}
	}
	return out
}

// zapField implements contracts.Field
type zapField struct {
	field zap.Field
	set   bool
}

func newField(f zap.Field) contracts.Field {
	return &zapField{field: f, set: true}
}

func (f *zapField) Bool(key string, val bool) contracts.Field {
	return newField(zap.Bool(key, val))
}

func (f *zapField) Int(key string, val int) contracts.Field {
	return newField(zap.Int(key, val))
}

func (f *zapField) Float64(key string, val float64) contracts.Field {
	return newField(zap.Float64(key, val))
}

func (f *zapField) String(key string, val string) contracts.Field {
	return newField(zap.String(key, val))
}

func (f *zapField) Time(key string, val time.Time) contracts.Field {
	return newField(zap.Time(key, val))
}

func (f *zapField) Int64(key string, val int64) contracts.Field {
	return newField(zap.Int64(key, val))
}

func (f *zapField) Error(key string, val error) contracts.Field {
	return newField(zap.NamedError(key, val))
}

func (f *zapField) Uint64(key string, val uint64) contracts.Field {
	return newField(zap.Uint64(key, val))
}

func (f *zapField) Uint8(key string, val uint8) contracts.Field {
	return newField(zap.Uint8(key, val))
}
