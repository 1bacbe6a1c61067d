package logger

import (
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel represents the severity level of a log entry
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
	LevelFatal LogLevel = "fatal"
)

var levelOrder = map[LogLevel]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
	LevelFatal: 4,
}

// ParseLevel converts a config string to a LogLevel, falling back to info
func ParseLevel(s string) LogLevel {
	level := LogLevel(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := levelOrder[level]; ok {
		return level
	}
	return LevelInfo
}

// SystemLoggerConfig represents configuration for system logger
type SystemLoggerConfig struct {
	EnableConsole bool
	MinLevel      LogLevel
	Service       string
	Version       string
	Environment   string
	// Output overrides stdout, mostly for tests
	Output zapcore.WriteSyncer
}

// SystemLogger writes structured logs through a zap core
type SystemLogger struct {
	zl            *zap.Logger
	enableConsole bool
	minLevel      LogLevel
	service       string
	version       string
	environment   string
}

// NewSystemLogger creates a new system logger
func NewSystemLogger(config SystemLoggerConfig) *SystemLogger {
	if _, ok := levelOrder[config.MinLevel]; !ok {
		config.MinLevel = LevelInfo
	}

	sl := &SystemLogger{
		enableConsole: config.EnableConsole,
		minLevel:      config.MinLevel,
		service:       config.Service,
		version:       config.Version,
		environment:   config.Environment,
	}

	sink := config.Output
	if sink == nil && config.EnableConsole {
		sink = zapcore.Lock(os.Stdout)
	}

	var core zapcore.Core = zapcore.NewNopCore()
	if sink != nil {
		var encoder zapcore.Encoder
		if config.Environment == "development" {
			encoderConfig := zap.NewDevelopmentEncoderConfig()
			encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
			encoder = zapcore.NewConsoleEncoder(encoderConfig)
		} else {
			encoderConfig := zap.NewProductionEncoderConfig()
			encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
			encoder = zapcore.NewJSONEncoder(encoderConfig)
		}
		// shouldLog gates fatal entries, which are written at error level
		coreLevel := zapLevel(config.MinLevel)
		if coreLevel > zapcore.ErrorLevel {
			coreLevel = zapcore.ErrorLevel
		}
		core = zapcore.NewCore(encoder, sink, coreLevel)
	}

	sl.zl = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(2)).With(
		zap.String("service", config.Service),
		zap.String("version", config.Version),
		zap.String("environment", config.Environment),
	)
	return sl
}

// LogContext holds contextual information for logging
type LogContext struct {
	Merchant  string
	Gateway   string
	Operation string
	RequestID string
	Fields    map[string]any
}

// Debug logs a debug message
func (sl *SystemLogger) Debug(message string, ctx ...LogContext) {
	sl.log(LevelDebug, message, nil, ctx...)
}

// Info logs an info message
func (sl *SystemLogger) Info(message string, ctx ...LogContext) {
	sl.log(LevelInfo, message, nil, ctx...)
}

// Warn logs a warning message
func (sl *SystemLogger) Warn(message string, ctx ...LogContext) {
	sl.log(LevelWarn, message, nil, ctx...)
}

// Error logs an error message
func (sl *SystemLogger) Error(message string, err error, ctx ...LogContext) {
	sl.log(LevelError, message, err, ctx...)
}

// Fatal logs a fatal message and exits
func (sl *SystemLogger) Fatal(message string, err error, ctx ...LogContext) {
	sl.log(LevelFatal, message, err, ctx...)
	os.Exit(1)
}

// Sync flushes buffered entries
func (sl *SystemLogger) Sync() error {
	return sl.zl.Sync()
}

func (sl *SystemLogger) log(level LogLevel, message string, err error, ctx ...LogContext) {
	if !sl.shouldLog(level) {
		return
	}

	// fatal exits in Fatal, not inside zap
	zl := zapLevel(level)
	if level == LevelFatal {
		zl = zapcore.ErrorLevel
	}

	ce := sl.zl.Check(zl, message)
	if ce == nil {
		return
	}

	fields := make([]zap.Field, 0, 8)
	if level == LevelFatal {
		fields = append(fields, zap.Bool("fatal", true))
	}
	if len(ctx) > 0 {
		fields = append(fields, contextFields(ctx[0])...)
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	ce.Write(fields...)
}

func contextFields(lc LogContext) []zap.Field {
	var fields []zap.Field
	if lc.Merchant != "" {
		fields = append(fields, zap.String("merchant", lc.Merchant))
	}
	if lc.Gateway != "" {
		fields = append(fields, zap.String("gateway", lc.Gateway))
	}
	if lc.Operation != "" {
		fields = append(fields, zap.String("operation", lc.Operation))
	}
	if lc.RequestID != "" {
		fields = append(fields, zap.String("request_id", lc.RequestID))
	}

	keys := make([]string, 0, len(lc.Fields))
	for key := range lc.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fields = append(fields, zap.Any(key, lc.Fields[key]))
	}
	return fields
}

// shouldLog checks if the log level should be logged
func (sl *SystemLogger) shouldLog(level LogLevel) bool {
	return levelOrder[level] >= levelOrder[sl.minLevel]
}

func zapLevel(level LogLevel) zapcore.Level {
	switch level {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	case LevelFatal:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// MaskSecret keeps the first and last two characters of a credential
func MaskSecret(secret string) string {
	if len(secret) <= 4 {
		return strings.Repeat("*", len(secret))
	}
	return secret[:2] + strings.Repeat("*", len(secret)-4) + secret[len(secret)-2:]
}

// WithContext creates a new logger with context
func (sl *SystemLogger) WithContext(ctx LogContext) *ContextLogger {
	return &ContextLogger{
		systemLogger: sl,
		context:      ctx,
	}
}

// ContextLogger wraps SystemLogger with context
type ContextLogger struct {
	systemLogger *SystemLogger
	context      LogContext
}

// Debug logs a debug message with context
func (cl *ContextLogger) Debug(message string) {
	cl.systemLogger.log(LevelDebug, message, nil, cl.context)
}

// Info logs an info message with context
func (cl *ContextLogger) Info(message string) {
	cl.systemLogger.log(LevelInfo, message, nil, cl.context)
}

// Warn logs a warning message with context
func (cl *ContextLogger) Warn(message string) {
	cl.systemLogger.log(LevelWarn, message, nil, cl.context)
}

// Error logs an error message with context
func (cl *ContextLogger) Error(message string, err error) {
	cl.systemLogger.log(LevelError, message, err, cl.context)
}

// Fatal logs a fatal message with context and exits
func (cl *ContextLogger) Fatal(message string, err error) {
	cl.systemLogger.log(LevelFatal, message, err, cl.context)
	os.Exit(1)
}

// AddField adds a field to the context
func (cl *ContextLogger) AddField(key string, value any) *ContextLogger {
	fields := make(map[string]any, len(cl.context.Fields)+1)
	for k, v := range cl.context.Fields {
		fields[k] = v
	}
	fields[key] = value
	cl.context.Fields = fields
	return cl
}

// SetMerchant sets the merchant in context
func (cl *ContextLogger) SetMerchant(merchant string) *ContextLogger {
	cl.context.Merchant = merchant
	return cl
}

// SetGateway sets the gateway in context
func (cl *ContextLogger) SetGateway(gateway string) *ContextLogger {
	cl.context.Gateway = gateway
	return cl
}

// SetOperation sets the operation in context
func (cl *ContextLogger) SetOperation(operation string) *ContextLogger {
	cl.context.Operation = operation
	return cl
}

// SetRequestID sets the request ID in context
func (cl *ContextLogger) SetRequestID(requestID string) *ContextLogger {
	cl.context.RequestID = requestID
	return cl
}
