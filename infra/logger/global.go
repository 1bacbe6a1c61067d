package logger

import (
	"sync"

	"github.com/mstgnz/gocomgate/infra/config"
)

var (
	globalLogger *SystemLogger
	once         sync.Once
	mu           sync.Mutex
)

// InitGlobalLogger initializes the global system logger from the app config
func InitGlobalLogger(appConfig *config.AppConfig) {
	once.Do(func() {
		conf := SystemLoggerConfig{
			EnableConsole: true,
			MinLevel:      LevelInfo,
			Service:       "gocomgate",
			Version:       "1.0.0",
			Environment:   "development",
		}

		if appConfig != nil {
			conf.Environment = appConfig.Environment
			conf.MinLevel = ParseLevel(appConfig.LoggingLevel)
		}

		// Adjust log level based on environment
		if conf.Environment == "development" {
			conf.MinLevel = LevelDebug
		}

		mu.Lock()
		globalLogger = NewSystemLogger(conf)
		mu.Unlock()
	})
}

// GetGlobalLogger returns the global logger instance
func GetGlobalLogger() *SystemLogger {
	mu.Lock()
	defer mu.Unlock()

	if globalLogger == nil {
		// Fallback to console-only logger if not initialized
		globalLogger = NewSystemLogger(SystemLoggerConfig{
			EnableConsole: true,
			MinLevel:      LevelInfo,
			Service:       "gocomgate",
			Version:       "1.0.0",
			Environment:   "development",
		})
	}
	return globalLogger
}

// Debug logs a debug message using the global logger
func Debug(message string, ctx ...LogContext) {
	GetGlobalLogger().log(LevelDebug, message, nil, ctx...)
}

// Info logs an info message using the global logger
func Info(message string, ctx ...LogContext) {
	GetGlobalLogger().log(LevelInfo, message, nil, ctx...)
}

// Warn logs a warning message using the global logger
func Warn(message string, ctx ...LogContext) {
	GetGlobalLogger().log(LevelWarn, message, nil, ctx...)
}

// Error logs an error message using the global logger
func Error(message string, err error, ctx ...LogContext) {
	GetGlobalLogger().log(LevelError, message, err, ctx...)
}

// Fatal logs a fatal message using the global logger and exits
func Fatal(message string, err error, ctx ...LogContext) {
	GetGlobalLogger().Fatal(message, err, ctx...)
}

// WithContext creates a context logger from the global logger
func WithContext(ctx LogContext) *ContextLogger {
	return GetGlobalLogger().WithContext(ctx)
}

// WithGateway creates a context logger with gateway
func WithGateway(gateway string) *ContextLogger {
	return WithContext(LogContext{Gateway: gateway})
}

// WithMerchant creates a context logger with the merchant id and gateway
func WithMerchant(merchant, gateway string) *ContextLogger {
	return WithContext(LogContext{
		Merchant: merchant,
		Gateway:  gateway,
	})
}
