package logging

import (
	"context"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	userIDKey
)

// Setup configures the global logrus logger for the given environment.
func Setup(level, env string) {
	if env == "production" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	logrus.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)
}

func WithRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, requestIDKey, rid)
}

func WithUserID(ctx context.Context, uid string) context.Context {
	return context.WithValue(ctx, userIDKey, uid)
}

// RequestID extracts the request ID from a standard context.
func RequestID(ctx context.Context) string {
	if rid, ok := ctx.Value(requestIDKey).(string); ok {
		return rid
	}
	return ""
}

// FromContext returns an entry tagged with whatever request metadata ctx carries.
func FromContext(ctx context.Context) *logrus.Entry {
	fields := logrus.Fields{}
	if rid := RequestID(ctx); rid != "" {
		fields["request_id"] = rid
	}
	if uid, ok := ctx.Value(userIDKey).(string); ok && uid != "" {
		fields["user_id"] = uid
	}
	return logrus.WithFields(fields)
}

// Logger provides operation-scoped logging for services.
type Logger struct {
	entry *logrus.Entry
}

// NewLogger creates a logger with request context
func NewLogger(ctx context.Context) *Logger {
	return &Logger{entry: FromContext(ctx)}
}

// LogError logs an error with context
func (l *Logger) LogError(operation string, err error) {
	l.entry.WithField("operation", operation).WithError(err).Error("operation failed")
}

// LogErrorf logs a formatted error with context
func (l *Logger) LogErrorf(operation string, format string, args ...interface{}) {
	l.entry.WithField("operation", operation).Errorf(format, args...)
}

// LogInfof logs a formatted info message with context
func (l *Logger) LogInfof(operation string, format string, args ...interface{}) {
	l.entry.WithField("operation", operation).Infof(format, args...)
}

// LogWarnf logs a formatted warning with context
func (l *Logger) LogWarnf(operation string, format string, args ...interface{}) {
	l.entry.WithField("operation", operation).Warnf(format, args...)
}
