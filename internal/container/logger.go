package container

import (
	"go.uber.org/zap"
)

// LoggerAdapter adapts zap.Logger to the key/value Logger interfaces of
// the application and interface layers.
type LoggerAdapter struct {
	logger *zap.Logger
}

// NewLoggerAdapter wraps logger; nil yields a no-op logger
func NewLoggerAdapter(logger *zap.Logger) *LoggerAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggerAdapter{logger: logger.WithOptions(zap.AddCallerSkip(1))}
}

func (a *LoggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Info(msg, convertToZapFields(keysAndValues...)...)
}

func (a *LoggerAdapter) Warn(msg string, keysAndValues ...interface{}) {
	a.logger.Warn(msg, convertToZapFields(keysAndValues...)...)
}

func (a *LoggerAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, convertToZapFields(keysAndValues...)...)
}

// convertToZapFields converts key-value pairs to zap fields.
// Errors become zap.Error; a dangling key is kept with a nil value.
func convertToZapFields(keysAndValues ...interface{}) []zap.Field {
	fields := make([]zap.Field, 0, (len(keysAndValues)+1)/2)
	for i := 0; i < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		if i+1 >= len(keysAndValues) {
			fields = append(fields, zap.Any(key, nil))
			break
		}
		if err, isErr := keysAndValues[i+1].(error); isErr && key == "error" {
			fields = append(fields, zap.Error(err))
			continue
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}
