package logging

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger *zap.Logger
	once   sync.Once
)

// Initialize builds the process-wide structured logger. development selects
// a human-readable colorized console encoder; otherwise JSON with an
// ISO8601 timestamp, suited to log aggregation in production.
func Initialize(development bool) (*zap.Logger, error) {
	var err error
	once.Do(func() {
		var cfg zap.Config
		if development {
			cfg = zap.NewDevelopmentConfig()
			cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		} else {
			cfg = zap.NewProductionConfig()
			cfg.EncoderConfig.TimeKey = "timestamp"
			cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		}
		cfg.OutputPaths = []string{"stdout"}
		cfg.ErrorOutputPaths = []string{"stderr"}

		logger, err = cfg.Build()
	})
	return logger, err
}

// Get returns the global logger, falling back to a development logger if
// Initialize was never called (tests, early startup errors).
func Get() *zap.Logger {
	if logger == nil {
		l, _ := zap.NewDevelopment()
		return l
	}
	return logger
}

// WithCorrelation attaches the per-connection correlation id every log line
// for that connection's lifetime should carry (§4.3).
func WithCorrelation(l *zap.Logger, correlationID string) *zap.Logger {
	return l.With(zap.String("correlation_id", correlationID))
}

// WithUser attaches the authenticated user id, once known.
func WithUser(l *zap.Logger, userID int32) *zap.Logger {
	return l.With(zap.Int32("user_id", userID))
}

// WithRoom attaches the room id a log line pertains to.
func WithRoom(l *zap.Logger, roomID string) *zap.Logger {
	return l.With(zap.String("room_id", roomID))
}
