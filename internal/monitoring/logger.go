// Package monitoring holds the process-wide diagnostic logger. Evaluation
// code logs through Logf and Debugf so tests and the CLI can redirect or mute
// output without threading a logger through every call.
package monitoring

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu    sync.RWMutex
	sugar = zap.NewNop().Sugar()
)

// Logf is the package-level info logger. It writes through the logger
// installed by SetLogger.
var Logf func(format string, v ...interface{}) = func(format string, v ...interface{}) {
	L().Infof(format, v...)
}

// Debugf logs at debug level through the installed logger.
var Debugf func(format string, v ...interface{}) = func(format string, v ...interface{}) {
	L().Debugf(format, v...)
}

// NewLogger builds a zap logger at the given level ("debug", "info", "warn",
// "error"). Development loggers use the console encoder; production loggers
// emit JSON.
func NewLogger(level string, development bool) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var cfg zap.Config
	if development {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

// SetLogger replaces the package logger. Passing nil installs a no-op logger.
func SetLogger(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	if l == nil {
		sugar = zap.NewNop().Sugar()
		return
	}
	sugar = l.Sugar()
}

// L returns the current sugared logger.
func L() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}
