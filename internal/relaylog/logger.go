// Package relaylog builds the structured logger shared by the server and
// the CLI subcommands.
package relaylog

import (
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a console logger writing to stderr, at Debug level when debug
// is set and Info otherwise. Debug output is sampled, since the throttle
// and lag paths can log once per cluster.
func New(debug bool) *zap.Logger {
	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(os.Stderr),
		level,
	)
	if debug {
		core = zapcore.NewSamplerWithOptions(core, time.Second, 1, 0)
	}
	return zap.New(core)
}
