// Package logging builds the process-wide zap logger.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options selects the logger flavour.
type Options struct {
	Production bool
	// File, when set, receives JSON logs with size-based rotation.
	File string
}

// New returns a logger writing to stdout and, optionally, to a rotated file.
func New(o Options) (*zap.Logger, error) {
	zc := zap.NewDevelopmentConfig()
	if o.Production {
		zc = zap.NewProductionConfig()
	}
	zc.OutputPaths = []string{"stdout"}

	if o.File == "" {
		return zc.Build(zap.AddCaller())
	}

	rotate := &lumberjack.Logger{
		Filename:   o.File,
		MaxSize:    64,
		MaxBackups: 7,
		MaxAge:     7,
	}
	console := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	if o.Production {
		console = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}
	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), zapcore.AddSync(rotate), zc.Level),
		zapcore.NewCore(console, zapcore.AddSync(os.Stdout), zc.Level),
	)
	return zap.New(core, zap.AddCaller()), nil
}
