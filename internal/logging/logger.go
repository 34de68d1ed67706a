// Package logging builds the application logger: zap structured
// logging, console always, plus a rotated file when a path is given.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New creates a logger for the given environment. Development mode uses
// colored console output at debug level; production mode uses JSON at
// info level. When logFile is non-empty, output is additionally written
// there with rotation (50MB, 3 backups, 14 days, compressed).
func New(development bool, logFile string) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	encCfg := zap.NewProductionEncoderConfig()
	var consoleEnc zapcore.Encoder
	if development {
		level = zapcore.DebugLevel
		devCfg := zap.NewDevelopmentEncoderConfig()
		devCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		consoleEnc = zapcore.NewConsoleEncoder(devCfg)
	} else {
		consoleEnc = zapcore.NewJSONEncoder(encCfg)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(consoleEnc, zapcore.Lock(os.Stderr), level),
	}

	if logFile != "" {
		rotated := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    50, // MB
			MaxBackups: 3,
			MaxAge:     14, // days
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(encCfg),
			zapcore.AddSync(rotated),
			level,
		))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()), nil
}
