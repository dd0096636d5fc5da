// Package logging builds the diagnostic logger used under --verbose.
//
// Operator-facing messages go through the output package. The zap logger
// only carries debug detail (commands run, durations, resolved paths) and is
// written to stderr, never to a file.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a development logger on stderr when verbose is set and a
// no-op logger otherwise.
func New(verbose bool) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}

	config := zap.NewDevelopmentConfig()
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}
	config.EncoderConfig.TimeKey = "time"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.DisableStacktrace = true

	logger, err := config.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
