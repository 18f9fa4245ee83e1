package logger

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/zfogg/chirp/cli/pkg/config"
)

var logger *log.Logger

// Init writes to the configured log file, falling back to stderr.
// verbose forces debug level regardless of log.level.
func Init(verbose bool) {
	var out io.Writer = os.Stderr
	if f, err := os.OpenFile(config.GetString("log.file"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600); err == nil {
		out = f
	}
	setup(out, config.GetString("log.level"), verbose)
}

func setup(out io.Writer, level string, verbose bool) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	if verbose {
		lvl = log.DebugLevel
	}
	logger = log.NewWithOptions(out, log.Options{
		ReportTimestamp: true,
		Prefix:          "chirp",
	})
	logger.SetLevel(lvl)
}

// Debug logs request and response detail
func Debug(msg string, args ...interface{}) {
	if logger != nil {
		logger.Debug(msg, args...)
	}
}

func Info(msg string, args ...interface{}) {
	if logger != nil {
		logger.Info(msg, args...)
	}
}

func Warn(msg string, args ...interface{}) {
	if logger != nil {
		logger.Warn(msg, args...)
	}
}

func Error(msg string, args ...interface{}) {
	if logger != nil {
		logger.Error(msg, args...)
	}
}
