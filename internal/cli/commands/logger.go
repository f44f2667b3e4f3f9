package commands

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dvanosdol88/ai-assistants/internal/core/logger"
)

var (
	flagLogLevel  string
	flagLogFormat string
)

// RegisterLoggerFlags registers --log-level and --log-format on cmd
func RegisterLoggerFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error, fatal)")
	cmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")
}

// CreateLogger builds the stderr logger for long-running commands
func CreateLogger() logger.Logger {
	return newCLILogger()
}

// CreateQuietLogger builds a logger for one-shot commands: the flags still
// apply, but nothing below warn reaches the terminal.
func CreateQuietLogger() logger.Logger {
	return newCLILogger(logger.WithMinLevel(slog.LevelWarn))
}

func newCLILogger(extra ...logger.Option) logger.Logger {
	opts := []logger.Option{
		logger.WithLevel(logger.ParseLevel(flagLogLevel)),
		logger.WithFormat(logger.ParseFormat(flagLogFormat)),
		logger.WithOutput(os.Stderr),
	}
	return logger.New(append(opts, extra...)...)
}
