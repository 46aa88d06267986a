// Package logger configures the global zerolog diagnostic stream.
// Everything goes to stderr so stdout stays a clean record stream.
package logger

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init sets up the process-wide logger. Interactive terminals get the
// console format, pipes get JSON. quiet drops everything below Error,
// keeping warnings about skipped records out of scripted runs.
func Init(quiet bool) {
	level := zerolog.WarnLevel
	if quiet {
		level = zerolog.ErrorLevel
	}
	zerolog.SetGlobalLevel(level)

	var logger zerolog.Logger
	if isatty.IsTerminal(os.Stderr.Fd()) {
		logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: "15:04:05",
		})
	} else {
		logger = zerolog.New(os.Stderr)
	}

	log.Logger = logger.Level(level).With().Timestamp().Logger()
}
