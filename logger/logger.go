package logger

import (
	"os"

	"github.com/rs/zerolog"
)

// Log is the application logger. Replaced by main once config is loaded.
var Log = New("production")

func New(env string) zerolog.Logger {
	zerolog.LevelFieldName = "severity"
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	if env == "development" {
		return logger.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.DebugLevel)
	}
	return logger.Level(zerolog.InfoLevel)
}
