package logging

import (
	"os"

	"github.com/rs/zerolog"
)

// Init configures and returns the process logger. The level comes from the
// LOG_LEVEL environment variable (DEBUG/INFO/WARN/ERROR), defaulting to
// info.
func Init(service string) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	switch os.Getenv("LOG_LEVEL") {
	case "DEBUG":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "INFO":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "WARN":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "ERROR":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	return zerolog.New(os.Stderr).With().Timestamp().Str("service", service).Logger()
}
