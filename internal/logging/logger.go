// README: zerolog construction from config (level + console/json output).
package logging

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

func New(level, format string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	logger := zerolog.New(os.Stdout)
	if strings.EqualFold(format, "console") {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout})
	}
	return logger.Level(lvl).With().Timestamp().Logger()
}
