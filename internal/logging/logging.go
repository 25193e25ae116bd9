package logging

import (
	"fmt"
	"io"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// New builds the process logger. format is "console" or "json".
func New(level, format string, w io.Writer) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("log level %q: %w", level, err)
	}

	if format != "json" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.DateTime}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

// BotLogger routes the Telegram client's internal logging into log at
// debug level.
func BotLogger(log zerolog.Logger) tgbotapi.BotLogger {
	return botLogger{log: log.With().Str("component", "tgbotapi").Logger()}
}

type botLogger struct {
	log zerolog.Logger
}

func (b botLogger) Println(v ...interface{}) {
	b.log.Debug().Msg(strings.TrimSuffix(fmt.Sprintln(v...), "\n"))
}

func (b botLogger) Printf(format string, v ...interface{}) {
	b.log.Debug().Msgf(format, v...)
}
