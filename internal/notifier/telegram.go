package notifier

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"listingrelay/internal/domain"
)

type Telegram struct {
	bot *tgbotapi.BotAPI
	log zerolog.Logger
}

func NewTelegram(bot *tgbotapi.BotAPI, log zerolog.Logger) *Telegram {
	return &Telegram{
		bot: bot,
		log: log.With().Str("component", "notifier").Logger(),
	}
}

func (t *Telegram) Send(ctx context.Context, p domain.Payload) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrDelivery, err)
	}

	msg := tgbotapi.NewMessage(p.ChatID, p.Text)
	msg.DisableWebPagePreview = p.DisableLinkPreview

	sent, err := t.send(ctx, msg)
	if err != nil {
		return fmt.Errorf("%w: chat %d: %w", ErrDelivery, p.ChatID, err)
	}

	t.log.Debug().
		Int64("chat_id", p.ChatID).
		Int("message_id", sent.MessageID).
		Msg("telegram message delivered")
	return nil
}

type sendResult struct {
	msg tgbotapi.Message
	err error
}

// send abandons the request when ctx ends; the Bot API client has no
// context support of its own.
func (t *Telegram) send(ctx context.Context, c tgbotapi.Chattable) (tgbotapi.Message, error) {
	done := make(chan sendResult, 1)
	go func() {
		msg, err := t.bot.Send(c)
		done <- sendResult{msg: msg, err: err}
	}()

	select {
	case <-ctx.Done():
		return tgbotapi.Message{}, ctx.Err()
	case r := <-done:
		return r.msg, r.err
	}
}
