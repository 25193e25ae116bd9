package source

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"listingrelay/internal/domain"
)

type TelegramConfig struct {
	ChatID      int64
	PollTimeout time.Duration
	// MaxFailures is how many getUpdates calls in a row may fail before
	// the subscription is reported as broken.
	MaxFailures int
	RetryDelay  time.Duration
}

// Telegram long-polls the Bot API for posts in one channel. The bot must be
// a member (for channels, an administrator) of the source chat.
type Telegram struct {
	bot *tgbotapi.BotAPI
	cfg TelegramConfig
	log zerolog.Logger
}

func NewTelegram(bot *tgbotapi.BotAPI, cfg TelegramConfig, log zerolog.Logger) *Telegram {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 3 * time.Second
	}
	return &Telegram{
		bot: bot,
		cfg: cfg,
		log: log.With().Str("component", "source").Str("kind", "telegram").Logger(),
	}
}

func (t *Telegram) Run(ctx context.Context, out chan<- domain.Message) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = int(t.cfg.PollTimeout / time.Second)
	u.AllowedUpdates = []string{"channel_post", "message"}

	t.log.Info().
		Int64("chat_id", t.cfg.ChatID).
		Str("bot", t.bot.Self.UserName).
		Msg("listening for channel posts")

	failures := 0
	for {
		updates, err := t.poll(ctx, u)
		if ctx.Err() != nil {
			t.log.Info().Msg("subscription released")
			return nil
		}
		if err != nil {
			failures++
			if failures >= t.cfg.MaxFailures {
				return fmt.Errorf("%w: %d consecutive getUpdates failures: %w", ErrSubscription, failures, err)
			}
			t.log.Warn().Err(err).
				Int("attempt", failures).
				Dur("retry_in", t.cfg.RetryDelay).
				Msg("getUpdates failed")
			if !wait(ctx, t.cfg.RetryDelay) {
				return nil
			}
			continue
		}
		failures = 0

		for _, update := range updates {
			if update.UpdateID >= u.Offset {
				u.Offset = update.UpdateID + 1
			}
			msg, ok := t.toMessage(update)
			if !ok {
				continue
			}
			if !emit(ctx, out, msg) {
				return nil
			}
		}
	}
}

type pollResult struct {
	updates []tgbotapi.Update
	err     error
}

// poll runs one getUpdates call. The Bot API client takes no context, so a
// cancelled ctx abandons the in-flight long poll instead of waiting it out.
func (t *Telegram) poll(ctx context.Context, u tgbotapi.UpdateConfig) ([]tgbotapi.Update, error) {
	done := make(chan pollResult, 1)
	go func() {
		updates, err := t.bot.GetUpdates(u)
		done <- pollResult{updates: updates, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		return r.updates, r.err
	}
}

func (t *Telegram) toMessage(update tgbotapi.Update) (domain.Message, bool) {
	post := update.ChannelPost
	if post == nil {
		post = update.Message
	}
	if post == nil || post.Chat == nil || post.Chat.ID != t.cfg.ChatID {
		return domain.Message{}, false
	}

	// Media posts carry their text in the caption.
	text := post.Text
	if text == "" {
		text = post.Caption
	}

	return domain.Message{
		ID:        int64(post.MessageID),
		ChatID:    post.Chat.ID,
		Text:      text,
		Source:    domain.SourceTelegram,
		CreatedAt: post.Time(),
	}, true
}
