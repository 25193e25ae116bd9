package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"listingrelay/internal/classifier"
	"listingrelay/internal/config"
	"listingrelay/internal/logging"
	"listingrelay/internal/notifier"
	"listingrelay/internal/relay"
	"listingrelay/internal/source"
)

func runCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the relay until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), *configPath)
		},
	}
}

func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, err := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err != nil {
		return err
	}
	if err := tgbotapi.SetLogger(logging.BotLogger(log)); err != nil {
		return err
	}

	log.Info().Msg("connecting to telegram")
	bot, err := newBot(cfg.Telegram)
	if err != nil {
		return fmt.Errorf("telegram bot init: %w", err)
	}
	log.Info().Str("username", bot.Self.UserName).Int64("id", bot.Self.ID).Msg("telegram bot connected")

	cl, err := classifier.NewListing()
	if err != nil {
		return err
	}

	r := relay.New(
		relay.Config{DestinationChatID: cfg.Relay.DestinationChannelID},
		cl,
		notifier.NewTelegram(bot, log),
		log,
	)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := r.Run(ctx, newSource(cfg, bot, log)); err != nil {
		log.Error().Err(err).Msg("relay terminated")
		return err
	}

	log.Info().Msg("program finished")
	return nil
}

// newBot builds the Bot API client. The HTTP timeout sits above the long
// poll timeout so getUpdates is not cut short.
func newBot(cfg config.TelegramConfig) (*tgbotapi.BotAPI, error) {
	client := &http.Client{Timeout: cfg.PollTimeout + cfg.RequestTimeout}
	return tgbotapi.NewBotAPIWithClient(cfg.Token, tgbotapi.APIEndpoint, client)
}

func newSource(cfg *config.Config, bot *tgbotapi.BotAPI, log zerolog.Logger) source.Source {
	if cfg.Relay.Source == config.SourceFeed {
		return source.NewFeed(source.FeedConfig{
			URL:         cfg.Feed.URL,
			Interval:    cfg.Feed.Interval,
			EmitBacklog: cfg.Feed.EmitBacklog,
			MaxFailures: cfg.Feed.MaxFailures,
		}, log)
	}
	return source.NewTelegram(bot, source.TelegramConfig{
		ChatID:      cfg.Relay.SourceChannelID,
		PollTimeout: cfg.Telegram.PollTimeout,
		MaxFailures: cfg.Telegram.MaxFailures,
		RetryDelay:  cfg.Telegram.RetryDelay,
	}, log)
}
