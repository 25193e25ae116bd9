package relay

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"listingrelay/internal/classifier"
	"listingrelay/internal/domain"
	"listingrelay/internal/notifier"
	"listingrelay/internal/source"
)

// ErrSubscriptionClosed is returned by Run when the source stops on its own
// while the relay is still supposed to be running.
var ErrSubscriptionClosed = errors.New("subscription closed")

// PayloadText is the message sent for a matched token.
func PayloadText(token string) string {
	return "buy " + token
}

type Config struct {
	DestinationChatID int64
}

// Relay forwards qualifying messages from a source to the destination chat.
type Relay struct {
	cfg        Config
	classifier classifier.Classifier
	sender     notifier.Sender
	log        zerolog.Logger
	stats      counters
}

func New(cfg Config, cl classifier.Classifier, s notifier.Sender, log zerolog.Logger) *Relay {
	return &Relay{
		cfg:        cfg,
		classifier: cl,
		sender:     s,
		log:        log.With().Str("component", "relay").Logger(),
	}
}

// Run consumes src until ctx is cancelled or the subscription fails.
// Messages are handled one at a time in arrival order.
func (r *Relay) Run(ctx context.Context, src source.Source) error {
	msgs := make(chan domain.Message)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(msgs)
		err := src.Run(gctx, msgs)
		switch {
		case err != nil:
			return fmt.Errorf("subscription: %w", err)
		case ctx.Err() == nil:
			return ErrSubscriptionClosed
		}
		return nil
	})

	// Sends use ctx rather than gctx so the last message still goes out
	// when the subscription ends on its own.
	g.Go(func() error {
		for msg := range msgs {
			r.Handle(ctx, msg)
		}
		return nil
	})

	r.log.Info().Int64("destination", r.cfg.DestinationChatID).Msg("relay running")
	err := g.Wait()

	st := r.Stats()
	r.log.Info().
		Int("received", st.Received).
		Int("skipped", st.Skipped).
		Int("sent", st.Sent).
		Int("failed", st.Failed).
		Msg("relay stopped")
	return err
}

// Handle classifies one message and, when it qualifies, makes a single
// delivery attempt. Delivery errors are logged and never returned.
func (r *Relay) Handle(ctx context.Context, msg domain.Message) Outcome {
	log := r.log.With().Int64("message_id", msg.ID).Logger()

	if msg.Text != "" {
		log.Info().Str("text", truncate(msg.Text, 50)).Msg("message received")
	}

	result := r.classifier.Classify(msg.Text)
	if !result.Matched() {
		r.stats.record(OutcomeSkipped)
		log.Info().Str("reason", result.Reason).Msg("skipped")
		return OutcomeSkipped
	}

	payload := domain.Payload{
		ChatID:             r.cfg.DestinationChatID,
		Text:               PayloadText(result.Token),
		DisableLinkPreview: true,
	}

	err := r.sender.Send(ctx, payload)
	outcome := decide(err)
	r.stats.record(outcome)

	switch outcome {
	case OutcomeSent:
		log.Info().Str("token", result.Token).Str("payload", payload.Text).Msg("sent")
	case OutcomeFailed:
		log.Error().Err(err).Str("token", result.Token).Msg("send failed")
	}
	return outcome
}

func (r *Relay) Stats() Stats {
	return r.stats.snapshot()
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
