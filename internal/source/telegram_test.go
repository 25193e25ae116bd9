package source

import (
	"context"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"listingrelay/internal/domain"
	"listingrelay/internal/telegramtest"
)

const sourceChat = int64(-1001111111111)

func runSource(t *testing.T, src Source) (chan domain.Message, context.CancelFunc, chan error) {
	t.Helper()
	out := make(chan domain.Message, 16)
	errc := make(chan error, 1)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { errc <- src.Run(ctx, out) }()
	return out, cancel, errc
}

func receive(t *testing.T, out <-chan domain.Message) domain.Message {
	t.Helper()
	select {
	case msg := <-out:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return domain.Message{}
	}
}

func TestTelegram_Run(t *testing.T) {
	req := require.New(t)
	srv := telegramtest.NewServer(t)

	captioned := telegramtest.ChannelPost(3, sourceChat, 12, "")
	captioned.ChannelPost.Caption = "Listed on spot $PIC"
	srv.Push(
		telegramtest.ChannelPost(1, sourceChat, 10, "Binance Listed new pair Spot $XRP trading"),
		telegramtest.ChannelPost(2, -100999, 11, "other channel"),
		captioned,
		tgbotapi.Update{UpdateID: 4},
		telegramtest.ChannelPost(5, sourceChat, 13, ""),
	)

	src := NewTelegram(srv.Bot(t), TelegramConfig{ChatID: sourceChat, PollTimeout: time.Second}, zerolog.Nop())
	out, cancel, errc := runSource(t, src)

	first := receive(t, out)
	req.Equal(int64(10), first.ID)
	req.Equal(sourceChat, first.ChatID)
	req.Equal("Binance Listed new pair Spot $XRP trading", first.Text)
	req.Equal(domain.SourceTelegram, first.Source)

	second := receive(t, out)
	req.Equal(int64(12), second.ID)
	req.Equal("Listed on spot $PIC", second.Text)

	third := receive(t, out)
	req.Equal(int64(13), third.ID)
	req.Empty(third.Text)

	cancel()
	select {
	case err := <-errc:
		req.NoError(err)
	case <-time.After(2 * time.Second):
		t.Fatal("source did not stop")
	}

	select {
	case msg := <-out:
		t.Fatalf("unexpected message %+v", msg)
	default:
	}
}

func TestTelegram_RunRecoversFromTransientFailures(t *testing.T) {
	req := require.New(t)
	srv := telegramtest.NewServer(t)
	srv.FailPolls(2)
	srv.Push(telegramtest.ChannelPost(7, sourceChat, 70, "hello"))

	src := NewTelegram(srv.Bot(t), TelegramConfig{
		ChatID:      sourceChat,
		MaxFailures: 3,
		RetryDelay:  time.Millisecond,
	}, zerolog.Nop())
	out, _, _ := runSource(t, src)

	req.Equal(int64(70), receive(t, out).ID)
}

func TestTelegram_RunSubscriptionFailure(t *testing.T) {
	req := require.New(t)
	srv := telegramtest.NewServer(t)
	srv.FailPolls(3)

	src := NewTelegram(srv.Bot(t), TelegramConfig{
		ChatID:      sourceChat,
		MaxFailures: 3,
		RetryDelay:  time.Millisecond,
	}, zerolog.Nop())
	_, _, errc := runSource(t, src)

	select {
	case err := <-errc:
		req.ErrorIs(err, ErrSubscription)
	case <-time.After(2 * time.Second):
		t.Fatal("subscription failure was not reported")
	}
}
