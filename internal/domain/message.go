package domain

import "time"

// Message is one inbound post from the source channel. An empty Text means
// the post carried no text content.
type Message struct {
	ID        int64
	ChatID    int64
	Text      string
	Source    Source
	CreatedAt time.Time
}

type Source string

const (
	SourceTelegram Source = "telegram"
	SourceFeed     Source = "feed"
)

// Payload is a derived message ready for delivery to the destination channel.
type Payload struct {
	ChatID             int64
	Text               string
	DisableLinkPreview bool
}
