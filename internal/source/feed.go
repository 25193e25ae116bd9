package source

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"

	"listingrelay/internal/domain"
)

type FeedConfig struct {
	URL         string
	Interval    time.Duration
	EmitBacklog bool
	MaxFailures int
}

// Feed polls an RSS or Atom feed, such as an exchange announcement feed, and
// emits each new item (title, then description) as a message. Items are
// deduplicated for the lifetime of the process only.
type Feed struct {
	cfg    FeedConfig
	client *http.Client
	parser *gofeed.Parser
	seen   map[string]bool
	log    zerolog.Logger
}

func NewFeed(cfg FeedConfig, log zerolog.Logger) *Feed {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	return &Feed{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
		parser: gofeed.NewParser(),
		seen:   make(map[string]bool),
		log:    log.With().Str("component", "source").Str("kind", "feed").Logger(),
	}
}

func (f *Feed) Run(ctx context.Context, out chan<- domain.Message) error {
	ticker := time.NewTicker(f.cfg.Interval)
	defer ticker.Stop()

	f.log.Info().Str("url", f.cfg.URL).Dur("interval", f.cfg.Interval).Msg("polling feed")

	failures := 0
	first := true
	for {
		items, err := f.fetch(ctx)
		switch {
		case ctx.Err() != nil:
			return nil
		case err != nil:
			failures++
			if failures >= f.cfg.MaxFailures {
				return fmt.Errorf("%w: %d consecutive feed failures: %w", ErrSubscription, failures, err)
			}
			f.log.Warn().Err(err).Int("attempt", failures).Msg("feed fetch failed")
		default:
			failures = 0
			if !f.publish(ctx, out, items, first && !f.cfg.EmitBacklog) {
				return nil
			}
			first = false
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (f *Feed) fetch(ctx context.Context) ([]*gofeed.Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.cfg.URL, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", "curl/8.0")
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml, */*")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	feed, err := f.parser.Parse(resp.Body)
	if err != nil {
		return nil, err
	}
	return feed.Items, nil
}

// publish emits unseen items oldest first. With backlog set the items are
// only remembered, so a restart does not replay the whole feed.
func (f *Feed) publish(ctx context.Context, out chan<- domain.Message, items []*gofeed.Item, backlog bool) bool {
	current := make(map[string]bool, len(items))
	newCount := 0

	for i := len(items) - 1; i >= 0; i-- {
		item := items[i]
		key := itemKey(item)
		current[key] = true
		if f.seen[key] || backlog {
			continue
		}
		newCount++

		createdAt := time.Now()
		if item.PublishedParsed != nil {
			createdAt = *item.PublishedParsed
		}
		msg := domain.Message{
			ID:        itemID(key),
			Text:      itemText(item),
			Source:    domain.SourceFeed,
			CreatedAt: createdAt,
		}
		if !emit(ctx, out, msg) {
			return false
		}
	}

	// Items that dropped off the feed do not come back, so only the
	// current window needs remembering.
	f.seen = current

	f.log.Debug().
		Int("items", len(items)).
		Int("new", newCount).
		Bool("backlog", backlog).
		Msg("feed polled")
	return true
}

// itemText joins title and description, since some announcement feeds
// only name the ticker in the body.
func itemText(item *gofeed.Item) string {
	if item.Description == "" {
		return item.Title
	}
	return item.Title + "\n" + item.Description
}

func itemKey(item *gofeed.Item) string {
	if item.GUID != "" {
		return item.GUID
	}
	if item.Link != "" {
		return item.Link
	}
	return item.Title
}

func itemID(key string) int64 {
	h := fnv.New64a()
	h.Write([]byte(key))
	return int64(h.Sum64() & math.MaxInt64)
}
