package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

var ErrInvalid = errors.New("invalid configuration")

const (
	SourceTelegram = "telegram"
	SourceFeed     = "feed"
)

type Config struct {
	Telegram TelegramConfig `koanf:"telegram"`
	Relay    RelayConfig    `koanf:"relay"`
	Feed     FeedConfig     `koanf:"feed"`
	Log      LogConfig      `koanf:"log"`
}

type TelegramConfig struct {
	Token       string        `koanf:"token" validate:"required"`
	PollTimeout time.Duration `koanf:"poll_timeout" validate:"gte=0"`
	// RequestTimeout bounds every Bot API call on top of PollTimeout.
	RequestTimeout time.Duration `koanf:"request_timeout" validate:"gt=0"`
	MaxFailures    int           `koanf:"max_failures" validate:"gte=1"`
	RetryDelay     time.Duration `koanf:"retry_delay" validate:"gte=0"`
}

type RelayConfig struct {
	Source               string `koanf:"source" validate:"oneof=telegram feed"`
	SourceChannelID      int64  `koanf:"source_channel_id" validate:"required_if=Source telegram"`
	DestinationChannelID int64  `koanf:"destination_channel_id" validate:"required"`
}

type FeedConfig struct {
	URL         string        `koanf:"url" validate:"omitempty,url"`
	Interval    time.Duration `koanf:"interval" validate:"gte=0"`
	EmitBacklog bool          `koanf:"emit_backlog"`
	MaxFailures int           `koanf:"max_failures" validate:"gte=1"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=console json"`
}

func Default() Config {
	return Config{
		Telegram: TelegramConfig{
			PollTimeout:    30 * time.Second,
			RequestTimeout: 15 * time.Second,
			MaxFailures:    5,
			RetryDelay:     3 * time.Second,
		},
		Relay: RelayConfig{Source: SourceTelegram},
		Feed:  FeedConfig{Interval: time.Minute, MaxFailures: 5},
		Log:   LogConfig{Level: "info", Format: "console"},
	}
}

// envKeys maps the plain variable names used in .env files to config keys.
var envKeys = map[string]string{
	"TELEGRAM_BOT_TOKEN":     "telegram.token",
	"SOURCE_CHANNEL_ID":      "relay.source_channel_id",
	"DESTINATION_CHANNEL_ID": "relay.destination_channel_id",
	"RELAY_SOURCE":           "relay.source",
	"FEED_URL":               "feed.url",
	"FEED_INTERVAL":          "feed.interval",
	"LOG_LEVEL":              "log.level",
}

// envPrefix selects generic overrides: RELAY__TELEGRAM__POLL_TIMEOUT sets
// telegram.poll_timeout.
const envPrefix = "RELAY__"

// Load reads .env, then the yaml file at path (skipped when it does not
// exist), then the environment. Later sources win.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("load %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey returns the config key for an environment variable, or "" to
// ignore it.
func envKey(name string) string {
	if key, ok := envKeys[name]; ok {
		return key
	}
	if rest, ok := strings.CutPrefix(name, envPrefix); ok && rest != "" {
		return strings.ToLower(strings.ReplaceAll(rest, "__", "."))
	}
	return ""
}

var validate = validator.New()

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if c.Relay.Source == SourceFeed && c.Feed.URL == "" {
		return fmt.Errorf("%w: feed.url is required when relay.source is %q", ErrInvalid, SourceFeed)
	}
	return nil
}
