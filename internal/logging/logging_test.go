package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_JSON(t *testing.T) {
	req := require.New(t)
	var buf bytes.Buffer

	log, err := New("info", "json", &buf)
	req.NoError(err)

	log.Debug().Msg("hidden")
	log.Info().Int64("message_id", 7).Msg("sent")

	var line map[string]any
	req.NoError(json.Unmarshal(buf.Bytes(), &line))
	req.Equal("sent", line["message"])
	req.Equal("info", line["level"])
	req.EqualValues(7, line["message_id"])
	req.Contains(line, "time")
}

func TestNew_Console(t *testing.T) {
	req := require.New(t)
	var buf bytes.Buffer

	log, err := New("debug", "console", &buf)
	req.NoError(err)

	log.Debug().Str("reason", "no text content").Msg("skipped")
	req.Contains(buf.String(), "skipped")
	req.Contains(buf.String(), "no text content")
}

func TestNew_BadLevel(t *testing.T) {
	_, err := New("loud", "json", &bytes.Buffer{})
	require.Error(t, err)
}

func TestBotLogger(t *testing.T) {
	req := require.New(t)
	var buf bytes.Buffer

	log, err := New("debug", "json", &buf)
	req.NoError(err)

	bl := BotLogger(log)
	bl.Printf("Endpoint: %s", "getUpdates")
	bl.Println("Failed to get updates, retrying in 3 seconds...")

	req.Contains(buf.String(), `"message":"Endpoint: getUpdates"`)
	req.Contains(buf.String(), `"message":"Failed to get updates, retrying in 3 seconds..."`)
	req.Contains(buf.String(), `"component":"tgbotapi"`)
}
