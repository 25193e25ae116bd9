// Package telegramtest runs a fake Telegram Bot API for tests.
package telegramtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const Token = "123456:TEST"

// Server answers getMe, getUpdates and sendMessage. Updates are queued with
// Push and served once each, honouring the offset sent by the client.
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	updates     []tgbotapi.Update
	sent        []url.Values
	sendErrors  []string
	pollErrors  int
	nextMessage int
	stall       chan struct{}
}

func NewServer(t *testing.T) *Server {
	t.Helper()
	s := &Server{nextMessage: 1}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

// Bot returns a client bound to this server.
func (s *Server) Bot(t *testing.T) *tgbotapi.BotAPI {
	t.Helper()
	bot, err := tgbotapi.NewBotAPIWithClient(Token, s.URL+"/bot%s/%s", s.Client())
	if err != nil {
		t.Fatalf("telegramtest: create bot: %v", err)
	}
	return bot
}

func (s *Server) Push(updates ...tgbotapi.Update) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, updates...)
}

// FailSend makes the next sendMessage calls fail, one description per call.
func (s *Server) FailSend(descriptions ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sendErrors = append(s.sendErrors, descriptions...)
}

// FailPolls makes the next n getUpdates calls fail.
func (s *Server) FailPolls(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pollErrors += n
}

// StallSend makes sendMessage hang until the client gives up or the test
// ends.
func (s *Server) StallSend(t *testing.T) {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stall = make(chan struct{})
	stall := s.stall
	// Registered after NewServer's Close, so it runs first and lets the
	// stalled handlers return.
	t.Cleanup(func() { close(stall) })
}

// Sent returns the form values of every sendMessage call so far.
func (s *Server) Sent() []url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]url.Values, len(s.sent))
	copy(out, s.sent)
	return out
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	prefix := "/bot" + Token + "/"
	if !strings.HasPrefix(r.URL.Path, prefix) {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	switch method := strings.TrimPrefix(r.URL.Path, prefix); method {
	case "getMe":
		writeResult(w, tgbotapi.User{ID: 42, IsBot: true, FirstName: "relay", UserName: "relay_bot"})
	case "getUpdates":
		s.getUpdates(w, r)
	case "sendMessage":
		s.sendMessage(w, r)
	default:
		writeError(w, http.StatusNotFound, fmt.Sprintf("Not Found: method %s", method))
	}
}

func (s *Server) getUpdates(w http.ResponseWriter, r *http.Request) {
	offset, _ := strconv.Atoi(r.Form.Get("offset"))

	s.mu.Lock()
	if s.pollErrors > 0 {
		s.pollErrors--
		s.mu.Unlock()
		writeError(w, http.StatusBadGateway, "Bad Gateway")
		return
	}
	var pending []tgbotapi.Update
	for _, u := range s.updates {
		if u.UpdateID >= offset {
			pending = append(pending, u)
		}
	}
	s.mu.Unlock()

	if len(pending) == 0 {
		// Stand-in for long polling so idle clients do not spin.
		time.Sleep(20 * time.Millisecond)
		pending = []tgbotapi.Update{}
	}
	writeResult(w, pending)
}

func (s *Server) sendMessage(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sent = append(s.sent, r.Form)
	if stall := s.stall; stall != nil {
		s.mu.Unlock()
		select {
		case <-stall:
		case <-r.Context().Done():
		}
		s.mu.Lock()
		writeError(w, http.StatusGatewayTimeout, "Gateway Timeout")
		return
	}
	if len(s.sendErrors) > 0 {
		desc := s.sendErrors[0]
		s.sendErrors = s.sendErrors[1:]
		writeError(w, http.StatusForbidden, desc)
		return
	}

	chatID, _ := strconv.ParseInt(r.Form.Get("chat_id"), 10, 64)
	msg := tgbotapi.Message{
		MessageID: s.nextMessage,
		Chat:      &tgbotapi.Chat{ID: chatID, Type: "channel"},
		Date:      int(time.Now().Unix()),
		Text:      r.Form.Get("text"),
	}
	s.nextMessage++
	writeResult(w, msg)
}

func writeResult(w http.ResponseWriter, result any) {
	raw, err := json.Marshal(result)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": json.RawMessage(raw)})
}

func writeError(w http.ResponseWriter, code int, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"ok":          false,
		"error_code":  code,
		"description": description,
	})
}

// ChannelPost builds a channel_post update.
func ChannelPost(updateID int, chatID int64, messageID int, text string) tgbotapi.Update {
	return tgbotapi.Update{
		UpdateID: updateID,
		ChannelPost: &tgbotapi.Message{
			MessageID: messageID,
			Chat:      &tgbotapi.Chat{ID: chatID, Type: "channel"},
			Date:      int(time.Now().Unix()),
			Text:      text,
		},
	}
}
