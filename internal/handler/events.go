package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xela07ax/timeoff-flow-prototype/internal/flow"
	"github.com/xela07ax/timeoff-flow-prototype/internal/slack"
)

// eventEnvelope — конверт Events API: либо url_verification при настройке
// приложения, либо event_callback с вложенным событием.
type eventEnvelope struct {
	Type      string `json:"type"`
	Challenge string `json:"challenge,omitempty"`
	Event     struct {
		Type        string `json:"type"`
		ChannelType string `json:"channel_type"`
		Channel     string `json:"channel"`
		User        string `json:"user"`
		Text        string `json:"text"`
		BotID       string `json:"bot_id"`
	} `json:"event"`
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	var env eventEnvelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	if env.Type == "url_verification" {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte(env.Challenge))
		return
	}

	// Slack ретраит недоставленные события — отвечаем сразу, работаем потом
	w.WriteHeader(http.StatusOK)

	ev := env.Event
	if ev.Type != "message" || ev.ChannelType != "im" || ev.BotID != "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	go func() {
		defer cancel()
		switch {
		case strings.Contains(ev.Text, "#form"):
			s.sendFormEntry(ctx, ev.Channel)
		case strings.Contains(ev.Text, "#help"):
			s.sendHelp(ctx, ev.Channel)
		}
	}()
}

// sendFormEntry шлет в личку кнопку, открывающую модальную форму:
// views.open требует trigger_id, который дает только интерактивное действие.
func (s *Server) sendFormEntry(ctx context.Context, channel string) {
	blocks := []slack.Block{
		{
			Type: "section",
			Text: slack.Markdown("Press the button to open the request form"),
		},
		slack.Actions(slack.Button(flow.ActionOpenForm, "Open form", "primary", "open")),
	}
	if _, err := s.chat.PostMessage(ctx, channel, "Press the button to open the request form", blocks); err != nil {
		s.logger.Error("failed to send form entry", zap.Error(err))
	}
}

func (s *Server) sendHelp(ctx context.Context, channel string) {
	text := "The time-off request form has the following fields:\n" +
		"1. Office and department: pick your own\n" +
		"2. Position: staff or manager\n" +
		"3. Case: paid leave / late arrival / early departure / WFH\n" +
		"4. From date / To date: the first and the last day of absence " +
		"(for a single day put the same date in both)\n" +
		"5. Time: for leave/WFH use a range like \"9h - 18h\"; " +
		"for late arrival or early departure put the exact time\n" +
		"6. Reason: be specific"
	if err := s.chat.PostDM(ctx, channel, text); err != nil {
		s.logger.Error("failed to send help", zap.Error(err))
	}
}
