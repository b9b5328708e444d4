package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/xela07ax/timeoff-flow-prototype/internal/domain"
	"github.com/xela07ax/timeoff-flow-prototype/internal/flow"
)

// interactionPayload — общий конверт интерактивных событий Slack
// (block_actions и view_submission). Приходит form-encoded полем payload.
type interactionPayload struct {
	Type      string `json:"type"`
	TriggerID string `json:"trigger_id"`

	User struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Name     string `json:"name"`
	} `json:"user"`

	Container struct {
		MessageTS string `json:"message_ts"`
		ChannelID string `json:"channel_id"`
	} `json:"container"`

	Actions []struct {
		ActionID string `json:"action_id"`
		Value    string `json:"value"`
	} `json:"actions"`

	View struct {
		CallbackID string `json:"callback_id"`
		State      struct {
			Values map[string]map[string]stateValue `json:"values"`
		} `json:"state"`
	} `json:"view"`
}

// stateValue — значение одного элемента формы.
type stateValue struct {
	Value          string `json:"value,omitempty"`
	SelectedDate   string `json:"selected_date,omitempty"`
	SelectedOption struct {
		Value string `json:"value"`
	} `json:"selected_option,omitempty"`
}

func (s *Server) handleInteractions(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	var payload interactionPayload
	if err := json.Unmarshal([]byte(r.FormValue("payload")), &payload); err != nil {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}

	traceID := middleware.GetReqID(r.Context())

	switch payload.Type {
	case "block_actions":
		s.handleBlockAction(w, payload, traceID)
	case "view_submission":
		s.handleViewSubmission(w, payload, traceID)
	default:
		w.WriteHeader(http.StatusOK)
	}
}

func (s *Server) handleBlockAction(w http.ResponseWriter, payload interactionPayload, traceID string) {
	if len(payload.Actions) == 0 {
		w.WriteHeader(http.StatusOK)
		return
	}
	actionID := payload.Actions[0].ActionID

	// Ack раньше бизнес-логики: Slack ждет ответ на интерактив 3 секунды,
	// а переход state machine ходит во внешние API
	w.WriteHeader(http.StatusOK)

	act := flow.Action{
		TraceID:    traceID,
		Actor:      domain.User{ID: payload.User.ID, Name: payload.User.Name},
		ChannelID:  payload.Container.ChannelID,
		MessageTS:  payload.Container.MessageTS,
		RawPayload: []byte(payload.Actions[0].Value),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	go func() {
		defer cancel()
		switch actionID {
		case flow.ActionAccept:
			s.engine.HandleAccept(ctx, act)
		case flow.ActionReject:
			s.engine.HandleReject(ctx, act)
		case flow.ActionOpenForm:
			if err := s.chat.OpenView(ctx, payload.TriggerID, buildFormView()); err != nil {
				s.logger.Error("failed to open form", zap.Error(err),
					zap.String("trace_id", traceID))
			}
		default:
			s.logger.Warn("unknown action ignored", zap.String("action_id", actionID))
		}
	}()
}

func (s *Server) handleViewSubmission(w http.ResponseWriter, payload interactionPayload, traceID string) {
	if payload.View.CallbackID != flow.FormCallbackID {
		w.WriteHeader(http.StatusOK)
		return
	}

	form := parseForm(payload)

	// Порядок дат проверяется здесь и только здесь: ошибка возвращается
	// прямо в поле формы синхронным ответом
	if err := domain.ValidateDateRange(form.FromDate, form.ToDate); err != nil {
		writeJSON(w, map[string]any{
			"response_action": "errors",
			"errors": map[string]string{
				blockFromDate: "From date cannot be after to date",
			},
		})
		return
	}

	// Форму закрываем сразу, резолв согласующих и публикация карточки — потом
	writeJSON(w, map[string]string{"response_action": "clear"})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	go func() {
		defer cancel()
		// Подменяем username на отображаемое имя из профиля
		if u, err := s.chat.GetUser(ctx, form.Requester.ID); err == nil && u.Name != "" {
			form.Requester = u
		}
		if err := s.engine.HandleSubmission(ctx, form); err != nil {
			s.logger.Error("submission failed", zap.Error(err),
				zap.String("trace_id", traceID),
				zap.String("requester", form.Requester.ID),
				zap.Bool("config_error", flow.IsConfigError(err)))
		}
	}()
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
