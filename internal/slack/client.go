package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/xela07ax/timeoff-flow-prototype/internal/domain"
	"github.com/xela07ax/timeoff-flow-prototype/internal/infra"
)

const defaultBaseURL = "https://slack.com/api"

// Client — HTTP-клиент Slack Web API. Все вызовы идут через Guard
// (rate limit + circuit breaker + ретраи): Slack жестко лимитирует
// chat.* методы, а карточки терять нельзя.
type Client struct {
	baseURL    string
	botToken   string
	httpClient *http.Client
	guard      *infra.Guard
	logger     *zap.Logger
}

func NewClient(botToken string, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    defaultBaseURL,
		botToken:   botToken,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		guard:      infra.NewGuard("slack-api", 20, 5),
		logger:     logger.With(zap.String("mod", "slack")),
	}
}

// apiResponse — общий конверт ответов Web API.
type apiResponse struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
	TS      string `json:"ts,omitempty"`
	Channel string `json:"channel,omitempty"`
	User    struct {
		ID       string `json:"id"`
		RealName string `json:"real_name"`
		Name     string `json:"name"`
	} `json:"user,omitempty"`
}

// PostMessage публикует сообщение с блоками, возвращает ts — он же ключ
// заявки для mutual-exclusion.
func (c *Client) PostMessage(ctx context.Context, channel, text string, blocks []Block) (string, error) {
	payload := map[string]any{
		"channel": channel,
		"text":    text,
	}
	if len(blocks) > 0 {
		payload["blocks"] = blocks
	}

	resp, err := c.call(ctx, "chat.postMessage", payload)
	if err != nil {
		return "", err
	}
	return resp.TS, nil
}

// UpdateMessage целиком заменяет карточку. Частичных апдейтов нет:
// рендерер всегда пересобирает полный набор блоков.
func (c *Client) UpdateMessage(ctx context.Context, channel, ts, text string, blocks []Block) error {
	_, err := c.call(ctx, "chat.update", map[string]any{
		"channel": channel,
		"ts":      ts,
		"text":    text,
		"blocks":  blocks,
	})
	return err
}

// PostEphemeral показывает приватное сообщение одному пользователю внутри
// канала — им доставляются отказы в авторизации, чтобы не шуметь в треде.
func (c *Client) PostEphemeral(ctx context.Context, channel, user, text string) error {
	_, err := c.call(ctx, "chat.postEphemeral", map[string]any{
		"channel": channel,
		"user":    user,
		"text":    text,
	})
	return err
}

// PostDM шлет личное сообщение (канал = ID пользователя).
func (c *Client) PostDM(ctx context.Context, userID, text string) error {
	_, err := c.call(ctx, "chat.postMessage", map[string]any{
		"channel": userID,
		"text":    text,
	})
	return err
}

// OpenView открывает модальную форму по trigger_id из интерактивного события.
func (c *Client) OpenView(ctx context.Context, triggerID string, view View) error {
	_, err := c.call(ctx, "views.open", map[string]any{
		"trigger_id": triggerID,
		"view":       view,
	})
	return err
}

// GetUser возвращает идентичность пользователя с отображаемым именем.
func (c *Client) GetUser(ctx context.Context, userID string) (domain.User, error) {
	resp, err := c.call(ctx, "users.info?user="+userID, nil)
	if err != nil {
		return domain.User{}, err
	}
	name := resp.User.RealName
	if name == "" {
		name = resp.User.Name
	}
	return domain.User{ID: resp.User.ID, Name: name}, nil
}

func (c *Client) call(ctx context.Context, method string, payload map[string]any) (*apiResponse, error) {
	var out *apiResponse

	err := c.guard.Do(ctx, func(ctx context.Context) error {
		resp, err := c.doJSON(ctx, method, payload)
		if err != nil {
			return err
		}
		out = resp
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("slack %s: %w", method, err)
	}
	return out, nil
}

func (c *Client) doJSON(ctx context.Context, method string, payload map[string]any) (*apiResponse, error) {
	var body io.Reader
	httpMethod := http.MethodGet
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(raw)
		httpMethod = http.MethodPost
	}

	req, err := http.NewRequestWithContext(ctx, httpMethod, c.baseURL+"/"+method, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.botToken)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// Slack сигналит лимит 429-м с Retry-After — отдаем его ретраям Guard
	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := 1 * time.Second
		if sec, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
			retryAfter = time.Duration(sec) * time.Second
		}
		return nil, &infra.ThrottleError{RetryAfter: retryAfter}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var api apiResponse
	if err := json.Unmarshal(raw, &api); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if !api.OK {
		return nil, fmt.Errorf("api error: %s", api.Error)
	}
	return &api, nil
}

// Mention форматирует упоминание пользователя.
func Mention(id string) string {
	return "<@" + id + ">"
}

// Mentions форматирует список упоминаний через запятую.
func Mentions(users []domain.User) string {
	out := ""
	for i, u := range users {
		if i > 0 {
			out += ", "
		}
		out += Mention(u.ID)
	}
	return out
}
