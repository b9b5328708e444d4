// Package sheets — клиент Google Sheets API v4: чтение ростера согласующих
// и дозапись строк журнала решений. Транзакционных гарантий между вызовами
// нет, журнал — best-effort.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/xela07ax/timeoff-flow-prototype/internal/infra"
)

const defaultBaseURL = "https://sheets.googleapis.com/v4/spreadsheets"

type Client struct {
	baseURL       string
	spreadsheetID string
	auth          *serviceAccount
	httpClient    *http.Client
	guard         *infra.Guard
	logger        *zap.Logger
}

func NewClient(cfg infra.SheetsConfig, logger *zap.Logger) (*Client, error) {
	httpClient := &http.Client{Timeout: 15 * time.Second}

	sa, err := newServiceAccount(cfg.SAEmail, cfg.SAKey, httpClient)
	if err != nil {
		return nil, err
	}

	return &Client{
		baseURL:       defaultBaseURL,
		spreadsheetID: cfg.SpreadsheetID,
		auth:          sa,
		httpClient:    httpClient,
		guard:         infra.NewGuard("google-sheets", 5, 2),
		logger:        logger.With(zap.String("mod", "sheets")),
	}, nil
}

// ReadRange возвращает строки диапазона вкладки.
// Формат range такой же, как в API: "!A2:D".
func (c *Client) ReadRange(ctx context.Context, tab, rng string) ([][]string, error) {
	endpoint := fmt.Sprintf("%s/%s/values/%s",
		c.baseURL, c.spreadsheetID, url.PathEscape(tab+rng))

	var rows [][]string
	err := c.guard.Do(ctx, func(ctx context.Context) error {
		raw, err := c.do(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}

		var body struct {
			Values [][]string `json:"values"`
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			return fmt.Errorf("decode values: %w", err)
		}
		rows = body.Values
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("sheets read %s%s: %w", tab, rng, err)
	}

	// Пустые строки (без первой ячейки) отбрасываем
	out := rows[:0]
	for _, r := range rows {
		if len(r) > 0 && r[0] != "" {
			out = append(out, r)
		}
	}
	return out, nil
}

// AppendRows дозаписывает строки в конец диапазона вкладки.
func (c *Client) AppendRows(ctx context.Context, tab, rng string, rows [][]string) error {
	endpoint := fmt.Sprintf("%s/%s/values/%s:append?valueInputOption=RAW",
		c.baseURL, c.spreadsheetID, url.PathEscape(tab+rng))

	payload, err := json.Marshal(map[string]any{"values": rows})
	if err != nil {
		return err
	}

	err = c.guard.Do(ctx, func(ctx context.Context) error {
		_, err := c.do(ctx, http.MethodPost, endpoint, payload)
		return err
	})
	if err != nil {
		return fmt.Errorf("sheets append %s%s: %w", tab, rng, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, payload []byte) ([]byte, error) {
	token, err := c.auth.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &infra.ThrottleError{RetryAfter: 2 * time.Second}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: %s", resp.Status, raw)
	}
	return raw, nil
}
