package sheets

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenURL   = "https://oauth2.googleapis.com/token"
	sheetScope = "https://www.googleapis.com/auth/spreadsheets"
	grantType  = "urn:ietf:params:oauth:grant-type:jwt-bearer"
)

// serviceAccount выпускает и кэширует access token по JWT-гранту
// сервис-аккаунта Google (RS256 поверх приватного ключа из PEM).
type serviceAccount struct {
	email string
	key   *rsa.PrivateKey

	httpClient *http.Client

	mu      sync.Mutex
	token   string
	expires time.Time
}

func newServiceAccount(email string, pemKey []byte, httpClient *http.Client) (*serviceAccount, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM(pemKey)
	if err != nil {
		return nil, fmt.Errorf("parse service account key: %w", err)
	}
	return &serviceAccount{
		email:      email,
		key:        key,
		httpClient: httpClient,
	}, nil
}

// accessToken возвращает живой токен, перевыпуская его за минуту до истечения.
func (sa *serviceAccount) accessToken(ctx context.Context) (string, error) {
	sa.mu.Lock()
	defer sa.mu.Unlock()

	if sa.token != "" && time.Now().Before(sa.expires.Add(-time.Minute)) {
		return sa.token, nil
	}

	now := time.Now()
	assertion := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"iss":   sa.email,
		"scope": sheetScope,
		"aud":   tokenURL,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	})

	signed, err := assertion.SignedString(sa.key)
	if err != nil {
		return "", fmt.Errorf("sign assertion: %w", err)
	}

	form := url.Values{}
	form.Set("grant_type", grantType)
	form.Set("assertion", signed)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := sa.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token exchange: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token exchange failed: %s: %s", resp.Status, raw)
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}

	sa.token = body.AccessToken
	sa.expires = now.Add(time.Duration(body.ExpiresIn) * time.Second)
	return sa.token, nil
}
