package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func signBody(secret string, ts int64, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte("v0:" + strconv.FormatInt(ts, 10) + ":" + body))
	return "v0=" + hex.EncodeToString(mac.Sum(nil))
}

func TestSignatureValid(t *testing.T) {
	const secret = "8f742231b10e8888abcd99yyyzzz85a5"
	now := time.Unix(1_700_000_000, 0)
	body := []byte(`payload={"type":"block_actions"}`)

	t.Run("genuine signature passes", func(t *testing.T) {
		ts := now.Unix()
		sig := signBody(secret, ts, string(body))
		assert.True(t, signatureValid(secret, strconv.FormatInt(ts, 10), sig, body, now))
	})

	t.Run("wrong secret fails", func(t *testing.T) {
		ts := now.Unix()
		sig := signBody("other-secret", ts, string(body))
		assert.False(t, signatureValid(secret, strconv.FormatInt(ts, 10), sig, body, now))
	})

	t.Run("tampered body fails", func(t *testing.T) {
		ts := now.Unix()
		sig := signBody(secret, ts, string(body))
		assert.False(t, signatureValid(secret, strconv.FormatInt(ts, 10), sig, []byte("payload=evil"), now))
	})

	t.Run("stale timestamp fails even with valid mac", func(t *testing.T) {
		ts := now.Add(-6 * time.Minute).Unix()
		sig := signBody(secret, ts, string(body))
		assert.False(t, signatureValid(secret, strconv.FormatInt(ts, 10), sig, body, now))
	})

	t.Run("future timestamp fails", func(t *testing.T) {
		ts := now.Add(6 * time.Minute).Unix()
		sig := signBody(secret, ts, string(body))
		assert.False(t, signatureValid(secret, strconv.FormatInt(ts, 10), sig, body, now))
	})

	t.Run("garbage timestamp fails", func(t *testing.T) {
		assert.False(t, signatureValid(secret, "not-a-number", "v0=00", body, now))
	})
}

func TestVerifySignature_Middleware(t *testing.T) {
	const secret = "test-signing-secret"
	var sawBody string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b := make([]byte, r.ContentLength)
		_, _ = r.Body.Read(b)
		sawBody = string(b)
		w.WriteHeader(http.StatusOK)
	})
	protected := VerifySignature(secret, zap.NewNop())(next)

	t.Run("signed request reaches handler with body intact", func(t *testing.T) {
		body := `{"type":"url_verification","challenge":"abc"}`
		ts := time.Now().Unix()

		req := httptest.NewRequest(http.MethodPost, "/slack/events", strings.NewReader(body))
		req.Header.Set("X-Slack-Request-Timestamp", strconv.FormatInt(ts, 10))
		req.Header.Set("X-Slack-Signature", signBody(secret, ts, body))
		rec := httptest.NewRecorder()

		protected.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, body, sawBody, "middleware must restore the consumed body")
	})

	t.Run("unsigned request is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/slack/events", strings.NewReader("{}"))
		rec := httptest.NewRecorder()

		protected.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
