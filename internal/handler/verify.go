package handler

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Окно допустимого расхождения по времени: старые подписи не принимаем,
// это защита от replay.
const signatureMaxSkew = 5 * time.Minute

// VerifySignature — middleware аутентичности вебхуков Slack: подпись v0 —
// это HMAC-SHA256 от "v0:{timestamp}:{body}" ключом signing secret.
// Тело запроса восстанавливается для следующего хендлера.
func VerifySignature(secret string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(r.Body)
			if err != nil {
				http.Error(w, "bad request", http.StatusBadRequest)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			ts := r.Header.Get("X-Slack-Request-Timestamp")
			sig := r.Header.Get("X-Slack-Signature")

			if !signatureValid(secret, ts, sig, body, time.Now()) {
				logger.Warn("request with invalid signature rejected",
					zap.String("remote", r.RemoteAddr))
				http.Error(w, "invalid signature", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func signatureValid(secret, ts, sig string, body []byte, now time.Time) bool {
	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return false
	}
	issued := time.Unix(unix, 0)
	if now.Sub(issued) > signatureMaxSkew || issued.Sub(now) > signatureMaxSkew {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte("v0:" + ts + ":"))
	mac.Write(body)
	expected := "v0=" + hex.EncodeToString(mac.Sum(nil))

	return subtle.ConstantTimeCompare([]byte(expected), []byte(sig)) == 1
}
