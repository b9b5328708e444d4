// Package handler — HTTP-поверхность бота: вебхуки Slack (события,
// интерактивные действия) за проверкой подписи. Бизнес-логика живет в flow,
// здесь только разбор payload-ов и быстрый ack.
package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/xela07ax/timeoff-flow-prototype/internal/flow"
	"github.com/xela07ax/timeoff-flow-prototype/internal/slack"
)

type Server struct {
	router *chi.Mux
	logger *zap.Logger

	engine *flow.Engine
	chat   *slack.Client
}

func NewServer(engine *flow.Engine, chat *slack.Client, signingSecret string, logger *zap.Logger) *Server {
	s := &Server{
		router: chi.NewRouter(),
		logger: logger.Named("handler"),
		engine: engine,
		chat:   chat,
	}

	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	// Healthcheck для мониторинга — без подписи
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Вебхуки Slack — только за проверкой подписи
	r.Group(func(r chi.Router) {
		r.Use(VerifySignature(signingSecret, s.logger))
		r.Post("/slack/events", s.handleEvents)
		r.Post("/slack/interactions", s.handleInteractions)
	})

	return s
}

func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)),
			zap.String("trace_id", middleware.GetReqID(r.Context())))
	})
}
