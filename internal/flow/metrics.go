package flow

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Traffic: входящие действия по исходу допуска
	ActionsTotal *prometheus.CounterVec

	// Сколько заявок дошло до терминального состояния и с каким итогом
	CompletedTotal *prometheus.CounterVec

	// Best-effort side effects: отказы уведомлений и журнала
	SideEffectFailures *prometheus.CounterVec

	// Latency обработки одного клика (включая вызовы Slack)
	HandleDuration *prometheus.HistogramVec
}

// Результаты допуска действия для ActionsTotal.
const (
	ResultAdmitted     = "admitted"
	ResultDuplicate    = "duplicate"
	ResultUnauthorized = "unauthorized"
	ResultContention   = "contention_drop"
	ResultMalformed    = "malformed_payload"
)

func NewMetrics(reg prometheus.Registerer) *Metrics {
	// Null Object Pattern - Если рег не передан, используем локальный, который никуда не подключен
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		ActionsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "timeoff_actions_total",
			Help: "Total number of inbound approval actions by admission result.",
		}, []string{"action", "result"}),

		CompletedTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "timeoff_requests_completed_total",
			Help: "Requests that reached a terminal state.",
		}, []string{"outcome"}),

		SideEffectFailures: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "timeoff_side_effect_failures_total",
			Help: "Best-effort side effects that failed.",
		}, []string{"effect"}), // card_update, announce, dm, ephemeral

		HandleDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "timeoff_action_duration_seconds",
			Help:    "Histogram of action handling latencies.",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"action"}),
	}
}
