package infra

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// ThrottleError возвращается клиентом внешнего API, когда тот прочитал
// Retry-After из 429-го ответа.
type ThrottleError struct {
	RetryAfter time.Duration
}

func (e *ThrottleError) Error() string {
	return fmt.Sprintf("throttled, retry after %s", e.RetryAfter)
}

// Guard оборачивает исходящие вызовы внешних API (Slack Web API, Google
// Sheets) в rate limiter, circuit breaker и ретраи с бэкоффом.
type Guard struct {
	cb      *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

func NewGuard(name string, rps float64, burst int) *Guard {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    5 * time.Second,
		Timeout:     30 * time.Second, // Время, через которое CB попробует "закрыться"
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})

	return &Guard{
		cb:      cb,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Do исполняет вызов под защитой всех трех механизмов.
func (g *Guard) Do(ctx context.Context, call func(ctx context.Context) error) error {
	// 1. Rate Limiter
	if err := g.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit exceeded: %w", err)
	}

	// 2. Circuit Breaker
	_, err := g.cb.Execute(func() (interface{}, error) {
		r := retry.New(
			retry.Context(ctx),
			retry.Attempts(3),
			retry.DelayType(func(n uint, err error, config retry.DelayContext) time.Duration {
				// API попросило подождать — ждем ровно столько
				var tErr *ThrottleError
				if errors.As(err, &tErr) {
					return tErr.RetryAfter
				}
				// Иначе стандартный экспоненциальный бэкофф
				return retry.BackOffDelay(n, err, config)
			}),
		)

		retryErr := r.Do(func() error {
			tCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return call(tCtx)
		})

		return nil, retryErr
	})

	return err
}
