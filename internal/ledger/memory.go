package ledger

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Memory — процесс-локальная реализация Ledger: map ключей с таймерами
// истечения. Не координирует несколько инстансов сервиса — для
// multi-instance деплоя есть Redis-вариант (см. redis.go).
type Memory struct {
	mu     sync.Mutex
	held   map[string]*time.Timer
	hold   time.Duration // окно принудительного освобождения
	grace  time.Duration // грейс-окно после Release
	logger *zap.Logger
}

func NewMemory(hold, grace time.Duration, logger *zap.Logger) *Memory {
	return &Memory{
		held:   make(map[string]*time.Timer),
		hold:   hold,
		grace:  grace,
		logger: logger.With(zap.String("mod", "ledger")),
	}
}

func (m *Memory) TryAcquire(_ context.Context, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, busy := m.held[key]; busy {
		m.logger.Warn("action dropped: request is already being processed",
			zap.String("key", key))
		return false
	}

	// Таймер — страховка от упавшего хендлера: ключ не останется
	// захваченным навсегда, даже если Release не случится.
	m.held[key] = time.AfterFunc(m.hold, func() {
		m.expire(key)
	})
	return true
}

func (m *Memory) Release(_ context.Context, key string) {
	m.mu.Lock()
	if t, ok := m.held[key]; ok {
		t.Stop()
		// Вместо немедленного удаления — отложенное: до истечения грейс-окна
		// повторный клик по той же заявке все еще отбрасывается.
		m.held[key] = time.AfterFunc(m.grace, func() {
			m.expire(key)
		})
	}
	m.mu.Unlock()
}

func (m *Memory) expire(key string) {
	m.mu.Lock()
	delete(m.held, key)
	m.mu.Unlock()
}
