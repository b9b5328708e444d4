package audit

/*
Файл trail.go реализует асинхронный журнал решений (Audit Trail).

Ключевые особенности архитектуры:
- Non-blocking Logging: события уходят через неблокирующий канал, задержки
  внешнего хранилища (Google Sheets, Postgres) не влияют на обработку кликов.
- Batching: накопление событий в памяти и пакетная запись по таймеру или
  при достижении лимита.
- Drain Pattern & Graceful Shutdown: при остановке сервиса буфер вычитывается
  полностью, финальный flush гарантирован через sync.WaitGroup и закрытие канала.
- Best-effort: отказ одного стока не блокирует и не откатывает остальные —
  журнал вторичен по отношению к уже примененному переходу состояния.
*/

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Sink определяет, куда физически будут сохраняться строки журнала
type Sink interface {
	// WriteBatch сохраняет пачку событий за один раз
	WriteBatch(ctx context.Context, events []Event) error
}

type Recorder interface {
	Record(event Event)
}

type Trail struct {
	ch     chan Event
	sinks  []Sink // Sheets — основной, Postgres — опциональное зеркало
	logger *zap.Logger
	wg     sync.WaitGroup

	flushEvery time.Duration
	batchLimit int

	isClosed int32 // Атомарный флаг (0 - открыт, 1 - закрыт)
}

func NewTrail(bufSize int, flushEvery time.Duration, logger *zap.Logger, sinks ...Sink) *Trail {
	return &Trail{
		ch:         make(chan Event, bufSize),
		sinks:      sinks,
		logger:     logger.With(zap.String("mod", "audit")),
		flushEvery: flushEvery,
		batchLimit: 50,
	}
}

func (t *Trail) Start() {
	t.wg.Add(1)
	go t.worker()
}

// Stop «запирает» вход в канал и ждет, пока воркер всё допишет.
func (t *Trail) Stop() {
	atomic.StoreInt32(&t.isClosed, 1)

	// Даем крошечную паузу, чтобы текущие Record успели проскочить
	time.Sleep(10 * time.Millisecond)

	t.logger.Info("stopping audit trail: closing channel and flushing buffer...")
	close(t.ch)
	t.wg.Wait()
	t.logger.Info("audit trail stopped gracefully")
}

func (t *Trail) Record(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if atomic.LoadInt32(&t.isClosed) == 1 {
		t.logger.Warn("audit event dropped: trail is stopping", zap.String("id", event.ID))
		return
	}

	// Load Shedding: переполненный буфер не должен тормозить state machine
	select {
	case t.ch <- event:
	default:
		t.logger.Error("audit_buffer_overflow",
			zap.String("trace_id", event.TraceID),
			zap.String("user_id", event.UserID),
			zap.String("outcome", event.Outcome),
		)
	}
}

func (t *Trail) worker() {
	defer t.wg.Done()

	batch := make([]Event, 0, t.batchLimit)
	ticker := time.NewTicker(t.flushEvery)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		// Background: основной контекст к этому моменту может быть закрыт
		for _, sink := range t.sinks {
			if err := sink.WriteBatch(context.Background(), batch); err != nil {
				t.logger.Error("audit flush failed", zap.Error(err))
			}
		}
		batch = batch[:0]
	}

	for {
		select {
		case event, ok := <-t.ch:
			if !ok {
				// Канал закрыт в Stop(): вычитали остатки — финальный flush и выход
				flush()
				t.logger.Info("audit worker finished")
				return
			}
			batch = append(batch, event)
			if len(batch) >= t.batchLimit {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}
