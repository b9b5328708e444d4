package ledger

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Redis — распределенный вариант Ledger поверх SETNX с TTL.
// Нужен, когда бот крутится в нескольких инстансах: процесс-локальная map
// их между собой не координирует.
type Redis struct {
	rdb    *redis.Client
	prefix string
	hold   time.Duration
	grace  time.Duration
	logger *zap.Logger
}

func NewRedis(rdb *redis.Client, prefix string, hold, grace time.Duration, logger *zap.Logger) *Redis {
	return &Redis{
		rdb:    rdb,
		prefix: prefix,
		hold:   hold,
		grace:  grace,
		logger: logger.With(zap.String("mod", "ledger-redis")),
	}
}

func (r *Redis) TryAcquire(ctx context.Context, key string) bool {
	ok, err := r.rdb.SetNX(ctx, r.prefix+key, "processing", r.hold).Result()
	if err != nil {
		// Redis недоступен — считаем ключ занятым: лучше отброшенный клик,
		// чем два одновременных перехода по одной заявке.
		r.logger.Error("ledger acquire failed, dropping action",
			zap.String("key", key), zap.Error(err))
		return false
	}
	if !ok {
		r.logger.Warn("action dropped: request is already being processed",
			zap.String("key", key))
	}
	return ok
}

func (r *Redis) Release(ctx context.Context, key string) {
	// Не удаляем ключ, а перезаписываем с коротким TTL — то же грейс-окно,
	// что и у отложенного удаления в памяти.
	if err := r.rdb.Set(ctx, r.prefix+key, "released", r.grace).Err(); err != nil {
		r.logger.Warn("ledger release failed, key will expire by hold TTL",
			zap.String("key", key), zap.Error(err))
	}
}
