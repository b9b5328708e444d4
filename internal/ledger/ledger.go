// Package ledger реализует mutual-exclusion по ключу заявки: пока одно
// действие Accept/Reject в обработке, конкурирующие клики по той же заявке
// отбрасываются. Захват неблокирующий (test-and-set), false для вызывающего
// означает «молча выбросить действие» — пользователь повторит клик сам.
package ledger

import "context"

type Ledger interface {
	// TryAcquire регистрирует ключ и взводит таймер принудительного
	// освобождения. false — ключ уже удерживается.
	TryAcquire(ctx context.Context, key string) bool

	// Release снимает таймер, но оставляет ключ «мягко заблокированным»
	// на короткое грейс-окно, чтобы release не гонялся с почти
	// одновременным дублем клика.
	Release(ctx context.Context, key string)
}
