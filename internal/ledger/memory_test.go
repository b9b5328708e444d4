package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestMemory(hold, grace time.Duration) *Memory {
	return NewMemory(hold, grace, zap.NewNop())
}

func TestMemory_AcquireBlocksSecondCaller(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory(time.Second, time.Second)

	require.True(t, m.TryAcquire(ctx, "msg-1"))
	assert.False(t, m.TryAcquire(ctx, "msg-1"))

	// Другая заявка не контендит.
	assert.True(t, m.TryAcquire(ctx, "msg-2"))
}

func TestMemory_ReleaseKeepsGraceWindow(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory(time.Second, 50*time.Millisecond)

	require.True(t, m.TryAcquire(ctx, "msg-1"))
	m.Release(ctx, "msg-1")

	// Внутри грейс-окна дубль клика все еще отбрасывается.
	assert.False(t, m.TryAcquire(ctx, "msg-1"))

	time.Sleep(80 * time.Millisecond)
	assert.True(t, m.TryAcquire(ctx, "msg-1"))
}

func TestMemory_HoldTimeoutFreesAbandonedKey(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory(40*time.Millisecond, time.Second)

	require.True(t, m.TryAcquire(ctx, "msg-1"))
	// Release не вызывается — имитация упавшего хендлера.
	time.Sleep(70 * time.Millisecond)

	assert.True(t, m.TryAcquire(ctx, "msg-1"))
}

func TestMemory_ConcurrentClicksAdmitExactlyOne(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory(time.Second, time.Second)

	const clicks = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0

	for i := 0; i < clicks; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if m.TryAcquire(ctx, "msg-1") {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, admitted)
}

func TestMemory_ReleaseAfterExpiryIsHarmless(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory(30*time.Millisecond, 30*time.Millisecond)

	require.True(t, m.TryAcquire(ctx, "msg-1"))
	time.Sleep(60 * time.Millisecond)

	// Ключ уже истек по hold-таймеру, поздний Release ничего не ломает.
	m.Release(ctx, "msg-1")
	assert.True(t, m.TryAcquire(ctx, "msg-1"))
}
