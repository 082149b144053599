package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/bookstore-orders/internal/infrastructure/persistence/redis"
)

type countingReaper struct {
	calls atomic.Int32
	err   error
}

func (r *countingReaper) Execute(context.Context) (int64, error) {
	r.calls.Add(1)
	return 1, r.err
}

func newLocker(t *testing.T) (*redis.Locker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return redis.NewLocker(client), mr
}

func TestRunOnce_ReleasesLock(t *testing.T) {
	locker, mr := newLocker(t)
	reaper := &countingReaper{}
	w := NewPendingOrderReaper(reaper, locker, time.Minute, time.Minute)

	assert.True(t, w.RunOnce(context.Background()))
	assert.True(t, w.RunOnce(context.Background()))
	assert.Equal(t, int32(2), reaper.calls.Load())
	assert.False(t, mr.Exists("lock:"+reaperLockKey))
}

func TestRunOnce_SkipsWhenLockHeld(t *testing.T) {
	locker, _ := newLocker(t)
	ctx := context.Background()
	unlock, ok, err := locker.TryLock(ctx, reaperLockKey, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	defer func() { _ = unlock(ctx) }()

	reaper := &countingReaper{}
	w := NewPendingOrderReaper(reaper, locker, time.Minute, time.Minute)
	assert.False(t, w.RunOnce(ctx))
	assert.Zero(t, reaper.calls.Load())
}

func TestRunOnce_ReaperErrorIsLogged(t *testing.T) {
	locker, mr := newLocker(t)
	reaper := &countingReaper{err: errors.New("db down")}
	w := NewPendingOrderReaper(reaper, locker, time.Minute, time.Minute)

	assert.True(t, w.RunOnce(context.Background()))
	assert.False(t, mr.Exists("lock:"+reaperLockKey))
}

func TestRun_StopsOnCancel(t *testing.T) {
	locker, _ := newLocker(t)
	reaper := &countingReaper{}
	w := NewPendingOrderReaper(reaper, locker, 10*time.Millisecond, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return reaper.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reaper did not stop")
	}
}
