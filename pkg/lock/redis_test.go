package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisLocker(t *testing.T, ttl time.Duration) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client, "test", ttl), mr
}

func TestRedisLockExcludes(t *testing.T) {
	l, mr := newRedisLocker(t, time.Minute)
	ctx := context.Background()

	unlock, err := l.Lock(ctx, "0xabc")
	require.NoError(t, err)
	assert.True(t, mr.Exists("test:lock:0xabc"))

	waitCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	_, err = l.Lock(waitCtx, "0xabc")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	other, err := l.Lock(ctx, "0xdef")
	require.NoError(t, err)
	other()

	unlock()
	assert.False(t, mr.Exists("test:lock:0xabc"))

	again, err := l.Lock(ctx, "0xabc")
	require.NoError(t, err)
	again()
}

func TestRedisUnlockKeepsForeignToken(t *testing.T) {
	l, mr := newRedisLocker(t, time.Second)
	ctx := context.Background()

	unlock, err := l.Lock(ctx, "0xabc")
	require.NoError(t, err)

	// the key expired and someone else took it
	mr.FastForward(2 * time.Second)
	require.NoError(t, mr.Set("test:lock:0xabc", "someone-else"))

	unlock()
	got, err := mr.Get("test:lock:0xabc")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}
