package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return client, mr
}

func TestMemoryCooldowns(t *testing.T) {
	c := NewMemoryCooldowns()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	left, ok, err := c.Acquire(ctx, "g:lock:u1", 5*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Zero(t, left)

	now = now.Add(2 * time.Second)
	left, ok, err = c.Acquire(ctx, "g:lock:u1", 5*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 3*time.Second, left)

	_, ok, _ = c.Acquire(ctx, "g:lock:u2", 5*time.Second)
	assert.True(t, ok, "keys are independent")

	now = now.Add(3 * time.Second)
	_, ok, _ = c.Acquire(ctx, "g:lock:u1", 5*time.Second)
	assert.True(t, ok, "window elapsed")
}

func TestMemoryCooldowns_Sweep(t *testing.T) {
	c := NewMemoryCooldowns()
	now := time.Unix(0, 0)
	c.now = func() time.Time { return now }

	for i := range 1100 {
		_, _, _ = c.Acquire(context.Background(), fmt.Sprintf("k%d", i), time.Second)
	}
	now = now.Add(time.Minute)
	_, _, _ = c.Acquire(context.Background(), "fresh", time.Second)

	c.mu.Lock()
	defer c.mu.Unlock()
	assert.Len(t, c.next, 1)
}

func TestRedisCooldowns(t *testing.T) {
	client, mr := setupTestRedis(t)
	c := NewRedisCooldowns(client)
	ctx := context.Background()

	left, ok, err := c.Acquire(ctx, "g:lock:u1", 10*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Zero(t, left)

	mr.FastForward(4 * time.Second)
	left, ok, err = c.Acquire(ctx, "g:lock:u1", 10*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 6*time.Second, left)

	mr.FastForward(6 * time.Second)
	_, ok, err = c.Acquire(ctx, "g:lock:u1", 10*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisCooldowns_Concurrent(t *testing.T) {
	client, _ := setupTestRedis(t)
	c := NewRedisCooldowns(client)

	var (
		wg      sync.WaitGroup
		granted atomic.Int32
	)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok, err := c.Acquire(context.Background(), "same", time.Minute); err == nil && ok {
				granted.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), granted.Load())
}

func TestRedisCooldowns_Unavailable(t *testing.T) {
	client, mr := setupTestRedis(t)
	c := NewRedisCooldowns(client)
	mr.Close()

	_, ok, err := c.Acquire(context.Background(), "k", time.Second)
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestOpen(t *testing.T) {
	_, mr := setupTestRedis(t)
	addr := mr.Addr()

	client, err := Open(context.Background(), addr, "", 0)
	require.NoError(t, err)
	_ = client.Close()

	mr.Close()
	_, err = Open(context.Background(), addr, "", 0)
	assert.Error(t, err)
}
