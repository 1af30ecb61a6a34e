package cache

import (
	"context"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const keyPrefix = "tempvoice:cooldown:"

// RedisCooldowns comparte las ventanas entre instancias del bot.
type RedisCooldowns struct {
	client *redis.Client
}

func NewRedisCooldowns(client *redis.Client) *RedisCooldowns {
	return &RedisCooldowns{client: client}
}

func (c *RedisCooldowns) Acquire(ctx context.Context, key string, window time.Duration) (time.Duration, bool, error) {
	k := keyPrefix + key
	ok, err := c.client.SetNX(ctx, k, 1, window).Result()
	if err != nil {
		return 0, false, fmt.Errorf("cooldown acquire %s: %w", key, err)
	}
	if ok {
		return 0, true, nil
	}

	left, err := c.client.PTTL(ctx, k).Result()
	if err != nil {
		return 0, false, fmt.Errorf("cooldown ttl %s: %w", key, err)
	}
	// -1/-2: sin expiración o ya no está, espera cero
	if left < 0 {
		left = 0
	}
	return left, false, nil
}

// Open conecta a Redis y verifica que responda.
func Open(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}
