package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryCooldowns guarda las ventanas en memoria. Alcanza para una sola
// instancia del bot.
type MemoryCooldowns struct {
	mu   sync.Mutex
	next map[string]time.Time
	now  func() time.Time
}

func NewMemoryCooldowns() *MemoryCooldowns {
	return &MemoryCooldowns{next: map[string]time.Time{}, now: time.Now}
}

func (c *MemoryCooldowns) Acquire(_ context.Context, key string, window time.Duration) (time.Duration, bool, error) {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	if until, ok := c.next[key]; ok && now.Before(until) {
		return until.Sub(now), false, nil
	}
	c.next[key] = now.Add(window)
	c.sweep(now)
	return 0, true, nil
}

// sweep tira las ventanas vencidas. Llamar con mu tomado.
func (c *MemoryCooldowns) sweep(now time.Time) {
	if len(c.next) < 1024 {
		return
	}
	for k, until := range c.next {
		if !now.Before(until) {
			delete(c.next, k)
		}
	}
}
