package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jose-valero/tempvoice-bot/internal/domain"
	"github.com/jose-valero/tempvoice-bot/internal/infra/storage"
)

const saveAttempts = 3

// GuildStore serializa el trabajo por guild dentro del proceso y reintenta
// las mutaciones que pierden la carrera de versión contra otros writers.
type GuildStore struct {
	repo GuildRepo

	mu    sync.Mutex
	locks map[string]*guildLock
}

type guildLock struct {
	mu   sync.Mutex
	refs int
}

func NewGuildStore(repo GuildRepo) *GuildStore {
	return &GuildStore{repo: repo, locks: map[string]*guildLock{}}
}

// Lock bloquea hasta tener guildID. La func devuelta lo libera.
func (s *GuildStore) Lock(guildID string) func() {
	s.mu.Lock()
	l, ok := s.locks[guildID]
	if !ok {
		l = &guildLock{}
		s.locks[guildID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		if l.refs--; l.refs == 0 {
			delete(s.locks, guildID)
		}
		s.mu.Unlock()
	}
}

func (s *GuildStore) Load(ctx context.Context, guildID string) (*domain.Guild, error) {
	return s.repo.Load(ctx, guildID)
}

// Update aplica mutate y guarda. Si hay conflicto de versión recarga el guild
// y vuelve a aplicar mutate sobre la copia fresca. mutate sólo debe tocar el
// guild que recibe. Devuelve el guild guardado.
func (s *GuildStore) Update(ctx context.Context, g *domain.Guild, mutate func(*domain.Guild) error) (*domain.Guild, error) {
	for attempt := 1; ; attempt++ {
		if err := mutate(g); err != nil {
			return g, err
		}
		err := s.repo.Save(ctx, g)
		if err == nil {
			return g, nil
		}
		if !errors.Is(err, storage.ErrVersionConflict) || attempt == saveAttempts {
			return g, fmt.Errorf("save guild %s: %w", g.ID, err)
		}
		if g, err = s.repo.Load(ctx, g.ID); err != nil {
			return nil, fmt.Errorf("reload guild: %w", err)
		}
	}
}

func (s *GuildStore) DeleteChannelRecord(ctx context.Context, guildID, channelID string) error {
	return s.repo.DeleteChannelRecord(ctx, guildID, channelID)
}
