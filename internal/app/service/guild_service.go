package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jose-valero/tempvoice-bot/internal/domain"
	"github.com/jose-valero/tempvoice-bot/internal/infra/storage"
)

type GuildService struct {
	store *GuildStore
	log   *zap.Logger
	now   func() time.Time
}

func NewGuildService(store *GuildStore, log *zap.Logger) *GuildService {
	return &GuildService{store: store, log: log, now: time.Now}
}

func loadOrNew(ctx context.Context, store *GuildStore, guildID, name string) (*domain.Guild, error) {
	g, err := store.Load(ctx, guildID)
	if errors.Is(err, storage.ErrNotFound) {
		return domain.NewGuild(guildID, name), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load guild: %w", err)
	}
	return g, nil
}

// Prepare asegura que exista el documento del guild y refresca nombre y
// cantidad de miembros.
func (s *GuildService) Prepare(ctx context.Context, guildID, name string, memberCount int) (*domain.Guild, error) {
	unlock := s.store.Lock(guildID)
	defer unlock()

	g, err := loadOrNew(ctx, s.store, guildID, name)
	if err != nil {
		return nil, err
	}
	if g.Version != 0 && g.Name == name && g.MemberCount == memberCount {
		return g, nil
	}
	return s.store.Update(ctx, g, func(g *domain.Guild) error {
		g.Name = name
		g.MemberCount = memberCount
		return nil
	})
}

func (s *GuildService) Get(ctx context.Context, guildID string) (*domain.Guild, error) {
	return s.store.Load(ctx, guildID)
}

// RegisterSpawner marca channelID como spawner con tpl. Un canal ligado a una
// cola no puede ser spawner.
func (s *GuildService) RegisterSpawner(ctx context.Context, guildID, guildName, channelID string, tpl domain.VoiceChannelSpawner) error {
	unlock := s.store.Lock(guildID)
	defer unlock()

	g, err := loadOrNew(ctx, s.store, guildID, guildName)
	if err != nil {
		return err
	}
	if tpl.NamePattern == "" {
		tpl.NamePattern = "${owner_name}'s channel"
	}
	tpl.ID = channelID

	if _, err := s.store.Update(ctx, g, func(g *domain.Guild) error {
		if rec := g.VoiceChannel(channelID); rec != nil && (rec.IsQueueBound() || rec.Temporary) {
			return domain.ErrRoleConflict
		}
		t := tpl
		g.PutVoiceChannel(&domain.VoiceChannel{ID: channelID, Spawner: &t, CreatedAt: s.now().UTC()})
		return nil
	}); err != nil {
		return err
	}
	s.log.Info("spawner registered", zap.String("guild_id", guildID), zap.String("channel_id", channelID))
	return nil
}

// ForgetChannel olvida un canal que ya no existe en Discord.
func (s *GuildService) ForgetChannel(ctx context.Context, guildID, channelID string) error {
	unlock := s.store.Lock(guildID)
	defer unlock()
	return s.store.DeleteChannelRecord(ctx, guildID, channelID)
}

// UpdateSettings guarda la config del guild. Los valores cero mantienen lo
// que había.
func (s *GuildService) UpdateSettings(ctx context.Context, guildID string, cooldown time.Duration, importance int) (domain.GuildSettings, error) {
	unlock := s.store.Lock(guildID)
	defer unlock()

	g, err := s.store.Load(ctx, guildID)
	if err != nil {
		return domain.GuildSettings{}, fmt.Errorf("load guild: %w", err)
	}
	g, err = s.store.Update(ctx, g, func(g *domain.Guild) error {
		if cooldown > 0 {
			g.Settings.CommandCooldown = cooldown
		}
		if importance != 0 {
			g.Settings.DefaultImportance = importance
		}
		return nil
	})
	if err != nil {
		return domain.GuildSettings{}, err
	}
	return g.Settings, nil
}
