package service

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/jose-valero/tempvoice-bot/internal/domain"
	"github.com/jose-valero/tempvoice-bot/internal/infra/storage"
)

// LockService cierra canales temporales a miembros nuevos.
type LockService struct {
	store  *GuildStore
	ops    ChannelOps
	events EventLog
	log    *zap.Logger
}

func NewLockService(store *GuildStore, ops ChannelOps, events EventLog, log *zap.Logger) *LockService {
	return &LockService{store: store, ops: ops, events: events, log: log}
}

// Lock cierra el canal de quien pide. Cerrar uno ya cerrado es error.
func (s *LockService) Lock(ctx context.Context, guildID, channelID, requester string) error {
	_, err := s.apply(ctx, guildID, channelID, requester, func(c *domain.VoiceChannel) error {
		return c.Lock(requester)
	})
	return err
}

// ToggleLock invierte el lock y devuelve el estado nuevo.
func (s *LockService) ToggleLock(ctx context.Context, guildID, channelID, requester string) (bool, error) {
	return s.apply(ctx, guildID, channelID, requester, func(c *domain.VoiceChannel) error {
		_, err := c.ToggleLock(requester)
		return err
	})
}

func (s *LockService) apply(ctx context.Context, guildID, channelID, requester string, change func(*domain.VoiceChannel) error) (bool, error) {
	if channelID == "" {
		return false, domain.ErrNotInVoice
	}
	unlock := s.store.Lock(guildID)
	defer unlock()

	g, err := s.store.Load(ctx, guildID)
	if errors.Is(err, storage.ErrNotFound) {
		return false, domain.ErrNotTemporary
	}
	if err != nil {
		return false, fmt.Errorf("load guild: %w", err)
	}

	var rec *domain.VoiceChannel
	if _, err := s.store.Update(ctx, g, func(g *domain.Guild) error {
		if rec = g.VoiceChannel(channelID); rec == nil {
			return domain.ErrNotTemporary
		}
		return change(rec)
	}); err != nil {
		return false, err
	}

	// @everyone comparte el id del guild
	if err := s.ops.SetPermissionOverwrite(ctx, channelID, rec.EveryoneOverwrite(guildID)); err != nil {
		return rec.Locked, fmt.Errorf("apply lock overwrite on %s: %w: %w", channelID, domain.ErrExternalMutation, err)
	}

	kind := storage.EventChannelUnlocked
	if rec.Locked {
		kind = storage.EventChannelLocked
	}
	if err := s.events.Record(ctx, storage.LifecycleEvent{GuildID: guildID, ChannelID: channelID, Kind: kind, ActorID: requester}); err != nil {
		s.log.Warn("record lifecycle event", zap.String("kind", string(kind)), zap.Error(err))
	}
	s.log.Info("voice channel lock changed",
		zap.String("guild_id", guildID), zap.String("channel_id", channelID),
		zap.String("user_id", requester), zap.Bool("locked", rec.Locked))
	return rec.Locked, nil
}

// AddSupervisor: el dueño comparte el lock con userID.
func (s *LockService) AddSupervisor(ctx context.Context, guildID, channelID, requester, userID string) error {
	if channelID == "" {
		return domain.ErrNotInVoice
	}
	unlock := s.store.Lock(guildID)
	defer unlock()

	g, err := s.store.Load(ctx, guildID)
	if errors.Is(err, storage.ErrNotFound) {
		return domain.ErrNotTemporary
	}
	if err != nil {
		return fmt.Errorf("load guild: %w", err)
	}

	_, err = s.store.Update(ctx, g, func(g *domain.Guild) error {
		rec := g.VoiceChannel(channelID)
		if rec == nil || !rec.Temporary {
			return domain.ErrNotTemporary
		}
		if rec.OwnerID != requester {
			return domain.ErrNotAuthorized
		}
		if !slices.Contains(rec.Supervisors, userID) && userID != rec.OwnerID {
			rec.Supervisors = append(rec.Supervisors, userID)
		}
		return nil
	})
	return err
}
