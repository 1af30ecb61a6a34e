package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/jose-valero/tempvoice-bot/internal/domain"
	"github.com/jose-valero/tempvoice-bot/internal/infra/logging"
	"github.com/jose-valero/tempvoice-bot/internal/infra/storage"
)

// EnterResult cuenta qué hizo MemberEnters. Ambos campos quedan en nil si el
// canal no tiene rol especial.
type EnterResult struct {
	Created *domain.VoiceChannel
	Joined  *domain.QueueEntry
	// Position arranca en 0, recién unido.
	Position int
}

type LeaveResult struct {
	Deleted bool
	Left    *domain.QueueEntry
}

// LifecycleService reacciona a miembros que entran y salen de canales de voz.
type LifecycleService struct {
	store  *GuildStore
	ops    ChannelOps
	notify Notifier
	events EventLog
	log    *zap.Logger
	loc    *time.Location
	now    func() time.Time
}

func NewLifecycleService(store *GuildStore, ops ChannelOps, notify Notifier, events EventLog, log *zap.Logger, loc *time.Location) *LifecycleService {
	if loc == nil {
		loc = time.UTC
	}
	return &LifecycleService{store: store, ops: ops, notify: notify, events: events, log: log, loc: loc, now: time.Now}
}

// HandleVoiceStateUpdate traduce una transición de voz en entrada y salida.
// Los errores se loguean: no hay a quién reportarlos.
func (s *LifecycleService) HandleVoiceStateUpdate(ctx context.Context, guildID, userID, oldChannelID, newChannelID string) {
	if oldChannelID == newChannelID {
		return
	}
	fields := []zap.Field{zap.String("guild_id", guildID), zap.String("user_id", userID)}
	if newChannelID != "" {
		if _, err := s.MemberEnters(ctx, guildID, userID, newChannelID); err != nil {
			logging.Failure(s.log, "member enter", err, append(fields, zap.String("channel_id", newChannelID))...)
		}
	}
	if oldChannelID != "" {
		if _, err := s.MemberLeaves(ctx, guildID, userID, oldChannelID); err != nil {
			logging.Failure(s.log, "member leave", err, append(fields, zap.String("channel_id", oldChannelID))...)
		}
	}
}

// MemberEnters crea un canal temporal si channelID es spawner, o encola al
// miembro si está ligado a una cola.
func (s *LifecycleService) MemberEnters(ctx context.Context, guildID, userID, channelID string) (*EnterResult, error) {
	unlock := s.store.Lock(guildID)
	defer unlock()

	g, err := s.store.Load(ctx, guildID)
	if errors.Is(err, storage.ErrNotFound) {
		return &EnterResult{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load guild: %w", err)
	}

	rec := g.VoiceChannel(channelID)
	switch {
	case rec == nil:
		return &EnterResult{}, nil
	case rec.IsSpawner():
		return s.spawn(ctx, g, rec, userID)
	case rec.IsQueueBound():
		return s.joinQueue(ctx, g, rec, userID)
	}
	return &EnterResult{}, nil
}

func (s *LifecycleService) spawn(ctx context.Context, g *domain.Guild, spawner *domain.VoiceChannel, userID string) (*EnterResult, error) {
	tpl := spawner.Spawner
	spec := ChannelSpec{
		Name: domain.Render(tpl.NamePattern, map[string]string{
			"owner_name": s.ops.MemberName(g.ID, userID),
			"owner_id":   userID,
			"count":      strconv.Itoa(len(g.SpawnedFrom(spawner.ID)) + 1),
		}),
		CategoryID:  tpl.CategoryID,
		Permissions: tpl.Permissions,
	}
	if tpl.UserLimit != nil {
		spec.UserLimit = *tpl.UserLimit
	}

	newID, err := s.ops.CreateVoiceChannel(ctx, g.ID, spec)
	if err != nil {
		return nil, fmt.Errorf("create channel from spawner %s: %w: %w", spawner.ID, domain.ErrExternalMutation, err)
	}
	log := s.log.With(zap.String("guild_id", g.ID), zap.String("channel_id", newID), zap.String("user_id", userID))

	vc := &domain.VoiceChannel{
		ID:        newID,
		Temporary: true,
		OwnerID:   userID,
		Origin:    spawner.ID,
		CreatedAt: s.now().UTC(),
	}
	if _, err := s.store.Update(ctx, g, func(g *domain.Guild) error {
		g.PutVoiceChannel(vc)
		return nil
	}); err != nil {
		s.dropChannel(ctx, log, newID)
		return nil, fmt.Errorf("record temporary channel: %w", err)
	}

	if err := s.ops.MoveMember(ctx, g.ID, userID, newID); err != nil {
		s.dropChannel(ctx, log, newID)
		if derr := s.store.DeleteChannelRecord(ctx, g.ID, newID); derr != nil {
			log.Error("drop temporary channel record", zap.Error(derr))
		}
		return nil, fmt.Errorf("move into %s: %w: %w", newID, domain.ErrMemberNotMovable, err)
	}

	s.record(ctx, storage.LifecycleEvent{GuildID: g.ID, ChannelID: newID, Kind: storage.EventChannelCreated, ActorID: userID})
	log.Info("temporary voice channel created", zap.String("origin", spawner.ID), zap.String("name", spec.Name))
	return &EnterResult{Created: vc}, nil
}

// dropChannel deshace la creación del canal en Discord.
func (s *LifecycleService) dropChannel(ctx context.Context, log *zap.Logger, channelID string) {
	if err := s.ops.DeleteChannel(ctx, channelID); err != nil {
		log.Error("compensating channel delete failed", zap.Error(err))
	}
}

func (s *LifecycleService) joinQueue(ctx context.Context, g *domain.Guild, rec *domain.VoiceChannel, userID string) (*EnterResult, error) {
	queueID := rec.QueueID
	if g.Queue(queueID) == nil {
		return nil, fmt.Errorf("channel %s: queue %s: %w", rec.ID, queueID, domain.ErrReferencedQueueMissing)
	}

	now := s.now().In(s.loc)
	importance := g.Settings.DefaultImportance
	if importance == 0 {
		importance = 1
	}
	candidate := domain.QueueEntry{DiscordID: userID, JoinedAt: now.UnixMilli(), Importance: importance}

	var (
		joined  domain.QueueEntry
		pos     int
		message string
	)
	_, err := s.store.Update(ctx, g, func(g *domain.Guild) error {
		q := g.Queue(queueID)
		if q == nil {
			return domain.ErrReferencedQueueMissing
		}
		var err error
		if joined, err = q.Join(candidate, now); err != nil {
			return err
		}
		pos, _ = q.Position(userID)
		message = render(q.JoinMessage, q.JoinReplacements(userID, pos+1), now)
		return nil
	})
	if err != nil {
		if domain.KindOf(err) == domain.KindUser {
			s.send(ctx, userID, DirectMessage{Title: "Queue", Content: "An error occurred: " + domain.UserMessage(err)})
		}
		return nil, fmt.Errorf("join queue %s: %w", queueID, err)
	}

	s.record(ctx, storage.LifecycleEvent{GuildID: g.ID, ChannelID: rec.ID, QueueID: queueID, Kind: storage.EventQueueJoined, ActorID: userID})
	if message != "" {
		s.send(ctx, userID, DirectMessage{Title: "Queue", Content: message, Queue: &QueueRef{GuildID: g.ID, QueueID: queueID}})
	}
	return &EnterResult{Joined: &joined, Position: pos}, nil
}

// MemberLeaves borra un canal temporal que quedó vacío, o saca al miembro de
// la cola ligada a channelID.
func (s *LifecycleService) MemberLeaves(ctx context.Context, guildID, userID, channelID string) (*LeaveResult, error) {
	unlock := s.store.Lock(guildID)
	defer unlock()

	g, err := s.store.Load(ctx, guildID)
	if errors.Is(err, storage.ErrNotFound) {
		return &LeaveResult{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load guild: %w", err)
	}

	rec := g.VoiceChannel(channelID)
	switch {
	case rec == nil:
		return &LeaveResult{}, nil
	case rec.Temporary:
		if s.ops.MemberCount(guildID, channelID) > 0 {
			return &LeaveResult{}, nil
		}
		return s.dispose(ctx, guildID, channelID, userID)
	case rec.IsQueueBound():
		return s.leaveQueue(ctx, g, rec, userID)
	}
	return &LeaveResult{}, nil
}

// dispose borra un canal temporal vacío. El registro se va aunque Discord
// rechace el delete, así el bot deja de manejarlo.
func (s *LifecycleService) dispose(ctx context.Context, guildID, channelID, userID string) (*LeaveResult, error) {
	log := s.log.With(zap.String("guild_id", guildID), zap.String("channel_id", channelID))

	delErr := s.ops.DeleteChannel(ctx, channelID)
	if err := s.store.DeleteChannelRecord(ctx, guildID, channelID); err != nil {
		return nil, fmt.Errorf("drop channel record %s: %w", channelID, err)
	}
	if delErr != nil {
		return &LeaveResult{}, fmt.Errorf("delete channel %s: %w: %w", channelID, domain.ErrChannelNotDeletable, delErr)
	}

	s.record(ctx, storage.LifecycleEvent{GuildID: guildID, ChannelID: channelID, Kind: storage.EventChannelDeleted, ActorID: userID})
	log.Info("temporary voice channel deleted")
	return &LeaveResult{Deleted: true}, nil
}

func (s *LifecycleService) leaveQueue(ctx context.Context, g *domain.Guild, rec *domain.VoiceChannel, userID string) (*LeaveResult, error) {
	queueID := rec.QueueID
	q := g.Queue(queueID)
	if q == nil {
		return nil, fmt.Errorf("channel %s: queue %s: %w", rec.ID, queueID, domain.ErrReferencedQueueMissing)
	}
	if !q.Contains(userID) {
		return &LeaveResult{}, nil
	}

	left, message, err := dequeue(ctx, s.store, g, queueID, userID, s.now().In(s.loc))
	if errors.Is(err, domain.ErrNotQueued) {
		return &LeaveResult{}, nil
	}
	if err != nil {
		return nil, err
	}

	s.record(ctx, storage.LifecycleEvent{GuildID: g.ID, ChannelID: rec.ID, QueueID: queueID, Kind: storage.EventQueueLeft, ActorID: userID})
	if message != "" {
		s.send(ctx, userID, DirectMessage{Title: "Queue", Content: message})
	}
	return &LeaveResult{Left: &left}, nil
}

// dequeue saca a userID y arma el mensaje de salida con el puesto que tenía
// antes de salir.
func dequeue(ctx context.Context, store *GuildStore, g *domain.Guild, queueID, userID string, now time.Time) (domain.QueueEntry, string, error) {
	var (
		left    domain.QueueEntry
		message string
	)
	_, err := store.Update(ctx, g, func(g *domain.Guild) error {
		q := g.Queue(queueID)
		if q == nil {
			return domain.ErrReferencedQueueMissing
		}
		pos, err := q.Position(userID)
		if err != nil {
			return err
		}
		if left, err = q.Leave(userID); err != nil {
			return err
		}
		message = render(q.LeaveMessage, q.LeaveReplacements(left, pos+1, now), now)
		return nil
	})
	if err != nil {
		return domain.QueueEntry{}, "", fmt.Errorf("leave queue %s: %w", queueID, err)
	}
	return left, message, nil
}

func (s *LifecycleService) send(ctx context.Context, userID string, msg DirectMessage) {
	if err := s.notify.SendDirectMessage(ctx, userID, msg); err != nil {
		logging.Failure(s.log, "direct message", fmt.Errorf("%w: %w", domain.ErrUndeliverable, err), zap.String("user_id", userID))
	}
}

func (s *LifecycleService) record(ctx context.Context, ev storage.LifecycleEvent) {
	if err := s.events.Record(ctx, ev); err != nil {
		s.log.Warn("record lifecycle event", zap.String("kind", string(ev.Kind)), zap.String("guild_id", ev.GuildID), zap.Error(err))
	}
}
