package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jose-valero/tempvoice-bot/internal/domain"
	"github.com/jose-valero/tempvoice-bot/internal/infra/storage"
)

// Standing es el lugar de un miembro en la cola. Position arranca en 1.
type Standing struct {
	QueueID   string
	QueueName string
	Position  int
	Total     int
	Open      bool
}

type RankedEntry struct {
	Position   int       `json:"position"`
	DiscordID  string    `json:"discord_id"`
	Importance int       `json:"importance"`
	JoinedAt   time.Time `json:"joined_at"`
}

type QueueSummary struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Limit       int           `json:"limit"`
	Size        int           `json:"size"`
	Open        bool          `json:"open"`
	Span        string        `json:"span,omitempty"`
	Entries     []RankedEntry `json:"entries"`
}

// QueueOptions configura una cola ligada a un canal de voz.
type QueueOptions struct {
	Name              string
	Description       string
	Limit             int
	JoinMessage       string
	LeaveMessage      string
	DisconnectTimeout time.Duration
}

// SpanOptions configura el horario de la cola. Span vacío lo quita.
type SpanOptions struct {
	Span       string
	OpenShift  time.Duration
	CloseShift time.Duration
	StartDate  *time.Time
	EndDate    *time.Time
}

// QueueService atiende pedidos explícitos sobre colas (botones, comandos y
// API de estado). Las uniones por voz pasan por LifecycleService.
type QueueService struct {
	store  *GuildStore
	events EventLog
	log    *zap.Logger
	loc    *time.Location
	now    func() time.Time
}

func NewQueueService(store *GuildStore, events EventLog, log *zap.Logger, loc *time.Location) *QueueService {
	if loc == nil {
		loc = time.UTC
	}
	return &QueueService{store: store, events: events, log: log, loc: loc, now: time.Now}
}

// findQueue busca ref como id y después como nombre (sin mayúsculas).
func findQueue(g *domain.Guild, ref string) *domain.Queue {
	if q := g.Queue(ref); q != nil {
		return q
	}
	for _, q := range g.Queues {
		if strings.EqualFold(q.Name, ref) {
			return q
		}
	}
	return nil
}

func (s *QueueService) load(ctx context.Context, guildID string) (*domain.Guild, error) {
	g, err := s.store.Load(ctx, guildID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, domain.ErrUnknownQueue
	}
	if err != nil {
		return nil, fmt.Errorf("load guild: %w", err)
	}
	return g, nil
}

func (s *QueueService) Standing(ctx context.Context, guildID, queueRef, userID string) (Standing, error) {
	g, err := s.load(ctx, guildID)
	if err != nil {
		return Standing{}, err
	}
	q := findQueue(g, queueRef)
	if q == nil {
		return Standing{}, domain.ErrUnknownQueue
	}
	pos, err := q.Position(userID)
	if err != nil {
		return Standing{}, err
	}
	return Standing{QueueID: q.ID, QueueName: q.Name, Position: pos + 1, Total: q.Len(), Open: q.IsOpen(s.now().In(s.loc))}, nil
}

// Leave saca a userID y devuelve el mensaje de salida, o una confirmación
// simple si la cola no tiene.
func (s *QueueService) Leave(ctx context.Context, guildID, queueRef, userID string) (string, error) {
	unlock := s.store.Lock(guildID)
	defer unlock()

	g, err := s.load(ctx, guildID)
	if err != nil {
		return "", err
	}
	q := findQueue(g, queueRef)
	if q == nil {
		return "", domain.ErrUnknownQueue
	}

	_, message, err := dequeue(ctx, s.store, g, q.ID, userID, s.now().In(s.loc))
	if err != nil {
		return "", err
	}
	if err := s.events.Record(ctx, storage.LifecycleEvent{GuildID: guildID, QueueID: q.ID, Kind: storage.EventQueueLeft, ActorID: userID}); err != nil {
		s.log.Warn("record lifecycle event", zap.Error(err))
	}
	if message == "" {
		message = fmt.Sprintf("You left the queue **%s**.", q.Name)
	}
	return message, nil
}

// Enqueue agrega a userID a pedido de un admin. override saltea el horario
// pero nunca duplicados ni capacidad.
func (s *QueueService) Enqueue(ctx context.Context, guildID, queueRef, userID string, importance int, override bool) (Standing, error) {
	unlock := s.store.Lock(guildID)
	defer unlock()

	g, err := s.load(ctx, guildID)
	if err != nil {
		return Standing{}, err
	}
	q := findQueue(g, queueRef)
	if q == nil {
		return Standing{}, domain.ErrUnknownQueue
	}
	queueID := q.ID

	now := s.now().In(s.loc)
	candidate := domain.QueueEntry{DiscordID: userID, JoinedAt: now.UnixMilli(), Importance: importance}
	var st Standing
	if _, err := s.store.Update(ctx, g, func(g *domain.Guild) error {
		q := g.Queue(queueID)
		if q == nil {
			return domain.ErrUnknownQueue
		}
		var err error
		if override {
			_, err = q.JoinOverride(candidate)
		} else {
			_, err = q.Join(candidate, now)
		}
		if err != nil {
			return err
		}
		pos, _ := q.Position(userID)
		st = Standing{QueueID: q.ID, QueueName: q.Name, Position: pos + 1, Total: q.Len(), Open: q.IsOpen(now)}
		return nil
	}); err != nil {
		return Standing{}, err
	}

	if err := s.events.Record(ctx, storage.LifecycleEvent{GuildID: guildID, QueueID: queueID, Kind: storage.EventQueueJoined, ActorID: userID}); err != nil {
		s.log.Warn("record lifecycle event", zap.Error(err))
	}
	return st, nil
}

// Summaries lista las colas del guild con sus entradas ordenadas. Un guild
// desconocido no tiene colas.
func (s *QueueService) Summaries(ctx context.Context, guildID string) ([]QueueSummary, error) {
	g, err := s.store.Load(ctx, guildID)
	if errors.Is(err, storage.ErrNotFound) {
		return []QueueSummary{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load guild: %w", err)
	}

	now := s.now().In(s.loc)
	out := make([]QueueSummary, 0, len(g.Queues))
	for _, q := range g.Queues {
		sum := QueueSummary{
			ID:          q.ID,
			Name:        q.Name,
			Description: q.Description,
			Limit:       q.Limit,
			Size:        q.Len(),
			Open:        q.IsOpen(now),
			Entries:     make([]RankedEntry, 0, q.Len()),
		}
		if q.Span != nil {
			sum.Span = q.Span.String()
		}
		for i, e := range q.Ranked() {
			sum.Entries = append(sum.Entries, RankedEntry{
				Position:   i + 1,
				DiscordID:  e.DiscordID,
				Importance: e.Importance,
				JoinedAt:   e.JoinedTime().UTC(),
			})
		}
		out = append(out, sum)
	}
	return out, nil
}

// CreateQueue crea una cola y le liga channelID. Religar un canal de cola
// reemplaza la referencia; los spawners no se pueden ligar.
func (s *QueueService) CreateQueue(ctx context.Context, guildID, guildName, channelID string, opts QueueOptions) (*domain.Queue, error) {
	unlock := s.store.Lock(guildID)
	defer unlock()

	g, err := loadOrNew(ctx, s.store, guildID, guildName)
	if err != nil {
		return nil, err
	}

	q := domain.NewQueue(opts.Name, opts.Description, opts.Limit)
	q.JoinMessage = opts.JoinMessage
	q.LeaveMessage = opts.LeaveMessage
	q.DisconnectTimeout = opts.DisconnectTimeout

	if _, err := s.store.Update(ctx, g, func(g *domain.Guild) error {
		if findQueue(g, opts.Name) != nil {
			return domain.ErrQueueExists
		}
		rec := g.VoiceChannel(channelID)
		if rec != nil && (rec.IsSpawner() || rec.Temporary) {
			return domain.ErrRoleConflict
		}
		g.AddQueue(q)
		g.PutVoiceChannel(&domain.VoiceChannel{ID: channelID, QueueID: q.ID, CreatedAt: s.now().UTC()})
		return nil
	}); err != nil {
		return nil, err
	}

	s.log.Info("queue created", zap.String("guild_id", guildID), zap.String("queue_id", q.ID), zap.String("channel_id", channelID))
	return q, nil
}

func (s *QueueService) SetSpan(ctx context.Context, guildID, queueRef string, opts SpanOptions) (*domain.QueueSpan, error) {
	var span *domain.QueueSpan
	if opts.Span != "" {
		parsed, err := domain.ParseQueueSpan(opts.Span)
		if err != nil {
			return nil, err
		}
		parsed.OpenShift = opts.OpenShift.Milliseconds()
		parsed.CloseShift = opts.CloseShift.Milliseconds()
		parsed.StartDate = opts.StartDate
		parsed.EndDate = opts.EndDate
		span = &parsed
	}

	unlock := s.store.Lock(guildID)
	defer unlock()

	g, err := s.load(ctx, guildID)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.Update(ctx, g, func(g *domain.Guild) error {
		q := findQueue(g, queueRef)
		if q == nil {
			return domain.ErrUnknownQueue
		}
		q.Span = span
		return nil
	}); err != nil {
		return nil, err
	}
	return span, nil
}
