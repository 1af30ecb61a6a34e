package service

import (
	"context"
	"time"

	"github.com/jose-valero/tempvoice-bot/internal/domain"
	"github.com/jose-valero/tempvoice-bot/internal/infra/storage"
)

// Lo implementa internal/infra/storage.GuildRepo
type GuildRepo interface {
	// Load devuelve storage.ErrNotFound si el guild no existe.
	Load(ctx context.Context, guildID string) (*domain.Guild, error)
	// Save devuelve storage.ErrVersionConflict si el documento cambió.
	Save(ctx context.Context, g *domain.Guild) error
	DeleteChannelRecord(ctx context.Context, guildID, channelID string) error
}

// Lo implementa internal/infra/storage.EventRepo
type EventLog interface {
	Record(ctx context.Context, ev storage.LifecycleEvent) error
}

// ChannelSpec describe un canal de voz a crear en Discord.
type ChannelSpec struct {
	Name        string
	CategoryID  string
	UserLimit   int
	Permissions []domain.PermissionOverwrite
}

// Lo implementa internal/adapters/discord.Platform
type ChannelOps interface {
	CreateVoiceChannel(ctx context.Context, guildID string, spec ChannelSpec) (string, error)
	MoveMember(ctx context.Context, guildID, userID, channelID string) error
	DeleteChannel(ctx context.Context, channelID string) error
	SetPermissionOverwrite(ctx context.Context, channelID string, ow domain.PermissionOverwrite) error
	// MemberCount: miembros conectados ahora a channelID.
	MemberCount(guildID, channelID string) int
	MemberName(guildID, userID string) string
}

// QueueRef identifica la cola de un DM, para que el adapter agregue los
// botones de refrescar y salir.
type QueueRef struct {
	GuildID string
	QueueID string
}

type DirectMessage struct {
	Title   string
	Content string
	Queue   *QueueRef
}

// Lo implementa internal/adapters/discord.Platform
type Notifier interface {
	SendDirectMessage(ctx context.Context, userID string, msg DirectMessage) error
}

// Lo implementan internal/infra/cache.MemoryCooldowns y RedisCooldowns
type CooldownStore interface {
	// Acquire abre una ventana para key, salvo que haya una corriendo: ahí
	// devuelve lo que falta y false.
	Acquire(ctx context.Context, key string, window time.Duration) (time.Duration, bool, error)
}
