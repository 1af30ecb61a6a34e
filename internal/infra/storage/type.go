package storage

import "time"

type EventKind string

const (
	EventChannelCreated  EventKind = "channel_created"
	EventChannelDeleted  EventKind = "channel_deleted"
	EventChannelLocked   EventKind = "channel_locked"
	EventChannelUnlocked EventKind = "channel_unlocked"
	EventQueueJoined     EventKind = "queue_joined"
	EventQueueLeft       EventKind = "queue_left"
)

// LifecycleEvent es una fila de auditoría, sólo append. Nadie decide en base
// a ella.
type LifecycleEvent struct {
	ID        int64     `json:"id"`
	GuildID   string    `json:"guild_id"`
	ChannelID string    `json:"channel_id,omitempty"`
	QueueID   string    `json:"queue_id,omitempty"`
	Kind      EventKind `json:"kind"`
	ActorID   string    `json:"actor_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
