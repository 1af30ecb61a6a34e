package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
)

type EventRepo struct{ db *sql.DB }

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

func (r *EventRepo) Record(ctx context.Context, ev LifecycleEvent) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO lifecycle_events (guild_id, channel_id, queue_id, kind, actor_id)
VALUES ($1, $2, $3, $4, $5)
`, ev.GuildID, ev.ChannelID, ev.QueueID, string(ev.Kind), ev.ActorID)
	return err
}

const (
	DefaultRecentEvents = 50
	MaxRecentEvents     = 500
)

// Recent devuelve los últimos eventos del guild, más nuevos primero. kinds
// vacío matchea todo. limit se corta en MaxRecentEvents.
func (r *EventRepo) Recent(ctx context.Context, guildID string, kinds []EventKind, limit int) ([]LifecycleEvent, error) {
	switch {
	case limit <= 0:
		limit = DefaultRecentEvents
	case limit > MaxRecentEvents:
		limit = MaxRecentEvents
	}
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT id, guild_id, channel_id, queue_id, kind, actor_id, created_at
  FROM lifecycle_events
 WHERE guild_id = $1
   AND (cardinality($2::text[]) = 0 OR kind = ANY($2::text[]))
 ORDER BY created_at DESC, id DESC
 LIMIT $3
`, guildID, pq.Array(names), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LifecycleEvent
	for rows.Next() {
		var (
			ev   LifecycleEvent
			kind string
		)
		if err := rows.Scan(&ev.ID, &ev.GuildID, &ev.ChannelID, &ev.QueueID, &kind, &ev.ActorID, &ev.CreatedAt); err != nil {
			return nil, err
		}
		ev.Kind = EventKind(kind)
		out = append(out, ev)
	}
	return out, rows.Err()
}

// PurgeBefore borra eventos anteriores a cutoff y devuelve cuántos.
func (r *EventRepo) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM lifecycle_events WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
