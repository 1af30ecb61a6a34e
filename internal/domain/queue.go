package domain

import (
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"
)

type QueueEntry struct {
	DiscordID string `json:"discord_id"`
	// epoch en ms, guardado como string
	JoinedAt   int64 `json:"joined_at,string"`
	Importance int   `json:"importance"`
}

func (e QueueEntry) JoinedTime() time.Time { return time.UnixMilli(e.JoinedAt) }

// Queue es una cola con nombre. Entries mantiene el orden de llegada; el
// ranking se calcula al pedirlo.
type Queue struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	// <= 0: sin límite
	Limit             int           `json:"limit"`
	JoinMessage       string        `json:"join_message,omitempty"`
	LeaveMessage      string        `json:"leave_message,omitempty"`
	DisconnectTimeout time.Duration `json:"disconnect_timeout"`
	Span              *QueueSpan    `json:"span,omitempty"`
	Entries           []QueueEntry  `json:"entries"`
}

func NewQueue(name, description string, limit int) *Queue {
	return &Queue{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Limit:       limit,
		Entries:     []QueueEntry{},
	}
}

func (q *Queue) Len() int { return len(q.Entries) }

func (q *Queue) index(discordID string) int {
	return slices.IndexFunc(q.Entries, func(e QueueEntry) bool { return e.DiscordID == discordID })
}

func (q *Queue) Contains(discordID string) bool { return q.index(discordID) >= 0 }

// IsOpen: si acepta uniones en now. Sin span siempre está abierta.
func (q *Queue) IsOpen(now time.Time) bool {
	return q.Span == nil || q.Span.IsActive(now)
}

// Join admite c si no está en la cola, la cola está abierta y hay lugar o c
// supera la menor importancia admitida. No se desplaza a nadie.
func (q *Queue) Join(c QueueEntry, now time.Time) (QueueEntry, error) {
	if q.Contains(c.DiscordID) {
		return QueueEntry{}, ErrAlreadyQueued
	}
	if !q.IsOpen(now) {
		return QueueEntry{}, ErrQueueClosed
	}
	return q.admit(c)
}

// JoinOverride es Join sin chequear horario (acciones de admin).
func (q *Queue) JoinOverride(c QueueEntry) (QueueEntry, error) {
	if q.Contains(c.DiscordID) {
		return QueueEntry{}, ErrAlreadyQueued
	}
	return q.admit(c)
}

func (q *Queue) admit(c QueueEntry) (QueueEntry, error) {
	if q.Limit > 0 && len(q.Entries) >= q.Limit && c.Importance <= q.lowestImportance() {
		return QueueEntry{}, ErrQueueFull
	}
	q.Entries = append(q.Entries, c)
	return c, nil
}

func (q *Queue) lowestImportance() int {
	low := q.Entries[0].Importance
	for _, e := range q.Entries[1:] {
		low = min(low, e.Importance)
	}
	return low
}

func (q *Queue) Leave(discordID string) (QueueEntry, error) {
	i := q.index(discordID)
	if i < 0 {
		return QueueEntry{}, ErrNotQueued
	}
	e := q.Entries[i]
	q.Entries = slices.Delete(q.Entries, i, i+1)
	return e, nil
}

// Ranked ordena por importancia descendente y, a igualdad, por llegada.
// No toca Entries.
func (q *Queue) Ranked() []QueueEntry {
	out := slices.Clone(q.Entries)
	slices.SortStableFunc(out, func(a, b QueueEntry) int {
		if a.Importance != b.Importance {
			return b.Importance - a.Importance
		}
		switch {
		case a.JoinedAt < b.JoinedAt:
			return -1
		case a.JoinedAt > b.JoinedAt:
			return 1
		}
		return 0
	})
	return out
}

// Position arranca en 0.
func (q *Queue) Position(discordID string) (int, error) {
	i := slices.IndexFunc(q.Ranked(), func(e QueueEntry) bool { return e.DiscordID == discordID })
	if i < 0 {
		return 0, ErrNotQueued
	}
	return i, nil
}

// JoinReplacements arma los placeholders de JoinMessage. pos es el puesto
// visible.
func (q *Queue) JoinReplacements(memberID string, pos int) map[string]string {
	r := q.baseReplacements(memberID, pos)
	r["time_spent"] = "0s"
	return r
}

// LeaveReplacements arma los placeholders de LeaveMessage para una entrada
// recién sacada. pos es el puesto que tenía.
func (q *Queue) LeaveReplacements(entry QueueEntry, pos int, now time.Time) map[string]string {
	r := q.baseReplacements(entry.DiscordID, pos)
	r["timeout"] = q.DisconnectTimeout.String()
	r["time_spent"] = FormatDwell(now.Sub(entry.JoinedTime()))
	return r
}

func (q *Queue) baseReplacements(memberID string, pos int) map[string]string {
	return map[string]string{
		"limit":       strconv.Itoa(q.Limit),
		"member_id":   memberID,
		"user":        "<@" + memberID + ">",
		"name":        q.Name,
		"description": q.Description,
		"eta":         "unknown",
		"pos":         strconv.Itoa(pos),
		"total":       strconv.Itoa(len(q.Entries)),
	}
}
