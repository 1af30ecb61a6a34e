package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/jose-valero/tempvoice-bot/internal/domain"
	"github.com/jose-valero/tempvoice-bot/internal/infra/storage"
)

// memRepo guarda los guilds como JSON, igual que la DB, así cada Load
// entrega una copia nueva.
type memRepo struct {
	mu        sync.Mutex
	docs      map[string][]byte
	versions  map[string]int64
	conflicts int // próximos Save que pierden la carrera de versión
	saves     int
}

func newMemRepo() *memRepo {
	return &memRepo{docs: map[string][]byte{}, versions: map[string]int64{}}
}

func (r *memRepo) Load(_ context.Context, guildID string) (*domain.Guild, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	raw, ok := r.docs[guildID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	var g domain.Guild
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, err
	}
	g.Version = r.versions[guildID]
	return &g, nil
}

func (r *memRepo) Save(_ context.Context, g *domain.Guild) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conflicts > 0 {
		r.conflicts--
		r.versions[g.ID]++
		return storage.ErrVersionConflict
	}
	if r.versions[g.ID] != g.Version {
		return storage.ErrVersionConflict
	}
	raw, err := json.Marshal(g)
	if err != nil {
		return err
	}
	r.docs[g.ID] = raw
	r.versions[g.ID]++
	r.saves++
	g.Version = r.versions[g.ID]
	return nil
}

func (r *memRepo) DeleteChannelRecord(ctx context.Context, guildID, channelID string) error {
	g, err := r.Load(ctx, guildID)
	if err != nil {
		return nil
	}
	if !g.RemoveVoiceChannel(channelID) {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	raw, _ := json.Marshal(g)
	r.docs[guildID] = raw
	r.versions[guildID]++
	return nil
}

// seed guarda g tal cual y devuelve su id.
func (r *memRepo) seed(t *testing.T, g *domain.Guild) string {
	t.Helper()
	g.Version = 0
	if err := r.Save(context.Background(), g); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return g.ID
}

func (r *memRepo) guild(t *testing.T, id string) *domain.Guild {
	t.Helper()
	g, err := r.Load(context.Background(), id)
	if err != nil {
		t.Fatalf("load %s: %v", id, err)
	}
	return g
}

type fakeOps struct {
	mu          sync.Mutex
	nextID      int
	created     []ChannelSpec
	deleted     []string
	moves       []string
	overwrites  map[string]domain.PermissionOverwrite
	members     map[string]int
	createErr   error
	moveErr     error
	deleteErr   error
	overrideErr error
}

func newFakeOps() *fakeOps {
	return &fakeOps{overwrites: map[string]domain.PermissionOverwrite{}, members: map[string]int{}}
}

func (o *fakeOps) CreateVoiceChannel(_ context.Context, _ string, spec ChannelSpec) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.createErr != nil {
		return "", o.createErr
	}
	o.nextID++
	o.created = append(o.created, spec)
	return fmt.Sprintf("temp-%d", o.nextID), nil
}

func (o *fakeOps) MoveMember(_ context.Context, _, userID, channelID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.moveErr != nil {
		return o.moveErr
	}
	o.moves = append(o.moves, userID+"->"+channelID)
	return nil
}

func (o *fakeOps) DeleteChannel(_ context.Context, channelID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.deleteErr != nil {
		return o.deleteErr
	}
	o.deleted = append(o.deleted, channelID)
	return nil
}

func (o *fakeOps) SetPermissionOverwrite(_ context.Context, channelID string, ow domain.PermissionOverwrite) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.overrideErr != nil {
		return o.overrideErr
	}
	o.overwrites[channelID] = ow
	return nil
}

func (o *fakeOps) MemberCount(_, channelID string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.members[channelID]
}

func (o *fakeOps) MemberName(_, userID string) string { return "name-" + userID }

type fakeNotifier struct {
	mu   sync.Mutex
	sent map[string][]DirectMessage
	err  error
}

func newFakeNotifier() *fakeNotifier { return &fakeNotifier{sent: map[string][]DirectMessage{}} }

func (n *fakeNotifier) SendDirectMessage(_ context.Context, userID string, msg DirectMessage) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent[userID] = append(n.sent[userID], msg)
	return nil
}

func (n *fakeNotifier) last(userID string) (DirectMessage, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	msgs := n.sent[userID]
	if len(msgs) == 0 {
		return DirectMessage{}, false
	}
	return msgs[len(msgs)-1], true
}

type fakeEvents struct {
	mu     sync.Mutex
	events []storage.LifecycleEvent
	err    error
}

func (e *fakeEvents) Record(_ context.Context, ev storage.LifecycleEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return e.err
	}
	e.events = append(e.events, ev)
	return nil
}

func (e *fakeEvents) kinds() []storage.EventKind {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]storage.EventKind, len(e.events))
	for i, ev := range e.events {
		out[i] = ev.Kind
	}
	return out
}

var errPlatform = errors.New("platform said no")

// fixedClock: reloj clavado en t. 2024-01-08 es lunes.
func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

var monday10 = time.Date(2024, time.January, 8, 10, 0, 0, 0, time.UTC)

type harness struct {
	repo      *memRepo
	store     *GuildStore
	ops       *fakeOps
	notify    *fakeNotifier
	events    *fakeEvents
	lifecycle *LifecycleService
	locks     *LockService
	queues    *QueueService
	guilds    *GuildService
}

func newHarness() *harness {
	h := &harness{repo: newMemRepo(), ops: newFakeOps(), notify: newFakeNotifier(), events: &fakeEvents{}}
	h.store = NewGuildStore(h.repo)
	log := zap.NewNop()
	h.lifecycle = NewLifecycleService(h.store, h.ops, h.notify, h.events, log, time.UTC)
	h.lifecycle.now = fixedClock(monday10)
	h.locks = NewLockService(h.store, h.ops, h.events, log)
	h.queues = NewQueueService(h.store, h.events, log, time.UTC)
	h.queues.now = fixedClock(monday10)
	h.guilds = NewGuildService(h.store, log)
	return h
}

// seedGuild guarda un guild con spawner "spawn", canal estático "static" y
// cola "support" ligada al canal "waiting".
func (h *harness) seedGuild(t *testing.T, limit int) (*domain.Guild, *domain.Queue) {
	t.Helper()
	g := domain.NewGuild("g1", "Guild")
	userLimit := 4
	g.PutVoiceChannel(&domain.VoiceChannel{ID: "spawn", Spawner: &domain.VoiceChannelSpawner{
		ID:          "spawn",
		NamePattern: "${owner_name} #${count}",
		CategoryID:  "cat",
		UserLimit:   &userLimit,
	}})
	g.PutVoiceChannel(&domain.VoiceChannel{ID: "static"})
	q := domain.NewQueue("support", "Ask us", limit)
	q.JoinMessage = "You are #${pos} of ${total} in ${name}"
	q.LeaveMessage = "Bye ${user}, you were #${pos} after ${time_spent}"
	g.AddQueue(q)
	g.PutVoiceChannel(&domain.VoiceChannel{ID: "waiting", QueueID: q.ID})
	h.repo.seed(t, g)
	return g, q
}
