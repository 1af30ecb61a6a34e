package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jose-valero/tempvoice-bot/internal/app/service"
	"github.com/jose-valero/tempvoice-bot/internal/infra/storage"
)

func init() { gin.SetMode(gin.TestMode) }

type fakeGuilds struct {
	out []storage.GuildSummary
	err error
}

func (f fakeGuilds) List(context.Context) ([]storage.GuildSummary, error) { return f.out, f.err }

type fakeQueues struct {
	byGuild map[string][]service.QueueSummary
	err     error
}

func (f fakeQueues) Summaries(_ context.Context, guildID string) ([]service.QueueSummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	if q, ok := f.byGuild[guildID]; ok {
		return q, nil
	}
	return []service.QueueSummary{}, nil
}

type fakeEvents struct {
	guildID string
	kinds   []storage.EventKind
	limit   int
	out     []storage.LifecycleEvent
}

func (f *fakeEvents) Recent(_ context.Context, guildID string, kinds []storage.EventKind, limit int) ([]storage.LifecycleEvent, error) {
	f.guildID, f.kinds, f.limit = guildID, kinds, limit
	return f.out, nil
}

func do(t *testing.T, s *Server, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return w, body
}

func TestHealthz(t *testing.T) {
	s := New(fakeGuilds{}, fakeQueues{}, &fakeEvents{}, zap.NewNop())
	w, body := do(t, s, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestListGuilds(t *testing.T) {
	s := New(fakeGuilds{out: []storage.GuildSummary{{GuildID: "g1", Name: "One", MemberCount: 3, Version: 2}}}, fakeQueues{}, &fakeEvents{}, zap.NewNop())
	w, body := do(t, s, "/guilds")
	assert.Equal(t, http.StatusOK, w.Code)
	guilds := body["guilds"].([]any)
	require.Len(t, guilds, 1)
	assert.Equal(t, "g1", guilds[0].(map[string]any)["guild_id"])
	assert.EqualValues(t, 3, guilds[0].(map[string]any)["member_count"])

	empty := New(fakeGuilds{}, fakeQueues{}, &fakeEvents{}, zap.NewNop())
	_, body = do(t, empty, "/guilds")
	assert.Equal(t, []any{}, body["guilds"])

	failing := New(fakeGuilds{err: errors.New("db down")}, fakeQueues{}, &fakeEvents{}, zap.NewNop())
	w, body = do(t, failing, "/guilds")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal error", body["error"])
}

func TestListQueues(t *testing.T) {
	queues := fakeQueues{byGuild: map[string][]service.QueueSummary{
		"g1": {{ID: "q1", Name: "support", Limit: 5, Size: 1, Open: true, Entries: []service.RankedEntry{
			{Position: 1, DiscordID: "u1", Importance: 2, JoinedAt: time.Date(2024, 1, 8, 10, 0, 0, 0, time.UTC)},
		}}},
	}}
	s := New(fakeGuilds{}, queues, &fakeEvents{}, zap.NewNop())

	w, body := do(t, s, "/guilds/g1/queues")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "g1", body["guild_id"])
	list := body["queues"].([]any)
	require.Len(t, list, 1)
	q := list[0].(map[string]any)
	assert.Equal(t, "support", q["name"])
	assert.Equal(t, true, q["open"])
	entries := q["entries"].([]any)
	require.Len(t, entries, 1)
	assert.Equal(t, "u1", entries[0].(map[string]any)["discord_id"])

	_, body = do(t, s, "/guilds/unknown/queues")
	assert.Equal(t, []any{}, body["queues"])

	failing := New(fakeGuilds{}, fakeQueues{err: errors.New("boom")}, &fakeEvents{}, zap.NewNop())
	w, _ = do(t, failing, "/guilds/g1/queues")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestListEvents(t *testing.T) {
	events := &fakeEvents{out: []storage.LifecycleEvent{{ID: 7, GuildID: "g1", ChannelID: "c1", Kind: storage.EventChannelCreated, ActorID: "u1"}}}
	s := New(fakeGuilds{}, fakeQueues{}, events, zap.NewNop())

	w, body := do(t, s, "/guilds/g1/events?kind=channel_created,+queue_left&limit=5")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "g1", events.guildID)
	assert.Equal(t, []storage.EventKind{storage.EventChannelCreated, storage.EventQueueLeft}, events.kinds)
	assert.Equal(t, 5, events.limit)
	list := body["events"].([]any)
	require.Len(t, list, 1)
	assert.Equal(t, "channel_created", list[0].(map[string]any)["kind"])
	assert.NotContains(t, list[0].(map[string]any), "queue_id")

	_, _ = do(t, s, "/guilds/g1/events")
	assert.Nil(t, events.kinds)
	assert.Equal(t, 50, events.limit)

	w, body = do(t, s, "/guilds/g1/events?kind=match_started")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, body["error"], "match_started")

	w, _ = do(t, s, "/guilds/g1/events?limit=1000")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, storage.MaxRecentEvents, events.limit)

	for _, bad := range []string{"0", "-3", "lots"} {
		w, _ = do(t, s, "/guilds/g1/events?limit="+bad)
		assert.Equal(t, http.StatusBadRequest, w.Code, bad)
	}
}

func TestRunShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	s := New(fakeGuilds{}, fakeQueues{}, &fakeEvents{}, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, addr) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}
