package discord

import (
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jose-valero/tempvoice-bot/internal/app/service"
	"github.com/jose-valero/tempvoice-bot/internal/domain"
)

func TestComponentID(t *testing.T) {
	id := componentID(ComponentQueueLeave, "g1", "q-123")
	assert.Equal(t, "queue_leave:g1:q-123", id)

	key, guild, queue, ok := parseComponentID(id)
	require.True(t, ok)
	assert.Equal(t, ComponentQueueLeave, key)
	assert.Equal(t, "g1", guild)
	assert.Equal(t, "q-123", queue)

	for _, bad := range []string{"", "queue_leave", "queue_leave:g1", "queue_leave::q", "kick_select:g1:q", "queue_refresh:g1:q:x"} {
		_, _, _, ok := parseComponentID(bad)
		assert.False(t, ok, bad)
	}
}

func slash(name string, opts ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type: discordgo.InteractionApplicationCommand,
		Data: discordgo.ApplicationCommandInteractionData{Name: name, Options: opts},
	}}
}

func sub(name string, opts ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{Name: name, Type: discordgo.ApplicationCommandOptionSubCommand, Options: opts}
}

func opt(name string, typ discordgo.ApplicationCommandOptionType, v any) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{Name: name, Type: typ, Value: v}
}

func TestOptions(t *testing.T) {
	ic := slash("setup", sub("span",
		opt("queue", discordgo.ApplicationCommandOptionString, "support"),
		opt("open_shift", discordgo.ApplicationCommandOptionString, "-15m"),
		opt("close_shift", discordgo.ApplicationCommandOptionString, "soon"),
		opt("start", discordgo.ApplicationCommandOptionString, "2024-03-01"),
		opt("limit", discordgo.ApplicationCommandOptionInteger, float64(7)),
		opt("override", discordgo.ApplicationCommandOptionBoolean, true),
		opt("user", discordgo.ApplicationCommandOptionUser, "42"),
		opt("channel", discordgo.ApplicationCommandOptionChannel, "99"),
	))

	name, ok := subcmdName(ic)
	require.True(t, ok)
	assert.Equal(t, "span", name)

	s, ok := optStr(ic, "queue")
	assert.True(t, ok)
	assert.Equal(t, "support", s)

	_, ok = optStr(ic, "limit")
	assert.False(t, ok, "type mismatch")

	n, ok := optInt(ic, "limit")
	assert.True(t, ok)
	assert.Equal(t, 7, n)

	b, ok := optBool(ic, "override")
	assert.True(t, ok)
	assert.True(t, b)

	u, ok := optUserID(ic, "user")
	assert.True(t, ok)
	assert.Equal(t, "42", u)

	c, ok := optChannelID(ic, "channel")
	assert.True(t, ok)
	assert.Equal(t, "99", c)

	d, ok, err := optDuration(ic, "open_shift")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, -15*time.Minute, d)

	_, _, err = optDuration(ic, "close_shift")
	assert.ErrorIs(t, err, domain.ErrInvalidOption)
	assert.Equal(t, domain.KindUser, domain.KindOf(err))
	assert.Contains(t, domain.UserMessage(err), "`close_shift`")
	assert.Contains(t, domain.UserMessage(err), `"soon"`)

	_, ok, err = optDuration(ic, "missing")
	assert.NoError(t, err)
	assert.False(t, ok)

	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	start, err := optDate(ic, "start", berlin)
	require.NoError(t, err)
	require.NotNil(t, start)
	assert.True(t, start.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, berlin)))

	badDate := slash("setup", sub("span", opt("start", discordgo.ApplicationCommandOptionString, "01/03/2024")))
	_, err = optDate(badDate, "start", berlin)
	assert.ErrorIs(t, err, domain.ErrInvalidOption)
	assert.Contains(t, domain.UserMessage(err), "`start`")

	none, err := optDate(ic, "end", berlin)
	assert.NoError(t, err)
	assert.Nil(t, none)

	component := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{Type: discordgo.InteractionMessageComponent}}
	_, ok = optStr(component, "queue")
	assert.False(t, ok)
	_, ok = subcmdName(component)
	assert.False(t, ok)
}

func TestInteractionUserID(t *testing.T) {
	guild := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{Member: &discordgo.Member{User: &discordgo.User{ID: "m"}}}}
	dm := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{User: &discordgo.User{ID: "u"}}}
	assert.Equal(t, "m", interactionUserID(guild))
	assert.Equal(t, "u", interactionUserID(dm))
	assert.Equal(t, "", interactionUserID(&discordgo.InteractionCreate{Interaction: &discordgo.Interaction{}}))
}

func TestFmtRemain(t *testing.T) {
	assert.Equal(t, "00:00", fmtRemain(-time.Second))
	assert.Equal(t, "00:03", fmtRemain(2600*time.Millisecond))
	assert.Equal(t, "01:30", fmtRemain(90*time.Second))
}

func TestIsAdmin(t *testing.T) {
	member := func(id string, perms int64, roles ...string) *discordgo.Member {
		return &discordgo.Member{User: &discordgo.User{ID: id}, Permissions: perms, Roles: roles}
	}
	adminRole := &discordgo.Role{ID: "r-admin", Permissions: discordgo.PermissionAdministrator}
	plainRole := &discordgo.Role{ID: "r-plain"}

	assert.True(t, isAdmin(member("boss", 0), "", "boss", nil, nil))
	assert.True(t, isAdmin(member("owner", 0), "owner", "", nil, nil))
	assert.True(t, isAdmin(member("x", discordgo.PermissionAdministrator), "", "", nil, nil))
	assert.True(t, isAdmin(member("x", 0, "r-admin"), "", "", nil, []*discordgo.Role{adminRole, plainRole}))
	assert.True(t, isAdmin(member("x", 0, "r-mod"), "", "", []string{"r-mod"}, nil))

	assert.False(t, isAdmin(member("x", 0, "r-plain"), "", "", []string{"r-mod"}, []*discordgo.Role{adminRole, plainRole}))
	assert.False(t, isAdmin(member("", 0), "", "", nil, nil), "empty owner ids never match")
	assert.False(t, isAdmin(nil, "", "", nil, nil))
}

func TestChannelCreateData(t *testing.T) {
	data := channelCreateData(service.ChannelSpec{
		Name:       "alice #1",
		CategoryID: "cat",
		UserLimit:  5,
		Permissions: []domain.PermissionOverwrite{
			{TargetID: "g1", Type: domain.OverwriteRole, Deny: domain.PermConnect},
			{TargetID: "u1", Type: domain.OverwriteMember, Allow: domain.LockPermissions},
		},
	})
	assert.Equal(t, "alice #1", data.Name)
	assert.Equal(t, discordgo.ChannelTypeGuildVoice, data.Type)
	assert.Equal(t, "cat", data.ParentID)
	assert.Equal(t, 5, data.UserLimit)
	require.Len(t, data.PermissionOverwrites, 2)
	assert.Equal(t, discordgo.PermissionOverwriteTypeRole, data.PermissionOverwrites[0].Type)
	assert.Equal(t, domain.PermConnect, data.PermissionOverwrites[0].Deny)
	assert.Equal(t, discordgo.PermissionOverwriteTypeMember, data.PermissionOverwrites[1].Type)
	assert.Equal(t, "u1", data.PermissionOverwrites[1].ID)
}

func TestLockPermissionsMatchPlatformBits(t *testing.T) {
	assert.EqualValues(t, discordgo.PermissionViewChannel, domain.PermViewChannel)
	assert.EqualValues(t, discordgo.PermissionVoiceConnect, domain.PermConnect)
	assert.EqualValues(t, discordgo.PermissionVoiceSpeak, domain.PermSpeak)
}

func TestCountVoiceMembers(t *testing.T) {
	states := []*discordgo.VoiceState{{ChannelID: "a"}, {ChannelID: "b"}, nil, {ChannelID: "a"}}
	assert.Equal(t, 2, countVoiceMembers(states, "a"))
	assert.Equal(t, 0, countVoiceMembers(states, "c"))
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "nick", displayName(&discordgo.Member{Nick: "nick", User: &discordgo.User{Username: "user"}}, "id"))
	assert.Equal(t, "Global", displayName(&discordgo.Member{User: &discordgo.User{Username: "user", GlobalName: "Global"}}, "id"))
	assert.Equal(t, "user", displayName(&discordgo.Member{User: &discordgo.User{Username: "user"}}, "id"))
	assert.Equal(t, "id", displayName(&discordgo.Member{}, "id"))
	assert.Equal(t, "id", displayName(nil, "id"))
}

func TestDirectMessage(t *testing.T) {
	plain := directMessage(service.DirectMessage{Title: "Queue", Content: "bye"})
	require.Len(t, plain.Embeds, 1)
	assert.Equal(t, "bye", plain.Embeds[0].Description)
	assert.Empty(t, plain.Components)

	withButtons := directMessage(service.DirectMessage{Title: "Queue", Content: "hi", Queue: &service.QueueRef{GuildID: "g1", QueueID: "q1"}})
	require.Len(t, withButtons.Components, 1)
	row, ok := withButtons.Components[0].(discordgo.ActionsRow)
	require.True(t, ok)
	require.Len(t, row.Components, 2)
	assert.Equal(t, "queue_refresh:g1:q1", row.Components[0].(discordgo.Button).CustomID)
	assert.Equal(t, "queue_leave:g1:q1", row.Components[1].(discordgo.Button).CustomID)
}

func TestStatusEmbed(t *testing.T) {
	empty := statusEmbed(nil)
	assert.Equal(t, "There are no queues on this server.", empty.Description)

	entries := make([]service.RankedEntry, 12)
	for i := range entries {
		entries[i] = service.RankedEntry{Position: i + 1, DiscordID: string(rune('a' + i))}
	}
	e := statusEmbed([]service.QueueSummary{
		{Name: "support", Limit: 20, Size: 12, Open: true, Span: "MONDAY 08:00 - FRIDAY 17:00", Entries: entries},
		{Name: "idle", Open: false, Entries: []service.RankedEntry{}},
	})
	require.Len(t, e.Fields, 2)
	assert.Equal(t, "support (12/20, open)", e.Fields[0].Name)
	assert.Contains(t, e.Fields[0].Value, "1) <@a>")
	assert.Contains(t, e.Fields[0].Value, "… and 2 more")
	assert.NotContains(t, e.Fields[0].Value, "<@k>")
	assert.True(t, strings.HasSuffix(e.Fields[0].Value, "Open MONDAY 08:00 - FRIDAY 17:00"))
	assert.Equal(t, "idle (0, closed)", e.Fields[1].Name)
	assert.Equal(t, "Nobody in queue.", e.Fields[1].Value)

	many := make([]service.QueueSummary, 30)
	assert.Len(t, statusEmbed(many).Fields, maxFields)
	assert.Equal(t, "5 more queues not shown", statusEmbed(many).Footer.Text)
}

func TestStandingEmbed(t *testing.T) {
	e := standingEmbed(service.Standing{QueueName: "support", Position: 2, Total: 5, Open: false})
	assert.Equal(t, "Queue support", e.Title)
	assert.Equal(t, "You are **#2** of 5. The queue is currently closed.", e.Description)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 3))
	assert.Equal(t, "ab…", truncate("abcd", 3))
	assert.Equal(t, "äö…", truncate("äöüß", 3))
}
