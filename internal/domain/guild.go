package domain

import (
	"slices"
	"time"
)

// Bits de permisos, mismos valores que Discord.
const (
	PermViewChannel int64 = 1 << 10
	PermConnect     int64 = 1 << 20
	PermSpeak       int64 = 1 << 21

	LockPermissions = PermViewChannel | PermConnect | PermSpeak
)

type OverwriteType string

const (
	OverwriteRole   OverwriteType = "role"
	OverwriteMember OverwriteType = "member"
)

type PermissionOverwrite struct {
	TargetID string        `json:"target_id"`
	Type     OverwriteType `json:"type"`
	Allow    int64         `json:"allow"`
	Deny     int64         `json:"deny"`
}

// VoiceChannelSpawner es la plantilla de la que se clona un canal temporal.
// NamePattern acepta ${owner_name}, ${owner_id} y ${count}.
type VoiceChannelSpawner struct {
	ID          string                `json:"id"`
	NamePattern string                `json:"name_pattern"`
	CategoryID  string                `json:"category_id,omitempty"`
	UserLimit   *int                  `json:"user_limit,omitempty"`
	Permissions []PermissionOverwrite `json:"permissions,omitempty"`
}

type VoiceChannel struct {
	ID        string               `json:"id"`
	Temporary bool                 `json:"temporary"`
	Spawner   *VoiceChannelSpawner `json:"spawner,omitempty"`
	QueueID   string               `json:"queue,omitempty"`
	OwnerID   string               `json:"owner,omitempty"`
	// además del dueño, pueden cerrar y abrir
	Supervisors []string  `json:"supervisors,omitempty"`
	Locked      bool      `json:"locked"`
	Origin      string    `json:"origin,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (c *VoiceChannel) IsSpawner() bool { return c.Spawner != nil }

func (c *VoiceChannel) IsQueueBound() bool { return c.QueueID != "" }

func (c *VoiceChannel) CanManage(userID string) bool {
	return userID != "" && (c.OwnerID == userID || slices.Contains(c.Supervisors, userID))
}

func (c *VoiceChannel) checkManage(requester string) error {
	if !c.Temporary {
		return ErrNotTemporary
	}
	if !c.CanManage(requester) {
		return ErrNotAuthorized
	}
	return nil
}

func (c *VoiceChannel) Lock(requester string) error {
	if err := c.checkManage(requester); err != nil {
		return err
	}
	if c.Locked {
		return ErrAlreadyLocked
	}
	c.Locked = true
	return nil
}

// ToggleLock invierte Locked y devuelve el estado nuevo.
func (c *VoiceChannel) ToggleLock(requester string) (bool, error) {
	if err := c.checkManage(requester); err != nil {
		return c.Locked, err
	}
	c.Locked = !c.Locked
	return c.Locked, nil
}

// EveryoneOverwrite: overwrite de @everyone según el lock.
func (c *VoiceChannel) EveryoneOverwrite(everyoneRoleID string) PermissionOverwrite {
	ow := PermissionOverwrite{TargetID: everyoneRoleID, Type: OverwriteRole}
	if c.Locked {
		ow.Deny = LockPermissions
	} else {
		ow.Allow = LockPermissions
	}
	return ow
}

type TextChannel struct {
	ID                string `json:"id"`
	ChannelType       int    `json:"channel_type"`
	Managed           bool   `json:"managed"`
	OwnerID           string `json:"owner,omitempty"`
	Prefix            string `json:"prefix,omitempty"`
	ListenForCommands bool   `json:"listen_for_commands"`
	RageChannel       bool   `json:"rage_channel"`
}

type GuildSettings struct {
	// si > 0 pisa el cooldown global
	CommandCooldown   time.Duration `json:"command_cooldown"`
	DefaultImportance int           `json:"default_importance"`
}

// Guild es el documento que se persiste por guild. Version la maneja el
// repo.
type Guild struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	MemberCount   int             `json:"member_count"`
	Settings      GuildSettings   `json:"guild_settings"`
	TextChannels  []*TextChannel  `json:"text_channels"`
	VoiceChannels []*VoiceChannel `json:"voice_channels"`
	Queues        []*Queue        `json:"queues"`
	Version       int64           `json:"-"`
}

func NewGuild(id, name string) *Guild {
	return &Guild{
		ID:            id,
		Name:          name,
		Settings:      GuildSettings{DefaultImportance: 1},
		TextChannels:  []*TextChannel{},
		VoiceChannels: []*VoiceChannel{},
		Queues:        []*Queue{},
	}
}

func (g *Guild) VoiceChannel(id string) *VoiceChannel {
	for _, c := range g.VoiceChannels {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// PutVoiceChannel inserta c, pisando el que tenga el mismo id.
func (g *Guild) PutVoiceChannel(c *VoiceChannel) {
	for i, old := range g.VoiceChannels {
		if old.ID == c.ID {
			g.VoiceChannels[i] = c
			return
		}
	}
	g.VoiceChannels = append(g.VoiceChannels, c)
}

func (g *Guild) RemoveVoiceChannel(id string) bool {
	n := len(g.VoiceChannels)
	g.VoiceChannels = slices.DeleteFunc(g.VoiceChannels, func(c *VoiceChannel) bool { return c.ID == id })
	return len(g.VoiceChannels) != n
}

// SpawnedFrom lista los canales temporales clonados del spawner origin.
func (g *Guild) SpawnedFrom(origin string) []*VoiceChannel {
	var out []*VoiceChannel
	for _, c := range g.VoiceChannels {
		if c.Temporary && c.Origin == origin {
			out = append(out, c)
		}
	}
	return out
}

func (g *Guild) Queue(id string) *Queue {
	for _, q := range g.Queues {
		if q.ID == id {
			return q
		}
	}
	return nil
}

func (g *Guild) QueueByName(name string) *Queue {
	for _, q := range g.Queues {
		if q.Name == name {
			return q
		}
	}
	return nil
}

func (g *Guild) AddQueue(q *Queue) { g.Queues = append(g.Queues, q) }
