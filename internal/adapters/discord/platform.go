package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/tempvoice-bot/internal/app/service"
	"github.com/jose-valero/tempvoice-bot/internal/domain"
)

// Platform hace los efectos sobre canales y mensajes que piden los services.
type Platform struct {
	s *discordgo.Session
}

func NewPlatform(s *discordgo.Session) *Platform { return &Platform{s: s} }

func (p *Platform) CreateVoiceChannel(ctx context.Context, guildID string, spec service.ChannelSpec) (string, error) {
	ch, err := p.s.GuildChannelCreateComplex(guildID, channelCreateData(spec), discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	return ch.ID, nil
}

func channelCreateData(spec service.ChannelSpec) discordgo.GuildChannelCreateData {
	data := discordgo.GuildChannelCreateData{
		Name:      spec.Name,
		Type:      discordgo.ChannelTypeGuildVoice,
		ParentID:  spec.CategoryID,
		UserLimit: spec.UserLimit,
	}
	for _, ow := range spec.Permissions {
		data.PermissionOverwrites = append(data.PermissionOverwrites, toOverwrite(ow))
	}
	return data
}

func toOverwrite(ow domain.PermissionOverwrite) *discordgo.PermissionOverwrite {
	t := discordgo.PermissionOverwriteTypeRole
	if ow.Type == domain.OverwriteMember {
		t = discordgo.PermissionOverwriteTypeMember
	}
	return &discordgo.PermissionOverwrite{ID: ow.TargetID, Type: t, Allow: ow.Allow, Deny: ow.Deny}
}

func (p *Platform) MoveMember(ctx context.Context, guildID, userID, channelID string) error {
	return p.s.GuildMemberMove(guildID, userID, &channelID, discordgo.WithContext(ctx))
}

func (p *Platform) DeleteChannel(ctx context.Context, channelID string) error {
	_, err := p.s.ChannelDelete(channelID, discordgo.WithContext(ctx))
	return err
}

func (p *Platform) SetPermissionOverwrite(ctx context.Context, channelID string, ow domain.PermissionOverwrite) error {
	o := toOverwrite(ow)
	return p.s.ChannelPermissionSet(channelID, o.ID, o.Type, o.Allow, o.Deny, discordgo.WithContext(ctx))
}

// MemberCount lee el state cache del gateway, que se actualiza antes de los
// handlers.
func (p *Platform) MemberCount(guildID, channelID string) int {
	g, err := p.s.State.Guild(guildID)
	if err != nil {
		return 0
	}
	p.s.State.RLock()
	defer p.s.State.RUnlock()
	return countVoiceMembers(g.VoiceStates, channelID)
}

func countVoiceMembers(states []*discordgo.VoiceState, channelID string) int {
	n := 0
	for _, vs := range states {
		if vs != nil && vs.ChannelID == channelID {
			n++
		}
	}
	return n
}

func (p *Platform) MemberName(guildID, userID string) string {
	m, err := p.s.State.Member(guildID, userID)
	if err != nil {
		if m, err = p.s.GuildMember(guildID, userID); err != nil {
			return userID
		}
	}
	return displayName(m, userID)
}

func displayName(m *discordgo.Member, fallback string) string {
	switch {
	case m == nil:
		return fallback
	case m.Nick != "":
		return m.Nick
	case m.User == nil:
		return fallback
	case m.User.GlobalName != "":
		return m.User.GlobalName
	case m.User.Username != "":
		return m.User.Username
	}
	return fallback
}

func (p *Platform) SendDirectMessage(ctx context.Context, userID string, msg service.DirectMessage) error {
	ch, err := p.s.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("open dm channel: %w", err)
	}
	_, err = p.s.ChannelMessageSendComplex(ch.ID, directMessage(msg), discordgo.WithContext(ctx))
	return err
}

func directMessage(msg service.DirectMessage) *discordgo.MessageSend {
	send := &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{messageEmbed(msg.Title, msg.Content)},
	}
	if msg.Queue != nil {
		send.Components = queueButtons(msg.Queue.GuildID, msg.Queue.QueueID)
	}
	return send
}
