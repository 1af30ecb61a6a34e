package discord

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// memberVoiceChannel: canal de voz de userID, o "".
func (r *Router) memberVoiceChannel(guildID, userID string) string {
	vs, err := r.s.State.VoiceState(guildID, userID)
	if err != nil || vs == nil {
		return ""
	}
	return vs.ChannelID
}

// voiceTransition saca de qué canal salió y a cuál entró. Los bots nunca
// crean canales ni entran a colas, pero su salida cuenta para vaciar un
// canal temporal.
func voiceTransition(vs *discordgo.VoiceStateUpdate) (before, after string, ok bool) {
	if vs.BeforeUpdate != nil {
		before = vs.BeforeUpdate.ChannelID
	}
	after = vs.ChannelID
	if vs.Member != nil && vs.Member.User != nil && vs.Member.User.Bot {
		after = ""
	}
	return before, after, before != after
}

func (r *Router) onVoiceStateUpdate(_ *discordgo.Session, vs *discordgo.VoiceStateUpdate) {
	before, after, ok := voiceTransition(vs)
	if !ok {
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("panic in voice state update", zap.Any("panic", rec), zap.String("guild_id", vs.GuildID))
		}
	}()
	defer r.step("voice_state_update")()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	r.lifecycle.HandleVoiceStateUpdate(ctx, vs.GuildID, vs.UserID, before, after)
}

func (r *Router) onGuildCreate(_ *discordgo.Session, g *discordgo.GuildCreate) {
	if g.Unavailable {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := r.guilds.Prepare(ctx, g.ID, g.Name, g.MemberCount); err != nil {
		r.log.Error("prepare guild", zap.String("guild_id", g.ID), zap.Error(err))
		return
	}
	r.log.Info("guild ready", zap.String("guild_id", g.ID), zap.String("name", g.Name), zap.Int("members", g.MemberCount))
}

// onChannelDelete olvida canales borrados a mano en Discord.
func (r *Router) onChannelDelete(_ *discordgo.Session, c *discordgo.ChannelDelete) {
	if c.GuildID == "" || c.Type != discordgo.ChannelTypeGuildVoice {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := r.guilds.ForgetChannel(ctx, c.GuildID, c.ID); err != nil {
		r.log.Warn("forget deleted channel", zap.String("guild_id", c.GuildID), zap.String("channel_id", c.ID), zap.Error(err))
	}
}
