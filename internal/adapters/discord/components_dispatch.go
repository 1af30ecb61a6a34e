package discord

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/jose-valero/tempvoice-bot/internal/domain"
	"github.com/jose-valero/tempvoice-bot/internal/infra/logging"
)

// handleMessageComponent atiende los botones de los DMs de cola. Edita el
// mensaje clickeado.
func (r *Router) handleMessageComponent(s *discordgo.Session, ic *discordgo.InteractionCreate) {
	data := ic.MessageComponentData()
	key, guildID, queueID, ok := parseComponentID(data.CustomID)
	if !ok {
		return
	}
	userID := interactionUserID(ic)
	log := r.log.With(zap.String("op", string(key)), zap.String("guild_id", guildID), zap.String("queue_id", queueID), zap.String("user_id", userID))

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("panic in component", zap.Any("panic", rec))
		}
	}()
	defer r.step("component." + string(key))()

	_ = r.deferUpdate(ic)
	ctx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer cancel()

	if err := r.gate.Check(ctx, guildID, string(key), userID, 0); err != nil {
		logging.Failure(log, "component throttled", err)
		r.replyEphemeral(ic, "⏳ Please wait a moment…")
		return
	}

	switch key {
	case ComponentQueueRefresh:
		st, err := r.queues.Standing(ctx, guildID, queueID, userID)
		if err != nil {
			logging.Failure(log, "queue refresh", err)
			r.editOriginal(ic, []*discordgo.MessageEmbed{errorEmbed(domain.UserMessage(err))}, nil)
			return
		}
		r.editOriginal(ic, []*discordgo.MessageEmbed{standingEmbed(st)}, queueButtons(guildID, queueID))

	case ComponentQueueLeave:
		msg, err := r.queues.Leave(ctx, guildID, queueID, userID)
		if err != nil {
			logging.Failure(log, "queue leave", err)
			r.editOriginal(ic, []*discordgo.MessageEmbed{errorEmbed(domain.UserMessage(err))}, nil)
			return
		}
		r.editOriginal(ic, []*discordgo.MessageEmbed{messageEmbed("Queue", msg)}, nil)
	}
}
