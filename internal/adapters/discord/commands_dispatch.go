package discord

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/jose-valero/tempvoice-bot/internal/app/service"
	"github.com/jose-valero/tempvoice-bot/internal/domain"
	"github.com/jose-valero/tempvoice-bot/internal/infra/logging"
)

func (r *Router) handleSlashCommand(s *discordgo.Session, ic *discordgo.InteractionCreate) {
	cmd := ic.ApplicationCommandData()
	sub, _ := subcmdName(ic)
	op := cmd.Name
	if sub != "" {
		op += "." + sub
	}
	userID := interactionUserID(ic)
	log := r.log.With(zap.String("op", op), zap.String("guild_id", ic.GuildID), zap.String("user_id", userID))
	log.Debug("slash command")

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("panic in slash command", zap.Any("panic", rec))
			r.replyEphemeral(ic, "❌ Something went wrong while processing your request.")
		}
	}()
	defer r.step("slash." + op)()

	_ = r.deferEphemeral(ic)
	ctx, cancel := context.WithTimeout(context.Background(), 12*time.Second)
	defer cancel()

	if cmd.Name == "ping" {
		r.replyEphemeral(ic, "🏓 Pong!")
		return
	}
	if ic.GuildID == "" {
		r.replyEphemeral(ic, "This command only works inside a server.")
		return
	}
	if err := r.gate.Check(ctx, ic.GuildID, op, userID, r.guildCooldown(ctx, ic.GuildID)); err != nil {
		r.fail(ic, log, err)
		return
	}

	var (
		msg   string
		embed *discordgo.MessageEmbed
		err   error
	)
	switch cmd.Name {
	case "voice":
		msg, err = r.voiceCommand(ctx, ic, sub, userID)
	case "queue":
		msg, embed, err = r.queueCommand(ctx, ic, sub, userID)
	case "setup":
		if !r.requireAdminOrRoles(ic) {
			return
		}
		msg, err = r.setupCommand(ctx, ic, sub)
	default:
		msg = "Unknown command."
	}
	if err != nil {
		r.fail(ic, log, err)
		return
	}
	if embed != nil {
		r.replyEphemeral(ic, msg, embed)
		return
	}
	r.replyEphemeral(ic, msg)
}

// fail loguea err según kind y le responde a quien pidió lo que puede saber.
func (r *Router) fail(ic *discordgo.InteractionCreate, log *zap.Logger, err error) {
	logging.Failure(log, "interaction failed", err)

	var cd *service.CooldownError
	if errors.As(err, &cd) {
		r.replyEphemeral(ic, "⏳ Please wait "+fmtRemain(cd.Left)+" before using this command again.")
		return
	}
	r.replyEphemeral(ic, "⚠️ "+domain.UserMessage(err))
}

func (r *Router) guildCooldown(ctx context.Context, guildID string) time.Duration {
	g, err := r.guilds.Get(ctx, guildID)
	if err != nil {
		return 0
	}
	return g.Settings.CommandCooldown
}

func (r *Router) voiceCommand(ctx context.Context, ic *discordgo.InteractionCreate, sub, userID string) (string, error) {
	channelID := r.memberVoiceChannel(ic.GuildID, userID)

	switch sub {
	case "lock":
		if err := r.locks.Lock(ctx, ic.GuildID, channelID, userID); err != nil {
			return "", err
		}
		return "🔒 Your voice channel is locked.", nil
	case "togglelock":
		locked, err := r.locks.ToggleLock(ctx, ic.GuildID, channelID, userID)
		if err != nil {
			return "", err
		}
		if locked {
			return "🔒 Your voice channel is locked.", nil
		}
		return "🔓 Your voice channel is unlocked.", nil
	case "supervisor":
		target, _ := optUserID(ic, "user")
		if err := r.locks.AddSupervisor(ctx, ic.GuildID, channelID, userID, target); err != nil {
			return "", err
		}
		return fmt.Sprintf("<@%s> can now lock and unlock your channel.", target), nil
	}
	return "Use `/voice lock`, `/voice togglelock` or `/voice supervisor`.", nil
}

func (r *Router) queueCommand(ctx context.Context, ic *discordgo.InteractionCreate, sub, userID string) (string, *discordgo.MessageEmbed, error) {
	name, _ := optStr(ic, "name")

	switch sub {
	case "position":
		st, err := r.queues.Standing(ctx, ic.GuildID, name, userID)
		if err != nil {
			return "", nil, err
		}
		return "", standingEmbed(st), nil
	case "leave":
		msg, err := r.queues.Leave(ctx, ic.GuildID, name, userID)
		return msg, nil, err
	case "status":
		sums, err := r.queues.Summaries(ctx, ic.GuildID)
		if err != nil {
			return "", nil, err
		}
		return "", statusEmbed(sums), nil
	}
	return "Use `/queue position`, `/queue leave` or `/queue status`.", nil, nil
}

func (r *Router) guildName(guildID string) string {
	if g, err := r.s.State.Guild(guildID); err == nil && g != nil {
		return g.Name
	}
	return ""
}

func (r *Router) setupCommand(ctx context.Context, ic *discordgo.InteractionCreate, sub string) (string, error) {
	switch sub {
	case "spawner":
		channelID, _ := optChannelID(ic, "channel")
		tpl := domain.VoiceChannelSpawner{}
		tpl.NamePattern, _ = optStr(ic, "name")
		tpl.CategoryID, _ = optChannelID(ic, "category")
		if limit, ok := optInt(ic, "user_limit"); ok {
			tpl.UserLimit = &limit
		}
		if err := r.guilds.RegisterSpawner(ctx, ic.GuildID, r.guildName(ic.GuildID), channelID, tpl); err != nil {
			return "", err
		}
		return fmt.Sprintf("✅ <#%s> now spawns temporary voice channels.", channelID), nil

	case "queue":
		channelID, _ := optChannelID(ic, "channel")
		opts := service.QueueOptions{}
		opts.Name, _ = optStr(ic, "name")
		opts.Description, _ = optStr(ic, "description")
		opts.Limit, _ = optInt(ic, "limit")
		opts.JoinMessage, _ = optStr(ic, "join_message")
		opts.LeaveMessage, _ = optStr(ic, "leave_message")
		timeout, _, err := optDuration(ic, "timeout")
		if err != nil {
			return "", err
		}
		opts.DisconnectTimeout = timeout
		q, err := r.queues.CreateQueue(ctx, ic.GuildID, r.guildName(ic.GuildID), channelID, opts)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("✅ Queue **%s** created. Members join it by entering <#%s>.", q.Name, channelID), nil

	case "span":
		queue, _ := optStr(ic, "queue")
		opts := service.SpanOptions{}
		opts.Span, _ = optStr(ic, "span")
		var err error
		if opts.OpenShift, _, err = optDuration(ic, "open_shift"); err != nil {
			return "", err
		}
		if opts.CloseShift, _, err = optDuration(ic, "close_shift"); err != nil {
			return "", err
		}
		if opts.StartDate, err = optDate(ic, "start", r.loc); err != nil {
			return "", err
		}
		if opts.EndDate, err = optDate(ic, "end", r.loc); err != nil {
			return "", err
		}
		span, err := r.queues.SetSpan(ctx, ic.GuildID, queue, opts)
		if err != nil {
			return "", err
		}
		if span == nil {
			return fmt.Sprintf("✅ Queue **%s** is now always open.", queue), nil
		}
		return fmt.Sprintf("✅ Queue **%s** is open %s.", queue, span), nil

	case "enqueue":
		queue, _ := optStr(ic, "queue")
		target, _ := optUserID(ic, "user")
		importance, ok := optInt(ic, "importance")
		if !ok {
			importance = 1
		}
		override, _ := optBool(ic, "override")
		st, err := r.queues.Enqueue(ctx, ic.GuildID, queue, target, importance, override)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("✅ <@%s> is #%d of %d in **%s**.", target, st.Position, st.Total, st.QueueName), nil

	case "settings":
		cooldown, _, err := optDuration(ic, "cooldown")
		if err != nil {
			return "", err
		}
		importance, _ := optInt(ic, "importance")
		set, err := r.guilds.UpdateSettings(ctx, ic.GuildID, cooldown, importance)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("✅ Cooldown %s, default importance %d.", set.CommandCooldown, set.DefaultImportance), nil
	}
	return "Use `/setup spawner`, `/setup queue`, `/setup span`, `/setup enqueue` or `/setup settings`.", nil
}
