package discord

import (
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/jose-valero/tempvoice-bot/internal/app/service"
)

type Services struct {
	Lifecycle *service.LifecycleService
	Locks     *service.LockService
	Queues    *service.QueueService
	Guilds    *service.GuildService
	Gate      *service.CommandGate
}

type Router struct {
	s   *discordgo.Session
	log *zap.Logger
	// vacío = registro global
	guildID      string
	ownerID      string
	adminRoleIDs []string
	loc          *time.Location

	lifecycle *service.LifecycleService
	locks     *service.LockService
	queues    *service.QueueService
	guilds    *service.GuildService
	gate      *service.CommandGate
}

func NewRouter(s *discordgo.Session, log *zap.Logger, guildID, ownerID string, adminRoleIDs []string, loc *time.Location, svc Services) *Router {
	if loc == nil {
		loc = time.UTC
	}
	return &Router{
		s:            s,
		log:          log,
		guildID:      guildID,
		ownerID:      ownerID,
		adminRoleIDs: adminRoleIDs,
		loc:          loc,
		lifecycle:    svc.Lifecycle,
		locks:        svc.Locks,
		queues:       svc.Queues,
		guilds:       svc.Guilds,
		gate:         svc.Gate,
	}
}

func (r *Router) Register() error {
	appID := r.s.State.User.ID
	for _, cmd := range Commands {
		if _, err := r.s.ApplicationCommandCreate(appID, r.guildID, cmd); err != nil {
			return err
		}
	}
	return nil
}

func (r *Router) Handlers() {
	r.s.AddHandler(func(s *discordgo.Session, ic *discordgo.InteractionCreate) {
		switch ic.Type {
		case discordgo.InteractionApplicationCommand:
			r.handleSlashCommand(s, ic)
		case discordgo.InteractionMessageComponent:
			r.handleMessageComponent(s, ic)
		}
	})
	r.s.AddHandler(r.onVoiceStateUpdate)
	r.s.AddHandler(r.onGuildCreate)
	r.s.AddHandler(r.onChannelDelete)
}
