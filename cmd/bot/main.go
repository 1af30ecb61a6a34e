package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	discordrouter "github.com/jose-valero/tempvoice-bot/internal/adapters/discord"
	"github.com/jose-valero/tempvoice-bot/internal/adapters/httpapi"
	"github.com/jose-valero/tempvoice-bot/internal/app/service"
	"github.com/jose-valero/tempvoice-bot/internal/infra/cache"
	"github.com/jose-valero/tempvoice-bot/internal/infra/config"
	"github.com/jose-valero/tempvoice-bot/internal/infra/logging"
	"github.com/jose-valero/tempvoice-bot/internal/infra/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// todavía no hay logger
		zap.NewExample().Fatal("config", zap.Error(err))
	}
	log := logging.New(cfg.Logging)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()

	// DB
	db, err := storage.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("open database", zap.Error(err))
	}
	defer db.Close()
	v, err := storage.Migrate(ctx, db)
	if err != nil {
		log.Fatal("migrate", zap.Error(err))
	}
	log.Info("database ready", zap.Int64("schema_version", v))

	// Repos
	guildRepo := storage.NewGuildRepo(db)
	eventRepo := storage.NewEventRepo(db)

	// Cooldowns (Redis si está configurado)
	var cooldowns service.CooldownStore = cache.NewMemoryCooldowns()
	if cfg.Redis.Enabled() {
		rdb, err := cache.Open(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatal("redis", zap.Error(err))
		}
		defer rdb.Close()
		cooldowns = cache.NewRedisCooldowns(rdb)
		log.Info("cooldowns shared through redis", zap.String("addr", cfg.Redis.Addr))
	}

	// Discord session (antes de los services que la usan)
	auth := strings.TrimSpace(cfg.DiscordToken)
	if !strings.HasPrefix(strings.ToLower(auth), "bot ") {
		auth = "Bot " + auth
	}
	s, err := discordgo.New(auth)
	if err != nil {
		log.Fatal("discord session", zap.Error(err))
	}
	s.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildVoiceStates
	s.StateEnabled = true

	// Services
	platform := discordrouter.NewPlatform(s)
	store := service.NewGuildStore(guildRepo)
	svc := discordrouter.Services{
		Lifecycle: service.NewLifecycleService(store, platform, platform, eventRepo, log.Named("lifecycle"), cfg.Location),
		Locks:     service.NewLockService(store, platform, eventRepo, log.Named("locks")),
		Queues:    service.NewQueueService(store, eventRepo, log.Named("queues"), cfg.Location),
		Guilds:    service.NewGuildService(store, log.Named("guilds")),
		Gate:      service.NewCommandGate(cooldowns, cfg.CommandCooldown, cfg.OwnerID),
	}

	// Router
	r := discordrouter.NewRouter(s, log.Named("discord"), cfg.DiscordGuild, cfg.OwnerID, cfg.AdminRoleIDs, cfg.Location, svc)
	r.Handlers()

	if err := s.Open(); err != nil {
		log.Fatal("discord open", zap.Error(err))
	}
	defer s.Close()
	log.Info("connected", zap.String("user", s.State.User.Username), zap.String("user_id", s.State.User.ID))

	if err := r.Register(); err != nil {
		log.Fatal("register commands", zap.Error(err))
	}
	log.Info("commands registered", zap.String("guild_id", cfg.DiscordGuild))

	// API de estado
	web := httpapi.New(guildRepo, svc.Queues, eventRepo, log.Named("http"))
	go func() {
		if err := web.Run(ctx, cfg.HTTPAddr); err != nil {
			log.Error("http server", zap.Error(err))
		}
	}()

	// Purga (para deploys sin la lambda janitor)
	go func() {
		t := time.NewTicker(time.Hour)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
			}
			pctx, cancel := context.WithTimeout(ctx, 30*time.Second)
			n, err := eventRepo.PurgeBefore(pctx, time.Now().Add(-cfg.EventRetention))
			cancel()
			if err != nil {
				log.Warn("purge lifecycle events", zap.Error(err))
				continue
			}
			if n > 0 {
				log.Info("purged lifecycle events", zap.Int64("deleted", n))
			}
		}
	}()

	// Esperar señal
	<-ctx.Done()
	log.Info("shutting down")
}
