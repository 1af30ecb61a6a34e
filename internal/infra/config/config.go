package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	DiscordToken string
	// si está, registra los slash commands sólo en ese guild
	DiscordGuild string
	DatabaseURL  string
	HTTPAddr     string

	Redis   RedisConfig
	Logging LoggingConfig

	// zona en la que se evalúan los horarios de cola
	Location        *time.Location
	CommandCooldown time.Duration
	// saltea cooldowns y chequeos de admin
	OwnerID        string
	AdminRoleIDs   []string
	EventRetention time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Enabled: cooldowns compartidos por Redis.
func (c RedisConfig) Enabled() bool { return c.Addr != "" }

type LoggingConfig struct {
	Level  string
	Format string
}

// Load lee el entorno, mezclando antes un .env local si existe.
// CONFIG_FILE puede apuntar a un YAML/TOML/JSON con las mismas claves.
func Load() (Config, error) {
	v, err := newViper()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DiscordToken: v.GetString("DISCORD_BOT_TOKEN"),
		DiscordGuild: v.GetString("DISCORD_GUILD_ID"),
		DatabaseURL:  v.GetString("DATABASE_URL"),
		HTTPAddr:     v.GetString("HTTP_ADDR"),
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Logging:         loggingConfig(v),
		CommandCooldown: v.GetDuration("COMMAND_COOLDOWN"),
		OwnerID:         v.GetString("OWNER_ID"),
		AdminRoleIDs:    splitList(v.GetString("ADMIN_ROLE_IDS")),
		EventRetention:  v.GetDuration("EVENT_RETENTION"),
	}

	var missing []string
	if cfg.DiscordToken == "" {
		missing = append(missing, "DISCORD_BOT_TOKEN")
	}
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing env %s", strings.Join(missing, ", "))
	}

	loc, err := time.LoadLocation(v.GetString("TIMEZONE"))
	if err != nil {
		return Config{}, fmt.Errorf("TIMEZONE: %w", err)
	}
	cfg.Location = loc
	return cfg, nil
}

// JanitorConfig es lo mínimo que necesita la purga.
type JanitorConfig struct {
	DatabaseURL    string
	EventRetention time.Duration
	Logging        LoggingConfig
}

func LoadJanitor() (JanitorConfig, error) {
	v, err := newViper()
	if err != nil {
		return JanitorConfig{}, err
	}
	cfg := JanitorConfig{
		DatabaseURL:    v.GetString("DATABASE_URL"),
		EventRetention: v.GetDuration("EVENT_RETENTION"),
		Logging:        loggingConfig(v),
	}
	if cfg.DatabaseURL == "" {
		return JanitorConfig{}, fmt.Errorf("missing env DATABASE_URL")
	}
	if cfg.EventRetention <= 0 {
		return JanitorConfig{}, fmt.Errorf("EVENT_RETENTION must be positive, got %s", cfg.EventRetention)
	}
	return cfg, nil
}

func newViper() (*viper.Viper, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("TIMEZONE", "UTC")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("COMMAND_COOLDOWN", "5s")
	v.SetDefault("EVENT_RETENTION", "720h")
	v.SetDefault("REDIS_DB", 0)

	if path := v.GetString("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}
	return v, nil
}

func loggingConfig(v *viper.Viper) LoggingConfig {
	return LoggingConfig{
		Level:  strings.ToLower(v.GetString("LOG_LEVEL")),
		Format: strings.ToLower(v.GetString("LOG_FORMAT")),
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
