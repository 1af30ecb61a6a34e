package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jose-valero/tempvoice-bot/internal/app/service"
	"github.com/jose-valero/tempvoice-bot/internal/infra/storage"
)

type GuildLister interface {
	List(ctx context.Context) ([]storage.GuildSummary, error)
}

type QueueReader interface {
	Summaries(ctx context.Context, guildID string) ([]service.QueueSummary, error)
}

type EventReader interface {
	Recent(ctx context.Context, guildID string, kinds []storage.EventKind, limit int) ([]storage.LifecycleEvent, error)
}

// Server expone el estado del bot por HTTP, sólo lectura.
type Server struct {
	guilds GuildLister
	queues QueueReader
	events EventReader
	log    *zap.Logger
	engine *gin.Engine
}

func New(guilds GuildLister, queues QueueReader, events EventReader, log *zap.Logger) *Server {
	s := &Server{guilds: guilds, queues: queues, events: events, log: log, engine: gin.New()}
	s.engine.Use(gin.Recovery(), s.accessLog())
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.GET("/guilds", s.listGuilds)
	g := s.engine.Group("/guilds/:guild")
	{
		g.GET("/queues", s.listQueues)
		g.GET("/events", s.listEvents)
	}
}

func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)),
		)
	}
}

func (s *Server) listGuilds(c *gin.Context) {
	out, err := s.guilds.List(c.Request.Context())
	if err != nil {
		s.internal(c, "list guilds", err)
		return
	}
	if out == nil {
		out = []storage.GuildSummary{}
	}
	c.JSON(http.StatusOK, gin.H{"guilds": out})
}

func (s *Server) listQueues(c *gin.Context) {
	guildID := c.Param("guild")
	out, err := s.queues.Summaries(c.Request.Context(), guildID)
	if err != nil {
		s.internal(c, "list queues", err, zap.String("guild_id", guildID))
		return
	}
	c.JSON(http.StatusOK, gin.H{"guild_id": guildID, "queues": out})
}

var knownKinds = map[storage.EventKind]bool{
	storage.EventChannelCreated:  true,
	storage.EventChannelDeleted:  true,
	storage.EventChannelLocked:   true,
	storage.EventChannelUnlocked: true,
	storage.EventQueueJoined:     true,
	storage.EventQueueLeft:       true,
}

func (s *Server) listEvents(c *gin.Context) {
	guildID := c.Param("guild")

	var kinds []storage.EventKind
	if raw := c.Query("kind"); raw != "" {
		for _, k := range strings.Split(raw, ",") {
			kind := storage.EventKind(strings.TrimSpace(k))
			if !knownKinds[kind] {
				c.JSON(http.StatusBadRequest, gin.H{"error": "unknown event kind " + string(kind)})
				return
			}
			kinds = append(kinds, kind)
		}
	}

	limit := storage.DefaultRecentEvents
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, storage.MaxRecentEvents)
	}

	out, err := s.events.Recent(c.Request.Context(), guildID, kinds, limit)
	if err != nil {
		s.internal(c, "list events", err, zap.String("guild_id", guildID))
		return
	}
	if out == nil {
		out = []storage.LifecycleEvent{}
	}
	c.JSON(http.StatusOK, gin.H{"guild_id": guildID, "events": out})
}

func (s *Server) internal(c *gin.Context, op string, err error, fields ...zap.Field) {
	s.log.Error(op, append(fields, zap.Error(err))...)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

// Run sirve en addr hasta que se cancele ctx y después apaga prolijo.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.engine, ReadHeaderTimeout: 5 * time.Second}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("http listening", zap.String("addr", addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
