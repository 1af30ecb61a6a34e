package main

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/jose-valero/tempvoice-bot/internal/infra/config"
	"github.com/jose-valero/tempvoice-bot/internal/infra/logging"
)

// Result vuelve al runtime de Lambda.
type Result struct {
	Deleted int64     `json:"deleted"`
	Cutoff  time.Time `json:"cutoff"`
}

func handler(ctx context.Context) (Result, error) {
	cfg, err := config.LoadJanitor()
	if err != nil {
		return Result{}, err
	}
	log := logging.New(cfg.Logging).Named("janitor")
	defer func() { _ = log.Sync() }()

	pcfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return Result{}, fmt.Errorf("parse: %w", err)
	}
	pcfg.MaxConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return Result{}, fmt.Errorf("pool: %w", err)
	}
	defer pool.Close()

	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cutoff := time.Now().UTC().Add(-cfg.EventRetention)
	tag, err := pool.Exec(cctx, `DELETE FROM lifecycle_events WHERE created_at < $1`, cutoff)
	if err != nil {
		log.Error("purge lifecycle events", zap.Error(err))
		return Result{}, err
	}

	res := Result{Deleted: tag.RowsAffected(), Cutoff: cutoff}
	log.Info("purged lifecycle events", zap.Int64("deleted", res.Deleted), zap.Time("cutoff", cutoff))
	return res, nil
}

func main() { lambda.Start(handler) }
