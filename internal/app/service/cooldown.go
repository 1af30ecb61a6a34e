package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jose-valero/tempvoice-bot/internal/domain"
)

// CommandGate aplica cooldowns por guild, comando y usuario. El owner del
// bot nunca espera.
type CommandGate struct {
	store    CooldownStore
	fallback time.Duration
	ownerID  string
}

func NewCommandGate(store CooldownStore, fallback time.Duration, ownerID string) *CommandGate {
	return &CommandGate{store: store, fallback: fallback, ownerID: ownerID}
}

// Check arranca el cooldown o devuelve *CooldownError. guildWindow pisa la
// ventana global si es > 0.
func (g *CommandGate) Check(ctx context.Context, guildID, command, userID string, guildWindow time.Duration) error {
	if userID == g.ownerID && g.ownerID != "" {
		return nil
	}
	window := g.fallback
	if guildWindow > 0 {
		window = guildWindow
	}
	if window <= 0 {
		return nil
	}

	left, ok, err := g.store.Acquire(ctx, guildID+":"+command+":"+userID, window)
	if err != nil {
		return err
	}
	if !ok {
		return &CooldownError{Command: command, Left: left}
	}
	return nil
}

// CooldownError envuelve domain.ErrOnCooldown.
type CooldownError struct {
	Command string
	Left    time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s on cooldown for %s", e.Command, e.Left)
}

func (e *CooldownError) Unwrap() error { return domain.ErrOnCooldown }
