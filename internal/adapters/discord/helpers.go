package discord

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/tempvoice-bot/internal/domain"
)

func fmtRemain(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	s := int(d.Round(time.Second).Seconds())
	return fmt.Sprintf("%02d:%02d", s/60, s%60)
}

// interactionUserID sirve para guild y DMs.
func interactionUserID(ic *discordgo.InteractionCreate) string {
	if ic.Member != nil && ic.Member.User != nil {
		return ic.Member.User.ID
	}
	if ic.User != nil {
		return ic.User.ID
	}
	return ""
}

// option busca name en las opciones de arriba o en las del subcomando.
func option(ic *discordgo.InteractionCreate, name string) *discordgo.ApplicationCommandInteractionDataOption {
	if ic.Type != discordgo.InteractionApplicationCommand {
		return nil
	}
	for _, o := range ic.ApplicationCommandData().Options {
		if o.Name == name {
			return o
		}
		if o.Type == discordgo.ApplicationCommandOptionSubCommand {
			for _, so := range o.Options {
				if so.Name == name {
					return so
				}
			}
		}
	}
	return nil
}

func optStr(ic *discordgo.InteractionCreate, name string) (string, bool) {
	o := option(ic, name)
	if o == nil || o.Type != discordgo.ApplicationCommandOptionString {
		return "", false
	}
	return o.StringValue(), true
}

func optBool(ic *discordgo.InteractionCreate, name string) (bool, bool) {
	o := option(ic, name)
	if o == nil || o.Type != discordgo.ApplicationCommandOptionBoolean {
		return false, false
	}
	return o.BoolValue(), true
}

func optInt(ic *discordgo.InteractionCreate, name string) (int, bool) {
	o := option(ic, name)
	if o == nil || o.Type != discordgo.ApplicationCommandOptionInteger {
		return 0, false
	}
	return int(o.IntValue()), true
}

func optUserID(ic *discordgo.InteractionCreate, name string) (string, bool) {
	o := option(ic, name)
	if o == nil || o.Type != discordgo.ApplicationCommandOptionUser {
		return "", false
	}
	return o.UserValue(nil).ID, true
}

func optChannelID(ic *discordgo.InteractionCreate, name string) (string, bool) {
	o := option(ic, name)
	if o == nil || o.Type != discordgo.ApplicationCommandOptionChannel {
		return "", false
	}
	return o.ChannelValue(nil).ID, true
}

// optDuration lee una duración Go, p.ej. "-15m" o "1h30m".
func optDuration(ic *discordgo.InteractionCreate, name string) (time.Duration, bool, error) {
	raw, ok := optStr(ic, name)
	if !ok || raw == "" {
		return 0, false, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, true, fmt.Errorf("%w: %w", domain.InvalidOption(name, raw, "a duration like 15m or -1h30m"), err)
	}
	return d, true, nil
}

// optDate lee YYYY-MM-DD como medianoche en loc.
func optDate(ic *discordgo.InteractionCreate, name string, loc *time.Location) (*time.Time, error) {
	raw, ok := optStr(ic, name)
	if !ok || raw == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, raw, loc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.InvalidOption(name, raw, "a date like 2024-03-01"), err)
	}
	return &t, nil
}

func subcmdName(ic *discordgo.InteractionCreate) (string, bool) {
	if ic.Type != discordgo.InteractionApplicationCommand {
		return "", false
	}
	for _, o := range ic.ApplicationCommandData().Options {
		if o.Type == discordgo.ApplicationCommandOptionSubCommand {
			return o.Name, true
		}
	}
	return "", false
}
