package discord

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/tempvoice-bot/internal/app/service"
)

const (
	colorInfo  = 0x5865F2
	colorError = 0xED4245

	maxDescription = 4096
	maxFields      = 25
	maxFieldValue  = 1024
	shownEntries   = 10
)

func messageEmbed(title, content string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{Title: title, Description: truncate(content, maxDescription), Color: colorInfo}
}

func errorEmbed(content string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{Title: "Queue", Description: truncate(content, maxDescription), Color: colorError}
}

// queueButtons van en los DMs de cola.
func queueButtons(guildID, queueID string) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{
				Label:    "Refresh",
				Style:    discordgo.PrimaryButton,
				CustomID: componentID(ComponentQueueRefresh, guildID, queueID),
			},
			discordgo.Button{
				Label:    "Leave queue",
				Style:    discordgo.DangerButton,
				CustomID: componentID(ComponentQueueLeave, guildID, queueID),
			},
		}},
	}
}

func standingEmbed(st service.Standing) *discordgo.MessageEmbed {
	state := "open"
	if !st.Open {
		state = "closed"
	}
	return messageEmbed(
		"Queue "+st.QueueName,
		fmt.Sprintf("You are **#%d** of %d. The queue is currently %s.", st.Position, st.Total, state),
	)
}

// statusEmbed lista las colas del guild con los primeros miembros.
func statusEmbed(sums []service.QueueSummary) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{Title: "Queues", Color: colorInfo}
	if len(sums) == 0 {
		e.Description = "There are no queues on this server."
		return e
	}
	for i, q := range sums {
		if i == maxFields {
			e.Footer = &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("%d more queues not shown", len(sums)-maxFields)}
			break
		}
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{
			Name:  queueHeadline(q),
			Value: truncate(queueLines(q), maxFieldValue),
		})
	}
	return e
}

func queueHeadline(q service.QueueSummary) string {
	size := fmt.Sprintf("%d", q.Size)
	if q.Limit > 0 {
		size = fmt.Sprintf("%d/%d", q.Size, q.Limit)
	}
	state := "open"
	if !q.Open {
		state = "closed"
	}
	return fmt.Sprintf("%s (%s, %s)", q.Name, size, state)
}

func queueLines(q service.QueueSummary) string {
	if len(q.Entries) == 0 {
		return "Nobody in queue."
	}
	var b strings.Builder
	for i, e := range q.Entries {
		if i == shownEntries {
			fmt.Fprintf(&b, "… and %d more", len(q.Entries)-shownEntries)
			break
		}
		fmt.Fprintf(&b, "%d) <@%s>\n", e.Position, e.DiscordID)
	}
	if q.Span != "" {
		b.WriteString("\nOpen " + q.Span)
	}
	return strings.TrimRight(b.String(), "\n")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
