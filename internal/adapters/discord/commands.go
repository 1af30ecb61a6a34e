package discord

import "github.com/bwmarrin/discordgo"

var (
	adminPermission int64 = discordgo.PermissionManageChannels
	minLimit              = 0.0
	minImportance         = -100.0
	maxImportance         = 100.0
)

var Commands = []*discordgo.ApplicationCommand{
	{
		Name:        "ping",
		Description: "Check that the bot is alive",
	},
	{
		Name:        "voice",
		Description: "Manage your temporary voice channel",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "lock", Description: "Lock your voice channel"},
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "togglelock", Description: "Lock or unlock your voice channel"},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "supervisor",
				Description: "Let another member lock and unlock your channel",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "Member to trust", Required: true},
				},
			},
		},
	},
	{
		Name:        "queue",
		Description: "Queues on this server",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "position",
				Description: "Your position in a queue",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionString, Name: "name", Description: "Queue name", Required: true},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "leave",
				Description: "Leave a queue",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionString, Name: "name", Description: "Queue name", Required: true},
				},
			},
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "status", Description: "Show all queues"},
		},
	},
	{
		Name:                     "setup",
		Description:              "Configure spawners and queues (admins)",
		DefaultMemberPermissions: &adminPermission,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "spawner",
				Description: "Turn a voice channel into a spawner of temporary channels",
				Options: []*discordgo.ApplicationCommandOption{
					voiceChannelOption("channel", "Spawner voice channel"),
					{Type: discordgo.ApplicationCommandOptionString, Name: "name", Description: "Name pattern, may use ${owner_name}, ${owner_id}, ${count}"},
					{
						Type:         discordgo.ApplicationCommandOptionChannel,
						Name:         "category",
						Description:  "Category for the new channels",
						ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildCategory},
					},
					{Type: discordgo.ApplicationCommandOptionInteger, Name: "user_limit", Description: "Member limit of the new channels", MinValue: &minLimit, MaxValue: 99},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "queue",
				Description: "Create a queue joined by entering a voice channel",
				Options: []*discordgo.ApplicationCommandOption{
					voiceChannelOption("channel", "Waiting room voice channel"),
					{Type: discordgo.ApplicationCommandOptionString, Name: "name", Description: "Queue name", Required: true},
					{Type: discordgo.ApplicationCommandOptionString, Name: "description", Description: "Queue description"},
					{Type: discordgo.ApplicationCommandOptionInteger, Name: "limit", Description: "Capacity, 0 for unlimited", MinValue: &minLimit},
					{Type: discordgo.ApplicationCommandOptionString, Name: "join_message", Description: "Sent on join, may use ${pos}, ${total}, ${name}, ..."},
					{Type: discordgo.ApplicationCommandOptionString, Name: "leave_message", Description: "Sent on leave, may use ${time_spent}, ${pos}, ..."},
					{Type: discordgo.ApplicationCommandOptionString, Name: "timeout", Description: "Disconnect timeout, e.g. 5m"},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "span",
				Description: "Set or clear the weekly opening hours of a queue",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionString, Name: "queue", Description: "Queue name", Required: true},
					{Type: discordgo.ApplicationCommandOptionString, Name: "span", Description: "e.g. MONDAY 08:00 - FRIDAY 17:00, empty to clear"},
					{Type: discordgo.ApplicationCommandOptionString, Name: "open_shift", Description: "Move the opening, e.g. -15m"},
					{Type: discordgo.ApplicationCommandOptionString, Name: "close_shift", Description: "Move the closing, e.g. 30m"},
					{Type: discordgo.ApplicationCommandOptionString, Name: "start", Description: "First day, YYYY-MM-DD"},
					{Type: discordgo.ApplicationCommandOptionString, Name: "end", Description: "Day the span stops, YYYY-MM-DD"},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "enqueue",
				Description: "Put a member into a queue",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionString, Name: "queue", Description: "Queue name", Required: true},
					{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "Member", Required: true},
					{Type: discordgo.ApplicationCommandOptionInteger, Name: "importance", Description: "Higher goes first", MinValue: &minImportance, MaxValue: maxImportance},
					{Type: discordgo.ApplicationCommandOptionBoolean, Name: "override", Description: "Ignore opening hours"},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "settings",
				Description: "Server-wide settings",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionString, Name: "cooldown", Description: "Command cooldown, e.g. 10s"},
					{Type: discordgo.ApplicationCommandOptionInteger, Name: "importance", Description: "Default importance of voice joins", MinValue: &minImportance, MaxValue: maxImportance},
				},
			},
		},
	},
}

func voiceChannelOption(name, description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:         discordgo.ApplicationCommandOptionChannel,
		Name:         name,
		Description:  description,
		Required:     true,
		ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildVoice},
	}
}
