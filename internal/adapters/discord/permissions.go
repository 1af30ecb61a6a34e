package discord

import (
	"slices"

	"github.com/bwmarrin/discordgo"
)

func (r *Router) requireAdminOrRoles(ic *discordgo.InteractionCreate) bool {
	if ic.Member == nil {
		r.replyEphemeral(ic, "This command only works inside a server.")
		return false
	}
	guildOwner := ""
	if g, _ := r.s.State.Guild(ic.GuildID); g != nil {
		guildOwner = g.OwnerID
	}
	var roles []*discordgo.Role
	if ic.Member.Permissions&discordgo.PermissionAdministrator == 0 {
		roles, _ = r.s.GuildRoles(ic.GuildID)
	}
	if isAdmin(ic.Member, guildOwner, r.ownerID, r.adminRoleIDs, roles) {
		return true
	}
	r.replyEphemeral(ic, "🔒 You have no permission for this action.")
	return false
}

// isAdmin: owner del bot, owner del guild, quien tenga Administrator o
// alguno de adminRoles.
func isAdmin(m *discordgo.Member, guildOwnerID, botOwnerID string, adminRoles []string, roles []*discordgo.Role) bool {
	if m == nil || m.User == nil {
		return false
	}
	if (botOwnerID != "" && m.User.ID == botOwnerID) || (guildOwnerID != "" && m.User.ID == guildOwnerID) {
		return true
	}
	if m.Permissions&discordgo.PermissionAdministrator != 0 {
		return true
	}
	for _, ro := range roles {
		if slices.Contains(m.Roles, ro.ID) && ro.Permissions&discordgo.PermissionAdministrator != 0 {
			return true
		}
	}
	for _, want := range adminRoles {
		if slices.Contains(m.Roles, want) {
			return true
		}
	}
	return false
}
