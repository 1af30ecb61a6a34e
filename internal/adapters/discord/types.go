package discord

import "strings"

// ComponentKey es el prefijo del custom_id. Le siguen guild y cola separados
// por ':', porque los DMs no traen guild.
type ComponentKey string

const (
	ComponentQueueRefresh ComponentKey = "queue_refresh"
	ComponentQueueLeave   ComponentKey = "queue_leave"
)

func componentID(key ComponentKey, guildID, queueID string) string {
	return string(key) + ":" + guildID + ":" + queueID
}

func parseComponentID(id string) (key ComponentKey, guildID, queueID string, ok bool) {
	parts := strings.Split(id, ":")
	if len(parts) != 3 || parts[1] == "" || parts[2] == "" {
		return "", "", "", false
	}
	switch k := ComponentKey(parts[0]); k {
	case ComponentQueueRefresh, ComponentQueueLeave:
		return k, parts[1], parts[2], true
	}
	return "", "", "", false
}
