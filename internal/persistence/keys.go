package persistence

import "fmt"

const ns = "ticketbot:v1"

func KeyCreateGuard(guildID, userID string) string {
	return fmt.Sprintf("%s:create:%s:%s", ns, guildID, userID)
}

func ChannelSettingsChanged() string {
	return ns + ":settings:changed"
}
