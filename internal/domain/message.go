package domain

type Platform string

const (
	PlatformTwitch  Platform = "twitch"
	PlatformKick    Platform = "kick"
	PlatformConsole Platform = "console"
)

type Message struct {
	Platform  Platform `json:"platform"`
	ChannelID string   `json:"channel_id"`
	UserID    string   `json:"user_id"`
	Username  string   `json:"username"`
	Text      string   `json:"text"`
	IsPrivate bool     `json:"is_private"`

	// Flags filled in by the platform adapter.
	IsPlatformOwner bool `json:"is_owner"`
	IsPlatformAdmin bool `json:"is_admin"`
	IsPlatformMod   bool `json:"is_mod"`
	IsPlatformVip   bool `json:"is_vip"`
	IsSubscriber    bool `json:"is_subscriber"`
}

// CanManageCommands reports whether the sender may use the command
// management sub-commands (broadcaster or moderator).
func (m Message) CanManageCommands() bool {
	return m.IsPlatformOwner || m.IsPlatformMod || m.IsPlatformAdmin
}
