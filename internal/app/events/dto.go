package events

import (
	"time"

	"chatcmd/internal/domain"
)

// ChatMessageDTO is the chat payload pushed to UI clients.
type ChatMessageDTO struct {
	Platform  string `json:"platform"`
	ChannelID string `json:"channel_id"`
	Username  string `json:"username"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

func NewChatMessageDTO(msg domain.Message) ChatMessageDTO {
	return ChatMessageDTO{
		Platform:  string(msg.Platform),
		ChannelID: msg.ChannelID,
		Username:  msg.Username,
		Text:      msg.Text,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
}

// CommandsChangedDTO tells UI clients to reload the command list.
type CommandsChangedDTO struct {
	Reason    string `json:"reason"`
	Timestamp string `json:"timestamp"`
}

func NewCommandsChangedDTO(reason string) CommandsChangedDTO {
	return CommandsChangedDTO{
		Reason:    reason,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
}
