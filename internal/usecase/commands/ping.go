package commands

import (
	"context"

	"chatcmd/internal/domain"
)

type PingCommand struct{}

func NewPingCommand() *PingCommand {
	return &PingCommand{}
}

func (c *PingCommand) Name() string {
	return "ping"
}

func (c *PingCommand) Aliases() []string {
	return []string{}
}

func (c *PingCommand) SupportsPlatform(domain.Platform) bool {
	return true
}

func (c *PingCommand) Handle(ctx context.Context, cmdCtx *Context) error {
	msg := cmdCtx.Message
	return cmdCtx.Out.SendMessage(ctx, msg.Platform, msg.ChannelID, "pong from "+string(msg.Platform))
}
