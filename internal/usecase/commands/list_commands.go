package commands

import (
	"context"
	"strings"

	"chatcmd/internal/domain"
)

// maxListReply keeps the listing under common chat message limits.
const maxListReply = 450

type ListCommandsCommand struct {
	registry domain.CommandRegistry
}

func NewListCommandsCommand(registry domain.CommandRegistry) *ListCommandsCommand {
	return &ListCommandsCommand{registry: registry}
}

func (c *ListCommandsCommand) Name() string {
	return "commands"
}

func (c *ListCommandsCommand) Aliases() []string {
	return []string{}
}

func (c *ListCommandsCommand) SupportsPlatform(domain.Platform) bool {
	return true
}

func (c *ListCommandsCommand) Handle(ctx context.Context, cmdCtx *Context) error {
	msg := cmdCtx.Message
	return cmdCtx.Out.SendMessage(ctx, msg.Platform, msg.ChannelID, c.listing(ctx))
}

func (c *ListCommandsCommand) listing(ctx context.Context) string {
	if c.registry == nil {
		return "No custom commands yet."
	}
	active := c.registry.ListActive(ctx)
	if len(active) == 0 {
		return "No custom commands yet."
	}

	var b strings.Builder
	b.WriteString("Commands:")
	for i, cmd := range active {
		next := " " + cmd.Trigger
		if i > 0 {
			next = "," + next
		}
		if b.Len()+len(next) > maxListReply {
			b.WriteString(", ...")
			break
		}
		b.WriteString(next)
	}
	return b.String()
}
