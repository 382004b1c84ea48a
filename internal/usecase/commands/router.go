package commands

import (
	"context"
	"strings"

	"chatcmd/internal/domain"
)

type Router struct {
	prefix   string
	cmdIndex map[string]Command
	custom   *CustomCommandManager
}

func NewRouter(prefix string) *Router {
	return &Router{
		prefix:   prefix,
		cmdIndex: make(map[string]Command),
	}
}

func (r *Router) Prefix() string {
	return r.prefix
}

func (r *Router) Register(cmd Command) {
	r.cmdIndex[strings.ToLower(cmd.Name())] = cmd
	for _, alias := range cmd.Aliases() {
		r.cmdIndex[strings.ToLower(alias)] = cmd
	}
}

// SetCustomManager enables custom commands and reserves the built-in
// triggers in its registry.
func (r *Router) SetCustomManager(m *CustomCommandManager) {
	r.custom = m
	if m != nil {
		m.SetReservedChecker(r.IsReserved)
	}
}

// IsReserved reports whether trigger invokes a built-in command.
func (r *Router) IsReserved(trigger string) bool {
	key := domain.NormalizeTrigger(trigger)
	if !strings.HasPrefix(key, r.prefix) {
		return false
	}
	_, ok := r.cmdIndex[strings.TrimPrefix(key, r.prefix)]
	return ok
}

func (r *Router) Handle(ctx context.Context, msg domain.Message, out domain.OutgoingMessagePort) error {
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return nil
	}

	if strings.HasPrefix(text, r.prefix) {
		withoutPrefix := strings.TrimPrefix(text, r.prefix)
		parts := strings.Fields(withoutPrefix)
		if len(parts) > 0 {
			if cmd, ok := r.cmdIndex[strings.ToLower(parts[0])]; ok {
				if !cmd.SupportsPlatform(msg.Platform) {
					return out.SendMessage(ctx, msg.Platform, msg.ChannelID, "This command is not available here.")
				}
				return cmd.Handle(ctx, &Context{
					Message: msg,
					Out:     out,
					Raw:     withoutPrefix,
					Args:    parts[1:],
				})
			}
		}
	}

	if r.custom == nil {
		return nil
	}
	_, err := r.custom.TryHandle(ctx, msg, out)
	return err
}
