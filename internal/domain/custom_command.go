package domain

import (
	"context"
	"strings"
	"time"
)

const (
	EffectTypeChatReply = "chat-reply"

	RestrictionTypeRoles = "role-membership"
	RestrictionModeRoles = "roles"
)

// Role ids understood by role-membership restrictions. Any other id is the
// name of a custom viewer group.
const (
	RoleSubscriber  = "sub"
	RoleVIP         = "vip"
	RoleModerator   = "mod"
	RoleBroadcaster = "broadcaster"
)

type CustomCommand struct {
	ID               string
	Trigger          string
	Active           bool
	ScanWholeMessage bool
	Cooldown         Cooldown
	Effects          EffectList
	RestrictionData  RestrictionData
	Count            int
	Description      string

	CreatedBy    string
	CreatedAt    time.Time
	LastEditedBy string
	LastEditedAt time.Time
}

// Cooldown values are seconds.
type Cooldown struct {
	User   int `json:"user" yaml:"user"`
	Global int `json:"global" yaml:"global"`
}

type EffectList struct {
	ID   string   `json:"id"`
	List []Effect `json:"list"`
}

type Effect struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
}

type RestrictionData struct {
	Restrictions []Restriction `json:"restrictions"`
}

type Restriction struct {
	ID      string   `json:"id"`
	Type    string   `json:"type"`
	Mode    string   `json:"mode"`
	RoleIDs []string `json:"roleIds"`
}

// ChatReplyEffects returns the chat-reply effects in chain order.
func (c CustomCommand) ChatReplyEffects() []Effect {
	var out []Effect
	for _, e := range c.Effects.List {
		if e.Type == EffectTypeChatReply {
			out = append(out, e)
		}
	}
	return out
}

// RoleIDs flattens the role-membership restrictions of the command.
func (c CustomCommand) RoleIDs() []string {
	var out []string
	for _, r := range c.RestrictionData.Restrictions {
		if r.Type != RestrictionTypeRoles {
			continue
		}
		out = append(out, r.RoleIDs...)
	}
	return out
}

// Clone returns a deep copy so callers never share slices with the registry.
func (c CustomCommand) Clone() CustomCommand {
	out := c
	if c.Effects.List != nil {
		out.Effects.List = append([]Effect(nil), c.Effects.List...)
	}
	if c.RestrictionData.Restrictions != nil {
		out.RestrictionData.Restrictions = make([]Restriction, len(c.RestrictionData.Restrictions))
		for i, r := range c.RestrictionData.Restrictions {
			r.RoleIDs = append([]string(nil), r.RoleIDs...)
			out.RestrictionData.Restrictions[i] = r
		}
	}
	return out
}

// NormalizeTrigger is the key used for lookups and uniqueness checks.
func NormalizeTrigger(trigger string) string {
	return strings.ToLower(strings.TrimSpace(trigger))
}

type CustomCommandRepository interface {
	UpsertCustomCommand(ctx context.Context, cmd *CustomCommand) error
	ListCustomCommands(ctx context.Context) ([]*CustomCommand, error)
	DeleteCustomCommand(ctx context.Context, trigger string) error
}

// CommandRegistry is the authoritative set of custom commands as seen by the
// chat management command.
type CommandRegistry interface {
	IsTriggerTaken(ctx context.Context, trigger string) bool
	ListActive(ctx context.Context) []CustomCommand
	ListAll(ctx context.Context) []CustomCommand
	Save(ctx context.Context, cmd CustomCommand, actor string) error
	DeleteByTrigger(ctx context.Context, trigger string) error
	NotifyConfigurationChanged(ctx context.Context)
}
