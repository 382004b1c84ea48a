package commands

import (
	"context"
	"fmt"

	"chatcmd/internal/domain"
	"chatcmd/internal/infrastructure/logging"
	"chatcmd/internal/infrastructure/metrics"
)

// ManageCustomCommand is the "command" chat command: "!command <op> <trigger> ...".
type ManageCustomCommand struct {
	registry domain.CommandRegistry
	engine   *Engine
	groups   domain.GroupResolver
}

func NewManageCustomCommand(registry domain.CommandRegistry, engine *Engine, groups domain.GroupResolver) *ManageCustomCommand {
	if engine == nil {
		engine = NewEngine("!")
	}
	return &ManageCustomCommand{
		registry: registry,
		engine:   engine,
		groups:   groups,
	}
}

func (c *ManageCustomCommand) Name() string {
	return manageCommandName
}

func (c *ManageCustomCommand) Aliases() []string {
	return []string{}
}

func (c *ManageCustomCommand) SupportsPlatform(domain.Platform) bool {
	return true
}

func (c *ManageCustomCommand) Handle(ctx context.Context, cmdCtx *Context) error {
	if c.registry == nil {
		return nil
	}
	if !cmdCtx.Message.CanManageCommands() {
		return nil
	}

	reply := c.Dispatch(ctx, cmdCtx.Args, cmdCtx.Message.Username)
	if reply == "" {
		return nil
	}
	return cmdCtx.Out.SendMessage(ctx, cmdCtx.Message.Platform, cmdCtx.Message.ChannelID, reply)
}

// Dispatch runs one management invocation and returns the single reply for
// it. args[0] is the sub-command; actor is recorded on saved commands.
func (c *ManageCustomCommand) Dispatch(ctx context.Context, args []string, actor string) string {
	var op Operation
	if len(args) > 0 {
		parsed, ok := ParseOperation(args[0])
		if !ok {
			metrics.ObserveMutation("unknown", metrics.ResultRejected)
			return usageError(c.engine.Usage("")).Reply
		}
		op = parsed
	}

	outcome, err := c.engine.Plan(c.snapshot(ctx), op, args)
	if err != nil {
		logging.Debug().Err(err).Str("op", string(op)).Str("actor", actor).Msg("commands: rejected")
		metrics.ObserveMutation(string(op), metrics.ResultRejected)
		return replyFor(err)
	}

	if err := c.apply(ctx, outcome.Mutation, actor); err != nil {
		logging.Error().Err(err).
			Str("op", string(op)).
			Str("trigger", outcome.Mutation.Trigger).
			Str("actor", actor).
			Msg("commands: unable to persist mutation")
		metrics.ObserveMutation(string(op), metrics.ResultFailed)
		return replyFor(err)
	}

	if outcome.Mutation.Kind != MutationNone {
		logging.Info().
			Str("op", string(op)).
			Str("trigger", outcome.Mutation.Trigger).
			Str("actor", actor).
			Msg("commands: custom command updated")
	}
	metrics.ObserveMutation(string(op), metrics.ResultOK)
	return outcome.Reply
}

func (c *ManageCustomCommand) snapshot(ctx context.Context) Snapshot {
	snap := Snapshot{
		Active: c.registry.ListActive(ctx),
		All:    c.registry.ListAll(ctx),
		Taken: func(trigger string) bool {
			return c.registry.IsTriggerTaken(ctx, trigger)
		},
	}
	if c.groups != nil {
		snap.Groups = func(name string) (string, bool) {
			return c.groups.FindGroup(ctx, name)
		}
	}
	return snap
}

func (c *ManageCustomCommand) apply(ctx context.Context, mut Mutation, actor string) error {
	var err error
	switch mut.Kind {
	case MutationSave:
		err = c.registry.Save(ctx, mut.Command, actor)
	case MutationDelete:
		err = c.registry.DeleteByTrigger(ctx, mut.Trigger)
	}
	if err != nil {
		return &Error{
			Kind:  KindStorage,
			Reply: fmt.Sprintf("Unable to save command '%s', please try again.", mut.Trigger),
			Err:   err,
		}
	}
	if mut.Refresh {
		c.registry.NotifyConfigurationChanged(ctx)
	}
	return nil
}

func replyFor(err error) string {
	if cmdErr, ok := err.(*Error); ok {
		return cmdErr.Reply
	}
	return "Something went wrong, please try again."
}
