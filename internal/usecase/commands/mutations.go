package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"chatcmd/internal/domain"
)

type Operation string

const (
	OpAdd         Operation = "add"
	OpResponse    Operation = "response"
	OpSetCount    Operation = "setcount"
	OpDescription Operation = "description"
	OpCooldown    Operation = "cooldown"
	OpRestrict    Operation = "restrict"
	OpRemove      Operation = "remove"
	OpEnable      Operation = "enable"
	OpDisable     Operation = "disable"
)

func ParseOperation(raw string) (Operation, bool) {
	op := Operation(strings.ToLower(strings.TrimSpace(raw)))
	for _, sc := range manageSubCommands {
		if sc.Op == op {
			return op, true
		}
	}
	return "", false
}

// Snapshot is the read-only registry view a mutation is planned against.
type Snapshot struct {
	Active []domain.CustomCommand
	All    []domain.CustomCommand
	Taken  func(trigger string) bool
	// Groups resolves a custom viewer group name; nil rejects every
	// phrase outside the permission vocabulary.
	Groups func(name string) (string, bool)
}

type MutationKind int

const (
	MutationNone MutationKind = iota
	MutationSave
	MutationDelete
)

type Mutation struct {
	Kind    MutationKind
	Command domain.CustomCommand
	Trigger string
	// Refresh asks the registry to notify configuration listeners.
	Refresh bool
}

// Outcome is the planned registry change and the reply sent once it is applied.
type Outcome struct {
	Mutation Mutation
	Reply    string
}

type invocation struct {
	op        Operation
	trigger   string
	remainder string
	argc      int
	usage     string
}

type handlerFunc func(snap Snapshot, inv invocation) (Outcome, error)

// Engine plans command mutations. It never touches the registry itself.
type Engine struct {
	prefix   string
	newID    func() string
	handlers map[Operation]handlerFunc
}

type EngineOption func(*Engine)

// WithIDGenerator replaces the UUID generator used for new records, effects
// and restrictions.
func WithIDGenerator(fn func() string) EngineOption {
	return func(e *Engine) {
		if fn != nil {
			e.newID = fn
		}
	}
}

func NewEngine(prefix string, opts ...EngineOption) *Engine {
	if prefix == "" {
		prefix = "!"
	}
	e := &Engine{
		prefix: prefix,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.handlers = map[Operation]handlerFunc{
		OpAdd:         e.add,
		OpResponse:    e.response,
		OpSetCount:    e.setCount,
		OpDescription: e.description,
		OpCooldown:    e.cooldown,
		OpRestrict:    e.restrict,
		OpRemove:      e.remove,
		OpEnable:      e.toggle,
		OpDisable:     e.toggle,
	}
	return e
}

// Usage returns the full usage line of a sub-command.
func (e *Engine) Usage(op Operation) string {
	return e.prefix + manageCommandName + " " + SubCommandUsage(op)
}

// Plan validates args (args[0] is the sub-command) and returns the mutation
// to apply. Any returned error is an *Error and no mutation must be applied.
func (e *Engine) Plan(snap Snapshot, op Operation, args []string) (Outcome, error) {
	usage := e.Usage(op)
	handler, ok := e.handlers[op]
	if !ok {
		return Outcome{}, usageError(usage)
	}
	if len(args) < 2 {
		return Outcome{}, usageError(usage)
	}

	parsed := ParseTrigger(args, 1)
	if parsed.Trigger == "" {
		return Outcome{}, usageError(usage)
	}

	return handler(snap, invocation{
		op:        op,
		trigger:   parsed.Trigger,
		remainder: parsed.Remainder,
		argc:      len(args),
		usage:     usage,
	})
}

func (e *Engine) add(snap Snapshot, inv invocation) (Outcome, error) {
	if inv.argc < 3 || inv.remainder == "" {
		return Outcome{}, usageError(inv.usage)
	}
	if snap.Taken != nil && snap.Taken(inv.trigger) {
		return Outcome{}, &Error{
			Kind:  KindConflict,
			Reply: fmt.Sprintf("The trigger '%s' is already in use, please try again.", inv.trigger),
		}
	}

	cmd := domain.CustomCommand{
		ID:               e.newID(),
		Trigger:          inv.trigger,
		Active:           true,
		ScanWholeMessage: !strings.HasPrefix(inv.trigger, e.prefix),
		Effects: domain.EffectList{
			ID: e.newID(),
			List: []domain.Effect{{
				ID:      e.newID(),
				Type:    domain.EffectTypeChatReply,
				Message: inv.remainder,
			}},
		},
		RestrictionData: domain.RestrictionData{Restrictions: []domain.Restriction{}},
	}

	return Outcome{
		Mutation: Mutation{Kind: MutationSave, Command: cmd, Trigger: cmd.Trigger},
		Reply:    fmt.Sprintf("Added command '%s'!", inv.trigger),
	}, nil
}

func (e *Engine) response(snap Snapshot, inv invocation) (Outcome, error) {
	if inv.argc < 3 || inv.remainder == "" {
		return Outcome{}, usageError(inv.usage)
	}
	cmd, ok := findCommand(snap.Active, inv.trigger)
	if !ok {
		return Outcome{}, notFoundError(inv.trigger)
	}

	chatIdx := -1
	chatCount := 0
	for i, effect := range cmd.Effects.List {
		if effect.Type == domain.EffectTypeChatReply {
			chatCount++
			chatIdx = i
		}
	}

	switch {
	case chatCount > 1:
		return Outcome{}, &Error{
			Kind:  KindConflict,
			Reply: fmt.Sprintf("The command '%s' has more than one Chat Effect, preventing the response from being editable via chat.", inv.trigger),
		}
	case chatCount == 1:
		cmd.Effects.List[chatIdx].Message = inv.remainder
	default:
		if cmd.Effects.ID == "" {
			cmd.Effects.ID = e.newID()
		}
		cmd.Effects.List = append(cmd.Effects.List, domain.Effect{
			ID:      e.newID(),
			Type:    domain.EffectTypeChatReply,
			Message: inv.remainder,
		})
	}

	return saveOutcome(cmd, fmt.Sprintf("Updated '%s' with response: %s", inv.trigger, inv.remainder)), nil
}

func (e *Engine) setCount(snap Snapshot, inv invocation) (Outcome, error) {
	countArg := strings.TrimSpace(inv.remainder)
	if countArg == "" {
		return Outcome{}, usageError(inv.usage)
	}
	count, err := strconv.Atoi(countArg)
	if err != nil {
		return Outcome{}, invalidArgsError(inv.usage, err)
	}

	cmd, ok := findCommand(snap.Active, inv.trigger)
	if !ok {
		return Outcome{}, notFoundError(inv.trigger)
	}

	cmd.Count = max(count, 0)

	return saveOutcome(cmd, fmt.Sprintf("Updated usage count for '%s' to: %d", inv.trigger, cmd.Count)), nil
}

func (e *Engine) description(snap Snapshot, inv invocation) (Outcome, error) {
	cmd, ok := findCommand(snap.Active, inv.trigger)
	if !ok {
		return Outcome{}, notFoundError(inv.trigger)
	}
	if inv.remainder == "" {
		return Outcome{}, &Error{
			Kind:  KindUsage,
			Reply: fmt.Sprintf("Please provide a description for '%s'!", inv.trigger),
		}
	}

	cmd.Description = inv.remainder

	return saveOutcome(cmd, fmt.Sprintf("Updated description for '%s' to: %s", inv.trigger, inv.remainder)), nil
}

func (e *Engine) cooldown(snap Snapshot, inv invocation) (Outcome, error) {
	fields := strings.Fields(inv.remainder)
	if inv.argc < 3 || len(fields) != 2 {
		return Outcome{}, usageError(inv.usage)
	}
	global, err := strconv.Atoi(fields[0])
	if err != nil {
		return Outcome{}, invalidArgsError(inv.usage, err)
	}
	user, err := strconv.Atoi(fields[1])
	if err != nil {
		return Outcome{}, invalidArgsError(inv.usage, err)
	}

	cmd, ok := findCommand(snap.Active, inv.trigger)
	if !ok {
		return Outcome{}, notFoundError(inv.trigger)
	}

	cmd.Cooldown = domain.Cooldown{
		User:   max(user, 0),
		Global: max(global, 0),
	}

	return saveOutcome(cmd, fmt.Sprintf("Updated '%s' with cooldowns: %ds (user), %ds (global)",
		inv.trigger, cmd.Cooldown.User, cmd.Cooldown.Global)), nil
}

func (e *Engine) restrict(snap Snapshot, inv invocation) (Outcome, error) {
	if inv.argc < 3 || inv.remainder == "" {
		return Outcome{}, usageError(inv.usage)
	}
	cmd, ok := findCommand(snap.Active, inv.trigger)
	if !ok {
		return Outcome{}, notFoundError(inv.trigger)
	}

	roleIDs, ok := NormalizePermission(inv.remainder)
	if !ok && snap.Groups != nil {
		if group, found := snap.Groups(strings.TrimSpace(inv.remainder)); found {
			roleIDs, ok = []string{group}, true
		}
	}
	if !ok {
		return Outcome{}, &Error{
			Kind:  KindValidation,
			Reply: "Please provide a valid group name: All, Sub, Mod, Streamer, or a custom group's name",
		}
	}

	restrictions := []domain.Restriction{}
	if len(roleIDs) > 0 {
		restrictions = append(restrictions, domain.Restriction{
			ID:      e.newID(),
			Type:    domain.RestrictionTypeRoles,
			Mode:    domain.RestrictionModeRoles,
			RoleIDs: roleIDs,
		})
	}
	cmd.RestrictionData = domain.RestrictionData{Restrictions: restrictions}

	return saveOutcome(cmd, fmt.Sprintf("Updated '%s' restrictions to: %s", inv.trigger, inv.remainder)), nil
}

func (e *Engine) remove(snap Snapshot, inv invocation) (Outcome, error) {
	cmd, ok := findCommand(snap.All, inv.trigger)
	if !ok {
		return Outcome{}, notFoundError(inv.trigger)
	}

	return Outcome{
		Mutation: Mutation{Kind: MutationDelete, Trigger: cmd.Trigger},
		Reply:    fmt.Sprintf("Successfully removed command '%s'.", inv.trigger),
	}, nil
}

func (e *Engine) toggle(snap Snapshot, inv invocation) (Outcome, error) {
	cmd, ok := findCommand(snap.All, inv.trigger)
	if !ok {
		return Outcome{}, notFoundError(inv.trigger)
	}

	verb := string(inv.op) + "d"
	active := inv.op == OpEnable
	if cmd.Active == active {
		return Outcome{Reply: fmt.Sprintf("%s is already %s.", inv.trigger, verb)}, nil
	}

	cmd.Active = active

	out := saveOutcome(cmd, fmt.Sprintf(`%s%s "%s"`, strings.ToUpper(verb[:1]), verb[1:], inv.trigger))
	out.Mutation.Refresh = true
	return out, nil
}

// findCommand returns a private copy of the command matching trigger.
func findCommand(list []domain.CustomCommand, trigger string) (domain.CustomCommand, bool) {
	key := domain.NormalizeTrigger(trigger)
	for _, cmd := range list {
		if domain.NormalizeTrigger(cmd.Trigger) == key {
			return cmd.Clone(), true
		}
	}
	return domain.CustomCommand{}, false
}

func saveOutcome(cmd domain.CustomCommand, reply string) Outcome {
	return Outcome{
		Mutation: Mutation{Kind: MutationSave, Command: cmd, Trigger: cmd.Trigger},
		Reply:    reply,
	}
}

func invalidArgsError(usage string, err error) *Error {
	return &Error{Kind: KindValidation, Reply: "Invalid command. Usage: " + usage, Err: err}
}
