package commands

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"chatcmd/internal/domain"
	"chatcmd/internal/infrastructure/logging"
	"chatcmd/internal/infrastructure/metrics"
)

// SystemActor is recorded as editor for changes not made from chat.
const SystemActor = "system"

// CustomCommandManager is the command registry: an in-memory cache of every
// custom command with write-through to the repository.
type CustomCommandManager struct {
	repo domain.CustomCommandRepository

	mu         sync.RWMutex
	commands   map[string]domain.CustomCommand
	isReserved func(string) bool
	groups     domain.GroupResolver
	onChange   func(ctx context.Context)

	now       func() time.Time
	cooldowns *cooldownTracker
}

type ManagerOption func(*CustomCommandManager)

func WithClock(now func() time.Time) ManagerOption {
	return func(m *CustomCommandManager) {
		if now != nil {
			m.now = now
		}
	}
}

func NewCustomCommandManager(ctx context.Context, repo domain.CustomCommandRepository, opts ...ManagerOption) (*CustomCommandManager, error) {
	mgr := &CustomCommandManager{
		repo:     repo,
		commands: make(map[string]domain.CustomCommand),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(mgr)
	}
	mgr.cooldowns = newCooldownTracker(mgr.now)

	if repo == nil {
		return mgr, nil
	}

	list, err := repo.ListCustomCommands(ctx)
	if err != nil {
		return nil, fmt.Errorf("custom manager: list: %w", err)
	}

	for _, cmd := range list {
		if cmd == nil {
			continue
		}
		key := domain.NormalizeTrigger(cmd.Trigger)
		if key == "" {
			continue
		}
		mgr.commands[key] = cmd.Clone()
	}

	return mgr, nil
}

func (m *CustomCommandManager) SetReservedChecker(fn func(string) bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.isReserved = fn
}

func (m *CustomCommandManager) SetGroupResolver(resolver domain.GroupResolver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.groups = resolver
}

// SetChangeNotifier registers the hook run by NotifyConfigurationChanged.
func (m *CustomCommandManager) SetChangeNotifier(fn func(ctx context.Context)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = fn
}

func (m *CustomCommandManager) IsTriggerTaken(_ context.Context, trigger string) bool {
	key := domain.NormalizeTrigger(trigger)
	if key == "" {
		return false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.commands[key]; ok {
		return true
	}
	return m.isReserved != nil && m.isReserved(key)
}

func (m *CustomCommandManager) Find(trigger string) (domain.CustomCommand, bool) {
	key := domain.NormalizeTrigger(trigger)

	m.mu.RLock()
	defer m.mu.RUnlock()

	cmd, ok := m.commands[key]
	if !ok {
		return domain.CustomCommand{}, false
	}
	return cmd.Clone(), true
}

func (m *CustomCommandManager) ListAll(_ context.Context) []domain.CustomCommand {
	return m.list(false)
}

func (m *CustomCommandManager) ListActive(_ context.Context) []domain.CustomCommand {
	return m.list(true)
}

func (m *CustomCommandManager) list(activeOnly bool) []domain.CustomCommand {
	if m == nil {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.CustomCommand, 0, len(m.commands))
	for _, cmd := range m.commands {
		if activeOnly && !cmd.Active {
			continue
		}
		out = append(out, cmd.Clone())
	}
	slices.SortFunc(out, func(a, b domain.CustomCommand) int {
		return strings.Compare(domain.NormalizeTrigger(a.Trigger), domain.NormalizeTrigger(b.Trigger))
	})
	return out
}

// Save creates or replaces the command stored under cmd.Trigger, attributing
// the change to actor.
func (m *CustomCommandManager) Save(ctx context.Context, cmd domain.CustomCommand, actor string) error {
	if m == nil {
		return fmt.Errorf("custom manager: nil")
	}
	key := domain.NormalizeTrigger(cmd.Trigger)
	if key == "" {
		return fmt.Errorf("custom manager: empty trigger")
	}

	record := cmd.Clone()
	record.Count = max(record.Count, 0)
	record.Cooldown.User = max(record.Cooldown.User, 0)
	record.Cooldown.Global = max(record.Cooldown.Global, 0)

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UTC()
	if existing, ok := m.commands[key]; ok {
		record.CreatedBy = existing.CreatedBy
		record.CreatedAt = existing.CreatedAt
		if record.ID == "" {
			record.ID = existing.ID
		}
	} else {
		record.CreatedBy = actor
		record.CreatedAt = now
	}
	record.LastEditedBy = actor
	record.LastEditedAt = now

	if err := m.persistLocked(ctx, &record); err != nil {
		return err
	}

	m.commands[key] = record
	return nil
}

func (m *CustomCommandManager) DeleteByTrigger(ctx context.Context, trigger string) error {
	if m == nil {
		return fmt.Errorf("custom manager: nil")
	}
	key := domain.NormalizeTrigger(trigger)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.commands[key]; !ok {
		return nil
	}

	if m.repo != nil {
		if err := m.repo.DeleteCustomCommand(ctx, key); err != nil {
			return err
		}
	}

	delete(m.commands, key)
	m.cooldowns.forget(key)
	return nil
}

func (m *CustomCommandManager) NotifyConfigurationChanged(ctx context.Context) {
	m.mu.RLock()
	fn := m.onChange
	m.mu.RUnlock()
	if fn != nil {
		fn(ctx)
	}
}

func (m *CustomCommandManager) persistLocked(ctx context.Context, record *domain.CustomCommand) error {
	if m.repo == nil {
		return nil
	}
	copyCmd := record.Clone()
	return m.repo.UpsertCustomCommand(ctx, &copyCmd)
}

// Match finds the active command fired by text. Prefix triggers must open
// the message as whole words, the longest one winning; scan-whole-message
// triggers match anywhere.
func (m *CustomCommandManager) Match(text string) (domain.CustomCommand, bool) {
	normalized := strings.ToLower(strings.Join(strings.Fields(text), " "))
	if normalized == "" {
		return domain.CustomCommand{}, false
	}

	active := m.list(true)

	var best domain.CustomCommand
	bestLen := 0
	for _, cmd := range active {
		if cmd.ScanWholeMessage {
			continue
		}
		key := domain.NormalizeTrigger(cmd.Trigger)
		if key == "" || len(key) <= bestLen {
			continue
		}
		if normalized == key || strings.HasPrefix(normalized, key+" ") {
			best, bestLen = cmd, len(key)
		}
	}
	if bestLen > 0 {
		return best, true
	}

	for _, cmd := range active {
		key := domain.NormalizeTrigger(cmd.Trigger)
		if cmd.ScanWholeMessage && key != "" && strings.Contains(normalized, key) {
			return cmd, true
		}
	}
	return domain.CustomCommand{}, false
}

// TryHandle fires the custom command matching msg, if any. handled is true
// when a command matched, even if restrictions or cooldowns suppressed it.
func (m *CustomCommandManager) TryHandle(ctx context.Context, msg domain.Message, out domain.OutgoingMessagePort) (bool, error) {
	if m == nil {
		return false, nil
	}
	cmd, ok := m.Match(msg.Text)
	if !ok {
		return false, nil
	}
	if len(cmd.ChatReplyEffects()) == 0 {
		return false, nil
	}

	key := domain.NormalizeTrigger(cmd.Trigger)
	if !m.isAllowed(ctx, cmd, msg) {
		metrics.ObserveFire("restricted")
		return true, nil
	}
	if !m.cooldowns.tryAcquire(key, msg.UserID, cmd.Cooldown) {
		metrics.ObserveFire("cooldown")
		return true, nil
	}

	count := m.incrementCount(ctx, key)
	metrics.ObserveFire("sent")

	vars := strings.NewReplacer("$user", msg.Username, "$count", strconv.Itoa(count))
	for _, effect := range cmd.ChatReplyEffects() {
		text := strings.TrimSpace(vars.Replace(effect.Message))
		if text == "" {
			continue
		}
		if err := out.SendMessage(ctx, msg.Platform, msg.ChannelID, text); err != nil {
			return true, err
		}
	}
	return true, nil
}

// incrementCount bumps the usage counter without touching edit attribution.
func (m *CustomCommandManager) incrementCount(ctx context.Context, key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.commands[key]
	if !ok {
		return 0
	}
	record.Count++
	if err := m.persistLocked(ctx, &record); err != nil {
		logging.Warn().Err(err).Str("trigger", record.Trigger).Msg("custom manager: persist usage count")
	}
	m.commands[key] = record
	return record.Count
}

func (m *CustomCommandManager) isAllowed(ctx context.Context, cmd domain.CustomCommand, msg domain.Message) bool {
	roles := cmd.RoleIDs()
	if len(roles) == 0 {
		return true
	}

	m.mu.RLock()
	groups := m.groups
	m.mu.RUnlock()

	for _, role := range roles {
		switch role {
		case domain.RoleBroadcaster:
			if msg.IsPlatformOwner {
				return true
			}
		case domain.RoleModerator:
			if msg.IsPlatformMod || msg.IsPlatformAdmin || msg.IsPlatformOwner {
				return true
			}
		case domain.RoleVIP:
			if msg.IsPlatformVip || msg.IsPlatformOwner {
				return true
			}
		case domain.RoleSubscriber:
			if msg.IsSubscriber || msg.IsPlatformOwner {
				return true
			}
		default:
			if groups != nil && groups.IsMember(ctx, role, msg.Username) {
				return true
			}
		}
	}
	return false
}

var _ domain.CommandRegistry = (*CustomCommandManager)(nil)
