package seed

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatcmd/internal/domain"
)

type fakeRegistry struct {
	commands map[string]domain.CustomCommand
	reserved map[string]bool
	notified int
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		commands: make(map[string]domain.CustomCommand),
		reserved: map[string]bool{"!command": true},
	}
}

func (r *fakeRegistry) IsTriggerTaken(_ context.Context, trigger string) bool {
	key := domain.NormalizeTrigger(trigger)
	_, ok := r.commands[key]
	return ok || r.reserved[key]
}

func (r *fakeRegistry) ListActive(ctx context.Context) []domain.CustomCommand {
	var out []domain.CustomCommand
	for _, c := range r.ListAll(ctx) {
		if c.Active {
			out = append(out, c)
		}
	}
	return out
}

func (r *fakeRegistry) ListAll(context.Context) []domain.CustomCommand {
	out := make([]domain.CustomCommand, 0, len(r.commands))
	for _, c := range r.commands {
		out = append(out, c)
	}
	return out
}

func (r *fakeRegistry) Save(_ context.Context, cmd domain.CustomCommand, _ string) error {
	r.commands[domain.NormalizeTrigger(cmd.Trigger)] = cmd
	return nil
}

func (r *fakeRegistry) DeleteByTrigger(_ context.Context, trigger string) error {
	delete(r.commands, domain.NormalizeTrigger(trigger))
	return nil
}

func (r *fakeRegistry) NotifyConfigurationChanged(context.Context) { r.notified++ }

type fakeGroups struct {
	saved []domain.ViewerGroup
}

func (g *fakeGroups) UpsertViewerGroup(_ context.Context, group domain.ViewerGroup) error {
	g.saved = append(g.saved, group)
	return nil
}

func (g *fakeGroups) ListViewerGroups(context.Context) ([]domain.ViewerGroup, error) {
	return g.saved, nil
}

func (g *fakeGroups) DeleteViewerGroup(context.Context, string) error { return nil }

const sample = `
commands:
  - trigger: "!hello"
    response: "Hi $user!"
    cooldown: {user: 5, global: 10}
    roles: [mod]
  - trigger: lurk
    response: "enjoy the lurk"
    active: false
  - trigger: "!command"
    response: "nope"
groups:
  - name: regulars
    users: [alice, bob]
`

func TestParse(t *testing.T) {
	file, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)
	require.Len(t, file.Commands, 3)
	require.Len(t, file.Groups, 1)

	assert.Equal(t, domain.Cooldown{User: 5, Global: 10}, file.Commands[0].Cooldown)
	require.NotNil(t, file.Commands[1].Active)
	assert.False(t, *file.Commands[1].Active)
	assert.Equal(t, []string{"alice", "bob"}, file.Groups[0].Users)
}

func TestParseRejectsBadInput(t *testing.T) {
	_, err := Parse(strings.NewReader("commands:\n  - response: hi\n"))
	assert.Error(t, err)

	_, err = Parse(strings.NewReader("unknown: true\n"))
	assert.Error(t, err)

	file, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, file.Commands)
}

func TestApplyCreatesCommandsAndGroups(t *testing.T) {
	ctx := context.Background()
	file, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)

	registry := newFakeRegistry()
	groups := &fakeGroups{}

	res, err := Apply(ctx, file, registry, groups, "!", "seed")
	require.NoError(t, err)
	assert.Equal(t, Result{Created: 2, Groups: 1}, res)
	assert.Equal(t, 1, registry.notified)

	hello := registry.commands["!hello"]
	assert.True(t, hello.Active)
	assert.False(t, hello.ScanWholeMessage)
	require.Len(t, hello.ChatReplyEffects(), 1)
	assert.Equal(t, "Hi $user!", hello.ChatReplyEffects()[0].Message)
	assert.Equal(t, []string{"mod"}, hello.RoleIDs())

	lurk := registry.commands["lurk"]
	assert.False(t, lurk.Active)
	assert.True(t, lurk.ScanWholeMessage)
	assert.NotNil(t, lurk.RestrictionData.Restrictions)
	assert.Empty(t, lurk.RestrictionData.Restrictions)

	_, reserved := registry.commands["!command"]
	assert.False(t, reserved)
}

func TestApplyUpdatesExistingKeepingIDs(t *testing.T) {
	ctx := context.Background()
	registry := newFakeRegistry()
	registry.commands["!hello"] = domain.CustomCommand{
		ID:      "keep-me",
		Trigger: "!hello",
		Active:  true,
		Effects: domain.EffectList{ID: "list", List: []domain.Effect{
			{ID: "eff", Type: domain.EffectTypeChatReply, Message: "old"},
		}},
		Count: 7,
	}

	file := &File{Commands: []Command{{Trigger: "!HELLO", Response: "new"}}}
	res, err := Apply(ctx, file, registry, nil, "!", "seed")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Updated)

	got := registry.commands["!hello"]
	assert.Equal(t, "keep-me", got.ID)
	assert.Equal(t, 7, got.Count)
	require.Len(t, got.Effects.List, 1)
	assert.Equal(t, "eff", got.Effects.List[0].ID)
	assert.Equal(t, "new", got.Effects.List[0].Message)
}

func TestSeedRolesFollowRestrictVocabulary(t *testing.T) {
	tests := []struct {
		name   string
		phrase []string
		roles  []string
	}{
		{name: "streamer", phrase: []string{"Streamer"}, roles: []string{domain.RoleBroadcaster}},
		{name: "mixed", phrase: []string{" SUB ", "vip", "Regulars"}, roles: []string{domain.RoleSubscriber, domain.RoleVIP, "Regulars"}},
		{name: "everyone lifts restriction", phrase: []string{"mod", "everyone"}, roles: nil},
		{name: "duplicates", phrase: []string{"mod", "MOD", "regulars", "Regulars"}, roles: []string{domain.RoleModerator, "regulars"}},
		{name: "blank", phrase: []string{" "}, roles: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := seedRoles(tt.phrase)
			if len(tt.roles) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.roles, got)
		})
	}
}

func TestApplyNormalizesRoles(t *testing.T) {
	file, err := Parse(strings.NewReader(`
commands:
  - trigger: "!owner"
    response: "boss only"
    roles: [streamer]
  - trigger: "!open"
    response: "anyone"
    roles: [everyone]
`))
	require.NoError(t, err)

	reg := newFakeRegistry()
	_, err = Apply(context.Background(), file, reg, nil, "!", "system")
	require.NoError(t, err)

	assert.Equal(t, []string{domain.RoleBroadcaster}, reg.commands["!owner"].RoleIDs())
	assert.Empty(t, reg.commands["!open"].RoleIDs())
	assert.NotNil(t, reg.commands["!open"].RestrictionData.Restrictions)
}
