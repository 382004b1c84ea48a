package runtime

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatcmd/internal/app/events"
	"chatcmd/internal/infrastructure/config"
	"chatcmd/internal/infrastructure/logging"
	consoleadapter "chatcmd/internal/interface/adapters/console"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		CommandPrefix: "!",
		DatabasePath:  filepath.Join(t.TempDir(), "chatcmd.db"),
	}
}

func runConsole(t *testing.T, cfg *config.Config, script string) string {
	t.Helper()
	var out bytes.Buffer
	console := consoleadapter.NewAdapter(strings.NewReader(script), &out, "streamer")

	run, err := Start(context.Background(), Options{
		Config:        cfg,
		Console:       console,
		SkipPlatforms: true,
		SkipHTTP:      true,
	})
	require.NoError(t, err)

	require.NoError(t, console.Start(context.Background()))
	require.NoError(t, run.Stop())
	return out.String()
}

func TestConsoleSessionManagesAndFiresCommands(t *testing.T) {
	cfg := testConfig(t)

	script := strings.Join([]string{
		`!command add "!so cool" Go follow $user ($count)`,
		`!so cool`,
		`!command disable "!so cool"`,
		`!so cool`,
		`!command add !ping nope`,
		`!ping`,
	}, "\n")

	got := runConsole(t, cfg, script)

	assert.Equal(t, strings.Join([]string{
		"< Added command '!so cool'!",
		"< Go follow streamer (1)",
		`< Disabled "!so cool"`,
		"< The trigger '!ping' is already in use, please try again.",
		"< pong from console",
		"",
	}, "\n"), got)
}

func TestCommandsSurviveRestart(t *testing.T) {
	cfg := testConfig(t)

	runConsole(t, cfg, "!command add !hi hello\n!command setcount !hi 41\n")
	got := runConsole(t, cfg, "!hi\n!hi\n")

	assert.Equal(t, "< hello\n< hello\n", got)

	run, err := Start(context.Background(), Options{Config: cfg, SkipPlatforms: true, SkipHTTP: true})
	require.NoError(t, err)
	defer run.Stop()

	list := run.CommandService().List(context.Background())
	var count int
	for _, dto := range list {
		if dto.Trigger == "!hi" {
			count = dto.Count
		}
	}
	assert.Equal(t, 43, count)
}

func TestImportSeedsGroupsAndCommands(t *testing.T) {
	cfg := testConfig(t)
	seedPath := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(seedPath, []byte(`
commands:
  - trigger: "!vipsonly"
    response: "welcome in"
    roles: [regulars]
groups:
  - name: Regulars
    users: [streamer]
`), 0o644))

	res, err := Import(context.Background(), cfg, seedPath)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.Groups)

	got := runConsole(t, cfg, "!vipsonly\n!command restrict !vipsonly strangers\n!command restrict !vipsonly regulars\n")
	assert.Equal(t, strings.Join([]string{
		"< welcome in",
		"< Please provide a valid group name: All, Sub, Mod, Streamer, or a custom group's name",
		"< Updated '!vipsonly' restrictions to: regulars",
		"",
	}, "\n"), got)
}

func TestToggleNotifiesBus(t *testing.T) {
	cfg := testConfig(t)
	run, err := Start(context.Background(), Options{Config: cfg, SkipPlatforms: true, SkipHTTP: true})
	require.NoError(t, err)
	defer run.Stop()

	changes, unsubscribe := run.Bus().Subscribe(events.TopicCommandsChanged)
	defer unsubscribe()

	var out bytes.Buffer
	console := consoleadapter.NewAdapter(strings.NewReader("!command add !hi hello\n!command disable !hi\n"), &out, "streamer")
	run.platform.AddConsole(console)
	require.NoError(t, console.Start(context.Background()))

	select {
	case payload := <-changes:
		dto, ok := payload.(events.CommandsChangedDTO)
		require.True(t, ok)
		assert.NotEmpty(t, dto.Reason)
	default:
		t.Fatal("expected a commands:changed event after disable")
	}
	select {
	case <-changes:
		t.Fatal("only enable/disable publish a configuration change")
	default:
	}
}

func TestStartWarnsAboutMissingTwitchCredentials(t *testing.T) {
	var logs bytes.Buffer
	logging.Init(logging.Config{Level: logging.InfoLevel, Output: &logs})
	t.Cleanup(func() { logging.Init(logging.DefaultConfig()) })

	run, err := Start(context.Background(), Options{Config: testConfig(t), SkipHTTP: true})
	require.NoError(t, err)
	require.NoError(t, run.Stop())

	assert.Contains(t, logs.String(), "twitch credentials not set")
}

func TestIgnoredUsersAreNotHandled(t *testing.T) {
	cfg := testConfig(t)
	cfg.IgnoreUsers = []string{"Streamer"}

	got := runConsole(t, cfg, "!command add !hi hello\n!hi\n")
	assert.Empty(t, got)
}
