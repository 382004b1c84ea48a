package handle_message

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatcmd/internal/domain"
	"chatcmd/internal/usecase/commands"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

// echoingChat records replies and queues them to be read back, like Kick
// does for messages posted as the broadcaster.
type echoingChat struct {
	replies []string
	echoes  []domain.Message
}

func (c *echoingChat) SendMessage(_ context.Context, platform domain.Platform, channelID, text string) error {
	c.replies = append(c.replies, text)
	c.echoes = append(c.echoes, domain.Message{
		Platform:        platform,
		ChannelID:       channelID,
		Username:        "streamer",
		Text:            text,
		IsPlatformOwner: true,
	})
	return nil
}

// drain feeds queued echoes back through uc, up to limit rounds.
func (c *echoingChat) drain(t *testing.T, uc *Interactor, limit int) {
	t.Helper()
	for i := 0; i < limit && len(c.echoes) > 0; i++ {
		next := c.echoes[0]
		c.echoes = c.echoes[1:]
		require.NoError(t, uc.Handle(context.Background(), next))
	}
}

func newTestInteractor(t *testing.T, out domain.OutgoingMessagePort, opts ...Option) *Interactor {
	t.Helper()
	mgr, err := commands.NewCustomCommandManager(context.Background(), nil)
	require.NoError(t, err)
	router := commands.NewRouter("!")
	router.Register(commands.NewManageCustomCommand(mgr, commands.NewEngine("!"), nil))
	router.SetCustomManager(mgr)
	return NewInteractor(out, router, opts...)
}

func owner(text string) domain.Message {
	return domain.Message{
		Platform:        domain.PlatformKick,
		ChannelID:       "room",
		Username:        "streamer",
		Text:            text,
		IsPlatformOwner: true,
	}
}

func TestHandleSkipsEchoedReplies(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	chat := &echoingChat{}
	uc := newTestInteractor(t, chat, WithEchoWindow(10*time.Second, clock.Now))
	ctx := context.Background()

	require.NoError(t, uc.Handle(ctx, owner("!command add hello hello there")))
	chat.drain(t, uc, 10)
	assert.Equal(t, []string{"Added command 'hello'!"}, chat.replies)

	require.NoError(t, uc.Handle(ctx, owner("well hello chat")))
	chat.drain(t, uc, 10)
	assert.Equal(t, []string{"Added command 'hello'!", "hello there"}, chat.replies)
	assert.Empty(t, chat.echoes)
}

func TestHandleEchoExpires(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	chat := &echoingChat{}
	uc := newTestInteractor(t, chat, WithEchoWindow(10*time.Second, clock.Now))
	ctx := context.Background()

	require.NoError(t, uc.Handle(ctx, owner("!command add hello hi")))
	chat.echoes = nil

	clock.now = clock.now.Add(11 * time.Second)
	require.NoError(t, uc.Handle(ctx, owner("Added command 'hello'!")))
	assert.Equal(t, []string{"Added command 'hello'!", "hi"}, chat.replies)
}

func TestHandleEchoIsPerChannel(t *testing.T) {
	chat := &echoingChat{}
	uc := newTestInteractor(t, chat)
	ctx := context.Background()

	require.NoError(t, uc.Handle(ctx, owner("!command add hello hello there")))
	chat.echoes = nil

	other := owner("hello there")
	other.ChannelID = "other-room"
	require.NoError(t, uc.Handle(ctx, other))
	assert.Equal(t, []string{"Added command 'hello'!", "hello there"}, chat.replies)
}

func TestHandleIgnoredUsers(t *testing.T) {
	chat := &echoingChat{}
	uc := newTestInteractor(t, chat, WithIgnoredUsers(" NightBot "))

	msg := owner("!command add !x y")
	msg.Username = "nightbot"
	require.NoError(t, uc.Handle(context.Background(), msg))
	assert.Empty(t, chat.replies)
}
