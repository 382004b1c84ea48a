package outs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatcmd/internal/domain"
)

type recordingSender struct {
	sent []string
	err  error
}

func (r *recordingSender) SendMessage(_ context.Context, _ domain.Platform, channelID, text string) error {
	r.sent = append(r.sent, channelID+":"+text)
	return r.err
}

func TestMultiSenderRoutesByPlatform(t *testing.T) {
	ctx := context.Background()
	twitch := &recordingSender{}
	kick := &recordingSender{}

	m := NewMultiSender()
	m.Register(domain.PlatformTwitch, twitch)
	m.Register(domain.PlatformKick, kick)
	m.Register(domain.PlatformConsole, nil)

	require.NoError(t, m.SendMessage(ctx, domain.PlatformTwitch, "#a", "hi"))
	assert.Equal(t, []string{"#a:hi"}, twitch.sent)
	assert.Empty(t, kick.sent)
	assert.Len(t, m.Platforms(), 2)

	assert.Error(t, m.SendMessage(ctx, domain.PlatformConsole, "c", "hi"))

	m.Unregister(domain.PlatformTwitch)
	assert.Error(t, m.SendMessage(ctx, domain.PlatformTwitch, "#a", "again"))
}

func TestMultiSenderPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	m := NewMultiSender()
	m.Register(domain.PlatformKick, &recordingSender{err: boom})

	err := m.SendMessage(context.Background(), domain.PlatformKick, "1", "hi")
	assert.ErrorIs(t, err, boom)

	var nilSender *MultiSender
	assert.Error(t, nilSender.SendMessage(context.Background(), domain.PlatformKick, "1", "hi"))
}
