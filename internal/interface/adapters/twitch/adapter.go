// Package twitchadapter connects the bot to Twitch chat over IRC.
package twitchadapter

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/adeithe/go-twitch/irc"

	"chatcmd/internal/domain"
	"chatcmd/internal/infrastructure/logging"
)

type Config struct {
	Username   string
	OAuthToken string
	Channels   []string
}

type MessageHandler func(ctx context.Context, msg domain.Message) error

type Adapter struct {
	cfg Config

	mu      sync.RWMutex
	handler MessageHandler
	conn    *irc.Conn
}

func NewAdapter(cfg Config) *Adapter {
	return &Adapter{cfg: cfg}
}

func (a *Adapter) SetHandler(h MessageHandler) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.handler = h
}

// Start blocks until ctx is cancelled.
func (a *Adapter) Start(ctx context.Context) error {
	if len(a.cfg.Channels) == 0 {
		return errors.New("twitch: no channels configured")
	}
	if a.cfg.Username == "" || a.cfg.OAuthToken == "" {
		return errors.New("twitch: empty username or oauth token")
	}

	conn := &irc.Conn{}

	if err := conn.SetLogin(a.cfg.Username, a.cfg.OAuthToken); err != nil {
		return fmt.Errorf("twitch: SetLogin: %w", err)
	}

	conn.OnMessage(func(cm irc.ChatMessage) {
		a.mu.RLock()
		handler := a.handler
		a.mu.RUnlock()
		if handler == nil {
			return
		}

		if err := handler(ctx, mapChatMessageToDomain(cm)); err != nil {
			logging.Error().Err(err).Str("channel", cm.Channel).Msg("twitch: handler failed")
		}
	})

	if err := conn.Connect(); err != nil {
		return fmt.Errorf("twitch: Connect: %w", err)
	}

	if err := conn.Join(a.cfg.Channels...); err != nil {
		conn.Close()
		return fmt.Errorf("twitch: Join: %w", err)
	}

	a.mu.Lock()
	a.conn = conn
	a.mu.Unlock()

	logging.Info().
		Str("username", a.cfg.Username).
		Strs("channels", a.cfg.Channels).
		Msg("twitch: connected")

	<-ctx.Done()

	a.mu.Lock()
	if a.conn != nil {
		a.conn.Close()
		a.conn = nil
	}
	a.mu.Unlock()

	return ctx.Err()
}

func (a *Adapter) SendMessage(_ context.Context, platform domain.Platform, channelID, text string) error {
	if platform != domain.PlatformTwitch {
		return fmt.Errorf("twitch: adapter does not support platform %s", platform)
	}

	a.mu.RLock()
	conn := a.conn
	a.mu.RUnlock()

	if conn == nil || !conn.IsConnected() {
		return errors.New("twitch: connection not initialised or closed")
	}

	logging.Debug().Str("channel", channelID).Str("text", text).Msg("twitch: say")
	return conn.Say(channelID, text)
}

// Username is the login name; viewer groups list logins, not display names.
func mapChatMessageToDomain(cm irc.ChatMessage) domain.Message {
	sender := cm.Sender
	username := sender.Username
	if username == "" {
		username = sender.DisplayName
	}

	return domain.Message{
		Platform:  domain.PlatformTwitch,
		ChannelID: cm.Channel,
		UserID:    strconv.FormatInt(sender.ID, 10),
		Username:  username,
		Text:      cm.Text,

		IsPlatformOwner: sender.IsBroadcaster,
		IsPlatformAdmin: sender.IsBroadcaster || sender.IsModerator,
		IsPlatformMod:   sender.IsModerator,
		IsPlatformVip:   sender.IsVIP,
		IsSubscriber:    sender.IsSubscriber,
	}
}
