// Package kickadapter connects the bot to a Kick chatroom.
package kickadapter

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	kicksdk "github.com/glichtv/kick-sdk"
	kickchatwrapper "github.com/johanvandegriff/kick-chat-wrapper"

	"chatcmd/internal/domain"
	"chatcmd/internal/infrastructure/logging"
)

type Config struct {
	AccessToken string

	BroadcasterUserID int

	// ChatroomID differs from the broadcaster user id; it is the "chatroom.id"
	// field of the channel API.
	ChatroomID int
}

type MessageHandler func(ctx context.Context, msg domain.Message) error

type Adapter struct {
	cfg Config

	mu      sync.RWMutex
	handler MessageHandler
	sdk     *kicksdk.Client
	ws      *kickchatwrapper.Client
}

func NewAdapter(cfg Config) *Adapter {
	return &Adapter{cfg: cfg}
}

func (a *Adapter) SetHandler(h MessageHandler) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.handler = h
}

func (a *Adapter) validate() error {
	if a.cfg.AccessToken == "" {
		return errors.New("kick: empty access token")
	}
	if a.cfg.ChatroomID == 0 {
		return errors.New("kick: chatroom id not configured")
	}
	if a.cfg.BroadcasterUserID == 0 {
		return errors.New("kick: broadcaster user id not configured")
	}
	return nil
}

// Start blocks until ctx is cancelled.
func (a *Adapter) Start(ctx context.Context) error {
	if err := a.validate(); err != nil {
		return err
	}

	sdkClient := kicksdk.NewClient(
		kicksdk.WithAccessTokens(kicksdk.AccessTokens{
			UserAccessToken: a.cfg.AccessToken,
		}),
	)

	wsClient, err := kickchatwrapper.NewClient()
	if err != nil {
		return fmt.Errorf("kick: creating ws client: %w", err)
	}

	if err := wsClient.JoinChannelByID(a.cfg.ChatroomID); err != nil {
		return fmt.Errorf("kick: JoinChannelByID: %w", err)
	}

	msgChan := wsClient.ListenForMessages()

	a.mu.Lock()
	a.sdk = sdkClient
	a.ws = wsClient
	a.mu.Unlock()

	logging.Info().
		Int("chatroom_id", a.cfg.ChatroomID).
		Int("broadcaster_user_id", a.cfg.BroadcasterUserID).
		Msg("kick: connected")

	go a.readLoop(ctx, msgChan)

	<-ctx.Done()

	a.mu.Lock()
	if a.ws != nil {
		a.ws.Close()
		a.ws = nil
	}
	a.mu.Unlock()

	return ctx.Err()
}

func (a *Adapter) readLoop(ctx context.Context, msgChan <-chan kickchatwrapper.ChatMessage) {
	for {
		select {
		case m, ok := <-msgChan:
			if !ok {
				logging.Warn().Msg("kick: message channel closed")
				return
			}

			a.mu.RLock()
			handler := a.handler
			a.mu.RUnlock()
			if handler == nil {
				continue
			}

			if err := handler(ctx, mapChatMessageToDomain(m, a.cfg.BroadcasterUserID)); err != nil {
				logging.Error().Err(err).Msg("kick: handler failed")
			}

		case <-ctx.Done():
			return
		}
	}
}

func (a *Adapter) SendMessage(ctx context.Context, platform domain.Platform, _ string, text string) error {
	if platform != domain.PlatformKick {
		return fmt.Errorf("kick: adapter does not support platform %s", platform)
	}

	a.mu.RLock()
	client := a.sdk
	a.mu.RUnlock()

	if client == nil {
		return errors.New("kick: sdk client not initialised")
	}
	if text == "" {
		return nil
	}

	resp, err := client.Chat().PostMessage(ctx, kicksdk.PostChatMessageInput{
		BroadcasterUserID: a.cfg.BroadcasterUserID,
		Content:           text,
		PosterType:        kicksdk.MessagePosterUser,
	})
	if err != nil {
		return fmt.Errorf("kick: post chat message: %w", err)
	}

	if !resp.Payload.IsSent {
		meta := resp.ResponseMetadata
		logging.Warn().
			Int("status", meta.StatusCode).
			Str("message_id", resp.Payload.MessageID).
			Str("kick_message", meta.KickMessage).
			Str("kick_error", meta.KickError).
			Str("description", meta.KickErrorDescription).
			Msg("kick: message rejected")
		return fmt.Errorf("kick: message not accepted by the API (status %d)", meta.StatusCode)
	}

	logging.Debug().Str("message_id", resp.Payload.MessageID).Msg("kick: message delivered")
	return nil
}

func mapChatMessageToDomain(m kickchatwrapper.ChatMessage, broadcasterUserID int) domain.Message {
	sender := m.Sender

	isOwner := sender.ID == broadcasterUserID

	var isMod, isVip, isSub bool
	for _, b := range sender.Identity.Badges {
		switch strings.ToLower(b.Type) {
		case "moderator":
			isMod = true
		case "vip":
			isVip = true
		case "subscriber", "og", "founder":
			isSub = true
		case "broadcaster":
			isOwner = true
		}
	}

	return domain.Message{
		Platform:  domain.PlatformKick,
		ChannelID: strconv.Itoa(m.ChatroomID),
		UserID:    strconv.Itoa(sender.ID),
		Username:  sender.Username,
		Text:      m.Content,

		IsPlatformOwner: isOwner,
		IsPlatformAdmin: isOwner || isMod,
		IsPlatformMod:   isMod,
		IsPlatformVip:   isVip,
		IsSubscriber:    isSub,
	}
}
