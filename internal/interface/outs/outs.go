package outs

import (
	"context"
	"fmt"
	"sync"

	"chatcmd/internal/domain"
	"chatcmd/internal/infrastructure/logging"
)

// Sender is implemented by every outgoing chat adapter.
type Sender interface {
	SendMessage(ctx context.Context, platform domain.Platform, channelID, text string) error
}

// MultiSender routes a reply to the adapter of the platform it came from.
type MultiSender struct {
	mu      sync.RWMutex
	senders map[domain.Platform]Sender
}

func NewMultiSender() *MultiSender {
	return &MultiSender{
		senders: make(map[domain.Platform]Sender),
	}
}

func (m *MultiSender) Register(platform domain.Platform, sender Sender) {
	if m == nil || sender == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.senders[platform] = sender
}

func (m *MultiSender) Unregister(platform domain.Platform) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.senders, platform)
}

func (m *MultiSender) Platforms() []domain.Platform {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Platform, 0, len(m.senders))
	for p := range m.senders {
		out = append(out, p)
	}
	return out
}

func (m *MultiSender) SendMessage(ctx context.Context, platform domain.Platform, channelID, text string) error {
	if m == nil {
		return fmt.Errorf("outs: no multi sender configured")
	}
	m.mu.RLock()
	sender, ok := m.senders[platform]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("outs: no sender registered for platform %s", platform)
	}

	if err := sender.SendMessage(ctx, platform, channelID, text); err != nil {
		logging.Warn().Err(err).Str("platform", string(platform)).Msg("outs: send failed")
		return err
	}
	return nil
}

var _ domain.OutgoingMessagePort = (*MultiSender)(nil)
