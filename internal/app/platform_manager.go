package app

import (
	"context"
	"errors"
	"sync"

	"chatcmd/internal/domain"
	"chatcmd/internal/infrastructure/logging"
	consoleadapter "chatcmd/internal/interface/adapters/console"
	kickadapter "chatcmd/internal/interface/adapters/kick"
	twitchadapter "chatcmd/internal/interface/adapters/twitch"
	"chatcmd/internal/interface/outs"
)

type MessageHandler func(ctx context.Context, msg domain.Message) error

// ChatAdapter is a chat transport: Start blocks until ctx is cancelled and
// SendMessage delivers replies.
type ChatAdapter interface {
	Start(ctx context.Context) error
	SendMessage(ctx context.Context, platform domain.Platform, channelID, text string) error
}

type ManagerConfig struct {
	Context  context.Context
	MultiOut *outs.MultiSender
}

// PlatformManager owns the chat adapters: it routes their messages to one
// handler, registers them as reply senders and supervises their goroutines.
type PlatformManager struct {
	ctx      context.Context
	multiOut *outs.MultiSender

	handlerMu sync.RWMutex
	handler   MessageHandler

	mu       sync.Mutex
	adapters map[domain.Platform]*platformRuntime
	wg       sync.WaitGroup
}

type platformRuntime struct {
	adapter ChatAdapter
	bind    func(MessageHandler)
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewPlatformManager(cfg ManagerConfig) *PlatformManager {
	ctx := cfg.Context
	if ctx == nil {
		ctx = context.Background()
	}
	multiOut := cfg.MultiOut
	if multiOut == nil {
		multiOut = outs.NewMultiSender()
	}
	return &PlatformManager{
		ctx:      ctx,
		multiOut: multiOut,
		adapters: make(map[domain.Platform]*platformRuntime),
	}
}

// SetHandler applies to adapters added before and after the call.
func (m *PlatformManager) SetHandler(handler MessageHandler) {
	m.handlerMu.Lock()
	m.handler = handler
	m.handlerMu.Unlock()
}

func (m *PlatformManager) dispatch(ctx context.Context, msg domain.Message) error {
	m.handlerMu.RLock()
	handler := m.handler
	m.handlerMu.RUnlock()
	if handler == nil {
		return nil
	}
	return handler(ctx, msg)
}

func (m *PlatformManager) AddTwitch(a *twitchadapter.Adapter) {
	m.Add(domain.PlatformTwitch, a, func(h MessageHandler) {
		a.SetHandler(twitchadapter.MessageHandler(h))
	})
}

func (m *PlatformManager) AddKick(a *kickadapter.Adapter) {
	m.Add(domain.PlatformKick, a, func(h MessageHandler) {
		a.SetHandler(kickadapter.MessageHandler(h))
	})
}

// AddConsole binds the console without starting it; the caller runs its
// Start loop in the foreground.
func (m *PlatformManager) AddConsole(a *consoleadapter.Adapter) {
	m.Add(domain.PlatformConsole, a, func(h MessageHandler) {
		a.SetHandler(consoleadapter.MessageHandler(h))
	})
}

// Add binds adapter and registers it as the platform's reply sender. It
// replaces, and stops, a previous adapter of the same platform.
func (m *PlatformManager) Add(platform domain.Platform, adapter ChatAdapter, bind func(MessageHandler)) {
	if adapter == nil || bind == nil {
		return
	}
	m.Remove(platform)

	bind(m.dispatch)
	m.multiOut.Register(platform, adapter)

	m.mu.Lock()
	m.adapters[platform] = &platformRuntime{adapter: adapter, bind: bind}
	m.mu.Unlock()
}

// Launch starts the added adapter of platform in the background.
func (m *PlatformManager) Launch(platform domain.Platform) error {
	m.mu.Lock()
	rt, ok := m.adapters[platform]
	if !ok {
		m.mu.Unlock()
		return errors.New("platform manager: no adapter for " + string(platform))
	}
	if rt.cancel != nil {
		m.mu.Unlock()
		return nil
	}
	ctx, cancel := context.WithCancel(m.ctx)
	rt.cancel = cancel
	rt.done = make(chan struct{})
	done := rt.done
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer close(done)
		err := rt.adapter.Start(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Str("platform", string(platform)).Msg("platform manager: adapter stopped")
			m.multiOut.Unregister(platform)
		}
	}()
	return nil
}

func (m *PlatformManager) Remove(platform domain.Platform) {
	m.mu.Lock()
	rt, ok := m.adapters[platform]
	delete(m.adapters, platform)
	m.mu.Unlock()
	if !ok {
		return
	}

	m.multiOut.Unregister(platform)
	if rt.cancel != nil {
		rt.cancel()
		<-rt.done
	}
}

func (m *PlatformManager) Platforms() []domain.Platform {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Platform, 0, len(m.adapters))
	for p := range m.adapters {
		out = append(out, p)
	}
	return out
}

func (m *PlatformManager) Shutdown() {
	m.mu.Lock()
	for _, rt := range m.adapters {
		if rt.cancel != nil {
			rt.cancel()
		}
	}
	m.mu.Unlock()
	m.wg.Wait()
}
