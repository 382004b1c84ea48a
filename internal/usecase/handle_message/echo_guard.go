package handle_message

import (
	"context"
	"strings"
	"sync"
	"time"

	"chatcmd/internal/domain"
)

const defaultEchoWindow = 10 * time.Second

// echoGuard remembers replies the bot just sent so the copy the platform
// delivers back into the chat feed is not handled as a new message. Kick
// posts as the broadcaster account, so the sender alone cannot tell them
// apart.
type echoGuard struct {
	mu     sync.Mutex
	now    func() time.Time
	window time.Duration
	sent   map[string][]time.Time
}

func newEchoGuard(window time.Duration, now func() time.Time) *echoGuard {
	if now == nil {
		now = time.Now
	}
	return &echoGuard{
		now:    now,
		window: window,
		sent:   make(map[string][]time.Time),
	}
}

func echoKey(platform domain.Platform, channelID, text string) string {
	return string(platform) + "\x00" + strings.ToLower(channelID) + "\x00" + strings.Join(strings.Fields(text), " ")
}

func (g *echoGuard) record(platform domain.Platform, channelID, text string) {
	if g.window <= 0 {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	g.pruneLocked(now)
	key := echoKey(platform, channelID, text)
	g.sent[key] = append(g.sent[key], now.Add(g.window))
}

// consume reports whether msg is the echo of a recorded reply. Each recorded
// reply absorbs one echo.
func (g *echoGuard) consume(msg domain.Message) bool {
	if g.window <= 0 {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	g.pruneLocked(g.now())
	key := echoKey(msg.Platform, msg.ChannelID, msg.Text)
	pending := g.sent[key]
	if len(pending) == 0 {
		return false
	}
	if len(pending) == 1 {
		delete(g.sent, key)
	} else {
		g.sent[key] = pending[1:]
	}
	return true
}

func (g *echoGuard) pruneLocked(now time.Time) {
	for key, expiries := range g.sent {
		kept := expiries[:0]
		for _, until := range expiries {
			if now.Before(until) {
				kept = append(kept, until)
			}
		}
		if len(kept) == 0 {
			delete(g.sent, key)
		} else {
			g.sent[key] = kept
		}
	}
}

// recordingPort records every reply before handing it to the real sender.
type recordingPort struct {
	guard *echoGuard
	next  domain.OutgoingMessagePort
}

func (p recordingPort) SendMessage(ctx context.Context, platform domain.Platform, channelID, text string) error {
	p.guard.record(platform, channelID, text)
	return p.next.SendMessage(ctx, platform, channelID, text)
}
