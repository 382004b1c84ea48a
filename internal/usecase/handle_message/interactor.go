// Package handle_message
package handle_message

import (
	"context"
	"strings"
	"sync"
	"time"

	"chatcmd/internal/domain"
	"chatcmd/internal/infrastructure/logging"
	"chatcmd/internal/usecase/commands"
)

// Interactor feeds inbound chat messages to the router one at a time, so a
// management command always runs to completion before the next message.
type Interactor struct {
	router *commands.Router
	out    domain.OutgoingMessagePort

	ignored map[string]struct{}
	echoes  *echoGuard

	mu sync.Mutex
}

type Option func(*Interactor)

// WithIgnoredUsers drops every message from the given usernames, e.g. other
// bots sharing the chat.
func WithIgnoredUsers(usernames ...string) Option {
	return func(uc *Interactor) {
		for _, name := range usernames {
			name = strings.ToLower(strings.TrimSpace(name))
			if name != "" {
				uc.ignored[name] = struct{}{}
			}
		}
	}
}

// WithEchoWindow sets how long a sent reply is recognised when it comes back
// in the chat feed. A zero window disables the check.
func WithEchoWindow(window time.Duration, now func() time.Time) Option {
	return func(uc *Interactor) {
		uc.echoes = newEchoGuard(window, now)
	}
}

func NewInteractor(out domain.OutgoingMessagePort, router *commands.Router, opts ...Option) *Interactor {
	uc := &Interactor{
		router:  router,
		out:     out,
		ignored: make(map[string]struct{}),
		echoes:  newEchoGuard(defaultEchoWindow, nil),
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

func (uc *Interactor) Handle(ctx context.Context, msg domain.Message) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if _, ok := uc.ignored[strings.ToLower(msg.Username)]; ok {
		return nil
	}
	if uc.echoes.consume(msg) {
		logging.Debug().
			Str("platform", string(msg.Platform)).
			Str("channel", msg.ChannelID).
			Msg("handle_message: skipped own reply")
		return nil
	}
	return uc.router.Handle(ctx, msg, recordingPort{guard: uc.echoes, next: uc.out})
}
