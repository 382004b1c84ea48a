// Package consoleadapter is a local chat transport: each stdin line is a chat
// message from the broadcaster and replies are printed to stdout.
package consoleadapter

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"chatcmd/internal/domain"
	"chatcmd/internal/infrastructure/logging"
)

const (
	ChannelID = "console"
	userID    = "0"
)

type MessageHandler func(ctx context.Context, msg domain.Message) error

type Adapter struct {
	in       io.Reader
	out      io.Writer
	username string

	mu      sync.Mutex
	handler MessageHandler
}

func NewAdapter(in io.Reader, out io.Writer, username string) *Adapter {
	if username == "" {
		username = "broadcaster"
	}
	return &Adapter{in: in, out: out, username: username}
}

func (a *Adapter) SetHandler(h MessageHandler) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.handler = h
}

// Start reads until EOF or ctx is cancelled. Blank lines are skipped.
func (a *Adapter) Start(ctx context.Context) error {
	lines := make(chan string)
	errs := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(a.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		errs <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				if err := ctx.Err(); err != nil {
					return err
				}
				select {
				case err := <-errs:
					if err != nil {
						return fmt.Errorf("console: read: %w", err)
					}
				default:
				}
				return nil
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if err := a.dispatch(ctx, line); err != nil {
				logging.Error().Err(err).Msg("console: handler failed")
			}
		}
	}
}

func (a *Adapter) dispatch(ctx context.Context, text string) error {
	a.mu.Lock()
	handler := a.handler
	a.mu.Unlock()
	if handler == nil {
		return nil
	}

	return handler(ctx, domain.Message{
		Platform:        domain.PlatformConsole,
		ChannelID:       ChannelID,
		UserID:          userID,
		Username:        a.username,
		Text:            text,
		IsPlatformOwner: true,
		IsPlatformAdmin: true,
	})
}

func (a *Adapter) SendMessage(_ context.Context, platform domain.Platform, _ string, text string) error {
	if platform != domain.PlatformConsole {
		return fmt.Errorf("console: adapter does not support platform %s", platform)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	_, err := fmt.Fprintf(a.out, "< %s\n", text)
	return err
}
