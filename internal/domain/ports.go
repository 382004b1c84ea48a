package domain

import "context"

type OutgoingMessagePort interface {
	SendMessage(ctx context.Context, platform Platform, channelID, text string) error
}

// GroupResolver looks up custom viewer groups used by role restrictions.
type GroupResolver interface {
	// FindGroup returns the stored group name matching name case-insensitively.
	FindGroup(ctx context.Context, name string) (string, bool)
	IsMember(ctx context.Context, group, username string) bool
}
