package domain

import "context"

// ViewerGroup is a custom group of chat users usable as a restriction role.
type ViewerGroup struct {
	Name  string   `yaml:"name"`
	Users []string `yaml:"users"`
}

type ViewerGroupRepository interface {
	UpsertViewerGroup(ctx context.Context, group ViewerGroup) error
	ListViewerGroups(ctx context.Context) ([]ViewerGroup, error)
	DeleteViewerGroup(ctx context.Context, name string) error
}
