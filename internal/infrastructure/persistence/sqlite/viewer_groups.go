package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"chatcmd/internal/domain"
	"chatcmd/internal/infrastructure/logging"
)

func (s *Store) UpsertViewerGroup(ctx context.Context, group domain.ViewerGroup) error {
	name := strings.TrimSpace(group.Name)
	if name == "" {
		return fmt.Errorf("sqlite: viewer group without name")
	}

	users, err := json.Marshal(cleanUsers(group.Users))
	if err != nil {
		return fmt.Errorf("sqlite: encode group users: %w", err)
	}

	const stmt = `
INSERT INTO viewer_groups (name, users, updated_at)
VALUES (?, ?, ?)
ON CONFLICT(name) DO UPDATE SET
	users=excluded.users,
	updated_at=excluded.updated_at;
`

	if _, err := s.db.ExecContext(ctx, stmt, name, string(users), time.Now().UTC()); err != nil {
		return fmt.Errorf("sqlite: upsert viewer group: %w", err)
	}
	return nil
}

func (s *Store) ListViewerGroups(ctx context.Context) ([]domain.ViewerGroup, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, users FROM viewer_groups ORDER BY name;`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list viewer groups: %w", err)
	}
	defer rows.Close()

	var out []domain.ViewerGroup
	for rows.Next() {
		var group domain.ViewerGroup
		var usersRaw sql.NullString
		if err := rows.Scan(&group.Name, &usersRaw); err != nil {
			return nil, fmt.Errorf("sqlite: scan viewer group: %w", err)
		}
		if err := decodeJSON(usersRaw.String, &group.Users); err != nil {
			return nil, fmt.Errorf("sqlite: decode users of %q: %w", group.Name, err)
		}
		out = append(out, group)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list viewer group rows: %w", err)
	}
	return out, nil
}

func (s *Store) DeleteViewerGroup(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM viewer_groups WHERE name = ?;`, strings.TrimSpace(name)); err != nil {
		return fmt.Errorf("sqlite: delete viewer group: %w", err)
	}
	return nil
}

// FindGroup matches name case-insensitively and returns the stored spelling.
func (s *Store) FindGroup(ctx context.Context, name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}

	var stored string
	err := s.db.QueryRowContext(ctx, `SELECT name FROM viewer_groups WHERE name = ? LIMIT 1;`, name).Scan(&stored)
	if err != nil {
		if err != sql.ErrNoRows {
			logging.Warn().Err(err).Str("group", name).Msg("sqlite: find viewer group")
		}
		return "", false
	}
	return stored, true
}

func (s *Store) IsMember(ctx context.Context, group, username string) bool {
	username = strings.TrimSpace(username)
	if username == "" {
		return false
	}

	var usersRaw sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT users FROM viewer_groups WHERE name = ? LIMIT 1;`, group).Scan(&usersRaw)
	if err != nil {
		if err != sql.ErrNoRows {
			logging.Warn().Err(err).Str("group", group).Msg("sqlite: load viewer group members")
		}
		return false
	}

	var users []string
	if err := decodeJSON(usersRaw.String, &users); err != nil {
		return false
	}
	for _, u := range users {
		if strings.EqualFold(u, username) {
			return true
		}
	}
	return false
}

func cleanUsers(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{})
	for _, v := range values {
		v = strings.TrimSpace(v)
		key := strings.ToLower(v)
		if v == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}

var (
	_ domain.ViewerGroupRepository = (*Store)(nil)
	_ domain.GroupResolver         = (*Store)(nil)
)
