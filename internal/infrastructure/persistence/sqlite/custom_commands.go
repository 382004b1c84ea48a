package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"chatcmd/internal/domain"
)

const customCommandColumns = `id, trigger, active, scan_whole_message, cooldown_user, cooldown_global,
	effects, restrictions, usage_count, description, created_by, created_at, last_edited_by, last_edited_at`

func (s *Store) UpsertCustomCommand(ctx context.Context, cmd *domain.CustomCommand) error {
	if cmd == nil {
		return fmt.Errorf("sqlite: custom command nil")
	}
	key := domain.NormalizeTrigger(cmd.Trigger)
	if key == "" {
		return fmt.Errorf("sqlite: custom command without trigger")
	}

	if cmd.LastEditedAt.IsZero() {
		cmd.LastEditedAt = time.Now().UTC()
	}

	effects, err := json.Marshal(cmd.Effects)
	if err != nil {
		return fmt.Errorf("sqlite: encode effects: %w", err)
	}
	restrictions, err := json.Marshal(cmd.RestrictionData)
	if err != nil {
		return fmt.Errorf("sqlite: encode restrictions: %w", err)
	}

	const stmt = `
INSERT INTO custom_commands (trigger_key, ` + customCommandColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(trigger_key) DO UPDATE SET
	id=excluded.id,
	trigger=excluded.trigger,
	active=excluded.active,
	scan_whole_message=excluded.scan_whole_message,
	cooldown_user=excluded.cooldown_user,
	cooldown_global=excluded.cooldown_global,
	effects=excluded.effects,
	restrictions=excluded.restrictions,
	usage_count=excluded.usage_count,
	description=excluded.description,
	created_by=excluded.created_by,
	created_at=excluded.created_at,
	last_edited_by=excluded.last_edited_by,
	last_edited_at=excluded.last_edited_at;
`

	_, err = s.db.ExecContext(
		ctx,
		stmt,
		key,
		cmd.ID,
		cmd.Trigger,
		cmd.Active,
		cmd.ScanWholeMessage,
		cmd.Cooldown.User,
		cmd.Cooldown.Global,
		string(effects),
		string(restrictions),
		cmd.Count,
		nullString(cmd.Description),
		nullString(cmd.CreatedBy),
		nullTime(cmd.CreatedAt),
		nullString(cmd.LastEditedBy),
		nullTime(cmd.LastEditedAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite: upsert custom command: %w", err)
	}

	return nil
}

func (s *Store) ListCustomCommands(ctx context.Context) ([]*domain.CustomCommand, error) {
	query := `SELECT ` + customCommandColumns + ` FROM custom_commands ORDER BY trigger_key;`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list custom commands: %w", err)
	}
	defer rows.Close()

	var cmds []*domain.CustomCommand
	for rows.Next() {
		record, err := scanCustomCommand(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan custom command: %w", err)
		}
		cmds = append(cmds, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list custom command rows: %w", err)
	}

	return cmds, nil
}

func (s *Store) DeleteCustomCommand(ctx context.Context, trigger string) error {
	const stmt = `DELETE FROM custom_commands WHERE trigger_key = ?;`
	if _, err := s.db.ExecContext(ctx, stmt, domain.NormalizeTrigger(trigger)); err != nil {
		return fmt.Errorf("sqlite: delete custom command: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCustomCommand(row rowScanner) (*domain.CustomCommand, error) {
	var (
		record                      domain.CustomCommand
		effectsRaw, restrictionsRaw sql.NullString
		description                 sql.NullString
		createdBy, lastEditedBy     sql.NullString
		createdAt, lastEditedAt     sql.NullTime
	)

	if err := row.Scan(
		&record.ID,
		&record.Trigger,
		&record.Active,
		&record.ScanWholeMessage,
		&record.Cooldown.User,
		&record.Cooldown.Global,
		&effectsRaw,
		&restrictionsRaw,
		&record.Count,
		&description,
		&createdBy,
		&createdAt,
		&lastEditedBy,
		&lastEditedAt,
	); err != nil {
		return nil, err
	}

	if err := decodeJSON(effectsRaw.String, &record.Effects); err != nil {
		return nil, fmt.Errorf("decode effects of %q: %w", record.Trigger, err)
	}
	if err := decodeJSON(restrictionsRaw.String, &record.RestrictionData); err != nil {
		return nil, fmt.Errorf("decode restrictions of %q: %w", record.Trigger, err)
	}

	record.Description = description.String
	record.CreatedBy = createdBy.String
	record.CreatedAt = createdAt.Time
	record.LastEditedBy = lastEditedBy.String
	record.LastEditedAt = lastEditedAt.Time

	return &record, nil
}

func decodeJSON(raw string, target any) error {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw), target)
}

func nullTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

var _ domain.CustomCommandRepository = (*Store)(nil)
