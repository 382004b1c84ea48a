// Package seed loads custom commands and viewer groups from a YAML file.
package seed

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"chatcmd/internal/domain"
	"chatcmd/internal/infrastructure/logging"
	"chatcmd/internal/usecase/commands"
)

// File is the on-disk layout:
//
//	commands:
//	  - trigger: "!hello"
//	    response: "Hi $user!"
//	    cooldown: {user: 5, global: 10}
//	    roles: [mod]
//	groups:
//	  - name: regulars
//	    users: [alice, bob]
type File struct {
	Commands []Command            `yaml:"commands"`
	Groups   []domain.ViewerGroup `yaml:"groups"`
}

type Command struct {
	Trigger     string          `yaml:"trigger"`
	Response    string          `yaml:"response"`
	Description string          `yaml:"description"`
	Active      *bool           `yaml:"active"`
	Scan        *bool           `yaml:"scan_whole_message"`
	Cooldown    domain.Cooldown `yaml:"cooldown"`
	Roles       []string        `yaml:"roles"`
	Count       int             `yaml:"count"`
}

func Load(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("seed: open %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f)
}

func Parse(r io.Reader) (*File, error) {
	var file File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if err == io.EOF {
			return &file, nil
		}
		return nil, fmt.Errorf("seed: decode: %w", err)
	}

	for i, c := range file.Commands {
		if strings.TrimSpace(c.Trigger) == "" {
			return nil, fmt.Errorf("seed: command %d has no trigger", i)
		}
	}
	for i, g := range file.Groups {
		if strings.TrimSpace(g.Name) == "" {
			return nil, fmt.Errorf("seed: group %d has no name", i)
		}
	}
	return &file, nil
}

// Result counts what Apply wrote.
type Result struct {
	Created int
	Updated int
	Groups  int
}

// Apply writes groups first so commands may restrict to them. Existing
// commands keep their id and effect ids; their response, cooldowns, roles
// and description are replaced.
func Apply(ctx context.Context, file *File, registry domain.CommandRegistry, groups domain.ViewerGroupRepository, prefix, actor string) (Result, error) {
	var res Result
	if file == nil {
		return res, nil
	}

	if groups != nil {
		for _, g := range file.Groups {
			if err := groups.UpsertViewerGroup(ctx, g); err != nil {
				return res, fmt.Errorf("seed: group %q: %w", g.Name, err)
			}
			res.Groups++
		}
	}

	existing := make(map[string]domain.CustomCommand)
	for _, cmd := range registry.ListAll(ctx) {
		existing[domain.NormalizeTrigger(cmd.Trigger)] = cmd
	}

	for _, c := range file.Commands {
		prev, found := existing[domain.NormalizeTrigger(c.Trigger)]
		if !found && registry.IsTriggerTaken(ctx, c.Trigger) {
			logging.Warn().Str("trigger", c.Trigger).Msg("seed: trigger is reserved, skipping")
			continue
		}

		cmd := build(c, prev, found, prefix)
		if err := registry.Save(ctx, cmd, actor); err != nil {
			return res, fmt.Errorf("seed: command %q: %w", c.Trigger, err)
		}
		if found {
			res.Updated++
		} else {
			res.Created++
		}
	}

	if res.Created+res.Updated > 0 {
		registry.NotifyConfigurationChanged(ctx)
	}

	logging.Info().
		Int("created", res.Created).
		Int("updated", res.Updated).
		Int("groups", res.Groups).
		Msg("seed: applied")
	return res, nil
}

func build(c Command, prev domain.CustomCommand, found bool, prefix string) domain.CustomCommand {
	trigger := strings.TrimSpace(c.Trigger)

	cmd := domain.CustomCommand{
		ID:               uuid.NewString(),
		Trigger:          trigger,
		Active:           true,
		ScanWholeMessage: !strings.HasPrefix(trigger, prefix),
		Effects:          domain.EffectList{ID: uuid.NewString()},
		RestrictionData:  domain.RestrictionData{Restrictions: []domain.Restriction{}},
	}
	if found {
		cmd = prev.Clone()
		cmd.Trigger = trigger
	}

	if c.Active != nil {
		cmd.Active = *c.Active
	}
	if c.Scan != nil {
		cmd.ScanWholeMessage = *c.Scan
	}
	cmd.Cooldown = c.Cooldown
	cmd.Description = c.Description
	if c.Count > 0 || !found {
		cmd.Count = c.Count
	}

	if c.Response != "" {
		replaced := false
		for i, e := range cmd.Effects.List {
			if e.Type == domain.EffectTypeChatReply {
				cmd.Effects.List[i].Message = c.Response
				replaced = true
				break
			}
		}
		if !replaced {
			cmd.Effects.List = append(cmd.Effects.List, domain.Effect{
				ID:      uuid.NewString(),
				Type:    domain.EffectTypeChatReply,
				Message: c.Response,
			})
		}
	}

	roles := seedRoles(c.Roles)
	if len(roles) == 0 {
		cmd.RestrictionData.Restrictions = []domain.Restriction{}
	} else {
		cmd.RestrictionData.Restrictions = []domain.Restriction{{
			ID:      uuid.NewString(),
			Type:    domain.RestrictionTypeRoles,
			Mode:    domain.RestrictionModeRoles,
			RoleIDs: roles,
		}}
	}

	return cmd
}

// seedRoles maps role phrases the way "!command restrict" does. Phrases
// outside the permission vocabulary are kept as viewer group names, and any
// unrestricted phrase ("all", "everyone") lifts the restriction entirely.
func seedRoles(phrases []string) []string {
	roles := make([]string, 0, len(phrases))
	for _, phrase := range phrases {
		phrase = strings.TrimSpace(phrase)
		if phrase == "" {
			continue
		}
		mapped, ok := commands.NormalizePermission(phrase)
		if !ok {
			mapped = []string{phrase}
		} else if len(mapped) == 0 {
			return nil
		}
		for _, role := range mapped {
			if !slices.ContainsFunc(roles, func(r string) bool { return strings.EqualFold(r, role) }) {
				roles = append(roles, role)
			}
		}
	}
	return roles
}
