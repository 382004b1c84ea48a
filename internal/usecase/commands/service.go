package commands

import (
	"context"
	"time"

	"chatcmd/internal/domain"
)

const (
	CommandSourceBuiltin = "builtin"
	CommandSourceCustom  = "custom"
)

type CommandDTO struct {
	Trigger          string          `json:"trigger"`
	Active           bool            `json:"active"`
	ScanWholeMessage bool            `json:"scan_whole_message"`
	Cooldown         domain.Cooldown `json:"cooldown"`
	Responses        []string        `json:"responses,omitempty"`
	Roles            []string        `json:"roles,omitempty"`
	Count            int             `json:"count"`
	Description      string          `json:"description,omitempty"`
	Usage            string          `json:"usage,omitempty"`
	SubCommands      []SubCommandDTO `json:"sub_commands,omitempty"`
	LastEditedBy     string          `json:"last_edited_by,omitempty"`
	UpdatedAt        string          `json:"updated_at,omitempty"`
	Source           string          `json:"source"`
}

type SubCommandDTO struct {
	Arg         string `json:"arg"`
	Usage       string `json:"usage"`
	Description string `json:"description"`
}

// Service exposes read-only command listings to the HTTP API.
type Service struct {
	registry domain.CommandRegistry
	prefix   string
}

func NewService(registry domain.CommandRegistry, prefix string) *Service {
	return &Service{registry: registry, prefix: prefix}
}

func (s *Service) List(ctx context.Context) []CommandDTO {
	out := s.builtinCommandDTOs()
	if s == nil || s.registry == nil {
		return out
	}
	for _, cmd := range s.registry.ListAll(ctx) {
		out = append(out, commandDTOFromDomain(cmd))
	}
	return out
}

func commandDTOFromDomain(cmd domain.CustomCommand) CommandDTO {
	var responses []string
	for _, effect := range cmd.ChatReplyEffects() {
		responses = append(responses, effect.Message)
	}
	updated := ""
	if !cmd.LastEditedAt.IsZero() {
		updated = cmd.LastEditedAt.UTC().Format(time.RFC3339)
	}
	return CommandDTO{
		Trigger:          cmd.Trigger,
		Active:           cmd.Active,
		ScanWholeMessage: cmd.ScanWholeMessage,
		Cooldown:         cmd.Cooldown,
		Responses:        responses,
		Roles:            cmd.RoleIDs(),
		Count:            cmd.Count,
		Description:      cmd.Description,
		LastEditedBy:     cmd.LastEditedBy,
		UpdatedAt:        updated,
		Source:           CommandSourceCustom,
	}
}

func (s *Service) builtinCommandDTOs() []CommandDTO {
	prefix := "!"
	if s != nil && s.prefix != "" {
		prefix = s.prefix
	}
	catalog := BuiltinCommandCatalog()
	out := make([]CommandDTO, 0, len(catalog))
	for _, item := range catalog {
		dto := CommandDTO{
			Trigger:     prefix + item.Name,
			Active:      true,
			Roles:       append([]string(nil), item.Roles...),
			Description: item.Description,
			Usage:       item.Usage,
			Source:      CommandSourceBuiltin,
		}
		for _, sc := range item.SubCommands {
			dto.SubCommands = append(dto.SubCommands, SubCommandDTO{
				Arg:         string(sc.Op),
				Usage:       sc.Usage,
				Description: sc.Description,
			})
		}
		out = append(out, dto)
	}
	return out
}
