package commands

import "chatcmd/internal/domain"

// CommandDescriptor describes a built-in command for listings and the API.
type CommandDescriptor struct {
	Name        string
	Aliases     []string
	Description string
	Usage       string
	Roles       []string
	SubCommands []SubCommandDescriptor
}

type SubCommandDescriptor struct {
	Op          Operation
	Usage       string
	Description string
}

const manageCommandName = "command"

var manageSubCommands = []SubCommandDescriptor{
	{Op: OpAdd, Usage: `add [!trigger or "phrase"] [message]`, Description: "Adds a new command with a given response message."},
	{Op: OpResponse, Usage: `response [!trigger or "phrase"] [message]`, Description: "Updates the response message for a command. Only works for commands that have 1 or less chat effects."},
	{Op: OpSetCount, Usage: `setcount [!trigger or "phrase"] count#`, Description: "Updates the command's usage count."},
	{Op: OpCooldown, Usage: `cooldown [!trigger or "phrase"] [globalCooldownSecs] [userCooldownSecs]`, Description: "Changes the cooldown for a command."},
	{Op: OpRestrict, Usage: `restrict [!trigger or "phrase"] [All/Sub/Mod/Streamer/Custom Group]`, Description: "Updates permissions for a command."},
	{Op: OpRemove, Usage: `remove [!trigger or "phrase"]`, Description: "Removes the given command."},
	{Op: OpDescription, Usage: `description [!trigger or "phrase"] [text]`, Description: "Updates the description for a command."},
	{Op: OpEnable, Usage: `enable [!trigger or "phrase"]`, Description: "Enables the given custom command."},
	{Op: OpDisable, Usage: `disable [!trigger or "phrase"]`, Description: "Disables the given custom command."},
}

// SubCommandUsage returns the usage line for op without the command prefix.
func SubCommandUsage(op Operation) string {
	for _, sc := range manageSubCommands {
		if sc.Op == op {
			return sc.Usage
		}
	}
	return "[add|response|setcount|cooldown|restrict|remove|description|enable|disable]"
}

// BuiltinCommandCatalog describes the commands shipped with the bot.
func BuiltinCommandCatalog() []CommandDescriptor {
	return []CommandDescriptor{
		{
			Name:        "ping",
			Description: "Replies with pong to check the bot is alive.",
			Usage:       "!ping",
		},
		{
			Name:        "commands",
			Description: "Lists the active custom commands.",
			Usage:       "!commands",
		},
		{
			Name:        manageCommandName,
			Description: "Allows custom command management via chat.",
			Usage:       "!command <sub-command> [!trigger or \"phrase\"] ...",
			Roles:       []string{domain.RoleBroadcaster, domain.RoleModerator},
			SubCommands: append([]SubCommandDescriptor(nil), manageSubCommands...),
		},
	}
}
