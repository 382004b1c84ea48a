package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	CommandPrefix string `env:"COMMAND_PREFIX" envDefault:"!"`
	DatabasePath  string `env:"DATABASE_PATH" envDefault:"data/chatcmd.db"`
	WSAddr        string `env:"CHAT_WS_ADDR" envDefault:":8080"`
	SeedFile      string `env:"SEED_FILE"`

	// IgnoreUsers are chat accounts whose messages are never handled.
	IgnoreUsers []string `env:"BOT_IGNORE_USERS" envSeparator:","`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"INFO"`
	LogPretty bool   `env:"LOG_PRETTY"`

	TwitchUsername string   `env:"TWITCH_BOT_USERNAME"`
	TwitchToken    string   `env:"TWITCH_BOT_ACCESS_TOKEN"`
	TwitchChannels []string `env:"TWITCH_BOT_CHANNELS" envSeparator:","`

	KickToken             string `env:"KICK_BOT_TOKEN"`
	KickBroadcasterUserID int    `env:"KICK_BROADCASTER_USER_ID"`
	KickChatroomID        int    `env:"KICK_CHATROOM_ID"`
}

// Load reads an optional .env file and then the process environment. It does
// not log: callers configure logging from the result first.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: parse env: %w", err)
	}

	cfg.CommandPrefix = strings.TrimSpace(cfg.CommandPrefix)
	if cfg.CommandPrefix == "" {
		cfg.CommandPrefix = "!"
	}
	cfg.TwitchChannels = cleanList(cfg.TwitchChannels)
	cfg.IgnoreUsers = cleanList(cfg.IgnoreUsers)

	return cfg, nil
}

func (c *Config) TwitchEnabled() bool {
	return c.TwitchUsername != "" && c.TwitchToken != "" && len(c.TwitchChannels) > 0
}

func (c *Config) KickEnabled() bool {
	return c.KickToken != "" && c.KickBroadcasterUserID != 0 && c.KickChatroomID != 0
}

func cleanList(values []string) []string {
	var out []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
