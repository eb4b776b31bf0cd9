// Package config loads bot configuration from YAML files and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds everything the bot needs to run.
type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	DB       DBConfig       `yaml:"db"`
	Rest     RestConfig     `yaml:"rest"`
	Status   StatusConfig   `yaml:"status"`
	Dev      bool           `yaml:"dev"`
}

// TelegramConfig identifies the bot and the chats it works in.
type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	// PublicChatID is where commands are accepted and announcements go.
	PublicChatID int64 `yaml:"public_chat_id"`
	// PrivateChatID is the residents-only chat; membership there grants
	// resident privileges.
	PrivateChatID int64 `yaml:"private_chat_id"`
	// PublicChannelID is the broadcast channel /postlive reposts into.
	PublicChannelID int64 `yaml:"public_channel_id"`
}

// DBConfig locates the SQLite database.
type DBConfig struct {
	Path string `yaml:"path"`
}

// RestConfig configures the read-only HTTP API.
type RestConfig struct {
	BindAddress string `yaml:"bind_address"`
}

// StatusConfig configures the live-status synchronizer.
type StatusConfig struct {
	PollInterval Duration `yaml:"poll_interval"`
}

// Duration is a time.Duration that unmarshals from strings like "2s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Load reads and merges the given YAML files in order (later files override
// earlier ones field by field), then applies environment overrides.
func Load(paths []string) (Config, error) {
	var cfg Config

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// applyEnv lets secrets come from the environment instead of files.
func applyEnv(cfg *Config) {
	if v := os.Getenv("XECUT_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("XECUT_BOT_DB_PATH"); v != "" {
		cfg.DB.Path = v
	}
}

func (c Config) validate() error {
	if c.Telegram.BotToken == "" {
		return errors.New("telegram.bot_token is required (or XECUT_BOT_TOKEN)")
	}
	if c.Telegram.PublicChatID == 0 {
		return errors.New("telegram.public_chat_id is required")
	}
	return nil
}
