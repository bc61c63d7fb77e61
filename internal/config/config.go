package config

import (
	"fmt"
	"log"

	"github.com/spf13/viper"
)

// global configuration structure
type Config struct {
	Bot     BotConfig     `mapstructure:"bot"`
	Logger  LoggerConfig  `mapstructure:"logger"`
	Roblox  RobloxConfig  `mapstructure:"roblox"`
	Sources SourcesConfig `mapstructure:"sources"`
	Checker CheckerConfig `mapstructure:"checker"`
}

// Telegram bot configuration
type BotConfig struct {
	Token   string        `mapstructure:"token"`
	Webhook WebhookConfig `mapstructure:"webhook"`
}

// webhook server configuration
type WebhookConfig struct {
	Endpoint   string `mapstructure:"endpoint"`
	ListenPort string `mapstructure:"listen_port"`
	DebugPath  string `mapstructure:"debug_path"`
	CertFile   string `mapstructure:"cert_file"`
	KeyFile    string `mapstructure:"key_file"`
}

// logging configuration
type LoggerConfig struct {
	Directory  string            `mapstructure:"directory"`
	Rotation   LogRotationConfig `mapstructure:"rotation"`
	Timezone   string            `mapstructure:"timezone"`
	Format     string            `mapstructure:"format"`
	TimeFormat string            `mapstructure:"time_format"`
	Level      string            `mapstructure:"level"`
}

// log rotation settings
type LogRotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

// Roblox directory service endpoints and timeouts
type RobloxConfig struct {
	UsersBaseURL   string `mapstructure:"users_base_url"`
	FriendsBaseURL string `mapstructure:"friends_base_url"`
	GroupsBaseURL  string `mapstructure:"groups_base_url"`
	BadgesBaseURL  string `mapstructure:"badges_base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	SearchLimit    int    `mapstructure:"search_limit"`
}

// blacklist source declarations
type SourcesConfig struct {
	GroupDoc GroupDocConfig `mapstructure:"group_doc"`
	Sheets   []SheetConfig  `mapstructure:"sheets"`
}

// GroupDocConfig declares the plain-text group blacklist document.
type GroupDocConfig struct {
	Name string `mapstructure:"name"`
	URL  string `mapstructure:"url"`
}

// SheetConfig declares one tabular blacklist source. GridURL plus APIKey
// enables the formatting-aware fetch; CSVURL is always required as the
// fallback transport.
type SheetConfig struct {
	Name       string       `mapstructure:"name"`
	CSVURL     string       `mapstructure:"csv_url"`
	GridURL    string       `mapstructure:"grid_url"`
	APIKey     string       `mapstructure:"api_key"`
	HeaderRows int          `mapstructure:"header_rows"`
	Columns    ColumnConfig `mapstructure:"columns"`
}

// ColumnConfig maps record fields to zero-based sheet column indexes.
// Optional columns are nil when the sheet does not carry them.
type ColumnConfig struct {
	Handle     int  `mapstructure:"handle"`
	ID         int  `mapstructure:"id"`
	BanLength  *int `mapstructure:"ban_length"`
	Appealable *int `mapstructure:"appealable"`
	Reason     *int `mapstructure:"reason"`
}

// background check thresholds and policy selection
type CheckerConfig struct {
	MinFriends          int     `mapstructure:"min_friends"`
	MinAccountAgeMonths float64 `mapstructure:"min_account_age_months"`
	TenureGroupID       string  `mapstructure:"tenure_group_id"`
	TenureGroupName     string  `mapstructure:"tenure_group_name"`
	MinTenureMonths     float64 `mapstructure:"min_tenure_months"`
	Policy              string  `mapstructure:"policy"`
}

var cfg *Config

func Load(configPath string) (*Config, error) {
	if configPath == "" {
		return nil, fmt.Errorf("config file path is required")
	}

	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	log.Printf("Using config file: %s", v.ConfigFileUsed())

	// Unmarshal configuration
	cfg = &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	return cfg, nil
}

func Get() *Config {
	if cfg == nil {
		log.Fatal("Configuration not initialized, call Load() first")
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("bot.webhook.listen_port", "8443")
	v.SetDefault("bot.webhook.debug_path", "/debug")
	v.SetDefault("bot.webhook.cert_file", "")
	v.SetDefault("bot.webhook.key_file", "")

	v.SetDefault("logger.directory", "logs")
	v.SetDefault("logger.rotation.max_size", 10)
	v.SetDefault("logger.rotation.max_backups", 30)
	v.SetDefault("logger.rotation.max_age", 90)
	v.SetDefault("logger.rotation.compress", true)
	v.SetDefault("logger.timezone", "Local")
	v.SetDefault("logger.format", "[%{level}] %{time} %{file}:%{line}: %{message}")
	v.SetDefault("logger.time_format", "2006/01/02 15:04:05")
	v.SetDefault("logger.level", "INFO")

	v.SetDefault("roblox.users_base_url", "https://users.roblox.com")
	v.SetDefault("roblox.friends_base_url", "https://friends.roblox.com")
	v.SetDefault("roblox.groups_base_url", "https://groups.roblox.com")
	v.SetDefault("roblox.badges_base_url", "https://badges.roblox.com")
	v.SetDefault("roblox.timeout_seconds", 10)
	v.SetDefault("roblox.search_limit", 100)

	v.SetDefault("checker.min_friends", 15)
	v.SetDefault("checker.min_account_age_months", 6)
	v.SetDefault("checker.min_tenure_months", 3)
	v.SetDefault("checker.policy", "hardfail")
}
