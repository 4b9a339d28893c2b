// Package config loads and exposes application configuration (TOML).
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Default configuration values used when a field is missing in TOML.
const (
	DefaultConfigPath      = "config.toml"
	DefaultConfigPathEnv   = "CONFIG_PATH"
	DefaultDBPath          = "data/searcharr.db"
	DefaultLanguage        = "en-us"
	DefaultSweepSchedule   = "@hourly"
	DefaultMinAvailability = "released"
	DefaultSendRate        = 20
)

// Config is the root application configuration loaded from TOML.
type Config struct {
	Log     LogConfig     `toml:"log"`
	Bot     BotConfig     `toml:"bot"`
	Sonarr  CatalogConfig `toml:"sonarr"`
	Radarr  CatalogConfig `toml:"radarr"`
	Readarr CatalogConfig `toml:"readarr"`

	// unknown holds keys present in the file that no field consumed.
	unknown []string
}

// LogConfig holds logging level and format (e.g. level=info, format=text) and an optional
// file that receives a JSON copy of every record.
type LogConfig struct {
	Level  string `toml:"level" validate:"omitempty,oneof=debug info warn warning error"`
	Format string `toml:"format" validate:"omitempty,oneof=text json"`
	File   string `toml:"file"`
}

// BotConfig holds the Telegram token, passwords and session storage settings.
type BotConfig struct {
	Token              string      `toml:"token"`
	Password           string      `toml:"password"`
	AdminPassword      string      `toml:"admin_password"`
	Language           string      `toml:"language"`
	DBPath             string      `toml:"db_path"`
	ConversationMaxAge Duration    `toml:"conversation_max_age"`
	SweepSchedule      string      `toml:"sweep_schedule"`
	SendRate           float64     `toml:"send_rate" validate:"gte=0"`
	Debug              bool        `toml:"debug"`
	Aliases            AliasConfig `toml:"aliases"`
}

// AliasConfig lists the names of the general commands.
type AliasConfig struct {
	Start []string `toml:"start"`
	Help  []string `toml:"help"`
	Users []string `toml:"users"`
}

// CatalogConfig configures one of Sonarr, Radarr or Readarr. Profile and folder entries
// may be ids or names.
type CatalogConfig struct {
	Enabled                bool     `toml:"enabled"`
	URL                    string   `toml:"url" validate:"omitempty,url"`
	APIKey                 string   `toml:"api_key"`
	QualityProfiles        []string `toml:"quality_profiles"`
	RootFolders            []string `toml:"root_folders"`
	MetadataProfiles       []string `toml:"metadata_profiles"`
	AddMonitored           bool     `toml:"add_monitored"`
	SearchOnAdd            bool     `toml:"search_on_add"`
	TagWithUsername        bool     `toml:"tag_with_username"`
	ForcedTags             []string `toml:"forced_tags"`
	AllowUserToSelectTags  bool     `toml:"allow_user_to_select_tags"`
	UserSelectableTags     []string `toml:"user_selectable_tags"`
	ExcludedTags           []string `toml:"excluded_tags"`
	CommandAliases         []string `toml:"command_aliases"`
	AddSeasonMonitorPrompt bool     `toml:"add_season_monitor_prompt"`
	SeasonFolders          bool     `toml:"season_folders"`
	MinAvailability        string   `toml:"min_availability" validate:"omitempty,oneof=announced inCinemas released"`
}

// Duration is a time.Duration written as a Go duration string ("72h").
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" || raw == "0" {
		d.Duration = 0
		return nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Defaults returns the configuration used for fields missing in TOML.
func Defaults() Config {
	catalog := func(aliases ...string) CatalogConfig {
		return CatalogConfig{
			AddMonitored:    true,
			SearchOnAdd:     true,
			TagWithUsername: true,
			CommandAliases:  aliases,
		}
	}
	radarr := catalog("movie")
	radarr.MinAvailability = DefaultMinAvailability
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Bot: BotConfig{
			Language:      DefaultLanguage,
			DBPath:        DefaultDBPath,
			SweepSchedule: DefaultSweepSchedule,
			SendRate:      DefaultSendRate,
			Aliases: AliasConfig{
				Start: []string{"start"},
				Help:  []string{"help"},
				Users: []string{"users"},
			},
		},
		Sonarr:  catalog("series"),
		Radarr:  radarr,
		Readarr: catalog("book"),
	}
}

// ResolvePath picks the config file: the flag value, then CONFIG_PATH, then config.toml.
func ResolvePath(flag string) string {
	if p := strings.TrimSpace(flag); p != "" {
		return p
	}
	if p := strings.TrimSpace(os.Getenv(DefaultConfigPathEnv)); p != "" {
		return p
	}
	return DefaultConfigPath
}

// Load reads and parses the TOML config file at path and applies default values for missing fields.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, err
	}
	for _, key := range md.Undecoded() {
		cfg.unknown = append(cfg.unknown, key.String())
	}

	return cfg, nil
}
