package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memohai/searcharr/internal/catalog"
	"github.com/memohai/searcharr/internal/command"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func problemFields(problems []Problem, severity Severity) []string {
	var out []string
	for _, p := range problems {
		if p.Severity == severity {
			out = append(out, p.Field)
		}
	}
	return out
}

func validConfig() Config {
	cfg := Defaults()
	cfg.Bot.Token = "123:abc"
	cfg.Bot.Password = "pw"
	cfg.Bot.AdminPassword = "admin"
	cfg.Radarr.Enabled = true
	cfg.Radarr.URL = "http://radarr:7878"
	cfg.Radarr.APIKey = "key"
	return cfg
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestLoadFile(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, `
[log]
level = "debug"

[bot]
token = "123:abc"
conversation_max_age = "72h"

[bot.aliases]
start = ["go"]

[radarr]
enabled = true
url = "http://radarr:7878"
api_key = "k"
root_folders = ["/movies", " 2 "]
command_aliases = ["film"]
min_availability = "announced"

[sonarr]
bogus = 1
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, 72*time.Hour, cfg.Bot.ConversationMaxAge.Duration)
	assert.Equal(t, []string{"go"}, cfg.Bot.Aliases.Start)
	assert.Equal(t, []string{"help"}, cfg.Bot.Aliases.Help)
	assert.Equal(t, []string{"film"}, cfg.Radarr.CommandAliases)
	assert.True(t, cfg.Radarr.AddMonitored, "defaults survive partial sections")
	assert.Equal(t, []string{"/movies", "2"}, cfg.Radarr.LibraryConfig().RootFolders)
	assert.Equal(t, []string{"series"}, cfg.Sonarr.CommandAliases)
	assert.Contains(t, problemFields(cfg.Validate(), SeverityWarning), "sonarr.bogus")
}

func TestLoadInvalidDuration(t *testing.T) {
	t.Parallel()

	_, err := Load(writeConfig(t, "[bot]\nconversation_max_age = \"soon\"\n"))
	assert.Error(t, err)
}

func TestResolvePath(t *testing.T) {
	t.Setenv(DefaultConfigPathEnv, "/etc/searcharr.toml")

	assert.Equal(t, "custom.toml", ResolvePath(" custom.toml "))
	assert.Equal(t, "/etc/searcharr.toml", ResolvePath(""))
	t.Setenv(DefaultConfigPathEnv, "")
	assert.Equal(t, DefaultConfigPath, ResolvePath(""))
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		mutate   func(*Config)
		errors   []string
		warnings []string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{
			name:   "missing token",
			mutate: func(c *Config) { c.Bot.Token = "" },
			errors: []string{"bot.token"},
		},
		{
			name:     "blank passwords",
			mutate:   func(c *Config) { c.Bot.Password, c.Bot.AdminPassword = "", "" },
			warnings: []string{"bot.password", "bot.admin_password"},
		},
		{
			name:   "enabled catalog without url or key",
			mutate: func(c *Config) { c.Sonarr.Enabled = true },
			errors: []string{"sonarr.url", "sonarr.api_key"},
		},
		{
			name:   "bad url",
			mutate: func(c *Config) { c.Radarr.URL = "radarr.local" },
			errors: []string{"radarr.url"},
		},
		{
			name:   "bad availability",
			mutate: func(c *Config) { c.Radarr.MinAvailability = "whenever" },
			errors: []string{"radarr.min_availability"},
		},
		{
			name:   "bad log level",
			mutate: func(c *Config) { c.Log.Level = "loud" },
			errors: []string{"log.level"},
		},
		{
			name:   "negative max age",
			mutate: func(c *Config) { c.Bot.ConversationMaxAge.Duration = -time.Hour },
			errors: []string{"bot.conversation_max_age"},
		},
		{
			name:     "empty aliases",
			mutate:   func(c *Config) { c.Bot.Aliases.Help = nil; c.Radarr.CommandAliases = nil },
			warnings: []string{"bot.aliases.help", "radarr.command_aliases"},
		},
		{
			name:   "alias clash",
			mutate: func(c *Config) { c.Radarr.CommandAliases = []string{"movie", "/Help"} },
			errors: []string{"radarr.command_aliases"},
		},
		{
			name:     "nothing enabled",
			mutate:   func(c *Config) { c.Radarr.Enabled = false },
			warnings: []string{"config"},
		},
		{
			name:     "unknown language",
			mutate:   func(c *Config) { c.Bot.Language = "xx-xx" },
			warnings: []string{"bot.language"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tc.mutate(&cfg)
			problems := cfg.Validate()
			assert.ElementsMatch(t, tc.errors, problemFields(problems, SeverityError))
			assert.ElementsMatch(t, tc.warnings, problemFields(problems, SeverityWarning))
			assert.Equal(t, len(tc.errors) > 0, HasErrors(problems))
		})
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Bot.AdminPassword = ""
	cfg.Bot.Aliases.Start = nil
	cfg.Sonarr.CommandAliases = nil
	cfg.Bot.Language = "xx-xx"

	resolved, generated := cfg.Resolve()
	assert.Len(t, generated, 32)
	assert.Equal(t, generated, resolved.Bot.AdminPassword)
	assert.Empty(t, cfg.Bot.AdminPassword, "input is not modified")
	assert.Equal(t, []string{"start"}, resolved.Bot.Aliases.Start)
	assert.Equal(t, []string{"series"}, resolved.Sonarr.CommandAliases)
	assert.Equal(t, "en-us", resolved.Bot.Language)

	again, generated := validConfig().Resolve()
	assert.Empty(t, generated)
	assert.Equal(t, "admin", again.Bot.AdminPassword)
}

func TestPasswords(t *testing.T) {
	t.Parallel()
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.True(t, IsHashed(hash))

	cases := []struct {
		name   string
		user   string
		admin  string
		input  string
		wantU  bool
		wantAd bool
	}{
		{name: "plain match", user: "pw", admin: "adm", input: "pw", wantU: true},
		{name: "plain admin", user: "pw", admin: "adm", input: "adm", wantAd: true},
		{name: "blank user password accepts anything", user: "", admin: "adm", input: "whatever", wantU: true},
		{name: "blank input never admin", user: "", admin: "adm", input: "", wantU: true},
		{name: "hashed", user: hash, admin: hash, input: "s3cret", wantU: true, wantAd: true},
		{name: "hashed mismatch", user: hash, admin: hash, input: "nope"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			cfg.Bot.Password, cfg.Bot.AdminPassword = tc.user, tc.admin
			p := cfg.Passwords()
			assert.Equal(t, tc.wantU, p.MatchUser(tc.input))
			assert.Equal(t, tc.wantAd, p.MatchAdmin(tc.input))
		})
	}
}

func TestConversions(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Sonarr.AddSeasonMonitorPrompt = true
	cfg.Sonarr.ForcedTags = []string{" family ", ""}
	cfg.Radarr.AllowUserToSelectTags = true
	cfg.Radarr.UserSelectableTags = []string{"kids"}
	cfg.Radarr.ExcludedTags = []string{"private"}

	settings := cfg.EngineSettings()
	assert.True(t, settings.Series.SeasonMonitorPrompt)
	assert.Equal(t, []string{"family"}, settings.Series.ForcedTags)
	assert.True(t, settings.Movie.AllowUserTags)
	assert.Equal(t, "released", settings.Movie.MinAvailability)
	assert.Equal(t, []string{"start"}, settings.StartAliases)

	lib := cfg.Catalog(catalog.KindMovie).LibraryConfig()
	assert.Equal(t, []string{"kids"}, lib.SelectableTags)
	assert.Equal(t, []string{"private"}, lib.ExcludedTags)

	assert.Equal(t, command.Aliases{
		Start: []string{"start"}, Help: []string{"help"}, Users: []string{"users"},
		Series: []string{"series"}, Movie: []string{"movie"}, Book: []string{"book"},
	}, cfg.CommandAliases())

	client := cfg.Radarr.ClientConfig(nil)
	assert.Equal(t, "http://radarr:7878", client.BaseURL)
	assert.Equal(t, "key", client.APIKey)
}
