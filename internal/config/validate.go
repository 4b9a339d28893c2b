package config

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/memohai/searcharr/internal/i18n"
)

// Severity grades a configuration problem.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Problem is one finding of Validate. Errors stop the bot from starting.
type Problem struct {
	Severity Severity
	Field    string
	Message  string
}

func (p Problem) String() string {
	return fmt.Sprintf("%s: %s: %s", p.Severity, p.Field, p.Message)
}

// HasErrors reports whether any problem is an error.
func HasErrors(problems []Problem) bool {
	for _, p := range problems {
		if p.Severity == SeverityError {
			return true
		}
	}
	return false
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("toml"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate reports problems without changing the configuration.
func (c Config) Validate() []Problem {
	var problems []Problem
	warn := func(field, format string, args ...any) {
		problems = append(problems, Problem{Severity: SeverityWarning, Field: field, Message: fmt.Sprintf(format, args...)})
	}
	fail := func(field, format string, args ...any) {
		problems = append(problems, Problem{Severity: SeverityError, Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if err := getValidator().Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			fail("config", "%v", err)
		}
		for _, fe := range fieldErrs {
			fail(strings.TrimPrefix(fe.Namespace(), "Config."), "%s", describe(fe))
		}
	}
	for _, key := range c.unknown {
		warn(key, "unknown setting is ignored")
	}

	if strings.TrimSpace(c.Bot.Token) == "" {
		fail("bot.token", "a Telegram bot token is required")
	}
	if c.Bot.Password == "" {
		warn("bot.password", "password is blank; anyone can add titles using the bot")
	}
	if c.Bot.AdminPassword == "" {
		warn("bot.admin_password", "no admin password set; a random one is generated for this session")
	}
	if c.Bot.ConversationMaxAge.Duration < 0 {
		fail("bot.conversation_max_age", "must not be negative")
	}
	if !slices.Contains(i18n.Languages(), strings.ToLower(c.Bot.Language)) {
		warn("bot.language", "language %q is not available; falling back to %s", c.Bot.Language, i18n.DefaultLanguage)
	}
	for field, aliases := range map[string][]string{
		"bot.aliases.start": c.Bot.Aliases.Start,
		"bot.aliases.help":  c.Bot.Aliases.Help,
		"bot.aliases.users": c.Bot.Aliases.Users,
	} {
		if len(aliases) == 0 {
			warn(field, "no aliases set; the default is used")
		}
	}

	enabled := 0
	seen := map[string]string{}
	claim := func(field string, aliases []string) {
		for _, a := range aliases {
			name := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(a), "/"))
			if owner, dup := seen[name]; dup {
				fail(field, "alias %q is already used by %s", name, owner)
				continue
			}
			seen[name] = field
		}
	}
	claim("bot.aliases.start", c.Bot.Aliases.Start)
	claim("bot.aliases.help", c.Bot.Aliases.Help)
	claim("bot.aliases.users", c.Bot.Aliases.Users)
	for _, section := range []struct {
		name string
		cfg  CatalogConfig
	}{
		{"sonarr", c.Sonarr},
		{"radarr", c.Radarr},
		{"readarr", c.Readarr},
	} {
		if !section.cfg.Enabled {
			continue
		}
		enabled++
		if strings.TrimSpace(section.cfg.URL) == "" {
			fail(section.name+".url", "required when %s is enabled", section.name)
		}
		if strings.TrimSpace(section.cfg.APIKey) == "" {
			fail(section.name+".api_key", "required when %s is enabled", section.name)
		}
		if len(section.cfg.CommandAliases) == 0 {
			warn(section.name+".command_aliases", "no aliases set; the default is used")
		}
		claim(section.name+".command_aliases", section.cfg.CommandAliases)
	}
	if enabled == 0 {
		warn("config", "sonarr, radarr and readarr are all disabled")
	}
	return problems
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "url":
		return "must be a valid URL"
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// Resolve returns the configuration the bot runs with: a random admin password replaces a
// missing one and empty alias lists get their defaults. The generated password is
// returned so it can be reported; it is empty when the file set one.
func (c Config) Resolve() (Config, string) {
	defaults := Defaults()
	out := c
	generated := ""
	if out.Bot.AdminPassword == "" {
		generated = strings.ReplaceAll(uuid.NewString(), "-", "")
		out.Bot.AdminPassword = generated
	}
	if len(out.Bot.Aliases.Start) == 0 {
		out.Bot.Aliases.Start = defaults.Bot.Aliases.Start
	}
	if len(out.Bot.Aliases.Help) == 0 {
		out.Bot.Aliases.Help = defaults.Bot.Aliases.Help
	}
	if len(out.Bot.Aliases.Users) == 0 {
		out.Bot.Aliases.Users = defaults.Bot.Aliases.Users
	}
	if len(out.Sonarr.CommandAliases) == 0 {
		out.Sonarr.CommandAliases = defaults.Sonarr.CommandAliases
	}
	if len(out.Radarr.CommandAliases) == 0 {
		out.Radarr.CommandAliases = defaults.Radarr.CommandAliases
	}
	if len(out.Readarr.CommandAliases) == 0 {
		out.Readarr.CommandAliases = defaults.Readarr.CommandAliases
	}
	if out.Radarr.MinAvailability == "" {
		out.Radarr.MinAvailability = DefaultMinAvailability
	}
	if !slices.Contains(i18n.Languages(), strings.ToLower(out.Bot.Language)) {
		out.Bot.Language = i18n.DefaultLanguage
	}
	return out, generated
}
