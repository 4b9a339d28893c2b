package config

import (
	"log/slog"
	"strings"

	"github.com/memohai/searcharr/internal/catalog"
	"github.com/memohai/searcharr/internal/command"
	"github.com/memohai/searcharr/internal/conversation"
)

// Catalog returns the section configuring kind.
func (c Config) Catalog(kind catalog.Kind) CatalogConfig {
	switch kind {
	case catalog.KindSeries:
		return c.Sonarr
	case catalog.KindMovie:
		return c.Radarr
	default:
		return c.Readarr
	}
}

// EngineSettings converts the add behavior of every catalog for the conversation engine.
func (c Config) EngineSettings() conversation.Settings {
	return conversation.Settings{
		Series:       c.Sonarr.kindSettings(),
		Movie:        c.Radarr.kindSettings(),
		Book:         c.Readarr.kindSettings(),
		StartAliases: c.Bot.Aliases.Start,
	}
}

// CommandAliases lists the names each command answers to.
func (c Config) CommandAliases() command.Aliases {
	return command.Aliases{
		Start:  c.Bot.Aliases.Start,
		Help:   c.Bot.Aliases.Help,
		Users:  c.Bot.Aliases.Users,
		Series: c.Sonarr.CommandAliases,
		Movie:  c.Radarr.CommandAliases,
		Book:   c.Readarr.CommandAliases,
	}
}

func (c CatalogConfig) kindSettings() conversation.KindSettings {
	return conversation.KindSettings{
		AddMonitored:        c.AddMonitored,
		SearchOnAdd:         c.SearchOnAdd,
		TagWithUsername:     c.TagWithUsername,
		ForcedTags:          trimAll(c.ForcedTags),
		AllowUserTags:       c.AllowUserToSelectTags,
		SeasonMonitorPrompt: c.AddSeasonMonitorPrompt,
		SeasonFolders:       c.SeasonFolders,
		MinAvailability:     c.MinAvailability,
	}
}

// LibraryConfig lists the options the operator allows on the catalog server.
func (c CatalogConfig) LibraryConfig() catalog.LibraryConfig {
	return catalog.LibraryConfig{
		RootFolders:      trimAll(c.RootFolders),
		QualityProfiles:  trimAll(c.QualityProfiles),
		MetadataProfiles: trimAll(c.MetadataProfiles),
		SelectableTags:   trimAll(c.UserSelectableTags),
		ExcludedTags:     trimAll(c.ExcludedTags),
	}
}

// ClientConfig returns the connection settings of the catalog server.
func (c CatalogConfig) ClientConfig(log *slog.Logger) catalog.ClientConfig {
	return catalog.ClientConfig{
		BaseURL: c.URL,
		APIKey:  c.APIKey,
		Logger:  log,
	}
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
