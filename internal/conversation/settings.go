package conversation

import (
	"strconv"
	"strings"

	"github.com/memohai/searcharr/internal/catalog"
)

// KindSettings controls how titles of one catalog kind are added.
type KindSettings struct {
	AddMonitored        bool
	SearchOnAdd         bool
	TagWithUsername     bool
	ForcedTags          []string
	AllowUserTags       bool
	SeasonMonitorPrompt bool
	SeasonFolders       bool
	MinAvailability     string
}

// Settings is the immutable engine configuration.
type Settings struct {
	Series       KindSettings
	Movie        KindSettings
	Book         KindSettings
	StartAliases []string
}

// For returns the settings of kind.
func (s Settings) For(kind catalog.Kind) KindSettings {
	switch kind {
	case catalog.KindSeries:
		return s.Series
	case catalog.KindMovie:
		return s.Movie
	case catalog.KindBook:
		return s.Book
	default:
		return KindSettings{}
	}
}

func (s Settings) startAliases() []string {
	if len(s.StartAliases) == 0 {
		return []string{"start"}
	}
	return s.StartAliases
}

// Caller identifies the chat user behind an event.
type Caller struct {
	ID       int64
	Username string
}

// TagName is the label of the tag that records who requested a title.
func (c Caller) TagName() string {
	name := strings.TrimSpace(c.Username)
	if name == "" {
		name = strconv.FormatInt(c.ID, 10)
	}
	return catalog.TagPrefix + name
}
