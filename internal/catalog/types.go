// Package catalog provides thin clients for the Sonarr, Radarr and Readarr REST APIs
// and the shared types the conversation engine reads from them.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Kind identifies the collection a conversation searches.
type Kind int

const (
	KindSeries Kind = iota + 1
	KindMovie
	KindBook
	KindUsers
)

// DefaultPoster is shown when a result carries no artwork or the chat platform rejects it.
const DefaultPoster = "https://artworks.thetvdb.com/banners/images/missing/movie.jpg"

var (
	ErrUnknownKind         = errors.New("unknown catalog kind")
	ErrNoRootFolders       = errors.New("no root folders configured")
	ErrNoQualityProfiles   = errors.New("no quality profiles configured")
	ErrNoMetadataProfiles  = errors.New("no metadata profiles configured")
	ErrAddFailed           = errors.New("catalog add failed")
	ErrMetadataUnsupported = errors.New("metadata profiles are not supported")
)

func (k Kind) String() string {
	switch k {
	case KindSeries:
		return "series"
	case KindMovie:
		return "movie"
	case KindBook:
		return "book"
	case KindUsers:
		return "users"
	default:
		return ""
	}
}

// App returns the name of the service backing the kind.
func (k Kind) App() string {
	switch k {
	case KindSeries:
		return "Sonarr"
	case KindMovie:
		return "Radarr"
	case KindBook:
		return "Readarr"
	default:
		return "Searcharr"
	}
}

// ParseKind converts a stored kind string back to a Kind.
func ParseKind(raw string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "series":
		return KindSeries, nil
	case "movie":
		return KindMovie, nil
	case "book":
		return KindBook, nil
	case "users":
		return KindUsers, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownKind, raw)
	}
}

// Link is an external page attached to a result (books carry these instead of ids).
type Link struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Item is one lookup result. ID is zero when the title is not yet in the catalog.
type Item struct {
	ID          int64           `json:"id,omitempty"`
	Title       string          `json:"title"`
	Year        int             `json:"year,omitempty"`
	Overview    string          `json:"overview,omitempty"`
	Status      string          `json:"status,omitempty"`
	Poster      string          `json:"remotePoster,omitempty"`
	ImdbID      string          `json:"imdbId,omitempty"`
	TmdbID      int64           `json:"tmdbId,omitempty"`
	TvdbID      int64           `json:"tvdbId,omitempty"`
	TitleSlug   string          `json:"titleSlug,omitempty"`
	SeasonCount int             `json:"seasonCount,omitempty"`
	Network     string          `json:"network,omitempty"`
	Runtime     int             `json:"runtime,omitempty"`
	Genres      []string        `json:"genres,omitempty"`
	ReleaseDate string          `json:"releaseDate,omitempty"`
	Author      string          `json:"authorTitle,omitempty"`
	Links       []Link          `json:"links,omitempty"`
	Raw         json.RawMessage `json:"raw,omitempty"`
}

// Added reports whether the catalog already holds this title.
func (i Item) Added() bool {
	return i.ID > 0
}

// PosterURL returns the artwork to display, falling back to DefaultPoster.
func (i Item) PosterURL() string {
	if strings.TrimSpace(i.Poster) == "" {
		return DefaultPoster
	}
	return i.Poster
}

// HasGenre reports whether genre is listed on the item, ignoring case.
func (i Item) HasGenre(genre string) bool {
	for _, g := range i.Genres {
		if strings.EqualFold(g, genre) {
			return true
		}
	}
	return false
}

type RootFolder struct {
	ID        int64  `json:"id"`
	Path      string `json:"path"`
	FreeSpace int64  `json:"freeSpace,omitempty"`
}

type QualityProfile struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type MetadataProfile struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Tag struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
}

// SeasonMonitor selects which seasons of a new series are monitored.
type SeasonMonitor int

const (
	MonitorAll SeasonMonitor = iota
	MonitorFirst
	MonitorLatest
)

// MonitorOptions lists the season monitor choices in button order.
var MonitorOptions = []SeasonMonitor{MonitorAll, MonitorFirst, MonitorLatest}

func (m SeasonMonitor) String() string {
	switch m {
	case MonitorFirst:
		return "first"
	case MonitorLatest:
		return "latest"
	default:
		return "all"
	}
}

// AddOptions carries everything collected by the add wizard.
type AddOptions struct {
	RootFolder        string
	QualityProfileID  int64
	MetadataProfileID int64
	Monitored         bool
	Search            bool
	Tags              []int64
	SeasonMonitor     SeasonMonitor
	SeriesType        string
	SeasonFolders     bool
	MinAvailability   string
}

// Catalog is the narrow surface the conversation engine needs from a media manager.
type Catalog interface {
	Kind() Kind
	Lookup(ctx context.Context, term string) ([]Item, error)
	Add(ctx context.Context, item Item, opts AddOptions) (Item, error)
	RootFolders(ctx context.Context) ([]RootFolder, error)
	QualityProfiles(ctx context.Context) ([]QualityProfile, error)
	MetadataProfiles(ctx context.Context) ([]MetadataProfile, error)
	Tags(ctx context.Context) ([]Tag, error)
	GetOrCreateTag(ctx context.Context, label string) (int64, error)
}
