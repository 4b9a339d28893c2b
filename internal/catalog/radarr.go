package catalog

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
)

type radarrMovie struct {
	ID           int64    `json:"id"`
	Title        string   `json:"title"`
	Year         int      `json:"year"`
	Overview     string   `json:"overview"`
	Status       string   `json:"status"`
	RemotePoster string   `json:"remotePoster"`
	TmdbID       int64    `json:"tmdbId"`
	ImdbID       string   `json:"imdbId"`
	TitleSlug    string   `json:"titleSlug"`
	Runtime      int      `json:"runtime"`
	Genres       []string `json:"genres"`
	InCinemas    string   `json:"inCinemas"`
}

// Radarr is a client for the Radarr v3 API.
type Radarr struct {
	*client
}

// NewRadarr creates a Radarr client.
func NewRadarr(cfg ClientConfig) (*Radarr, error) {
	c, err := newClient("Radarr", "/api/v3", cfg)
	if err != nil {
		return nil, err
	}
	return &Radarr{client: c}, nil
}

func (r *Radarr) Kind() Kind { return KindMovie }

func (r *Radarr) Lookup(ctx context.Context, term string) ([]Item, error) {
	var raw []json.RawMessage
	if err := r.get(ctx, "/movie/lookup", url.Values{"term": {strings.TrimSpace(term)}}, &raw); err != nil {
		return nil, err
	}
	return decodeRaw(raw, func(data json.RawMessage) (Item, bool, error) {
		var movie radarrMovie
		if err := json.Unmarshal(data, &movie); err != nil {
			return Item{}, false, err
		}
		status := movie.Status
		if status == "" {
			status = "Unknown Status"
		}
		overview := movie.Overview
		if overview == "" {
			overview = "No overview available."
		}
		return Item{
			ID:          movie.ID,
			Title:       movie.Title,
			Year:        movie.Year,
			Overview:    overview,
			Status:      status,
			Poster:      movie.RemotePoster,
			TmdbID:      movie.TmdbID,
			ImdbID:      movie.ImdbID,
			TitleSlug:   movie.TitleSlug,
			Runtime:     movie.Runtime,
			Genres:      movie.Genres,
			ReleaseDate: movie.InCinemas,
			Raw:         data,
		}, true, nil
	})
}

func (r *Radarr) Add(ctx context.Context, item Item, opts AddOptions) (Item, error) {
	body, err := rawObject(item)
	if err != nil {
		return Item{}, err
	}
	minAvailability := opts.MinAvailability
	if minAvailability == "" {
		minAvailability = "released"
	}
	body["qualityProfileId"] = opts.QualityProfileID
	body["rootFolderPath"] = opts.RootFolder
	body["monitored"] = opts.Monitored
	body["minimumAvailability"] = minAvailability
	body["tags"] = int64Slice(opts.Tags)
	body["addOptions"] = map[string]any{"searchForMovie": opts.Search}

	var added radarrMovie
	if err := r.post(ctx, "/movie", body, &added); err != nil {
		return Item{}, err
	}
	if added.ID == 0 {
		return Item{}, ErrAddFailed
	}
	item.ID = added.ID
	return item, nil
}

func (r *Radarr) MetadataProfiles(context.Context) ([]MetadataProfile, error) {
	return nil, ErrMetadataUnsupported
}
