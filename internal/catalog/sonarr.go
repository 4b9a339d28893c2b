package catalog

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
)

type sonarrSeason struct {
	SeasonNumber int  `json:"seasonNumber"`
	Monitored    bool `json:"monitored"`
}

type sonarrSeries struct {
	ID           int64          `json:"id"`
	Title        string         `json:"title"`
	Year         int            `json:"year"`
	Overview     string         `json:"overview"`
	Status       string         `json:"status"`
	Network      string         `json:"network"`
	RemotePoster string         `json:"remotePoster"`
	TvdbID       int64          `json:"tvdbId"`
	ImdbID       string         `json:"imdbId"`
	TitleSlug    string         `json:"titleSlug"`
	Genres       []string       `json:"genres"`
	SeasonCount  int            `json:"seasonCount"`
	Seasons      []sonarrSeason `json:"seasons"`
	Statistics   struct {
		SeasonCount int `json:"seasonCount"`
	} `json:"statistics"`
}

// Sonarr is a client for the Sonarr v3 API.
type Sonarr struct {
	*client
}

// NewSonarr creates a Sonarr client.
func NewSonarr(cfg ClientConfig) (*Sonarr, error) {
	c, err := newClient("Sonarr", "/api/v3", cfg)
	if err != nil {
		return nil, err
	}
	return &Sonarr{client: c}, nil
}

func (s *Sonarr) Kind() Kind { return KindSeries }

func (s *Sonarr) Lookup(ctx context.Context, term string) ([]Item, error) {
	var raw []json.RawMessage
	if err := s.get(ctx, "/series/lookup", url.Values{"term": {strings.TrimSpace(term)}}, &raw); err != nil {
		return nil, err
	}
	return decodeRaw(raw, func(data json.RawMessage) (Item, bool, error) {
		var series sonarrSeries
		if err := json.Unmarshal(data, &series); err != nil {
			return Item{}, false, err
		}
		seasons := series.SeasonCount
		if seasons == 0 {
			seasons = series.Statistics.SeasonCount
		}
		if seasons == 0 {
			for _, season := range series.Seasons {
				if season.SeasonNumber > 0 {
					seasons++
				}
			}
		}
		status := series.Status
		if status == "" {
			status = "Unknown Status"
		}
		overview := series.Overview
		if overview == "" {
			overview = "Overview not available."
		}
		return Item{
			ID:          series.ID,
			Title:       series.Title,
			Year:        series.Year,
			Overview:    overview,
			Status:      status,
			Poster:      series.RemotePoster,
			TvdbID:      series.TvdbID,
			ImdbID:      series.ImdbID,
			TitleSlug:   series.TitleSlug,
			Genres:      series.Genres,
			SeasonCount: seasons,
			Network:     series.Network,
			Raw:         data,
		}, true, nil
	})
}

func (s *Sonarr) Add(ctx context.Context, item Item, opts AddOptions) (Item, error) {
	body, err := rawObject(item)
	if err != nil {
		return Item{}, err
	}
	seriesType := opts.SeriesType
	if seriesType == "" {
		seriesType = "standard"
	}
	body["qualityProfileId"] = opts.QualityProfileID
	body["rootFolderPath"] = opts.RootFolder
	body["monitored"] = opts.Monitored
	body["seasonFolder"] = opts.SeasonFolders
	body["seriesType"] = seriesType
	body["tags"] = int64Slice(opts.Tags)
	body["seasons"] = monitorSeasons(item, opts.SeasonMonitor, opts.Monitored)
	body["addOptions"] = map[string]any{
		"ignoreEpisodesWithFiles":    true,
		"ignoreEpisodesWithoutFiles": false,
		"searchForMissingEpisodes":   opts.Search,
	}

	var added sonarrSeries
	if err := s.post(ctx, "/series", body, &added); err != nil {
		return Item{}, err
	}
	if added.ID == 0 {
		return Item{}, ErrAddFailed
	}
	item.ID = added.ID
	return item, nil
}

func (s *Sonarr) MetadataProfiles(context.Context) ([]MetadataProfile, error) {
	return nil, ErrMetadataUnsupported
}

// monitorSeasons applies the season monitor choice to the looked-up seasons.
// Specials (season 0) are never monitored.
func monitorSeasons(item Item, choice SeasonMonitor, monitored bool) []sonarrSeason {
	var series sonarrSeries
	if len(item.Raw) > 0 {
		_ = json.Unmarshal(item.Raw, &series)
	}
	latest := 0
	for _, season := range series.Seasons {
		if season.SeasonNumber > latest {
			latest = season.SeasonNumber
		}
	}
	seasons := make([]sonarrSeason, 0, len(series.Seasons))
	for _, season := range series.Seasons {
		on := monitored && season.SeasonNumber > 0
		switch choice {
		case MonitorFirst:
			on = on && season.SeasonNumber == 1
		case MonitorLatest:
			on = on && season.SeasonNumber == latest
		}
		seasons = append(seasons, sonarrSeason{SeasonNumber: season.SeasonNumber, Monitored: on})
	}
	return seasons
}
