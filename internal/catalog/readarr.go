package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
)

type readarrAuthor struct {
	ForeignAuthorID string `json:"foreignAuthorId"`
	AuthorName      string `json:"authorName"`
}

type readarrBook struct {
	ID            int64          `json:"id"`
	Title         string         `json:"title"`
	AuthorTitle   string         `json:"authorTitle"`
	SeriesTitle   string         `json:"seriesTitle"`
	Overview      string         `json:"overview"`
	RemoteCover   string         `json:"remoteCover"`
	ReleaseDate   string         `json:"releaseDate"`
	ForeignBookID string         `json:"foreignBookId"`
	TitleSlug     string         `json:"titleSlug"`
	PageCount     int            `json:"pageCount"`
	Genres        []string       `json:"genres"`
	Links         []Link         `json:"links"`
	Author        *readarrAuthor `json:"author"`
}

type readarrSearchResult struct {
	Book json.RawMessage `json:"book"`
}

// Readarr is a client for the Readarr v1 API.
type Readarr struct {
	*client
}

// NewReadarr creates a Readarr client.
func NewReadarr(cfg ClientConfig) (*Readarr, error) {
	c, err := newClient("Readarr", "/api/v1", cfg)
	if err != nil {
		return nil, err
	}
	return &Readarr{client: c}, nil
}

func (r *Readarr) Kind() Kind { return KindBook }

// Lookup searches books; author-only search hits are dropped.
func (r *Readarr) Lookup(ctx context.Context, term string) ([]Item, error) {
	var raw []json.RawMessage
	if err := r.get(ctx, "/search", url.Values{"term": {strings.TrimSpace(term)}}, &raw); err != nil {
		return nil, err
	}
	return decodeRaw(raw, func(data json.RawMessage) (Item, bool, error) {
		var hit readarrSearchResult
		if err := json.Unmarshal(data, &hit); err != nil {
			return Item{}, false, err
		}
		if len(hit.Book) == 0 || string(hit.Book) == "null" {
			return Item{}, false, nil
		}
		var book readarrBook
		if err := json.Unmarshal(hit.Book, &book); err != nil {
			return Item{}, false, err
		}
		overview := book.Overview
		if overview == "" {
			overview = "No overview available."
		}
		author := book.AuthorTitle
		if book.Author != nil && book.Author.AuthorName != "" {
			author = book.Author.AuthorName
		}
		return Item{
			ID:          book.ID,
			Title:       book.Title,
			Overview:    overview,
			Poster:      book.RemoteCover,
			TitleSlug:   book.TitleSlug,
			Genres:      book.Genres,
			ReleaseDate: book.ReleaseDate,
			Author:      author,
			Links:       book.Links,
			Raw:         hit.Book,
		}, true, nil
	})
}

// Add adds the book with its author. When search is requested a BookSearch command follows.
func (r *Readarr) Add(ctx context.Context, item Item, opts AddOptions) (Item, error) {
	body, err := rawObject(item)
	if err != nil {
		return Item{}, err
	}
	author, _ := body["author"].(map[string]any)
	if author == nil {
		author = map[string]any{}
	}
	if _, ok := author["foreignAuthorId"]; !ok {
		return Item{}, fmt.Errorf("readarr: book %q has no author", item.Title)
	}
	author["qualityProfileId"] = opts.QualityProfileID
	author["metadataProfileId"] = opts.MetadataProfileID
	author["rootFolderPath"] = opts.RootFolder
	author["monitored"] = opts.Monitored
	author["tags"] = int64Slice(opts.Tags)
	body["author"] = author
	body["monitored"] = opts.Monitored
	body["anyEditionOk"] = true
	body["addOptions"] = map[string]any{"searchForNewBook": opts.Search}

	var added readarrBook
	if err := r.post(ctx, "/book", body, &added); err != nil {
		return Item{}, err
	}
	if added.ID == 0 {
		return Item{}, ErrAddFailed
	}
	item.ID = added.ID
	if opts.Search {
		command := map[string]any{"name": "BookSearch", "bookIds": []int64{added.ID}}
		if err := r.post(ctx, "/command", command, nil); err != nil {
			r.logger.Warn("book search command failed", slog.Int64("book_id", added.ID), slog.Any("error", err))
		}
	}
	return item, nil
}

func (r *Readarr) MetadataProfiles(ctx context.Context) ([]MetadataProfile, error) {
	var profiles []MetadataProfile
	if err := r.get(ctx, "/metadataprofile", nil, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}
