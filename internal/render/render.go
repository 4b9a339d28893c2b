// Package render builds captions and inline keyboards for search results and user listings.
package render

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/memohai/searcharr/internal/callback"
	"github.com/memohai/searcharr/internal/catalog"
	"github.com/memohai/searcharr/internal/i18n"
	"github.com/memohai/searcharr/internal/session"
)

const (
	// CaptionLimit is the longest caption Telegram accepts on a photo.
	CaptionLimit = 1024
	// MaxTagButtons caps the tag prompt.
	MaxTagButtons = 12
	// UsersPageSize is the number of users per listing page.
	UsersPageSize = 5
)

// Button is either a callback button (Data) or a link (URL).
type Button struct {
	Text string
	Data string
	URL  string
}

// Keyboard is a grid of buttons, one slice per row.
type Keyboard [][]Button

// Wizard is the prompt shown while adding. At most one field is used; when several are
// set, tags win over monitor options, then quality, metadata and root folders.
type Wizard struct {
	Tags      []catalog.Tag
	Monitor   bool
	Qualities []catalog.QualityProfile
	Metadata  []catalog.MetadataProfile
	Paths     []catalog.RootFolder
}

// Active reports whether the render is part of the add flow.
func (w Wizard) Active() bool {
	return len(w.Tags) > 0 || w.Monitor || len(w.Qualities) > 0 || len(w.Metadata) > 0 || len(w.Paths) > 0
}

// Builder renders results with translated labels.
type Builder struct {
	tr *i18n.Translator
}

// NewBuilder creates a Builder.
func NewBuilder(tr *i18n.Translator) *Builder {
	return &Builder{tr: tr}
}

// Item renders one search result at index out of total.
func (b *Builder) Item(kind catalog.Kind, item catalog.Item, cid string, index, total int, w Wizard) (string, Keyboard) {
	i := int64(index)
	var kb Keyboard

	nav := []Button{}
	if index > 0 {
		nav = append(nav, b.cb(b.tr.T("prev_button", nil), callback.New(cid, i, callback.OpPrev)))
	}
	nav = append(nav, externalLinks(kind, item)...)
	if total > 1 && index < total-1 {
		nav = append(nav, b.cb(b.tr.T("next_button", nil), callback.New(cid, i, callback.OpNext)))
	}
	kb = append(kb, nav)

	add := callback.New(cid, i, callback.OpAdd)
	switch {
	case len(w.Tags) > 0:
		for n, tag := range w.Tags {
			if n == MaxTagButtons {
				break
			}
			kb = append(kb, []Button{b.cb(b.tr.T("add_tag_button", i18n.Args{"tag": tag.Label}),
				add.With(session.KeyTag, strconv.FormatInt(tag.ID, 10)))})
		}
		kb = append(kb, []Button{b.cb(b.tr.T("finished_tagging_button", nil), add.With(session.KeyTagsDone, "1"))})
	case w.Monitor:
		for n, option := range catalog.MonitorOptions {
			kb = append(kb, []Button{b.cb(b.tr.T("monitor_button", i18n.Args{"option": b.tr.T("monitor_"+option.String(), nil)}),
				add.With(session.KeyMonitor, strconv.Itoa(n)))})
		}
	case len(w.Qualities) > 0:
		for _, q := range w.Qualities {
			kb = append(kb, []Button{b.cb(b.tr.T("add_quality_button", i18n.Args{"quality": q.Name}),
				add.With(session.KeyQuality, strconv.FormatInt(q.ID, 10)))})
		}
	case len(w.Metadata) > 0:
		for _, m := range w.Metadata {
			kb = append(kb, []Button{b.cb(b.tr.T("add_metadata_button", i18n.Args{"metadata": m.Name}),
				add.With(session.KeyMetadata, strconv.FormatInt(m.ID, 10)))})
		}
	case len(w.Paths) > 0:
		for _, p := range w.Paths {
			kb = append(kb, []Button{b.cb(b.tr.T("add_path_button", i18n.Args{"path": p.Path}),
				add.With(session.KeyPath, strconv.FormatInt(p.ID, 10)))})
		}
	}

	actions := []Button{}
	if !w.Active() {
		if item.Added() {
			actions = append(actions, b.cb(b.tr.T("already_added_button", nil), callback.New(cid, i, callback.OpNoop)))
		} else {
			kindName := titleCase(b.tr.T(kind.String(), nil))
			actions = append(actions, b.cb(b.tr.T("add_button", i18n.Args{"kind": kindName}), add))
		}
	}
	actions = append(actions, b.cb(b.tr.T("cancel_search_button", nil), callback.New(cid, i, callback.OpCancel)))
	kb = append(kb, actions)

	if !w.Active() && kind == catalog.KindSeries && item.HasGenre("Anime") {
		kb = append(kb, []Button{b.cb(b.tr.T("add_series_anime_button", nil), add.With(session.KeySeriesType, "a"))})
	}

	return Truncate(b.caption(kind, item), CaptionLimit), kb
}

func (b *Builder) caption(kind catalog.Kind, item catalog.Item) string {
	var parts []string
	head := item.Title
	if item.Year > 0 && !strings.Contains(item.Title, strconv.Itoa(item.Year)) {
		head = fmt.Sprintf("%s (%d)", item.Title, item.Year)
	}
	parts = append(parts, head)

	switch kind {
	case catalog.KindSeries:
		key := "season_many"
		if item.SeasonCount == 1 {
			key = "season_one"
		}
		parts = append(parts, b.tr.T(key, i18n.Args{"count": item.SeasonCount}))
		if item.Network != "" {
			parts = append(parts, item.Network)
		}
		parts = append(parts, b.status(item))
	case catalog.KindMovie:
		if item.Runtime > 0 {
			parts = append(parts, b.tr.T("runtime", i18n.Args{"minutes": item.Runtime}))
		}
		parts = append(parts, b.status(item))
	case catalog.KindBook:
		if item.Author != "" {
			parts = append(parts, item.Author)
		}
		if len(item.ReleaseDate) >= 4 {
			parts = append(parts, item.ReleaseDate[:4])
		}
	}

	overview := item.Overview
	if overview == "" {
		overview = b.tr.T("no_overview", nil)
	}
	return strings.Join(parts, " - ") + "\n\n" + overview
}

func (b *Builder) status(item catalog.Item) string {
	if item.Status == "" {
		return b.tr.T("unknown_status", nil)
	}
	return titleCase(item.Status)
}

// Users renders one page of the users listing. page is zero based.
func (b *Builder) Users(cid string, users []session.User, page int) (string, Keyboard) {
	total := len(users)
	offset := page * UsersPageSize
	end := min(offset+UsersPageSize, total)
	var kb Keyboard
	if offset < total {
		for _, u := range users[offset:end] {
			name := u.Username
			if name == "" || name == "None" {
				name = strconv.FormatInt(u.ID, 10)
			}
			adminOp, adminKey := callback.OpMakeAdmin, "make_admin_button"
			if u.IsAdmin() {
				adminOp, adminKey = callback.OpRemoveAdmin, "remove_admin_button"
			}
			kb = append(kb, []Button{
				b.cb(b.tr.T("remove_user_button", nil), callback.New(cid, u.ID, callback.OpRemoveUser)),
				b.cb(name, callback.New(cid, u.ID, callback.OpNoop)),
				b.cb(b.tr.T(adminKey, nil), callback.New(cid, u.ID, adminOp)),
			})
		}
	}
	p := int64(page)
	nav := []Button{}
	if page > 0 {
		nav = append(nav, b.cb(b.tr.T("prev_button", nil), callback.New(cid, p, callback.OpPrev)))
	}
	nav = append(nav, b.cb(b.tr.T("done", nil), callback.New(cid, p, callback.OpDone)))
	if end < total {
		nav = append(nav, b.cb(b.tr.T("next_button", nil), callback.New(cid, p, callback.OpNext)))
	}
	kb = append(kb, nav)

	text := b.tr.T("listing_users", i18n.Args{"start": min(offset+1, total), "end": end, "total": total})
	return text, kb
}

// UsersPages returns the number of listing pages for n users.
func UsersPages(n int) int {
	if n <= 0 {
		return 1
	}
	return (n + UsersPageSize - 1) / UsersPageSize
}

func (b *Builder) cb(text string, d callback.Data) Button {
	return Button{Text: text, Data: callback.Encode(d)}
}

func externalLinks(kind catalog.Kind, item catalog.Item) []Button {
	var links []Button
	switch kind {
	case catalog.KindSeries:
		if item.TvdbID > 0 && item.TitleSlug != "" {
			links = append(links, Button{Text: "tvdb", URL: "https://thetvdb.com/series/" + item.TitleSlug})
		}
	case catalog.KindMovie:
		if item.TmdbID > 0 {
			links = append(links, Button{Text: "TMDB", URL: "https://www.themoviedb.org/movie/" + strconv.FormatInt(item.TmdbID, 10)})
		}
	case catalog.KindBook:
		for _, link := range item.Links {
			if link.URL != "" && link.Name != "" {
				links = append(links, Button{Text: link.Name, URL: link.URL})
			}
		}
	}
	if item.ImdbID != "" {
		links = append(links, Button{Text: "IMDb", URL: "https://imdb.com/title/" + item.ImdbID})
	}
	return links
}

// titleCase builds a fresh Caser per call; a Caser is not safe for concurrent use.
func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

// Truncate cuts s to at most limit runes.
func Truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return string(r[:limit])
}
