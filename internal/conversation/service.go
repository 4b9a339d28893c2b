// Package conversation is the state machine behind searches, the add wizard and the users
// listing. Every button press arrives as an independent callback; all state lives in the
// session store.
package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/memohai/searcharr/internal/catalog"
	"github.com/memohai/searcharr/internal/i18n"
	"github.com/memohai/searcharr/internal/render"
	"github.com/memohai/searcharr/internal/session"
)

// Engine applies commands and callbacks to stored conversations.
type Engine struct {
	store     *session.Store
	sources   map[catalog.Kind]Source
	builder   *render.Builder
	tr        *i18n.Translator
	passwords Passwords
	settings  Settings
	logger    *slog.Logger
}

// NewEngine creates an engine. Kinds without a source are treated as disabled.
func NewEngine(log *slog.Logger, store *session.Store, tr *i18n.Translator, passwords Passwords, settings Settings, sources ...Source) *Engine {
	if log == nil {
		log = slog.Default()
	}
	bySource := make(map[catalog.Kind]Source, len(sources))
	for _, src := range sources {
		if src == nil {
			continue
		}
		bySource[src.Kind()] = src
	}
	return &Engine{
		store:     store,
		sources:   bySource,
		builder:   render.NewBuilder(tr),
		tr:        tr,
		passwords: passwords,
		settings:  settings,
		logger:    log.With(slog.String("service", "conversation")),
	}
}

// Enabled reports whether a catalog is configured for kind.
func (e *Engine) Enabled(kind catalog.Kind) bool {
	_, ok := e.sources[kind]
	return ok
}

// CreateConversation stores a new conversation over results and returns its id.
func (e *Engine) CreateConversation(ctx context.Context, username string, kind catalog.Kind, results any) (string, error) {
	payload, err := json.Marshal(results)
	if err != nil {
		return "", fmt.Errorf("encode results: %w", err)
	}
	cid, err := e.store.GenerateConversationID(ctx)
	if err != nil {
		return "", err
	}
	if err := e.store.CreateConversation(ctx, session.Conversation{
		ID:       cid,
		Username: username,
		Kind:     kind,
		Results:  payload,
	}); err != nil {
		return "", err
	}
	e.logger.Debug("conversation created", slog.String("cid", cid), slog.String("kind", kind.String()))
	return cid, nil
}

// AuthResult is the outcome of a /start attempt.
type AuthResult struct {
	Level session.AuthLevel
	// Existing is set when the caller was already authenticated and nothing changed.
	Existing bool
}

// Authenticate checks password for caller. The admin password always grants admin; a
// known caller keeps their level; the user password grants user.
func (e *Engine) Authenticate(ctx context.Context, caller Caller, password string) (AuthResult, error) {
	password = strings.TrimSpace(password)
	if password != "" && e.passwords.MatchAdmin(password) {
		if err := e.store.AddUser(ctx, session.User{ID: caller.ID, Username: caller.Username, Admin: session.AdminValue}); err != nil {
			return AuthResult{}, err
		}
		e.logger.Info("admin authenticated", slog.Int64("user_id", caller.ID), slog.String("username", caller.Username))
		return AuthResult{Level: session.AuthAdmin}, nil
	}
	level, err := e.AuthLevel(ctx, caller.ID)
	if err != nil {
		return AuthResult{}, err
	}
	if level != session.AuthNone {
		return AuthResult{Level: level, Existing: true}, nil
	}
	if e.passwords.MatchUser(password) {
		if err := e.store.AddUser(ctx, session.User{ID: caller.ID, Username: caller.Username}); err != nil {
			return AuthResult{}, err
		}
		e.logger.Info("user authenticated", slog.Int64("user_id", caller.ID), slog.String("username", caller.Username))
		return AuthResult{Level: session.AuthUser}, nil
	}
	e.logger.Warn("authentication failed", slog.Int64("user_id", caller.ID), slog.String("username", caller.Username))
	return AuthResult{Level: session.AuthNone}, nil
}

// AuthLevel returns the stored level of a caller.
func (e *Engine) AuthLevel(ctx context.Context, callerID int64) (session.AuthLevel, error) {
	user, err := e.store.GetUser(ctx, callerID)
	if errors.Is(err, session.ErrUserNotFound) {
		return session.AuthNone, nil
	}
	if err != nil {
		return session.AuthNone, err
	}
	return user.Level(), nil
}

// Search looks title up in the catalog of kind and renders the first result.
func (e *Engine) Search(ctx context.Context, caller Caller, kind catalog.Kind, title string) (render.Response, error) {
	src, ok := e.sources[kind]
	if !ok {
		return render.Response{render.Reply(e.tr.T(disabledKey(kind), nil))}, nil
	}
	results, err := src.Lookup(ctx, title)
	if err != nil {
		e.logger.Error("catalog lookup failed", slog.String("kind", kind.String()), slog.String("title", title), slog.Any("error", err))
		return render.Response{render.Reply(e.tr.T("search_failed", i18n.Args{"app": kind.App()}))}, nil
	}
	// The conversation is stored even without results; the sweeper cleans those up when enabled.
	cid, err := e.CreateConversation(ctx, caller.Username, kind, results)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return render.Response{render.Reply(e.tr.T(noMatchesKey(kind), nil))}, nil
	}
	item := results[0]
	caption, kb := e.builder.Item(kind, item, cid, 0, len(results), render.Wizard{})
	return render.Response{render.SendPhoto(item.PosterURL(), caption, kb)}, nil
}

// ListUsers starts a users conversation for an admin.
func (e *Engine) ListUsers(ctx context.Context, caller Caller) (render.Response, error) {
	level, err := e.AuthLevel(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	if level != session.AuthAdmin {
		return render.Response{render.Reply(e.adminRequired())}, nil
	}
	users, err := e.store.ListUsers(ctx, false)
	if err != nil {
		return nil, err
	}
	cid, err := e.CreateConversation(ctx, caller.Username, catalog.KindUsers, users)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return render.Response{render.Reply(e.tr.T("no_users_found", nil))}, nil
	}
	text, kb := e.builder.Users(cid, users, 0)
	return render.Response{render.SendText(text, kb)}, nil
}

func (e *Engine) adminRequired() string {
	return e.tr.Aliases("admin_auth_required", e.settings.startAliases(), "admin_password")
}

func disabledKey(kind catalog.Kind) string {
	switch kind {
	case catalog.KindSeries:
		return "sonarr_disabled"
	case catalog.KindMovie:
		return "radarr_disabled"
	default:
		return "readarr_disabled"
	}
}

func noMatchesKey(kind catalog.Kind) string {
	switch kind {
	case catalog.KindSeries:
		return "no_matching_series"
	case catalog.KindMovie:
		return "no_matching_movies"
	default:
		return "no_matching_books"
	}
}
