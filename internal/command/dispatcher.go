package command

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/memohai/searcharr/internal/catalog"
	"github.com/memohai/searcharr/internal/conversation"
	"github.com/memohai/searcharr/internal/i18n"
	"github.com/memohai/searcharr/internal/render"
	"github.com/memohai/searcharr/internal/session"
)

// Conversations is the part of the conversation engine commands drive.
type Conversations interface {
	Enabled(kind catalog.Kind) bool
	Authenticate(ctx context.Context, caller conversation.Caller, password string) (conversation.AuthResult, error)
	AuthLevel(ctx context.Context, callerID int64) (session.AuthLevel, error)
	Search(ctx context.Context, caller conversation.Caller, kind catalog.Kind, title string) (render.Response, error)
	ListUsers(ctx context.Context, caller conversation.Caller) (render.Response, error)
}

// Aliases lists the names each command answers to.
type Aliases struct {
	Start  []string
	Help   []string
	Users  []string
	Series []string
	Movie  []string
	Book   []string
}

func (a Aliases) withDefaults() Aliases {
	pick := func(names []string, fallback string) []string {
		if len(names) == 0 {
			return []string{fallback}
		}
		return names
	}
	return Aliases{
		Start:  pick(a.Start, "start"),
		Help:   pick(a.Help, "help"),
		Users:  pick(a.Users, "users"),
		Series: pick(a.Series, "series"),
		Movie:  pick(a.Movie, "movie"),
		Book:   pick(a.Book, "book"),
	}
}

func (a Aliases) forKind(kind catalog.Kind) []string {
	switch kind {
	case catalog.KindSeries:
		return a.Series
	case catalog.KindMovie:
		return a.Movie
	default:
		return a.Book
	}
}

// Dispatcher routes invocations to the handler registered for their name.
type Dispatcher struct {
	registry *Registry
	conv     Conversations
	tr       *i18n.Translator
	aliases  Aliases
	logger   *slog.Logger
}

// NewDispatcher registers the built-in commands. Catalog commands are registered only for
// enabled kinds; an alias used twice is an error.
func NewDispatcher(log *slog.Logger, conv Conversations, tr *i18n.Translator, aliases Aliases) (*Dispatcher, error) {
	if log == nil {
		log = slog.Default()
	}
	d := &Dispatcher{
		registry: NewRegistry(),
		conv:     conv,
		tr:       tr,
		aliases:  aliases.withDefaults(),
		logger:   log.With(slog.String("service", "command")),
	}
	if err := d.registry.Register(d.start, d.aliases.Start...); err != nil {
		return nil, fmt.Errorf("register start: %w", err)
	}
	if err := d.registry.Register(d.help, d.aliases.Help...); err != nil {
		return nil, fmt.Errorf("register help: %w", err)
	}
	if err := d.registry.Register(d.users, d.aliases.Users...); err != nil {
		return nil, fmt.Errorf("register users: %w", err)
	}
	for _, kind := range []catalog.Kind{catalog.KindSeries, catalog.KindMovie, catalog.KindBook} {
		if !conv.Enabled(kind) {
			continue
		}
		if err := d.registry.Register(d.search(kind), d.aliases.forKind(kind)...); err != nil {
			return nil, fmt.Errorf("register %s: %w", kind, err)
		}
	}
	d.logger.Info("commands registered", slog.Any("commands", d.registry.Names()))
	return d, nil
}

// Commands lists the registered command names.
func (d *Dispatcher) Commands() []string {
	return d.registry.Names()
}

// Dispatch runs the handler for inv. Unknown commands yield a nil response.
func (d *Dispatcher) Dispatch(ctx context.Context, inv Invocation) (render.Response, error) {
	handler, ok := d.registry.Get(inv.Name)
	if !ok {
		d.logger.Debug("ignoring unknown command", slog.String("command", inv.Name))
		return nil, nil
	}
	inv.Args = strings.TrimSpace(inv.Args)
	d.logger.Debug("command received", slog.String("command", inv.Name), slog.Int64("user_id", inv.Caller.ID))
	return handler(ctx, inv)
}

func (d *Dispatcher) reply(key string, args i18n.Args) render.Response {
	return render.Response{render.Reply(d.tr.T(key, args))}
}

func (d *Dispatcher) start(ctx context.Context, inv Invocation) (render.Response, error) {
	res, err := d.conv.Authenticate(ctx, inv.Caller, inv.Args)
	if err != nil {
		return nil, err
	}
	help := d.tr.Commands(d.aliases.Help, "")
	switch {
	case res.Existing:
		return d.reply("already_authenticated", i18n.Args{"commands": help}), nil
	case res.Level == session.AuthAdmin:
		return d.reply("admin_auth_success", i18n.Args{"commands": help}), nil
	case res.Level == session.AuthUser:
		return d.reply("auth_successful", i18n.Args{"commands": help}), nil
	default:
		return d.reply("incorrect_pw", nil), nil
	}
}

func (d *Dispatcher) help(ctx context.Context, inv Invocation) (render.Response, error) {
	level, err := d.conv.AuthLevel(ctx, inv.Caller.ID)
	if err != nil {
		return nil, err
	}
	if level == session.AuthNone {
		return render.Response{render.Reply(d.tr.Aliases("auth_required", d.aliases.Start, "password"))}, nil
	}

	var parts []string
	for _, hk := range []struct {
		kind catalog.Kind
		key  string
	}{
		{catalog.KindSeries, "help_sonarr"},
		{catalog.KindMovie, "help_radarr"},
		{catalog.KindBook, "help_readarr"},
	} {
		if d.conv.Enabled(hk.kind) {
			parts = append(parts, d.tr.Aliases(hk.key, d.aliases.forKind(hk.kind), "title"))
		}
	}
	if len(parts) == 0 {
		parts = append(parts, d.tr.T("no_features", nil))
	}
	if level == session.AuthAdmin {
		parts = append(parts, d.tr.Aliases("admin_help", d.aliases.Users, ""))
	}
	return render.Response{render.Reply(strings.Join(parts, " "))}, nil
}

func (d *Dispatcher) users(ctx context.Context, inv Invocation) (render.Response, error) {
	level, err := d.conv.AuthLevel(ctx, inv.Caller.ID)
	if err != nil {
		return nil, err
	}
	if level == session.AuthNone {
		return render.Response{render.Reply(d.tr.Aliases("callback_auth_required", d.aliases.Start, "password"))}, nil
	}
	return d.conv.ListUsers(ctx, inv.Caller)
}

func (d *Dispatcher) search(kind catalog.Kind) Handler {
	return func(ctx context.Context, inv Invocation) (render.Response, error) {
		level, err := d.conv.AuthLevel(ctx, inv.Caller.ID)
		if err != nil {
			return nil, err
		}
		if level == session.AuthNone {
			return render.Response{render.Reply(d.tr.Aliases("callback_auth_required", d.aliases.Start, "password"))}, nil
		}
		if inv.Args == "" {
			key := "include_" + kind.String() + "_title_in_cmd"
			return render.Response{render.Reply(d.tr.Aliases(key, d.aliases.forKind(kind), "title"))}, nil
		}
		return d.conv.Search(ctx, inv.Caller, kind, inv.Args)
	}
}
