package command

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memohai/searcharr/internal/catalog"
	"github.com/memohai/searcharr/internal/conversation"
	"github.com/memohai/searcharr/internal/i18n"
	"github.com/memohai/searcharr/internal/render"
	"github.com/memohai/searcharr/internal/session"
)

type fakeConversations struct {
	enabled  map[catalog.Kind]bool
	levels   map[int64]session.AuthLevel
	auth     conversation.AuthResult
	authErr  error
	searches []string
	listed   int
}

func (f *fakeConversations) Enabled(kind catalog.Kind) bool { return f.enabled[kind] }

func (f *fakeConversations) Authenticate(context.Context, conversation.Caller, string) (conversation.AuthResult, error) {
	return f.auth, f.authErr
}

func (f *fakeConversations) AuthLevel(_ context.Context, id int64) (session.AuthLevel, error) {
	return f.levels[id], nil
}

func (f *fakeConversations) Search(_ context.Context, _ conversation.Caller, kind catalog.Kind, title string) (render.Response, error) {
	f.searches = append(f.searches, kind.String()+":"+title)
	return render.Response{render.SendPhoto(catalog.DefaultPoster, title, nil)}, nil
}

func (f *fakeConversations) ListUsers(context.Context, conversation.Caller) (render.Response, error) {
	f.listed++
	return render.Response{render.SendText("users", nil)}, nil
}

func newDispatcher(t *testing.T, conv *fakeConversations, aliases Aliases) *Dispatcher {
	t.Helper()
	tr, err := i18n.Load(i18n.DefaultLanguage, nil)
	require.NoError(t, err)
	d, err := NewDispatcher(nil, conv, tr, aliases)
	require.NoError(t, err)
	return d
}

var (
	member = conversation.Caller{ID: 1, Username: "alice"}
	admin  = conversation.Caller{ID: 2, Username: "root"}
	guest  = conversation.Caller{ID: 3, Username: "eve"}
)

func allEnabled() *fakeConversations {
	return &fakeConversations{
		enabled: map[catalog.Kind]bool{catalog.KindSeries: true, catalog.KindMovie: true, catalog.KindBook: true},
		levels:  map[int64]session.AuthLevel{member.ID: session.AuthUser, admin.ID: session.AuthAdmin},
	}
}

func replyText(t *testing.T, resp render.Response) string {
	t.Helper()
	require.Len(t, resp, 1)
	require.Equal(t, render.ActionReply, resp[0].Kind)
	return resp[0].Text
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	noop := func(context.Context, Invocation) (render.Response, error) { return nil, nil }

	require.NoError(t, r.Register(noop, "movie", "m"))
	err := r.Register(noop, "film", "/M")
	assert.ErrorIs(t, err, ErrDuplicateCommand)
	_, ok := r.Get("film")
	assert.False(t, ok, "failed registration leaves no partial aliases")

	assert.ErrorIs(t, r.Register(noop, "x", "x"), ErrDuplicateCommand)
	assert.Error(t, r.Register(noop))
	assert.Error(t, r.Register(nil, "y"))
	assert.Equal(t, []string{"m", "movie"}, r.Names())
}

func TestDuplicateAliasAcrossCommands(t *testing.T) {
	t.Parallel()
	tr, err := i18n.Load(i18n.DefaultLanguage, nil)
	require.NoError(t, err)

	_, err = NewDispatcher(nil, allEnabled(), tr, Aliases{Movie: []string{"add"}, Series: []string{"add"}})
	assert.ErrorIs(t, err, ErrDuplicateCommand)
}

func TestCatalogCommandsOnlyWhenEnabled(t *testing.T) {
	t.Parallel()
	conv := allEnabled()
	conv.enabled[catalog.KindBook] = false
	d := newDispatcher(t, conv, Aliases{Movie: []string{"movie", "film"}})

	assert.Equal(t, []string{"film", "help", "movie", "series", "start", "users"}, d.Commands())
	resp, err := d.Dispatch(context.Background(), Invocation{Caller: member, Name: "book", Args: "Dune"})
	require.NoError(t, err)
	assert.Nil(t, resp)
}

func TestSearchCommand(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	conv := allEnabled()
	d := newDispatcher(t, conv, Aliases{Movie: []string{"movie", "film"}})

	resp, err := d.Dispatch(ctx, Invocation{Caller: member, Name: "Film", Args: "  Dune  "})
	require.NoError(t, err)
	assert.Equal(t, []render.ActionKind{render.ActionSendPhoto}, resp.Kinds())
	assert.Equal(t, []string{"movie:Dune"}, conv.searches)

	resp, err = d.Dispatch(ctx, Invocation{Caller: member, Name: "movie"})
	require.NoError(t, err)
	assert.Equal(t, "Please include the movie title in the command, e.g. `/movie <title>` OR `/film <title>`", replyText(t, resp))

	resp, err = d.Dispatch(ctx, Invocation{Caller: guest, Name: "series", Args: "The Wire"})
	require.NoError(t, err)
	assert.Contains(t, replyText(t, resp), "I don't seem to know you")
	assert.Len(t, conv.searches, 1)
}

func TestStartCommand(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		auth conversation.AuthResult
		want string
	}{
		{name: "admin", auth: conversation.AuthResult{Level: session.AuthAdmin}, want: "Admin authentication successful. Use `/help` for further information."},
		{name: "user", auth: conversation.AuthResult{Level: session.AuthUser}, want: "Authentication successful. Use `/help` for further information."},
		{name: "existing", auth: conversation.AuthResult{Level: session.AuthUser, Existing: true}, want: "You are already authenticated. Try `/help`."},
		{name: "wrong", auth: conversation.AuthResult{Level: session.AuthNone}, want: "Incorrect password."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			conv := allEnabled()
			conv.auth = tc.auth
			d := newDispatcher(t, conv, Aliases{})
			resp, err := d.Dispatch(context.Background(), Invocation{Caller: guest, Name: "start", Args: "pw"})
			require.NoError(t, err)
			assert.Equal(t, tc.want, replyText(t, resp))
		})
	}
}

func TestStartPropagatesStorageErrors(t *testing.T) {
	t.Parallel()
	conv := allEnabled()
	conv.authErr = errors.New("disk full")
	d := newDispatcher(t, conv, Aliases{})

	_, err := d.Dispatch(context.Background(), Invocation{Caller: guest, Name: "start", Args: "pw"})
	assert.Error(t, err)
}

func TestHelpCommand(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	conv := allEnabled()
	conv.enabled[catalog.KindBook] = false
	d := newDispatcher(t, conv, Aliases{})

	resp, err := d.Dispatch(ctx, Invocation{Caller: member, Name: "help"})
	require.NoError(t, err)
	assert.Equal(t, "Use `/series <title>` to add a series to Sonarr. Use `/movie <title>` to add a movie to Radarr.", replyText(t, resp))

	resp, err = d.Dispatch(ctx, Invocation{Caller: admin, Name: "help"})
	require.NoError(t, err)
	assert.Contains(t, replyText(t, resp), "Since you are an admin, you can also use `/users` to manage users.")

	resp, err = d.Dispatch(ctx, Invocation{Caller: guest, Name: "help"})
	require.NoError(t, err)
	assert.Equal(t, "Please authenticate with `/start <password>` and then try again.", replyText(t, resp))

	none := newDispatcher(t, &fakeConversations{levels: map[int64]session.AuthLevel{member.ID: session.AuthUser}}, Aliases{})
	resp, err = none.Dispatch(ctx, Invocation{Caller: member, Name: "help"})
	require.NoError(t, err)
	assert.Equal(t, "Sorry, but all of my features are currently disabled.", replyText(t, resp))
}

func TestUsersCommand(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	conv := allEnabled()
	d := newDispatcher(t, conv, Aliases{Users: []string{"people"}})

	resp, err := d.Dispatch(ctx, Invocation{Caller: guest, Name: "people"})
	require.NoError(t, err)
	assert.Contains(t, replyText(t, resp), "I don't seem to know you")
	assert.Zero(t, conv.listed)

	resp, err = d.Dispatch(ctx, Invocation{Caller: admin, Name: "people"})
	require.NoError(t, err)
	assert.Equal(t, []render.ActionKind{render.ActionSendText}, resp.Kinds())
	assert.Equal(t, 1, conv.listed)
}
