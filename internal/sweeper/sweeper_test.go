package sweeper

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memohai/searcharr/db"
	"github.com/memohai/searcharr/internal/catalog"
	dbpkg "github.com/memohai/searcharr/internal/db"
	"github.com/memohai/searcharr/internal/session"
)

type recordingStore struct {
	cutoffs   []time.Time
	n         int64
	err       error
	counts    int
	remaining int
}

func (r *recordingStore) DeleteConversationsBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.cutoffs = append(r.cutoffs, cutoff)
	return r.n, r.err
}

func (r *recordingStore) CountConversations(context.Context) (int, error) {
	r.counts++
	return r.remaining, nil
}

func TestDisabledByDefault(t *testing.T) {
	t.Parallel()
	store := &recordingStore{}
	s, err := New(nil, store, 0, "not a schedule")
	require.NoError(t, err)

	assert.False(t, s.Enabled())
	require.NoError(t, s.Start(context.Background()))
	n, err := s.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, store.cutoffs)
	require.NoError(t, s.Stop(context.Background()))
}

func TestInvalidSchedule(t *testing.T) {
	t.Parallel()

	_, err := New(nil, &recordingStore{}, time.Hour, "every tuesday")
	assert.Error(t, err)

	s, err := New(nil, &recordingStore{}, time.Hour, "")
	require.NoError(t, err)
	assert.Equal(t, DefaultSchedule, s.pattern)
}

func TestSweepCutoff(t *testing.T) {
	t.Parallel()
	store := &recordingStore{n: 3}
	s, err := New(nil, store, 24*time.Hour, "*/5 * * * *")
	require.NoError(t, err)
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	n, err := s.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	require.Len(t, store.cutoffs, 1)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), store.cutoffs[0])
	assert.Equal(t, 1, store.counts)

	store.n = 0
	_, err = s.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, store.counts, "nothing removed, nothing counted")

	store.err = errors.New("locked")
	_, err = s.Sweep(context.Background())
	assert.Error(t, err)
}

func TestStartStop(t *testing.T) {
	t.Parallel()
	s, err := New(nil, &recordingStore{}, time.Hour, "@every 1h")
	require.NoError(t, err)

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Start(context.Background()))
	assert.Len(t, s.cron.Entries(), 1)
	require.NoError(t, s.Stop(context.Background()))
	assert.Empty(t, s.cron.Entries())
}

func TestSweepAgainstStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sweep.db")
	conn, err := dbpkg.Open(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	migrations, err := fs.Sub(db.MigrationsFS, "migrations")
	require.NoError(t, err)
	require.NoError(t, dbpkg.RunMigrate(nil, path, migrations, "up", nil))
	store := session.NewStore(nil, conn)

	now := time.Now()
	for id, age := range map[string]time.Duration{"old00001": 48 * time.Hour, "new00001": time.Minute} {
		require.NoError(t, store.CreateConversation(ctx, session.Conversation{
			ID: id, Kind: catalog.KindMovie, Results: []byte("[]"), CreatedAt: now.Add(-age),
		}))
		require.NoError(t, store.SetAddData(ctx, id, session.KeyPath, "/movies"))
	}

	var logs bytes.Buffer
	s, err := New(slog.New(slog.NewJSONHandler(&logs, nil)), store, 24*time.Hour, "")
	require.NoError(t, err)
	n, err := s.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Contains(t, logs.String(), `"remaining":1`)

	_, err = store.GetConversation(ctx, "old00001")
	assert.ErrorIs(t, err, session.ErrConversationNotFound)
	data, err := store.GetAddData(ctx, "old00001")
	require.NoError(t, err)
	assert.Empty(t, data)
	_, err = store.GetConversation(ctx, "new00001")
	assert.NoError(t, err)
}
