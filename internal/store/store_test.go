package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/cristianoliveira/tmux-localnotify/internal/options"
	"github.com/cristianoliveira/tmux-localnotify/internal/store"
	"github.com/cristianoliveira/tmux-localnotify/internal/store/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	b, err := sqlite.New(filepath.Join(t.TempDir(), "notifications.db"))
	require.NoError(t, err)
	s := store.New(b, "", nil)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func mustParse(t *testing.T, raw string) options.Options {
	t.Helper()
	opts, err := options.Parse([]byte(raw), now)
	require.NoError(t, err)
	return opts
}

func TestPutGetRemove(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.Equal(t, store.DefaultNamespace, s.Namespace())

	opts := mustParse(t, `{"id":3,"trigger":{"at":1000},"content":"A","sound":"x"}`)
	require.NoError(t, s.Put(ctx, opts))

	got, err := s.Get(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, opts, got)

	opts.Badge = 2
	require.NoError(t, s.Put(ctx, opts))
	got, err = s.Get(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Badge)

	require.NoError(t, s.Remove(ctx, 3))
	require.NoError(t, s.Remove(ctx, 3))
	_, err = s.Get(ctx, 3)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestCorruptRecords(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Backend().Put(ctx, s.Namespace(), "4", []byte(`{broken`)))
	_, err := s.Get(ctx, 4)
	require.ErrorIs(t, err, store.ErrCorruptRecord)

	require.NoError(t, s.Backend().Put(ctx, s.Namespace(), "5", []byte(`{"id":6,"trigger":{"at":1}}`)))
	_, err = s.Get(ctx, 5)
	require.ErrorIs(t, err, store.ErrCorruptRecord)
}

func TestIDsAndAll(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for _, raw := range []string{
		`{"id":10,"trigger":{"at":1000}}`,
		`{"id":2,"trigger":{"at":1000}}`,
		`{"id":7,"trigger":{"at":1000}}`,
	} {
		require.NoError(t, s.Put(ctx, mustParse(t, raw)))
	}
	require.NoError(t, s.Backend().Put(ctx, s.Namespace(), "junk", []byte(`{}`)))
	require.NoError(t, s.Backend().Put(ctx, s.Namespace(), "8", []byte(`nope`)))
	require.NoError(t, s.Backend().Put(ctx, "elsewhere", "1", []byte(`{}`)))

	ids, err := s.IDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int32{2, 7, 8, 10}, ids)

	all, err := s.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, int32(2), all[0].ID)
	assert.Equal(t, int32(10), all[2].ID)
}

type failingBackend struct {
	store.Backend
}

var errBoom = errors.New("boom")

func (failingBackend) Put(context.Context, string, string, []byte) error { return errBoom }
func (failingBackend) Delete(context.Context, string, string) error      { return errBoom }

func TestPersistenceFailuresAreReturned(t *testing.T) {
	ctx := context.Background()
	s := store.New(failingBackend{}, "ns", nil)

	err := s.Put(ctx, mustParse(t, `{"id":1,"trigger":{"at":1}}`))
	require.ErrorIs(t, err, errBoom)
	require.ErrorIs(t, s.Remove(ctx, 1), errBoom)
}
