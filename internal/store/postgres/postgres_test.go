package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/cristianoliveira/tmux-localnotify/internal/store"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

// startPostgresContainer starts a PostgreSQL container and returns a DSN for
// pgx stdlib. It skips the test if Docker is unavailable.
func startPostgresContainer(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
	)
	if err != nil {
		cancel()
		t.Skipf("Failed to start PostgreSQL container: %v", err)
		return ""
	}
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
		cancel()
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Skipf("Failed to get host info: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Skipf("Failed to get mapped port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())
	waitForPostgres(t, dsn)
	return dsn
}

func waitForPostgres(t *testing.T, dsn string) {
	deadline := time.Now().Add(45 * time.Second)
	for {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		db, err := sql.Open("pgx", dsn)
		if err == nil {
			err = db.PingContext(ctx)
			_ = db.Close()
		}
		cancel()
		if err == nil {
			return
		}
		if time.Now().After(deadline) {
			t.Skipf("PostgreSQL not ready: %v", err)
		}
		time.Sleep(500 * time.Millisecond)
	}
}

func TestNewDoesNotConnect(t *testing.T) {
	b, err := New("postgres://user@127.0.0.1:1/db?sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, b.Close())
}

func TestBackendAgainstPostgres(t *testing.T) {
	dsn := startPostgresContainer(t)
	ctx := context.Background()

	b, err := New(dsn)
	require.NoError(t, err)
	defer b.Close()

	_, err = b.Get(ctx, "ns", "1")
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, b.Put(ctx, "ns", "2", []byte(`{"id":2}`)))
	require.NoError(t, b.Put(ctx, "ns", "1", []byte(`{"id":1}`)))
	require.NoError(t, b.Put(ctx, "ns", "1", []byte(`{"id":1,"x":true}`)))
	require.NoError(t, b.Put(ctx, "other", "3", []byte(`{}`)))

	got, err := b.Get(ctx, "ns", "1")
	require.NoError(t, err)
	require.Equal(t, `{"id":1,"x":true}`, string(got))

	keys, err := b.Keys(ctx, "ns")
	require.NoError(t, err)
	require.Equal(t, []string{"1", "2"}, keys)

	require.NoError(t, b.Delete(ctx, "ns", "1"))
	require.NoError(t, b.Delete(ctx, "ns", "1"))
	keys, err = b.Keys(ctx, "ns")
	require.NoError(t, err)
	require.Equal(t, []string{"2"}, keys)
}
