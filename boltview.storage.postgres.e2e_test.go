//go:build integration

package boltview

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupPostgresContainer creates an ephemeral PostgreSQL container and
// returns its DSN.
func setupPostgresContainer(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:15",
		postgres.WithDatabase("boltview_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")
	return dsn
}

func TestPostgres_E2E_ArtifactStore(t *testing.T) {
	dsn := setupPostgresContainer(t)

	store, err := NewPostgresStore(PostgresConfig{ConnectionString: dsn, AutoMigrate: true})
	require.NoError(t, err)
	defer store.Close()

	testArtifactStore(t, store)

	version, err := store.CurrentSchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, version)
}

func TestPostgres_E2E_MigrationsIdempotent(t *testing.T) {
	dsn := setupPostgresContainer(t)
	ctx := context.Background()

	store, err := OpenStore(StorageDriverNamePostgres, dsn)
	require.NoError(t, err)
	pg := store.(*PostgresStore)
	require.NoError(t, pg.RunMigrations(ctx))
	require.NoError(t, pg.RunMigrations(ctx))
	require.NoError(t, store.Close())

	err = store.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrMsgPostgresAlreadyClosed)

	_, err = store.Get(ctx, "k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrMsgStorageClosed)
}

func TestPostgres_E2E_TablePrefix(t *testing.T) {
	dsn := setupPostgresContainer(t)
	ctx := context.Background()

	first, err := NewPostgresStore(PostgresConfig{ConnectionString: dsn, AutoMigrate: true, TablePrefix: "one_"})
	require.NoError(t, err)
	defer first.Close()
	second, err := NewPostgresStore(PostgresConfig{ConnectionString: dsn, AutoMigrate: true, TablePrefix: "two_"})
	require.NoError(t, err)
	defer second.Close()

	require.NoError(t, first.Save(ctx, &Artifact{Key: "k", Code: "first"}))
	_, err = second.Get(ctx, "k")
	assert.True(t, IsArtifactNotFound(err))
}

func TestPostgres_E2E_ViewRoundTrip(t *testing.T) {
	dsn := setupPostgresContainer(t)
	ctx := context.Background()

	store, err := NewPostgresStore(PostgresConfig{ConnectionString: dsn, AutoMigrate: true})
	require.NoError(t, err)
	defer store.Close()

	dir := realTempDir(t)
	page := writeFile(t, dir, "page.html", "<p>{$x}</p>")

	view := NewView(MustNew(), store, WithValidateFreq(0))
	code, err := view.Compiled(ctx, page)
	require.NoError(t, err)

	artifact, err := store.Get(ctx, ArtifactKey(page))
	require.NoError(t, err)
	assert.Equal(t, code, artifact.Code)
}

func TestPostgres_E2E_ConcurrentSaves(t *testing.T) {
	dsn := setupPostgresContainer(t)
	ctx := context.Background()

	store, err := NewPostgresStore(PostgresConfig{ConnectionString: dsn, AutoMigrate: true})
	require.NoError(t, err)
	defer store.Close()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, store.Save(ctx, &Artifact{Key: "shared", Code: "x"}))
		}()
	}
	wg.Wait()

	keys, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"shared"}, keys)
}
