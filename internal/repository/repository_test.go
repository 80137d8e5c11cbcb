package repository

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"storefront-checkout-demo/internal/model"
)

func newSqliteRepo(t *testing.T) KVRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1) // every new connection would get its own in-memory database
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&model.KVEntry{}))
	return NewKVRepository(db)
}

func newRedisRepo(t *testing.T) (KVRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisRepository(client), mr
}

func exerciseRepository(t *testing.T, repo KVRepository) {
	ctx := context.Background()

	_, err := repo.Get(ctx, "session-1", "cart")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.Set(ctx, "session-1", "cart", []byte(`[{"id":"p-101"}]`)))
	got, err := repo.Get(ctx, "session-1", "cart")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"p-101"}]`, string(got))

	// overwrite in place
	require.NoError(t, repo.Set(ctx, "session-1", "cart", []byte(`[]`)))
	got, err = repo.Get(ctx, "session-1", "cart")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))

	// namespaces are isolated
	_, err = repo.Get(ctx, "session-2", "cart")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.Set(ctx, "session-1", "paypal-client-id", []byte(`"abc"`)))
	require.NoError(t, repo.Delete(ctx, "session-1", "cart"))
	_, err = repo.Get(ctx, "session-1", "cart")
	require.ErrorIs(t, err, ErrNotFound)

	got, err = repo.Get(ctx, "session-1", "paypal-client-id")
	require.NoError(t, err)
	assert.Equal(t, `"abc"`, string(got))

	// deleting a missing key is not an error
	require.NoError(t, repo.Delete(ctx, "session-9", "cart"))

	assert.Error(t, repo.Set(ctx, "", "cart", []byte(`[]`)))
	_, err = repo.Get(ctx, "session-1", "")
	assert.Error(t, err)
	assert.Error(t, repo.Delete(ctx, "", ""))
}

func TestMemoryRepository(t *testing.T) {
	exerciseRepository(t, NewMemoryRepository())
}

func TestMemoryRepository_CopiesValues(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	value := []byte("abc")
	require.NoError(t, repo.Set(ctx, "s", "k", value))
	value[0] = 'z'

	got, err := repo.Get(ctx, "s", "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestKVRepository_Sqlite(t *testing.T) {
	exerciseRepository(t, newSqliteRepo(t))
}

func TestRedisRepository(t *testing.T) {
	repo, mr := newRedisRepo(t)
	exerciseRepository(t, repo)

	assert.True(t, mr.Exists("storefront:session-1:paypal-client-id"))
	assert.Zero(t, mr.TTL("storefront:session-1:paypal-client-id"))
}

func TestRedisRepository_ServerDown(t *testing.T) {
	repo, mr := newRedisRepo(t)
	mr.Close()

	_, err := repo.Get(context.Background(), "s", "cart")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Error(t, repo.Set(context.Background(), "s", "cart", []byte(`[]`)))
}
