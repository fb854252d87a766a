package localstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templui/lanchat/internal/session"
)

var (
	_ session.Persistence = (*SQLite)(nil)
	_ session.Persistence = (*Redis)(nil)
	_ session.Persistence = (*Memory)(nil)
)

func backends(t *testing.T) map[string]Store {
	t.Helper()
	ctx := context.Background()

	sqlite, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "device.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	mr := miniredis.RunT(t)
	rdb := NewRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { rdb.Close() })

	return map[string]Store{
		"sqlite": sqlite,
		"redis":  rdb,
		"memory": NewMemory(),
	}
}

func TestStore_GetSetDelete(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			v, err := store.Get(ctx, "lanchat_auth")
			require.NoError(t, err)
			assert.Nil(t, v)

			require.NoError(t, store.Set(ctx, "lanchat_auth", []byte(`{"isAuthenticated":true}`)))
			require.NoError(t, store.Set(ctx, "lanchat_auth", []byte(`{"isAuthenticated":false}`)))

			v, err = store.Get(ctx, "lanchat_auth")
			require.NoError(t, err)
			assert.Equal(t, `{"isAuthenticated":false}`, string(v))

			require.NoError(t, store.Delete(ctx, "lanchat_auth"))
			require.NoError(t, store.Delete(ctx, "lanchat_auth"), "deleting a missing key is fine")

			v, err = store.Get(ctx, "lanchat_auth")
			require.NoError(t, err)
			assert.Nil(t, v)
		})
	}
}

func TestRedis_Prefix(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	store, err := OpenRedis(ctx, "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.Set(ctx, "k", []byte("v")))

	got, err := mr.Get(redisPrefix + "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestMemory_CopiesValues(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	value := []byte("abc")
	require.NoError(t, m.Set(ctx, "k", value))
	value[0] = 'x'

	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Config{Driver: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	s, err = Open(ctx, Config{Path: filepath.Join(t.TempDir(), "d.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, s)
	require.NoError(t, s.Close())

	_, err = Open(ctx, Config{Driver: "redis", RedisURL: "not a url"})
	assert.Error(t, err)

	_, err = Open(ctx, Config{Driver: "etcd"})
	assert.ErrorContains(t, err, "unknown local store driver")
}
