package cache_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/km-arc/go-autowire/framework/cache"
	"github.com/km-arc/go-autowire/framework/errors"
)

// PoolSuite runs the same contract against every backend.
type PoolSuite struct {
	suite.Suite
	open func(t *testing.T) cache.Pool
	pool cache.Pool
}

func (s *PoolSuite) SetupTest() {
	s.pool = s.open(s.T())
}

func (s *PoolSuite) TearDownTest() {
	s.NoError(cache.Close(s.pool))
}

func (s *PoolSuite) TestMiss() {
	v, ok, err := s.pool.Get(context.Background(), "missing")
	s.NoError(err)
	s.False(ok)
	s.Nil(v)
}

func (s *PoolSuite) TestStoreAndGet() {
	ctx := context.Background()
	s.Require().NoError(s.pool.Store(ctx, "services", []byte("- class: fixtures.Config\n")))

	v, ok, err := s.pool.Get(ctx, "services")
	s.Require().NoError(err)
	s.True(ok)
	s.Equal("- class: fixtures.Config\n", string(v))
}

func (s *PoolSuite) TestOverwrite() {
	ctx := context.Background()
	s.Require().NoError(s.pool.Store(ctx, "k", []byte("one")))
	s.Require().NoError(s.pool.Store(ctx, "k", []byte("two")))

	v, ok, err := s.pool.Get(ctx, "k")
	s.Require().NoError(err)
	s.True(ok)
	s.Equal("two", string(v))
}

func (s *PoolSuite) TestDelete() {
	ctx := context.Background()
	s.Require().NoError(s.pool.Store(ctx, "k", []byte("v")))
	s.Require().NoError(s.pool.Delete(ctx, "k"))
	s.Require().NoError(s.pool.Delete(ctx, "never-stored"))

	_, ok, err := s.pool.Get(ctx, "k")
	s.NoError(err)
	s.False(ok)
}

func TestMemoryPool(t *testing.T) {
	suite.Run(t, &PoolSuite{open: func(*testing.T) cache.Pool { return cache.NewMemory(0, 0) }})
}

func TestFilePool(t *testing.T) {
	suite.Run(t, &PoolSuite{open: func(t *testing.T) cache.Pool {
		p, err := cache.NewFile(t.TempDir())
		require.NoError(t, err)
		return p
	}})
}

func TestSQLitePool(t *testing.T) {
	suite.Run(t, &PoolSuite{open: func(t *testing.T) cache.Pool {
		p, err := cache.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "cache.db"))
		require.NoError(t, err)
		return p
	}})
}

func TestRedisPool(t *testing.T) {
	suite.Run(t, &PoolSuite{open: func(t *testing.T) cache.Pool {
		mr := miniredis.RunT(t)
		p, err := cache.OpenRedis(context.Background(), mr.Addr(), 0)
		require.NoError(t, err)
		return p
	}})
}

// ── Backend specifics ─────────────────────────────────────────────────────────

func TestNull(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, cache.Null{}.Store(ctx, "k", []byte("v")))

	_, ok, err := cache.Null{}.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemory_EvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	m := cache.NewMemory(2, 0)
	require.NoError(t, m.Store(ctx, "a", []byte("1")))
	require.NoError(t, m.Store(ctx, "b", []byte("2")))
	_, _, _ = m.Get(ctx, "a")
	require.NoError(t, m.Store(ctx, "c", []byte("3")))

	_, ok, _ := m.Get(ctx, "b")
	assert.False(t, ok)
	_, ok, _ = m.Get(ctx, "a")
	assert.True(t, ok)
	assert.Equal(t, 2, m.Len())
}

func TestMemory_CopiesValues(t *testing.T) {
	ctx := context.Background()
	m := cache.NewMemory(0, 0)
	value := []byte("abc")
	require.NoError(t, m.Store(ctx, "k", value))
	value[0] = 'x'

	v, _, _ := m.Get(ctx, "k")
	assert.Equal(t, "abc", string(v))
}

func TestRedis_TTL(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	r := cache.NewRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute)
	t.Cleanup(func() { r.Close() })

	require.NoError(t, r.Store(ctx, "k", []byte("v")))
	assert.True(t, mr.Exists(cache.KeyPrefix+"k"))

	mr.FastForward(2 * time.Minute)

	_, ok, err := r.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOpenRedis_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := cache.OpenRedis(context.Background(), addr, 0)
	assert.ErrorContains(t, err, "connect to redis")
}

// ── Open ──────────────────────────────────────────────────────────────────────

func TestOpen(t *testing.T) {
	ctx := context.Background()

	p, err := cache.Open(ctx, cache.Config{})
	require.NoError(t, err)
	assert.IsType(t, cache.Null{}, p)

	p, err = cache.Open(ctx, cache.Config{Driver: cache.DriverMemory, Size: 4})
	require.NoError(t, err)
	assert.IsType(t, &cache.Memory{}, p)

	p, err = cache.Open(ctx, cache.Config{Driver: cache.DriverFile, Path: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &cache.File{}, p)

	_, err = cache.Open(ctx, cache.Config{Driver: cache.DriverFile})
	assert.ErrorIs(t, err, errors.ErrConfiguration)

	_, err = cache.Open(ctx, cache.Config{Driver: "memcached"})
	assert.ErrorIs(t, err, errors.ErrConfiguration)
	assert.ErrorContains(t, err, "unknown cache driver memcached")
}
