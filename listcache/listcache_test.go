package listcache_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/screensync/backend/listcache"
	"github.com/screensync/backend/subm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() []subm.Subm {
	return []subm.Subm{
		{ID: "2", ContractorName: "B", CompanyName: "Acme", SubmittedAt: time.Date(2024, 6, 10, 10, 0, 0, 0, time.UTC)},
		{ID: "1", ContractorName: "A", CompanyName: "Acme", SubmittedAt: time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)},
	}
}

func exerciseCache(t *testing.T, c listcache.Cache) {
	ctx := context.Background()

	_, found := c.Get(ctx)
	assert.False(t, found)

	c.Set(ctx, sample())
	got, found := c.Get(ctx)
	require.True(t, found)
	require.Len(t, got, 2)
	assert.Equal(t, "2", got[0].ID)
	assert.True(t, sample()[0].SubmittedAt.Equal(got[0].SubmittedAt))

	require.NoError(t, c.Invalidate(ctx))
	_, found = c.Get(ctx)
	assert.False(t, found)

	// empty listings are cached too
	c.Set(ctx, []subm.Subm{})
	got, found = c.Get(ctx)
	assert.True(t, found)
	assert.Empty(t, got)
}

func TestMemCache(t *testing.T) {
	exerciseCache(t, listcache.NewMemCache(time.Minute))
}

func TestMemCacheExpires(t *testing.T) {
	c := listcache.NewMemCache(10 * time.Millisecond)
	c.Set(context.Background(), sample())
	time.Sleep(30 * time.Millisecond)
	_, found := c.Get(context.Background())
	assert.False(t, found)
}

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := listcache.Connect(context.Background(), mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisCacheMiniredis(t *testing.T) {
	mr, client := newMiniRedis(t)
	exerciseCache(t, listcache.NewRedisCache(client, "test", time.Minute))
	assert.False(t, mr.Exists("test:subm_list"))
}

func TestRedisCacheKeyAndTtl(t *testing.T) {
	mr, client := newMiniRedis(t)
	c := listcache.NewRedisCache(client, "", 5*time.Second)
	ctx := context.Background()

	c.Set(ctx, sample())
	require.True(t, mr.Exists("subm_list"))
	assert.Equal(t, 5*time.Second, mr.TTL("subm_list"))

	mr.FastForward(6 * time.Second)
	_, found := c.Get(ctx)
	assert.False(t, found)
}

func TestRedisCacheCorruptEntryIsMiss(t *testing.T) {
	mr, client := newMiniRedis(t)
	c := listcache.NewRedisCache(client, "test", time.Minute)

	require.NoError(t, mr.Set("test:subm_list", "not json"))
	_, found := c.Get(context.Background())
	assert.False(t, found)
}

func TestRedisCacheServerDown(t *testing.T) {
	mr, client := newMiniRedis(t)
	c := listcache.NewRedisCache(client, "test", time.Minute)
	ctx := context.Background()
	c.Set(ctx, sample())

	mr.Close()
	_, found := c.Get(ctx)
	assert.False(t, found)
	assert.Error(t, c.Invalidate(ctx))
}

func TestConnectUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := listcache.Connect(context.Background(), "redis://"+addr+"/0")
	assert.ErrorContains(t, err, "ping redis")
}

// Requires a running server, e.g. REDIS_TEST_URL=redis://localhost:6379/0
func TestRedisCache(t *testing.T) {
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL not set")
	}
	client, err := listcache.Connect(context.Background(), url)
	require.NoError(t, err)
	defer client.Close()

	exerciseCache(t, listcache.NewRedisCache(client, "test-"+uuid.NewString(), time.Minute))
}
