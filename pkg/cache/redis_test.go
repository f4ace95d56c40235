package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a test Redis client using miniredis
func setupTestRedis(t *testing.T) (*Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	redisClient := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	return &Client{Redis: redisClient}, mr
}

func TestClient_SetGet(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	ctx := context.Background()

	err := client.Set(ctx, "test:key1", "value1", 1*time.Hour)
	require.NoError(t, err)

	val, err := client.Get(ctx, "test:key1")
	require.NoError(t, err)
	assert.Equal(t, "value1", val)
}

func TestClient_Delete(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	ctx := context.Background()

	_ = client.Set(ctx, "test:key1", "value1", 1*time.Hour)
	_ = client.Set(ctx, "test:key2", "value2", 1*time.Hour)

	err := client.Delete(ctx, "test:key1")
	require.NoError(t, err)

	_, err = client.Get(ctx, "test:key1")
	assert.Error(t, err) // Should be redis.Nil error

	val, err := client.Get(ctx, "test:key2")
	require.NoError(t, err)
	assert.Equal(t, "value2", val)
}

func TestClient_DeletePattern(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	ctx := context.Background()

	// The invalidation pattern every mutation path uses
	_ = client.Set(ctx, "territories:list:active", "data1", 1*time.Hour)
	_ = client.Set(ctx, "territories:list:all", "data2", 1*time.Hour)
	_ = client.Set(ctx, "territories:stats:region", "data3", 1*time.Hour)
	_ = client.Set(ctx, "assignments:recent", "data4", 1*time.Hour)

	err := client.DeletePattern(ctx, "territories:*")
	require.NoError(t, err)

	_, err = client.Get(ctx, "territories:list:active")
	assert.Error(t, err)

	_, err = client.Get(ctx, "territories:list:all")
	assert.Error(t, err)

	_, err = client.Get(ctx, "territories:stats:region")
	assert.Error(t, err)

	// Non-matching key survives
	val, err := client.Get(ctx, "assignments:recent")
	require.NoError(t, err)
	assert.Equal(t, "data4", val)
}

func TestClient_Exists(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	ctx := context.Background()

	exists, err := client.Exists(ctx, "test:nonexistent")
	require.NoError(t, err)
	assert.False(t, exists)

	_ = client.Set(ctx, "test:exists", "value", 1*time.Hour)

	exists, err = client.Exists(ctx, "test:exists")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestClient_TTL(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	ctx := context.Background()

	_ = client.Set(ctx, "test:ttl", "value", 10*time.Second)

	ttl, err := client.TTL(ctx, "test:ttl")
	require.NoError(t, err)
	assert.Greater(t, ttl.Seconds(), 9.0)
	assert.LessOrEqual(t, ttl.Seconds(), 10.0)
}
