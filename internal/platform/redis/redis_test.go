package redis_test

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-flashcards/internal/platform/logger"
	"github.com/phrazzld/scry-flashcards/internal/platform/redis"
	"github.com/phrazzld/scry-flashcards/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testURLEnv names the variable holding a disposable Redis URL.
const testURLEnv = "SCRY_TEST_REDIS_URL"

func TestNewKV_NilClient(t *testing.T) {
	_, err := redis.NewKV(nil, nil)
	assert.Error(t, err)
}

func TestOpen_InvalidURL(t *testing.T) {
	_, err := redis.Open(context.Background(), "http://not-redis", nil)
	assert.Error(t, err)
}

func TestKV_Integration(t *testing.T) {
	url := os.Getenv(testURLEnv)
	if url == "" {
		t.Skipf("%s not set", testURLEnv)
	}

	ctx := context.Background()
	log, _ := logger.NewTestLogger()
	client, err := redis.Open(ctx, url, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	kv, err := redis.NewKV(client, log)
	require.NoError(t, err)

	prefix := "test-" + uuid.NewString() + ":"
	t.Cleanup(func() { _ = client.Del(ctx, prefix+"a", prefix+"b").Err() })

	_, err = kv.Get(ctx, prefix+"a")
	assert.ErrorIs(t, err, store.ErrKeyNotFound)

	require.NoError(t, kv.Set(ctx, prefix+"a", []byte("one")))
	v, err := kv.Get(ctx, prefix+"a")
	require.NoError(t, err)
	assert.Equal(t, "one", string(v))

	require.NoError(t, kv.SetMany(ctx, map[string][]byte{
		prefix + "a": []byte("two"),
		prefix + "b": []byte("three"),
	}))
	v, err = kv.Get(ctx, prefix+"b")
	require.NoError(t, err)
	assert.Equal(t, "three", string(v))

	require.NoError(t, kv.Delete(ctx, prefix+"a"))
	require.NoError(t, kv.Delete(ctx, prefix+"a"))
	_, err = kv.Get(ctx, prefix+"a")
	assert.ErrorIs(t, err, store.ErrKeyNotFound)
}
