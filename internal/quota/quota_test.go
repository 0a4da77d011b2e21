package quota

import (
	"bytes"
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renderdragon/backend/internal/logger"
)

func quietLogger() *logger.Logger {
	return logger.New(&logger.Config{Output: &bytes.Buffer{}, Level: logger.LevelError})
}

// testClient connects to REDIS_TEST_URL (default localhost) or skips.
func testClient(t *testing.T) *redis.Client {
	t.Helper()
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		url = "redis://localhost:6379/15"
	}
	client, err := Connect(context.Background(), url)
	if err != nil {
		t.Skipf("redis unavailable: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestNilQuotaIsDisabled(t *testing.T) {
	var q *Quota
	ctx := context.Background()

	assert.False(t, q.Enabled())
	assert.True(t, q.Allow(ctx, "1.2.3.4"))
	assert.Equal(t, Status{}, q.Status(ctx, "1.2.3.4"))
	q.Charge(ctx, "1.2.3.4")
	assert.Error(t, q.Ping(ctx))
	assert.NoError(t, q.Close())
}

func TestZeroLimitIsDisabled(t *testing.T) {
	q := New(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}), Options{Limit: 0, Logger: quietLogger()})
	defer q.Close()
	assert.False(t, q.Enabled())
	assert.True(t, q.Allow(context.Background(), "k"))
}

func TestFailsOpenWhenRedisDown(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	q := New(client, Options{Limit: 5, Logger: quietLogger()})
	defer q.Close()

	ctx := context.Background()
	assert.True(t, q.Allow(ctx, "k"))
	st := q.Status(ctx, "k")
	assert.True(t, st.Enabled)
	assert.Equal(t, 5, st.Remaining)
	q.Charge(ctx, "k")
}

func TestConnect_BadURL(t *testing.T) {
	_, err := Connect(context.Background(), "not-a-url")
	assert.Error(t, err)
}

func TestQuota_ChargeAndExhaust(t *testing.T) {
	client := testClient(t)
	prefix := "test:quota:" + uuid.NewString() + ":"
	q := New(client, Options{Limit: 2, Window: time.Minute, Prefix: prefix, Logger: quietLogger()})
	ctx := context.Background()
	t.Cleanup(func() { client.Del(context.Background(), prefix+"client") })

	st := q.Status(ctx, "client")
	assert.Equal(t, 2, st.Remaining)
	assert.Nil(t, st.ResetsAt)

	q.Charge(ctx, "client")
	st = q.Status(ctx, "client")
	assert.Equal(t, 1, st.Remaining)
	require.NotNil(t, st.ResetsAt)
	assert.WithinDuration(t, time.Now().Add(time.Minute), *st.ResetsAt, 5*time.Second)
	assert.True(t, q.Allow(ctx, "client"))

	q.Charge(ctx, "client")
	assert.False(t, q.Allow(ctx, "client"))
	assert.Equal(t, 0, q.Status(ctx, "client").Remaining)

	assert.True(t, q.Allow(ctx, "other"))
	assert.NoError(t, q.Ping(ctx))
}
