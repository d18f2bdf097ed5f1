package redis

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/marketplace-api/internal/domain"
	"github.com/phrazzld/marketplace-api/internal/platform/logger"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

// unreachableClient points at a closed port so every command fails fast.
func unreachableClient(t *testing.T) *goredis.Client {
	t.Helper()
	client := goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestProfileKey(t *testing.T) {
	id := uuid.MustParse("0b6f2c1e-6a1d-4a43-9a77-1c2b3d4e5f60")
	assert.Equal(t, "user:profile:0b6f2c1e-6a1d-4a43-9a77-1c2b3d4e5f60", ProfileKey(id))
}

func TestProfileCache_FailuresDegradeToMiss(t *testing.T) {
	buf, log := logger.NewTestLogger(t)
	cache := NewProfileCache(unreachableClient(t), time.Minute, log)
	ctx := context.Background()

	user := &domain.User{ID: uuid.New(), Username: "alice"}

	assert.NotPanics(t, func() { cache.Set(ctx, user) })
	got, ok := cache.Get(ctx, user.ID)
	assert.False(t, ok)
	assert.Nil(t, got)
	assert.NotPanics(t, func() { cache.Invalidate(ctx, user.ID) })

	assert.Contains(t, buf.String(), "cache write failed")
	assert.Contains(t, buf.String(), "cache read failed")
}
