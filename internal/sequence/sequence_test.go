package sequence

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	return NewService(client, logger, "AJ"), mr
}

func TestNextQuoteIDMonotonic(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first := svc.NextQuoteID(ctx, 1)
	second := svc.NextQuoteID(ctx, 1)
	assert.Equal(t, first+1, second)
}

func TestNextQuoteNumberFormat(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	assert.Equal(t, "AJ-0001", svc.NextQuoteNumber(ctx))
	assert.Equal(t, "AJ-0002", svc.NextQuoteNumber(ctx))
}

func TestQuoteNumberNeverReused(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		n := svc.NextQuoteNumber(ctx)
		require.False(t, seen[n], "number %s handed out twice", n)
		seen[n] = true
	}
}

func TestFallbackWhenRedisDown(t *testing.T) {
	svc, mr := newTestService(t)
	mr.Close()
	ctx := context.Background()

	id := svc.NextQuoteID(ctx, 1)
	assert.Greater(t, id, int64(1)<<61, "fallback ids must sit above the counter range")

	other := svc.NextQuoteID(ctx, 1)
	assert.NotEqual(t, id, other)
}

func TestIncrDeletedQuotes(t *testing.T) {
	svc, mr := newTestService(t)
	ctx := context.Background()

	svc.IncrDeletedQuotes(ctx)
	svc.IncrDeletedQuotes(ctx)
	val, err := mr.Get("dentora:counter:deleted_quotes")
	require.NoError(t, err)
	assert.Equal(t, "2", val)
}
