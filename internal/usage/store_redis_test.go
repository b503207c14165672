package usage

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-ranker/internal/shared/util"
)

func TestRedisKeyHashesToken(t *testing.T) {
	key := redisKey(token)
	assert.True(t, strings.HasPrefix(key, redisKeyPrefix))
	assert.NotContains(t, key, token)
	assert.Equal(t, redisKeyPrefix+util.HashToken(token), key)
}

func TestNewRedisLedgerRequiresURL(t *testing.T) {
	_, err := NewRedisLedger(context.Background(), "")
	assert.Error(t, err)
}

// Runs only when a disposable Redis is available, e.g. REDIS_TEST_URL=redis://localhost:6379/15.
func TestRedisLedgerRoundTrip(t *testing.T) {
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL not set")
	}
	ctx := context.Background()
	ledger, err := NewRedisLedger(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ledger.Close() })

	tok := "redis-test-" + util.HashToken(t.Name())[:8]
	require.NoError(t, ledger.Client.Del(ctx, redisKey(tok)).Err())

	used, err := ledger.Used(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, 0, used)

	used, err = ledger.Increment(ctx, tok, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, used)

	used, err = ledger.Used(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, 4, used)
}
