package subscription

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisCacheMiss(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := NewRedisCache(client, time.Minute)

	mock.ExpectGet(CacheKey("sub-1")).RedisNil()

	_, ok, err := cache.Get(context.Background(), "sub-1")
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCacheRoundTrip(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := NewRedisCache(client, time.Minute)
	sub := active(t, TierStandard)
	payload, err := json.Marshal(sub)
	require.NoError(t, err)

	mock.ExpectSet(CacheKey(sub.ID), payload, time.Minute).SetVal("OK")
	mock.ExpectGet(CacheKey(sub.ID)).SetVal(string(payload))
	mock.ExpectDel(CacheKey(sub.ID)).SetVal(1)

	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, sub))

	got, ok, err := cache.Get(ctx, sub.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sub.ID, got.ID)
	assert.Equal(t, StatusActive, got.Status)
	assert.Equal(t, sub.Features, got.Features)
	assert.True(t, sub.Billing.Amount.Equal(got.Billing.Amount))

	require.NoError(t, cache.Invalidate(ctx, sub.ID))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCacheError(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := NewRedisCache(client, 0)

	mock.ExpectGet(CacheKey("sub-1")).SetErr(errors.New("connection refused"))

	_, ok, err := cache.Get(context.Background(), "sub-1")
	assert.Error(t, err)
	assert.False(t, ok)
	assert.Equal(t, defaultEntitlementTTL, cache.ttl)
}
