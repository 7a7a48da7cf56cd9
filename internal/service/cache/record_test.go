package cache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kapu/gamegen-go/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func unreachableService() *CacheService {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 200 * time.Millisecond,
	})
	return newCacheServiceWithClient(client, zap.NewNop())
}

func TestRecordKeyIsStable(t *testing.T) {
	a := RecordKey("https://a.com/g1")
	assert.Equal(t, a, RecordKey("https://a.com/g1"))
	assert.NotEqual(t, a, RecordKey("https://a.com/g2"))
	assert.True(t, strings.HasPrefix(a, "gamegen:record:"))
	assert.Len(t, strings.TrimPrefix(a, "gamegen:record:"), 40)
}

func TestSetRecordSkipsPlaceholders(t *testing.T) {
	svc := unreachableService()
	defer svc.Close()

	placeholder := domain.NewPlaceholderRecord("https://a.com/g1", errors.New("x"), time.Now())
	assert.NoError(t, svc.SetRecord(context.Background(), placeholder, time.Hour))
}

func TestUnreachableRedisIsAMiss(t *testing.T) {
	svc := unreachableService()
	defer svc.Close()

	rec, ok := svc.GetRecord(context.Background(), "https://a.com/g1")
	assert.False(t, ok)
	assert.Nil(t, rec)

	err := svc.SetRecord(context.Background(), domain.GameRecord{
		Name: "X", Slug: "x", IframeURL: "https://a.com/g1", Excerpt: "e", Article: "a", RelatedGames: []string{},
	}, time.Hour)
	assert.Error(t, err)
	assert.False(t, svc.IsConnected(context.Background()))
}
