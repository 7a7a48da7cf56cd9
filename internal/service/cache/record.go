package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"time"

	"github.com/kapu/gamegen-go/internal/constants"
	"github.com/kapu/gamegen-go/internal/domain"
	"go.uber.org/zap"
)

// RecordKey is the Redis key for the record generated from sourceURL.
func RecordKey(sourceURL string) string {
	sum := sha1.Sum([]byte(sourceURL))
	return constants.CacheKeys.RecordPrefix + hex.EncodeToString(sum[:])
}

// GetRecord returns a previously generated record for sourceURL. Lookup
// errors count as a miss.
func (c *CacheService) GetRecord(ctx context.Context, sourceURL string) (*domain.GameRecord, bool) {
	key := RecordKey(sourceURL)

	var rec domain.GameRecord
	found, err := c.Get(ctx, key, &rec)
	if err != nil || !found {
		return nil, false
	}
	if rec.IframeURL != sourceURL || len(rec.MissingFields()) > 0 {
		c.logger.Warn("Discarding mismatched cached record", zap.String("url", sourceURL))
		_ = c.Del(ctx, key)
		return nil, false
	}
	return &rec, true
}

// SetRecord stores a successful record. Placeholders are never cached.
func (c *CacheService) SetRecord(ctx context.Context, rec domain.GameRecord, ttl time.Duration) error {
	if rec.IsPlaceholder() {
		return nil
	}
	return c.Set(ctx, RecordKey(rec.IframeURL), rec, ttl)
}
