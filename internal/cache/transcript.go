package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"smartlearning-backend/internal/logger"
	"smartlearning-backend/internal/metrics"
)

const transcriptKeyPrefix = "transcript:raw:"

// TranscriptCache keeps raw caption text in Redis so repeated requests for
// the same video skip the upstream fetch.
type TranscriptCache struct {
	rdb *redis.Client
	ttl time.Duration
	log *logger.Logger
}

func NewTranscriptCache(rdb *redis.Client, ttl time.Duration, log *logger.Logger) *TranscriptCache {
	return &TranscriptCache{rdb: rdb, ttl: ttl, log: log.With("component", "transcript_cache")}
}

func (c *TranscriptCache) Get(ctx context.Context, videoID string) (string, bool) {
	val, err := c.rdb.Get(ctx, transcriptKeyPrefix+videoID).Result()
	if errors.Is(err, redis.Nil) {
		metrics.TranscriptCacheLookups.WithLabelValues("miss").Inc()
		return "", false
	}
	if err != nil {
		metrics.TranscriptCacheLookups.WithLabelValues("error").Inc()
		c.log.Warn("transcript cache read failed", "video_id", videoID, "error", err)
		return "", false
	}
	metrics.TranscriptCacheLookups.WithLabelValues("hit").Inc()
	return val, true
}

func (c *TranscriptCache) Set(ctx context.Context, videoID, text string) {
	if err := c.rdb.Set(ctx, transcriptKeyPrefix+videoID, text, c.ttl).Err(); err != nil {
		c.log.Warn("transcript cache write failed", "video_id", videoID, "error", err)
	}
}
