package services

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"smartlearning-backend/internal/logger"
	"smartlearning-backend/internal/models"
)

// ProgressPublisher delivers processing updates to a user. Delivery is
// best effort and never affects the request outcome.
type ProgressPublisher interface {
	Publish(ctx context.Context, userID uuid.UUID, msg models.WSMessage)
}

// RedisProgressPublisher publishes updates on the user's pub/sub channel,
// which the WebSocket hub relays to open connections.
type RedisProgressPublisher struct {
	redis *redis.Client
	log   *logger.Logger
}

func NewRedisProgressPublisher(redisClient *redis.Client, log *logger.Logger) *RedisProgressPublisher {
	return &RedisProgressPublisher{redis: redisClient, log: log}
}

func (p *RedisProgressPublisher) Publish(ctx context.Context, userID uuid.UUID, msg models.WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	if err := p.redis.Publish(ctx, models.UserUpdatesChannel(userID), data).Err(); err != nil {
		p.log.Debug("progress publish failed", "user_id", userID, "error", err)
	}
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, uuid.UUID, models.WSMessage) {}
