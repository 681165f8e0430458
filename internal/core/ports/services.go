package ports

import (
	"context"

	"github.com/offenesthueringen/bahnclip/internal/core/domain"
)

// EventPublisher publishes clip events to a message broker.
type EventPublisher interface {
	PublishRunCompleted(ctx context.Context, run *domain.ClipRun) error
	PublishBoundarySimplified(ctx context.Context, region string, before, after int) error
}

// EventSubscriber subscribes to clip events from a message broker.
type EventSubscriber interface {
	SubscribeRunCompleted(ctx context.Context, handler func(ctx context.Context, run *domain.ClipRun) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
