package ports

import (
	"context"

	"subscout/domain/core/entities"
)

// ActivityPublisher fans recorded activities out to other systems.
// Publishing happens after the activity is stored and never fails a request.
type ActivityPublisher interface {
	Publish(ctx context.Context, activities ...*entities.Activity) error
}

// NoopPublisher discards activities
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, ...*entities.Activity) error { return nil }
