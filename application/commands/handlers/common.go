package handlers

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"subscout/application/commands/bus"
	"subscout/application/ports"
	"subscout/domain/core/entities"
	pkgerrors "subscout/pkg/errors"
)

// Clock returns the current time. Handlers take one so tests can pin it.
type Clock func() time.Time

// adapt turns a typed handler method into a bus.CommandHandler
func adapt[C bus.Command, R any](handle func(context.Context, C) (R, error)) bus.CommandHandler {
	return bus.CommandHandlerFunc(func(ctx context.Context, cmd bus.Command) (interface{}, error) {
		typed, ok := cmd.(C)
		if !ok {
			return nil, fmt.Errorf("unexpected command type %T", cmd)
		}
		result, err := handle(ctx, typed)
		if err != nil {
			return nil, err
		}
		return result, nil
	})
}

// ActivityRecorder stores feed entries and forwards them to the publisher.
// Failures are logged and never surface to the caller.
type ActivityRecorder struct {
	repo      ports.ActivityRepository
	publisher ports.ActivityPublisher
	logger    *zap.Logger
}

func NewActivityRecorder(repo ports.ActivityRepository, publisher ports.ActivityPublisher, logger *zap.Logger) *ActivityRecorder {
	if publisher == nil {
		publisher = ports.NoopPublisher{}
	}
	return &ActivityRecorder{repo: repo, publisher: publisher, logger: logger}
}

// Record stores activity and then publishes it
func (r *ActivityRecorder) Record(ctx context.Context, activity *entities.Activity) {
	if err := r.repo.Create(ctx, activity); err != nil {
		r.logger.Error("Failed to record activity",
			zap.String("type", string(activity.Type)),
			zap.String("userID", activity.UserID),
			zap.Error(err),
		)
		return
	}
	r.Publish(ctx, activity)
}

// Publish forwards activities that were already stored
func (r *ActivityRecorder) Publish(ctx context.Context, activities ...*entities.Activity) {
	if err := r.publisher.Publish(ctx, activities...); err != nil {
		r.logger.Warn("Failed to publish activities",
			zap.Int("count", len(activities)),
			zap.Error(err),
		)
	}
}

// ownedApp loads an app and rejects callers who do not own it
func ownedApp(ctx context.Context, repo ports.AppRepository, appID, userID string) (*entities.App, error) {
	app, err := repo.GetByID(ctx, appID)
	if err != nil {
		return nil, err
	}
	if !app.IsOwnedBy(userID) {
		return nil, pkgerrors.NewForbiddenError("Access denied")
	}
	return app, nil
}

// ownedSubreddit loads a subreddit and reports other owners' rows as missing
func ownedSubreddit(ctx context.Context, repo ports.SubredditRepository, id, userID string) (*entities.Subreddit, error) {
	sub, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sub.IsOwnedBy(userID) {
		return nil, pkgerrors.NewNotFoundError("subreddit")
	}
	return sub, nil
}
