package handlers

import (
	"context"

	"go.uber.org/zap"

	"subscout/application/commands"
	"subscout/application/ports"
	"subscout/domain/core/entities"
	"subscout/domain/core/valueobjects"
	pkgerrors "subscout/pkg/errors"
)

// UpdateSubredditHandler applies a partial update to a tracked subreddit
type UpdateSubredditHandler struct {
	subreddits ports.SubredditRepository
	activities *ActivityRecorder
	logger     *zap.Logger
	now        Clock
}

func NewUpdateSubredditHandler(subreddits ports.SubredditRepository, activities *ActivityRecorder, logger *zap.Logger, now Clock) *UpdateSubredditHandler {
	return &UpdateSubredditHandler{subreddits: subreddits, activities: activities, logger: logger, now: now}
}

func (h *UpdateSubredditHandler) Handle(ctx context.Context, cmd commands.UpdateSubredditCommand) (*entities.Subreddit, error) {
	sub, err := ownedSubreddit(ctx, h.subreddits, cmd.SubredditID, cmd.UserID)
	if err != nil {
		return nil, err
	}

	startedMonitoring := false
	if cmd.IsMonitored != nil {
		startedMonitoring = *cmd.IsMonitored && !sub.IsMonitored
		sub.IsMonitored = *cmd.IsMonitored
	}
	if cmd.Activity != nil {
		sub.Activity = *cmd.Activity
	}
	if cmd.MatchScore != nil {
		sub.MatchScore = *cmd.MatchScore
	}

	if err := h.subreddits.Update(ctx, sub); err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, err
		}
		return nil, pkgerrors.NewDatabaseError("update subreddit", err)
	}

	if startedMonitoring {
		h.logger.Info("Subreddit monitoring started",
			zap.String("subredditID", sub.ID),
			zap.String("subreddit", sub.Name),
		)
		h.activities.Record(ctx, entities.NewActivity(
			cmd.UserID,
			valueobjects.ActivitySubredditMonitored,
			"Started monitoring r/"+sub.Name,
			map[string]interface{}{"subredditId": sub.ID},
			h.now(),
		))
	}

	return sub, nil
}
