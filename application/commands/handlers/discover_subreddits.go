package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"subscout/application/commands"
	"subscout/application/ports"
	"subscout/domain/core/entities"
	"subscout/domain/core/valueobjects"
	pkgerrors "subscout/pkg/errors"
)

// DiscoverSubredditsHandler asks the recommender for communities, enriches
// them with live /about data and stores them unmonitored.
type DiscoverSubredditsHandler struct {
	apps        ports.AppRepository
	subreddits  ports.SubredditRepository
	recommender ports.CommunityRecommender
	source      ports.PostSource
	activities  *ActivityRecorder
	logger      *zap.Logger
	now         Clock
}

func NewDiscoverSubredditsHandler(
	apps ports.AppRepository,
	subreddits ports.SubredditRepository,
	recommender ports.CommunityRecommender,
	source ports.PostSource,
	activities *ActivityRecorder,
	logger *zap.Logger,
	now Clock,
) *DiscoverSubredditsHandler {
	return &DiscoverSubredditsHandler{
		apps:        apps,
		subreddits:  subreddits,
		recommender: recommender,
		source:      source,
		activities:  activities,
		logger:      logger,
		now:         now,
	}
}

func (h *DiscoverSubredditsHandler) Handle(ctx context.Context, cmd commands.DiscoverSubredditsCommand) ([]*entities.Subreddit, error) {
	app, err := h.apps.GetByID(ctx, cmd.AppID)
	if err != nil {
		return nil, err
	}
	if !app.IsOwnedBy(cmd.UserID) {
		return nil, pkgerrors.NewNotFoundError("app")
	}

	recommendations, err := h.recommender.FindSubreddits(ctx, app.Description, app.TargetAudience)
	if err != nil {
		if pkgerrors.GetAppError(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.NewExternalError("perplexity", err).WithMessage("Failed to discover subreddits")
	}

	now := h.now()
	subreddits := make([]*entities.Subreddit, 0, len(recommendations))
	for _, rec := range recommendations {
		name, err := valueobjects.NewSubredditName(rec.Name)
		if err != nil {
			h.logger.Debug("Skipping invalid subreddit recommendation",
				zap.String("name", rec.Name),
				zap.Error(err),
			)
			continue
		}
		rec.Name = name.String()

		info, err := h.source.About(ctx, rec.Name)
		if err != nil {
			h.logger.Debug("Subreddit info unavailable, using recommendation",
				zap.String("subreddit", rec.Name),
				zap.Error(err),
			)
			info = nil
		}

		sub := entities.NewSubreddit(cmd.UserID, app.ID, rec, info, now)
		if err := h.subreddits.Create(ctx, sub); err != nil {
			return nil, pkgerrors.NewDatabaseError("create subreddit", err)
		}
		subreddits = append(subreddits, sub)
	}

	h.logger.Info("Subreddits discovered",
		zap.String("appID", app.ID),
		zap.Int("recommended", len(recommendations)),
		zap.Int("stored", len(subreddits)),
	)

	h.activities.Record(ctx, entities.NewActivity(
		cmd.UserID,
		valueobjects.ActivitySubredditsDiscovered,
		fmt.Sprintf("Discovered %d subreddits for %s", len(subreddits), app.Name),
		map[string]interface{}{"appId": app.ID, "count": len(subreddits)},
		now,
	))

	return subreddits, nil
}
