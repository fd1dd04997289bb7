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

// GeneratePostHandler drafts a first-contact post for an app in a subreddit
type GeneratePostHandler struct {
	apps       ports.AppRepository
	subreddits ports.SubredditRepository
	posts      ports.PostRepository
	analyzer   ports.ContentAnalyzer
	activities *ActivityRecorder
	logger     *zap.Logger
	now        Clock
}

func NewGeneratePostHandler(
	apps ports.AppRepository,
	subreddits ports.SubredditRepository,
	posts ports.PostRepository,
	analyzer ports.ContentAnalyzer,
	activities *ActivityRecorder,
	logger *zap.Logger,
	now Clock,
) *GeneratePostHandler {
	return &GeneratePostHandler{
		apps:       apps,
		subreddits: subreddits,
		posts:      posts,
		analyzer:   analyzer,
		activities: activities,
		logger:     logger,
		now:        now,
	}
}

func (h *GeneratePostHandler) Handle(ctx context.Context, cmd commands.GeneratePostCommand) (*entities.Post, error) {
	sub, err := ownedSubreddit(ctx, h.subreddits, cmd.SubredditID, cmd.UserID)
	if err != nil {
		return nil, err
	}
	app, err := h.apps.GetByID(ctx, cmd.AppID)
	if err != nil {
		return nil, err
	}
	if !app.IsOwnedBy(cmd.UserID) {
		return nil, pkgerrors.NewNotFoundError("app")
	}

	draft, err := h.analyzer.GenerateFirstContactPost(ctx, sub.Name, app.Description, app.PainPoints)
	if err != nil {
		if pkgerrors.GetAppError(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.NewExternalError("gemini", err).WithMessage("Failed to generate post")
	}

	now := h.now()
	post := entities.NewDraftPost(cmd.UserID, app.ID, sub.ID, *draft, now)
	if err := h.posts.Create(ctx, post); err != nil {
		return nil, pkgerrors.NewDatabaseError("create post", err)
	}

	h.logger.Info("Post drafted",
		zap.String("postID", post.ID),
		zap.String("subreddit", sub.Name),
		zap.String("appID", app.ID),
	)

	h.activities.Record(ctx, entities.NewActivity(
		cmd.UserID,
		valueobjects.ActivityPostGenerated,
		"Generated post for r/"+sub.Name,
		map[string]interface{}{"postId": post.ID, "subredditId": sub.ID, "appId": app.ID},
		now,
	))

	return post, nil
}
