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

// UpdatePostHandler edits a post and moves it through the review states
type UpdatePostHandler struct {
	posts      ports.PostRepository
	activities *ActivityRecorder
	logger     *zap.Logger
	now        Clock
}

func NewUpdatePostHandler(posts ports.PostRepository, activities *ActivityRecorder, logger *zap.Logger, now Clock) *UpdatePostHandler {
	return &UpdatePostHandler{posts: posts, activities: activities, logger: logger, now: now}
}

func (h *UpdatePostHandler) Handle(ctx context.Context, cmd commands.UpdatePostCommand) (*entities.Post, error) {
	post, err := h.posts.GetByID(ctx, cmd.PostID)
	if err != nil {
		return nil, err
	}
	if !post.IsOwnedBy(cmd.UserID) {
		return nil, pkgerrors.NewForbiddenError("Access denied")
	}

	now := h.now()
	if cmd.Title != nil {
		post.Title = *cmd.Title
	}
	if cmd.Content != nil {
		post.Content = *cmd.Content
	}
	post.UpdatedAt = now

	approved := false
	if cmd.Status != nil {
		approved = *cmd.Status == valueobjects.PostApproved && post.Status != valueobjects.PostApproved
		if err := post.SetStatus(*cmd.Status, now); err != nil {
			return nil, err
		}
	}

	if err := h.posts.Update(ctx, post); err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, err
		}
		return nil, pkgerrors.NewDatabaseError("update post", err)
	}

	if approved {
		h.logger.Info("Post approved", zap.String("postID", post.ID))
		h.activities.Record(ctx, entities.NewActivity(
			cmd.UserID,
			valueobjects.ActivityPostApproved,
			"Approved post: "+post.Title,
			map[string]interface{}{"postId": post.ID},
			now,
		))
	}

	return post, nil
}
