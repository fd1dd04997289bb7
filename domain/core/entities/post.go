package entities

import (
	"time"

	"github.com/google/uuid"

	"subscout/domain/core/valueobjects"
	pkgerrors "subscout/pkg/errors"
)

// Post is an outreach draft awaiting human review
type Post struct {
	ID           string                  `json:"id"`
	UserID       string                  `json:"user_id"`
	AppID        string                  `json:"app_id"`
	SubredditID  string                  `json:"subreddit_id"`
	Title        string                  `json:"title"`
	Content      string                  `json:"content"`
	Status       valueobjects.PostStatus `json:"status"`
	RedditPostID string                  `json:"reddit_post_id,omitempty"`
	PublishedAt  *time.Time              `json:"published_at"`
	CreatedAt    time.Time               `json:"created_at"`
	UpdatedAt    time.Time               `json:"updated_at"`
}

// PostDraft is generated title and body text
type PostDraft struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// NewDraftPost creates a post in draft status
func NewDraftPost(userID, appID, subredditID string, draft PostDraft, now time.Time) *Post {
	return &Post{
		ID:          uuid.New().String(),
		UserID:      userID,
		AppID:       appID,
		SubredditID: subredditID,
		Title:       draft.Title,
		Content:     draft.Content,
		Status:      valueobjects.PostDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (p *Post) IsOwnedBy(userID string) bool {
	return p.UserID == userID
}

// SetStatus moves the post to status. Publishing stamps PublishedAt once.
func (p *Post) SetStatus(status valueobjects.PostStatus, now time.Time) error {
	if !status.IsValid() {
		return pkgerrors.NewValidationError("status must be one of: draft approved published")
	}
	p.Status = status
	if status == valueobjects.PostPublished && p.PublishedAt == nil {
		published := now
		p.PublishedAt = &published
	}
	p.UpdatedAt = now
	return nil
}
