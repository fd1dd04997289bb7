package queries

import (
	"subscout/domain/core/valueobjects"
	pkgerrors "subscout/pkg/errors"
	"subscout/pkg/utils"
)

const (
	DefaultInsightLimit  = 10
	DefaultActivityLimit = 20
	DefaultHotPostLimit  = 25
	DefaultSearchLimit   = 10
	MaxLimit             = 100
)

type GetUserQuery struct {
	UserID string
}

func (q GetUserQuery) Validate() error { return requireUser(q.UserID) }

type ListAppsQuery struct {
	UserID string
}

func (q ListAppsQuery) Validate() error { return requireUser(q.UserID) }

type GetAppQuery struct {
	UserID string
	AppID  string
}

func (q GetAppQuery) Validate() error { return requireIDs(q.UserID, q.AppID, "app ID") }

type ListSubredditsQuery struct {
	UserID string
	AppID  string
}

func (q ListSubredditsQuery) Validate() error { return requireIDs(q.UserID, q.AppID, "app ID") }

type ListInsightsQuery struct {
	UserID string
	AppID  string
}

func (q ListInsightsQuery) Validate() error { return requireIDs(q.UserID, q.AppID, "app ID") }

// TopPainPointsQuery ranks the caller's pain-point titles by frequency
type TopPainPointsQuery struct {
	UserID string
	Limit  int
}

func (q TopPainPointsQuery) Validate() error { return requireLimit(q.UserID, q.Limit) }

// TrendingTopicsQuery ranks tag labels across the caller's recent insights
type TrendingTopicsQuery struct {
	UserID string
	Limit  int
}

func (q TrendingTopicsQuery) Validate() error { return requireLimit(q.UserID, q.Limit) }

// ListPostsQuery lists the caller's posts. A nil Status lists all of them.
type ListPostsQuery struct {
	UserID string
	Status *valueobjects.PostStatus
}

func (q ListPostsQuery) Validate() error {
	if err := requireUser(q.UserID); err != nil {
		return err
	}
	if q.Status != nil && !q.Status.IsValid() {
		return pkgerrors.NewValidationError("status must be one of: draft approved published")
	}
	return nil
}

type RecentActivitiesQuery struct {
	UserID string
	Limit  int
}

func (q RecentActivitiesQuery) Validate() error { return requireLimit(q.UserID, q.Limit) }

type UserStatsQuery struct {
	UserID string
}

func (q UserStatsQuery) Validate() error { return requireUser(q.UserID) }

// HotPostsQuery reads the live hot posts of an owned subreddit
type HotPostsQuery struct {
	UserID      string
	SubredditID string
	Limit       int
}

func (q HotPostsQuery) Validate() error {
	if err := requireIDs(q.UserID, q.SubredditID, "subreddit ID"); err != nil {
		return err
	}
	return requireLimit(q.UserID, q.Limit)
}

// SearchSubredditQuery searches inside an owned subreddit
type SearchSubredditQuery struct {
	UserID      string `validate:"required"`
	SubredditID string `validate:"required"`
	Query       string `validate:"required,min=1,max=500,nosql"`
	Limit       int    `validate:"min=1,max=100"`
}

func (q SearchSubredditQuery) Validate() error {
	if err := utils.ValidateStruct(q); err != nil {
		return pkgerrors.NewValidationError(err.Error())
	}
	return nil
}

func requireUser(userID string) error {
	if userID == "" {
		return pkgerrors.NewValidationError("user ID is required")
	}
	return nil
}

func requireIDs(userID, id, name string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if id == "" {
		return pkgerrors.NewValidationError(name + " is required")
	}
	return nil
}

func requireLimit(userID string, limit int) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if limit < 1 || limit > MaxLimit {
		return pkgerrors.NewValidationError("limit must be between 1 and 100")
	}
	return nil
}
