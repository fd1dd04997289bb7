package entities

import (
	"time"

	"github.com/google/uuid"

	"subscout/domain/core/valueobjects"
)

// Subreddit is a community tracked for an app
type Subreddit struct {
	ID          string                     `json:"id"`
	UserID      string                     `json:"user_id"`
	AppID       string                     `json:"app_id"`
	Name        string                     `json:"name"`
	DisplayName string                     `json:"display_name"`
	Description string                     `json:"description"`
	Subscribers int                        `json:"subscribers"`
	Activity    valueobjects.ActivityLevel `json:"activity"`
	MatchScore  int                        `json:"match_score"`
	IsMonitored bool                       `json:"is_monitored"`
	LastScanned *time.Time                 `json:"last_scanned"`
	CreatedAt   time.Time                  `json:"created_at"`
}

// SubredditRecommendation is a community suggested for an app
type SubredditRecommendation struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Description string `json:"description"`
	Subscribers int    `json:"subscribers"`
	Activity    string `json:"activity"`
	MatchScore  int    `json:"matchScore"`
}

// SubredditInfo is the live /about data of a community
type SubredditInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Description string `json:"description"`
	Subscribers int    `json:"subscribers"`
	ActiveUsers int    `json:"activeUsers"`
	IsNSFW      bool   `json:"isNsfw"`
}

// NewSubreddit creates an unmonitored subreddit from a recommendation.
// Non-empty fields of live info override the recommended ones.
func NewSubreddit(userID, appID string, rec SubredditRecommendation, info *SubredditInfo, now time.Time) *Subreddit {
	activity := valueobjects.ActivityLevel(rec.Activity)
	if !activity.IsValid() {
		activity = valueobjects.ActivityMedium
	}

	displayName, description, subscribers := rec.DisplayName, rec.Description, rec.Subscribers
	if info != nil {
		if info.DisplayName != "" {
			displayName = info.DisplayName
		}
		if info.Description != "" {
			description = info.Description
		}
		if info.Subscribers > 0 {
			subscribers = info.Subscribers
		}
	}

	return &Subreddit{
		ID:          uuid.New().String(),
		UserID:      userID,
		AppID:       appID,
		Name:        rec.Name,
		DisplayName: displayName,
		Description: description,
		Subscribers: subscribers,
		Activity:    activity,
		MatchScore:  clampScore(rec.MatchScore),
		CreatedAt:   now,
	}
}

func (s *Subreddit) IsOwnedBy(userID string) bool {
	return s.UserID == userID
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
