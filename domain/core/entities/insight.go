package entities

import (
	"time"

	"github.com/google/uuid"

	"subscout/domain/core/valueobjects"
)

// ScanSource is the tag source recorded on insights produced by a scan
const ScanSource = "reddit_scan"

// Insight is a persisted observation derived from community posts
type Insight struct {
	ID          string                   `json:"id"`
	UserID      string                   `json:"user_id"`
	AppID       string                   `json:"app_id,omitempty"`
	SubredditID string                   `json:"subreddit_id,omitempty"`
	Type        valueobjects.InsightType `json:"type"`
	Title       string                   `json:"title"`
	Content     string                   `json:"content"`
	URL         string                   `json:"url,omitempty"`
	Upvotes     *int                     `json:"upvotes,omitempty"`
	Comments    *int                     `json:"comments,omitempty"`
	Sentiment   string                   `json:"sentiment,omitempty"`
	Priority    string                   `json:"priority,omitempty"`
	Tags        Tags                     `json:"tags"`
	CreatedAt   time.Time                `json:"created_at"`
}

// NewScanInsight creates an insight for a classified post title. Title and
// content are both the post title.
func NewScanInsight(userID string, sub *Subreddit, t valueobjects.InsightType, title string, now time.Time) *Insight {
	return &Insight{
		ID:          uuid.New().String(),
		UserID:      userID,
		AppID:       sub.AppID,
		SubredditID: sub.ID,
		Type:        t,
		Title:       title,
		Content:     title,
		Tags:        SourceTags(ScanSource),
		CreatedAt:   now,
	}
}

// NewTrendInsight creates a trend insight labelled with its topic and growth
func NewTrendInsight(userID, appID string, topic string, frequency int, growth valueobjects.TrendGrowth, summary string, now time.Time) *Insight {
	return &Insight{
		ID:        uuid.New().String(),
		UserID:    userID,
		AppID:     appID,
		Type:      valueobjects.InsightTrend,
		Title:     topic,
		Content:   summary,
		Upvotes:   &frequency,
		Priority:  priorityFor(growth),
		Tags:      LabelTags(topic, string(growth)),
		CreatedAt: now,
	}
}

func priorityFor(growth valueobjects.TrendGrowth) string {
	switch growth {
	case valueobjects.GrowthRising:
		return "high"
	case valueobjects.GrowthDeclining:
		return "low"
	default:
		return "medium"
	}
}
