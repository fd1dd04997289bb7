package ports

import (
	"context"

	"subscout/domain/core/entities"
	"subscout/domain/core/valueobjects"
)

// RawPost is a post as returned by the community API
type RawPost struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	URL       string `json:"url"`
	Score     int    `json:"score"`
	Comments  int    `json:"comments"`
	CreatedAt int64  `json:"createdAt"` // unix millis
	Author    string `json:"author"`
	Permalink string `json:"permalink"`
}

// PostSource reads public community content
type PostSource interface {
	HotPosts(ctx context.Context, subreddit string, limit int) ([]RawPost, error)
	Search(ctx context.Context, subreddit, query string, limit int) ([]RawPost, error)
	About(ctx context.Context, subreddit string) (*entities.SubredditInfo, error)
}

// Trend is one pain-point trend reported by the analyzer
type Trend struct {
	Topic     string                   `json:"topic"`
	Frequency int                      `json:"frequency"`
	Growth    valueobjects.TrendGrowth `json:"growth"`
}

// TrendReport is the result of a trend analysis
type TrendReport struct {
	Trends  []Trend `json:"trends"`
	Summary string  `json:"summary"`
}

// ContentAnalyzer is the generative model used for analysis and drafting
type ContentAnalyzer interface {
	AnalyzeApp(ctx context.Context, url string) (*entities.AppProfile, error)
	GenerateFirstContactPost(ctx context.Context, subreddit, appDescription string, painPoints []string) (*entities.PostDraft, error)
	AnalyzePainPointTrends(ctx context.Context, insights []*entities.Insight) (*TrendReport, error)
}

// CommunityRecommender suggests communities related to an app
type CommunityRecommender interface {
	FindSubreddits(ctx context.Context, appDescription string, targetAudience string) ([]entities.SubredditRecommendation, error)
}
