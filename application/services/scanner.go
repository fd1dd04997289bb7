package services

import (
	"context"

	"subscout/application/ports"
	"subscout/domain/insights"

	"go.uber.org/zap"
)

// HotPostLimit is how many hot posts a scan fetches
const HotPostLimit = 50

// ScanResult is the outcome of one scan. It is never persisted as is.
type ScanResult struct {
	PainPoints      []string        `json:"painPoints"`
	FeatureRequests []string        `json:"featureRequests"`
	CommonTopics    []string        `json:"commonTopics"`
	Posts           []ports.RawPost `json:"posts"`
}

// EmptyScanResult has every list present and empty
func EmptyScanResult() ScanResult {
	return ScanResult{
		PainPoints:      []string{},
		FeatureRequests: []string{},
		CommonTopics:    []string{},
		Posts:           []ports.RawPost{},
	}
}

// InsightCount is the number of insights a scan produces
func (r ScanResult) InsightCount() int {
	return len(r.PainPoints) + len(r.FeatureRequests)
}

// Scanner classifies the hot posts of a community
type Scanner struct {
	source ports.PostSource
	logger *zap.Logger
}

func NewScanner(source ports.PostSource, logger *zap.Logger) *Scanner {
	return &Scanner{source: source, logger: logger}
}

// Scan fetches up to HotPostLimit hot posts of subreddit and classifies them.
// A failed fetch yields EmptyScanResult; Scan itself never fails.
func (s *Scanner) Scan(ctx context.Context, subreddit string) ScanResult {
	posts, err := s.source.HotPosts(ctx, subreddit, HotPostLimit)
	if err != nil {
		s.logger.Warn("Hot post fetch failed, returning empty scan",
			zap.String("subreddit", subreddit),
			zap.Error(err),
		)
		return EmptyScanResult()
	}

	return Analyze(posts)
}

// Analyze runs classification, dedup and capping over fetched posts
func Analyze(posts []ports.RawPost) ScanResult {
	var painPoints, featureRequests []string
	topics := insights.NewTopicCounter()

	for _, post := range posts {
		text := insights.PostText(post.Title, post.Content)
		c := insights.Classify(text)
		if c.IsPainPoint {
			painPoints = append(painPoints, post.Title)
		}
		if c.IsFeatureRequest {
			featureRequests = append(featureRequests, post.Title)
		}
		topics.Add(text)
	}

	sample := posts
	if len(sample) > insights.MaxPerCategory {
		sample = sample[:insights.MaxPerCategory]
	}
	if sample == nil {
		sample = []ports.RawPost{}
	}

	return ScanResult{
		PainPoints:      insights.UniqueCapped(painPoints, insights.MaxPerCategory),
		FeatureRequests: insights.UniqueCapped(featureRequests, insights.MaxPerCategory),
		CommonTopics:    topics.Top(insights.MaxPerCategory),
		Posts:           sample,
	}
}
