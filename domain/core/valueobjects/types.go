package valueobjects

// InsightType is the category of a persisted insight
type InsightType string

const (
	InsightPainPoint      InsightType = "pain_point"
	InsightFeatureRequest InsightType = "feature_request"
	InsightTrend          InsightType = "trend"
)

func (t InsightType) IsValid() bool {
	switch t {
	case InsightPainPoint, InsightFeatureRequest, InsightTrend:
		return true
	}
	return false
}

// PostStatus tracks a drafted post through review
type PostStatus string

const (
	PostDraft     PostStatus = "draft"
	PostApproved  PostStatus = "approved"
	PostPublished PostStatus = "published"
)

func (s PostStatus) IsValid() bool {
	switch s {
	case PostDraft, PostApproved, PostPublished:
		return true
	}
	return false
}

// ActivityLevel is the qualitative activity of a community
type ActivityLevel string

const (
	ActivityHigh   ActivityLevel = "high"
	ActivityMedium ActivityLevel = "medium"
	ActivityLow    ActivityLevel = "low"
)

func (a ActivityLevel) IsValid() bool {
	switch a {
	case ActivityHigh, ActivityMedium, ActivityLow:
		return true
	}
	return false
}

// ActivityType names an entry in the user's activity feed
type ActivityType string

const (
	ActivityAppAnalyzed          ActivityType = "app_analyzed"
	ActivitySubredditsDiscovered ActivityType = "subreddits_discovered"
	ActivitySubredditMonitored   ActivityType = "subreddit_monitored"
	ActivitySubredditScanned     ActivityType = "subreddit_scanned"
	ActivityPostGenerated        ActivityType = "post_generated"
	ActivityPostApproved         ActivityType = "post_approved"
	ActivityTrendsAnalyzed       ActivityType = "trends_analyzed"
)

// TrendGrowth is the direction reported for a pain-point trend
type TrendGrowth string

const (
	GrowthRising    TrendGrowth = "rising"
	GrowthStable    TrendGrowth = "stable"
	GrowthDeclining TrendGrowth = "declining"
)

func (g TrendGrowth) IsValid() bool {
	switch g {
	case GrowthRising, GrowthStable, GrowthDeclining:
		return true
	}
	return false
}
