// Package mocks holds testify mocks of the outbound ports
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"subscout/application/ports"
	"subscout/domain/core/entities"
	"subscout/domain/core/valueobjects"
	"subscout/domain/insights"
)

type MockPostSource struct {
	mock.Mock
}

func (m *MockPostSource) HotPosts(ctx context.Context, subreddit string, limit int) ([]ports.RawPost, error) {
	args := m.Called(ctx, subreddit, limit)
	if args.Get(0) != nil {
		return args.Get(0).([]ports.RawPost), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPostSource) Search(ctx context.Context, subreddit, query string, limit int) ([]ports.RawPost, error) {
	args := m.Called(ctx, subreddit, query, limit)
	if args.Get(0) != nil {
		return args.Get(0).([]ports.RawPost), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPostSource) About(ctx context.Context, subreddit string) (*entities.SubredditInfo, error) {
	args := m.Called(ctx, subreddit)
	if args.Get(0) != nil {
		return args.Get(0).(*entities.SubredditInfo), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockContentAnalyzer struct {
	mock.Mock
}

func (m *MockContentAnalyzer) AnalyzeApp(ctx context.Context, url string) (*entities.AppProfile, error) {
	args := m.Called(ctx, url)
	if args.Get(0) != nil {
		return args.Get(0).(*entities.AppProfile), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockContentAnalyzer) GenerateFirstContactPost(ctx context.Context, subreddit, appDescription string, painPoints []string) (*entities.PostDraft, error) {
	args := m.Called(ctx, subreddit, appDescription, painPoints)
	if args.Get(0) != nil {
		return args.Get(0).(*entities.PostDraft), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockContentAnalyzer) AnalyzePainPointTrends(ctx context.Context, in []*entities.Insight) (*ports.TrendReport, error) {
	args := m.Called(ctx, in)
	if args.Get(0) != nil {
		return args.Get(0).(*ports.TrendReport), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockCommunityRecommender struct {
	mock.Mock
}

func (m *MockCommunityRecommender) FindSubreddits(ctx context.Context, appDescription, targetAudience string) ([]entities.SubredditRecommendation, error) {
	args := m.Called(ctx, appDescription, targetAudience)
	if args.Get(0) != nil {
		return args.Get(0).([]entities.SubredditRecommendation), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockActivityPublisher struct {
	mock.Mock
}

func (m *MockActivityPublisher) Publish(ctx context.Context, activities ...*entities.Activity) error {
	args := m.Called(ctx, activities)
	return args.Error(0)
}

// MockInsightRepository is used where storage failures must be simulated
type MockInsightRepository struct {
	mock.Mock
}

func (m *MockInsightRepository) SaveBatch(ctx context.Context, batch ports.InsightBatch) error {
	args := m.Called(ctx, batch)
	return args.Error(0)
}

func (m *MockInsightRepository) ListByApp(ctx context.Context, appID string) ([]*entities.Insight, error) {
	args := m.Called(ctx, appID)
	if args.Get(0) != nil {
		return args.Get(0).([]*entities.Insight), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockInsightRepository) ListRecent(ctx context.Context, userID string, limit int) ([]*entities.Insight, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) != nil {
		return args.Get(0).([]*entities.Insight), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockInsightRepository) CountTitles(ctx context.Context, userID string, t valueobjects.InsightType, limit int) ([]insights.TitleCount, error) {
	args := m.Called(ctx, userID, t, limit)
	if args.Get(0) != nil {
		return args.Get(0).([]insights.TitleCount), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockInsightRepository) CountByType(ctx context.Context, userID string, t valueobjects.InsightType) (int, error) {
	args := m.Called(ctx, userID, t)
	return args.Int(0), args.Error(1)
}
