package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"subscout/application/ports"
	"subscout/application/ports/mocks"
)

func TestScanner_Scan_ClassifiesPosts(t *testing.T) {
	// Arrange
	ctx := context.Background()
	source := new(mocks.MockPostSource)
	posts := []ports.RawPost{
		{Title: "Export", Content: "this is broken and annoying"},
		{Title: "Dark mode", Content: "I wish there was a dark mode"},
		{Title: "Weekly thread", Content: "nothing notable here"},
	}
	source.On("HotPosts", ctx, "startups", HotPostLimit).Return(posts, nil)
	scanner := NewScanner(source, zap.NewNop())

	// Act
	result := scanner.Scan(ctx, "startups")

	// Assert
	assert.Equal(t, []string{"Export"}, result.PainPoints)
	assert.Equal(t, []string{"Dark mode"}, result.FeatureRequests)
	assert.Equal(t, posts, result.Posts)
	assert.Equal(t, 2, result.InsightCount())
	source.AssertExpectations(t)
}

func TestScanner_Scan_EmptyOnFetchFailure(t *testing.T) {
	ctx := context.Background()
	source := new(mocks.MockPostSource)
	source.On("HotPosts", ctx, "startups", HotPostLimit).Return(nil, errors.New("401 unauthorized"))
	scanner := NewScanner(source, zap.NewNop())

	result := scanner.Scan(ctx, "startups")

	assert.Equal(t, EmptyScanResult(), result)
	assert.NotNil(t, result.PainPoints)
	assert.NotNil(t, result.Posts)
	source.AssertExpectations(t)
}

func TestAnalyze_TruncatesPainPointsToTen(t *testing.T) {
	var posts []ports.RawPost
	for i := 0; i < 15; i++ {
		posts = append(posts, ports.RawPost{Title: fmt.Sprintf("problem number %d", i)})
	}

	result := Analyze(posts)

	assert.Len(t, result.PainPoints, 10)
	assert.Len(t, result.Posts, 10)
	assert.Equal(t, posts[:10], result.Posts)
}

func TestAnalyze_DeduplicatesTitles(t *testing.T) {
	posts := []ports.RawPost{
		{Title: "App keeps crashing", Content: "so broken"},
		{Title: "App keeps crashing", Content: "this is a real problem"},
	}

	result := Analyze(posts)

	assert.Equal(t, []string{"App keeps crashing"}, result.PainPoints)
	assert.Len(t, result.Posts, 2)
}

func TestAnalyze_TitleIsRecordedNotContent(t *testing.T) {
	posts := []ports.RawPost{{Title: "Quick question", Content: "I need bulk export"}}

	result := Analyze(posts)

	assert.Equal(t, []string{"Quick question"}, result.FeatureRequests)
	assert.Empty(t, result.PainPoints)
}

func TestAnalyze_CommonTopics(t *testing.T) {
	posts := []ports.RawPost{
		{Title: "Pricing", Content: "pricing feels steep"},
		{Title: "Onboarding", Content: "pricing page confusing"},
	}

	result := Analyze(posts)

	assert.Equal(t, "pricing", result.CommonTopics[0])
	assert.NotContains(t, result.CommonTopics, "page")
	assert.LessOrEqual(t, len(result.CommonTopics), 10)
}

func TestAnalyze_NoPosts(t *testing.T) {
	assert.Equal(t, EmptyScanResult(), Analyze(nil))
}

func TestScanner_Scan_PassesNameThrough(t *testing.T) {
	source := new(mocks.MockPostSource)
	source.On("HotPosts", mock.Anything, "SaaS", HotPostLimit).Return([]ports.RawPost{}, nil)

	result := NewScanner(source, zap.NewNop()).Scan(context.Background(), "SaaS")

	assert.Equal(t, EmptyScanResult(), result)
	source.AssertExpectations(t)
}
