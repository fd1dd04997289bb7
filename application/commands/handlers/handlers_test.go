package handlers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"subscout/application/commands"
	"subscout/application/commands/bus"
	"subscout/application/ports"
	"subscout/application/ports/mocks"
	"subscout/application/services"
	"subscout/domain/core/entities"
	"subscout/domain/core/valueobjects"
	"subscout/infrastructure/persistence/memory"
	pkgerrors "subscout/pkg/errors"
)

var fixedNow = time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

type fixture struct {
	store       ports.Store
	source      *mocks.MockPostSource
	analyzer    *mocks.MockContentAnalyzer
	recommender *mocks.MockCommunityRecommender
	publisher   *mocks.MockActivityPublisher
	bus         *bus.CommandBus
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:       memory.NewStore(),
		source:      new(mocks.MockPostSource),
		analyzer:    new(mocks.MockContentAnalyzer),
		recommender: new(mocks.MockCommunityRecommender),
		publisher:   new(mocks.MockActivityPublisher),
		bus:         bus.NewCommandBus(),
	}
	require.NoError(t, Register(f.bus, Dependencies{
		Store:       f.store,
		Analyzer:    f.analyzer,
		Recommender: f.recommender,
		Source:      f.source,
		Publisher:   f.publisher,
		Logger:      zap.NewNop(),
		Now:         clock,
	}))
	return f
}

func (f *fixture) seedSubreddit(t *testing.T, userID, name string) *entities.Subreddit {
	t.Helper()
	sub := entities.NewSubreddit(userID, "app-1", entities.SubredditRecommendation{Name: name, Activity: "high", MatchScore: 80}, nil, fixedNow)
	require.NoError(t, f.store.Subreddits.Create(context.Background(), sub))
	return sub
}

func (f *fixture) seedApp(t *testing.T, userID string) *entities.App {
	t.Helper()
	app := entities.NewApp(userID, "https://example.com", entities.AppProfile{
		Name:           "Acme",
		Description:    "Invoicing for freelancers",
		TargetAudience: "freelancers",
		PainPoints:     []string{"late payments"},
	}, fixedNow)
	require.NoError(t, f.store.Apps.Create(context.Background(), app))
	return app
}

func TestScanSubreddit_PersistsInsightsAndActivity(t *testing.T) {
	// Arrange
	ctx := context.Background()
	f := newFixture(t)
	sub := f.seedSubreddit(t, "u1", "startups")

	f.source.On("HotPosts", mock.Anything, "startups", services.HotPostLimit).Return([]ports.RawPost{
		{Title: "Onboarding is broken", Content: ""},
		{Title: "We need dark mode", Content: ""},
		{Title: "I hate how this UI is broken, wish it had export"},
		{Title: "Launch week recap"},
	}, nil)
	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	// Act
	result, err := f.bus.Send(ctx, commands.ScanSubredditCommand{UserID: "u1", SubredditID: sub.ID})

	// Assert
	require.NoError(t, err)
	scan := result.(*ScanSubredditResult)
	assert.Equal(t, 2, scan.PainPoints)
	assert.Equal(t, 2, scan.FeatureRequests)
	assert.Equal(t, 4, scan.Insights)
	assert.Equal(t, 4, scan.Posts)

	stored, err := f.store.Insights.ListRecent(ctx, "u1", 100)
	require.NoError(t, err)
	assert.Len(t, stored, 4)
	for _, in := range stored {
		assert.JSONEq(t, `{"source":"reddit_scan"}`, string(in.Tags))
		assert.Equal(t, in.Title, in.Content)
		assert.Equal(t, sub.ID, in.SubredditID)
	}

	activities, err := f.store.Activities.ListRecent(ctx, "u1", 20)
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, "Scanned r/startups for insights", activities[0].Description)
	assert.Equal(t, 4, activities[0].Metadata["insightsFound"])

	scanned, err := f.store.Subreddits.GetByID(ctx, sub.ID)
	require.NoError(t, err)
	require.NotNil(t, scanned.LastScanned)
	assert.Equal(t, fixedNow, *scanned.LastScanned)
	f.publisher.AssertNumberOfCalls(t, "Publish", 1)
}

func TestScanSubreddit_FetchFailureRecordsEmptyScan(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sub := f.seedSubreddit(t, "u1", "startups")

	f.source.On("HotPosts", mock.Anything, "startups", services.HotPostLimit).Return(nil, errors.New("reddit down"))
	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	result, err := f.bus.Send(ctx, commands.ScanSubredditCommand{UserID: "u1", SubredditID: sub.ID})

	require.NoError(t, err)
	assert.Equal(t, &ScanSubredditResult{}, result)

	activities, err := f.store.Activities.ListRecent(ctx, "u1", 20)
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, 0, activities[0].Metadata["insightsFound"])
}

func TestScanSubreddit_OtherOwnerIsNotFound(t *testing.T) {
	f := newFixture(t)
	sub := f.seedSubreddit(t, "owner", "startups")

	_, err := f.bus.Send(context.Background(), commands.ScanSubredditCommand{UserID: "intruder", SubredditID: sub.ID})

	assert.True(t, pkgerrors.IsNotFound(err))
	f.source.AssertNotCalled(t, "HotPosts", mock.Anything, mock.Anything, mock.Anything)
}

func TestScanSubreddit_BatchFailureSurfacesAsDatabaseError(t *testing.T) {
	// Arrange
	ctx := context.Background()
	store := memory.NewStore()
	sub := entities.NewSubreddit("u1", "app-1", entities.SubredditRecommendation{Name: "SaaS"}, nil, fixedNow)
	require.NoError(t, store.Subreddits.Create(ctx, sub))

	source := new(mocks.MockPostSource)
	source.On("HotPosts", mock.Anything, "SaaS", services.HotPostLimit).Return([]ports.RawPost{{Title: "Sync is broken"}}, nil)
	insightRepo := new(mocks.MockInsightRepository)
	insightRepo.On("SaveBatch", mock.Anything, mock.AnythingOfType("ports.InsightBatch")).Return(errors.New("connection reset"))
	publisher := new(mocks.MockActivityPublisher)

	handler := NewScanSubredditHandler(
		store.Subreddits,
		insightRepo,
		services.NewScanner(source, zap.NewNop()),
		NewActivityRecorder(store.Activities, publisher, zap.NewNop()),
		nil,
		zap.NewNop(),
		clock,
	)

	// Act
	result, err := handler.Handle(ctx, commands.ScanSubredditCommand{UserID: "u1", SubredditID: sub.ID})

	// Assert
	assert.Nil(t, result)
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeDatabase))
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	insightRepo.AssertExpectations(t)
}

func TestDiscoverSubreddits_FiltersInvalidAndEnriches(t *testing.T) {
	// Arrange
	ctx := context.Background()
	f := newFixture(t)
	app := f.seedApp(t, "u1")

	f.recommender.On("FindSubreddits", mock.Anything, app.Description, app.TargetAudience).Return([]entities.SubredditRecommendation{
		{Name: "r/freelance", DisplayName: "r/freelance", Description: "rec", Subscribers: 10, Activity: "high", MatchScore: 90},
		{Name: "no spaces allowed", Activity: "low", MatchScore: 40},
		{Name: "smallbusiness", DisplayName: "r/smallbusiness", Subscribers: 20, Activity: "medium", MatchScore: 70},
	}, nil)
	f.source.On("About", mock.Anything, "freelance").Return(&entities.SubredditInfo{
		DisplayName: "r/Freelance",
		Description: "live description",
		Subscribers: 350000,
	}, nil)
	f.source.On("About", mock.Anything, "smallbusiness").Return(nil, errors.New("private"))
	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	// Act
	result, err := f.bus.Send(ctx, commands.DiscoverSubredditsCommand{UserID: "u1", AppID: app.ID})

	// Assert
	require.NoError(t, err)
	subs := result.([]*entities.Subreddit)
	require.Len(t, subs, 2)
	assert.Equal(t, "freelance", subs[0].Name)
	assert.Equal(t, "live description", subs[0].Description)
	assert.Equal(t, 350000, subs[0].Subscribers)
	assert.Equal(t, 20, subs[1].Subscribers)
	for _, s := range subs {
		assert.False(t, s.IsMonitored)
	}

	activities, err := f.store.Activities.ListRecent(ctx, "u1", 20)
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, "Discovered 2 subreddits for Acme", activities[0].Description)
}

func TestDiscoverSubreddits_OtherOwnerIsNotFound(t *testing.T) {
	f := newFixture(t)
	app := f.seedApp(t, "owner")

	_, err := f.bus.Send(context.Background(), commands.DiscoverSubredditsCommand{UserID: "u2", AppID: app.ID})

	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestAnalyzeApp_StoresProfile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.analyzer.On("AnalyzeApp", mock.Anything, "https://acme.io").Return(&entities.AppProfile{
		Name:        "Acme",
		Description: "Invoices",
		Tags:        []string{"fintech"},
	}, nil)
	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	result, err := f.bus.Send(ctx, commands.AnalyzeAppCommand{UserID: "u1", URL: "https://acme.io"})

	require.NoError(t, err)
	app := result.(*entities.App)
	assert.Equal(t, "Acme", app.Name)
	assert.Equal(t, []string{}, app.PainPoints)

	apps, err := f.store.Apps.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, apps, 1)
}

func TestAnalyzeApp_UpstreamFailure(t *testing.T) {
	f := newFixture(t)
	f.analyzer.On("AnalyzeApp", mock.Anything, "https://acme.io").Return(nil, errors.New("quota exceeded"))

	_, err := f.bus.Send(context.Background(), commands.AnalyzeAppCommand{UserID: "u1", URL: "https://acme.io"})

	appErr := pkgerrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.ErrorTypeExternal, appErr.Type)
	assert.Equal(t, "Failed to analyze app", appErr.Message)
}

func TestUpdateSubreddit_MonitoringRecordsActivityOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sub := f.seedSubreddit(t, "u1", "startups")
	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)
	monitored := true

	for i := 0; i < 2; i++ {
		_, err := f.bus.Send(ctx, commands.UpdateSubredditCommand{UserID: "u1", SubredditID: sub.ID, IsMonitored: &monitored})
		require.NoError(t, err)
	}

	activities, err := f.store.Activities.ListRecent(ctx, "u1", 20)
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, "Started monitoring r/startups", activities[0].Description)

	count, err := f.store.Subreddits.CountMonitored(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestUpdateSubreddit_OtherOwnerIsNotFound(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sub := f.seedSubreddit(t, "owner", "startups")
	score := 10

	_, err := f.bus.Send(ctx, commands.UpdateSubredditCommand{UserID: "u2", SubredditID: sub.ID, MatchScore: &score})

	assert.True(t, pkgerrors.IsNotFound(err))
	assert.False(t, pkgerrors.IsForbidden(err))
	stored, err := f.store.Subreddits.GetByID(ctx, sub.ID)
	require.NoError(t, err)
	assert.NotEqual(t, score, stored.MatchScore)
}

func TestGenerateAndApprovePost(t *testing.T) {
	// Arrange
	ctx := context.Background()
	f := newFixture(t)
	app := f.seedApp(t, "u1")
	sub := f.seedSubreddit(t, "u1", "freelance")
	f.analyzer.On("GenerateFirstContactPost", mock.Anything, "freelance", app.Description, app.PainPoints).
		Return(&entities.PostDraft{Title: "How do you chase late invoices?", Content: "Curious how others handle it."}, nil)
	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	// Act
	result, err := f.bus.Send(ctx, commands.GeneratePostCommand{UserID: "u1", AppID: app.ID, SubredditID: sub.ID})
	require.NoError(t, err)
	post := result.(*entities.Post)

	approved := valueobjects.PostApproved
	result, err = f.bus.Send(ctx, commands.UpdatePostCommand{UserID: "u1", PostID: post.ID, Status: &approved})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, valueobjects.PostApproved, result.(*entities.Post).Status)

	activities, err := f.store.Activities.ListRecent(ctx, "u1", 20)
	require.NoError(t, err)
	require.Len(t, activities, 2)
	types := []valueobjects.ActivityType{activities[0].Type, activities[1].Type}
	assert.ElementsMatch(t, []valueobjects.ActivityType{valueobjects.ActivityPostGenerated, valueobjects.ActivityPostApproved}, types)
}

func TestGeneratePost_ForeignAppIsNotFound(t *testing.T) {
	f := newFixture(t)
	app := f.seedApp(t, "owner")
	sub := f.seedSubreddit(t, "u1", "freelance")

	_, err := f.bus.Send(context.Background(), commands.GeneratePostCommand{UserID: "u1", AppID: app.ID, SubredditID: sub.ID})

	assert.True(t, pkgerrors.IsNotFound(err))
	f.analyzer.AssertNotCalled(t, "GenerateFirstContactPost", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdatePost_InvalidTitleRejected(t *testing.T) {
	f := newFixture(t)
	empty := ""

	_, err := f.bus.Send(context.Background(), commands.UpdatePostCommand{UserID: "u1", PostID: "p1", Title: &empty})

	assert.True(t, pkgerrors.IsValidation(err))
}

func TestAnalyzeTrends_StoresTrendInsights(t *testing.T) {
	// Arrange
	ctx := context.Background()
	f := newFixture(t)
	app := f.seedApp(t, "u1")
	sub := f.seedSubreddit(t, "u1", "freelance")
	sub.AppID = app.ID
	require.NoError(t, f.store.Insights.SaveBatch(ctx, ports.InsightBatch{Insights: []*entities.Insight{
		entities.NewScanInsight("u1", sub, valueobjects.InsightPainPoint, "Clients pay late", fixedNow),
		entities.NewScanInsight("u1", sub, valueobjects.InsightFeatureRequest, "Want recurring invoices", fixedNow),
	}}))

	f.analyzer.On("AnalyzePainPointTrends", mock.Anything, mock.MatchedBy(func(in []*entities.Insight) bool {
		return len(in) == 1 && in[0].Type == valueobjects.InsightPainPoint
	})).Return(&ports.TrendReport{
		Trends:  []ports.Trend{{Topic: "late payments", Frequency: 3, Growth: valueobjects.GrowthRising}},
		Summary: "Payment delays dominate",
	}, nil)
	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	// Act
	result, err := f.bus.Send(ctx, commands.AnalyzeTrendsCommand{UserID: "u1", AppID: app.ID})

	// Assert
	require.NoError(t, err)
	report := result.(*AnalyzeTrendsResult)
	require.Len(t, report.Insights, 1)
	trend := report.Insights[0]
	assert.Equal(t, valueobjects.InsightTrend, trend.Type)
	assert.Equal(t, "high", trend.Priority)
	assert.Equal(t, []string{"late payments", "rising"}, trend.Tags.Labels())
}

func TestAnalyzeTrends_NoPainPointsSkipsAnalyzer(t *testing.T) {
	f := newFixture(t)
	app := f.seedApp(t, "u1")

	result, err := f.bus.Send(context.Background(), commands.AnalyzeTrendsCommand{UserID: "u1", AppID: app.ID})

	require.NoError(t, err)
	assert.Empty(t, result.(*AnalyzeTrendsResult).Trends)
	f.analyzer.AssertNotCalled(t, "AnalyzePainPointTrends", mock.Anything, mock.Anything)
}
