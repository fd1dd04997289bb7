package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subscout/application/ports"
	"subscout/domain/core/entities"
	"subscout/domain/core/valueobjects"
	"subscout/domain/insights"
	pkgerrors "subscout/pkg/errors"
)

func newMockStore(t *testing.T) (ports.Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db), mock
}

func scanBatch(now time.Time) ports.InsightBatch {
	sub := &entities.Subreddit{ID: "sub-1", AppID: "app-1", Name: "startups"}
	return ports.InsightBatch{
		Insights: []*entities.Insight{
			entities.NewScanInsight("user-1", sub, valueobjects.InsightPainPoint, "Onboarding is confusing", now),
			entities.NewScanInsight("user-1", sub, valueobjects.InsightFeatureRequest, "Wish it had an API", now),
		},
		Activity:           entities.NewActivity("user-1", valueobjects.ActivitySubredditScanned, "Scanned r/startups for insights", map[string]interface{}{"insightsFound": 2}, now),
		ScannedSubredditID: "sub-1",
		ScannedAt:          now,
	}
}

func TestInsightRepo_SaveBatchCommits(t *testing.T) {
	// Arrange
	store, mock := newMockStore(t)
	now := time.Date(2026, 5, 2, 9, 30, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE subreddits SET last_scanned`).
		WithArgs("sub-1", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO insights`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO insights`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO activities`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// Act
	err := store.Insights.SaveBatch(context.Background(), scanBatch(now))

	// Assert
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsightRepo_SaveBatchRollsBackOnInsertFailure(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE subreddits SET last_scanned`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO insights`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO insights`).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := store.Insights.SaveBatch(context.Background(), scanBatch(now))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert insight")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsightRepo_SaveBatchUnknownSubreddit(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE subreddits SET last_scanned`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := store.Insights.SaveBatch(context.Background(), scanBatch(time.Now().UTC()))

	assert.True(t, pkgerrors.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsightRepo_SaveBatchWithoutScanStamp(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()
	trend := entities.NewTrendInsight("user-1", "app-1", "pricing", 4, valueobjects.GrowthRising, "Pricing keeps coming up", now)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO insights`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.Insights.SaveBatch(context.Background(), ports.InsightBatch{Insights: []*entities.Insight{trend}})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsightRepo_CountTitles(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT title, COUNT\(\*\) FROM insights .+ MIN\(created_at\)$`).
		WithArgs("user-1", "pain_point").
		WillReturnRows(sqlmock.NewRows([]string{"title", "count"}).
			AddRow("Login is broken", 3).
			AddRow("Too expensive", 1))

	got, err := store.Insights.CountTitles(context.Background(), "user-1", valueobjects.InsightPainPoint, -1)

	require.NoError(t, err)
	assert.Equal(t, []insights.TitleCount{
		{Title: "Login is broken", Count: 3},
		{Title: "Too expensive", Count: 1},
	}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsightRepo_CountTitlesPushesLimit(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT title, COUNT\(\*\) FROM insights .+ LIMIT \$3`).
		WithArgs("user-1", "pain_point", 1).
		WillReturnRows(sqlmock.NewRows([]string{"title", "count"}).
			AddRow("Login is broken", 3))

	got, err := store.Insights.CountTitles(context.Background(), "user-1", valueobjects.InsightPainPoint, 1)

	require.NoError(t, err)
	assert.Equal(t, []insights.TitleCount{{Title: "Login is broken", Count: 3}}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppRepo_GetByIDMissing(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT .+ FROM apps WHERE id = \$1`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.Apps.GetByID(context.Background(), "missing")

	assert.True(t, pkgerrors.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppRepo_GetByIDDecodesArrays(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT .+ FROM apps WHERE id = \$1`).
		WithArgs("app-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "url", "name", "description", "target_audience",
			"pain_points", "features", "tags", "created_at", "updated_at",
		}).AddRow("app-1", "user-1", "https://example.com", "Example", nil, nil,
			[]byte(`["slow exports"]`), nil, []byte(`["b2b","saas"]`), now, now))

	app, err := store.Apps.GetByID(context.Background(), "app-1")

	require.NoError(t, err)
	assert.Equal(t, "Example", app.Name)
	assert.Equal(t, []string{"slow exports"}, app.PainPoints)
	assert.Equal(t, []string{}, app.Features)
	assert.Equal(t, []string{"b2b", "saas"}, app.Tags)
}

func TestPostRepo_ListFiltersByStatus(t *testing.T) {
	store, mock := newMockStore(t)
	status := valueobjects.PostApproved

	mock.ExpectQuery(`FROM posts WHERE user_id = \$1 AND status = \$2`).
		WithArgs("user-1", "approved").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "app_id", "subreddit_id", "title", "content", "status",
			"reddit_post_id", "published_at", "created_at", "updated_at",
		}))

	posts, err := store.Posts.List(context.Background(), ports.PostFilter{UserID: "user-1", Status: &status})

	require.NoError(t, err)
	assert.Empty(t, posts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubredditRepo_UpdateMissing(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE subreddits`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.Subreddits.Update(context.Background(), &entities.Subreddit{ID: "gone"})

	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestActivityRepo_ListRecentDecodesMetadata(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`FROM activities`).
		WithArgs("user-1", 20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "type", "description", "metadata", "created_at"}).
			AddRow("act-1", "user-1", "app_analyzed", "Analyzed app: Example", []byte(`{"appId":"app-1"}`), now))

	got, err := store.Activities.ListRecent(context.Background(), "user-1", 20)

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, valueobjects.ActivityAppAnalyzed, got[0].Type)
	assert.Equal(t, "app-1", got[0].Metadata["appId"])
}
