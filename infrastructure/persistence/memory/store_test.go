package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subscout/application/ports"
	"subscout/domain/core/entities"
	"subscout/domain/core/valueobjects"
	"subscout/domain/insights"
	pkgerrors "subscout/pkg/errors"
)

func TestInsightRepo_SaveBatch(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	sub := &entities.Subreddit{ID: "sub-1", UserID: "u1", AppID: "app-1", Name: "startups"}
	require.NoError(t, store.Subreddits.Create(ctx, sub))

	batch := ports.InsightBatch{
		Insights: []*entities.Insight{
			entities.NewScanInsight("u1", sub, valueobjects.InsightPainPoint, "Billing is broken", now),
			entities.NewScanInsight("u1", sub, valueobjects.InsightFeatureRequest, "Wish it had SSO", now),
		},
		Activity:           entities.NewActivity("u1", valueobjects.ActivitySubredditScanned, "Scanned r/startups for insights", nil, now),
		ScannedSubredditID: sub.ID,
		ScannedAt:          now,
	}
	require.NoError(t, store.Insights.SaveBatch(ctx, batch))

	recent, err := store.Insights.ListRecent(ctx, "u1", 100)
	require.NoError(t, err)
	assert.Len(t, recent, 2)

	activities, err := store.Activities.ListRecent(ctx, "u1", 20)
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, valueobjects.ActivitySubredditScanned, activities[0].Type)

	stored, err := store.Subreddits.GetByID(ctx, sub.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastScanned)
	assert.Equal(t, now, *stored.LastScanned)
}

func TestInsightRepo_SaveBatch_UnknownSubredditWritesNothing(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	now := time.Now().UTC()
	sub := &entities.Subreddit{ID: "missing", AppID: "app-1"}

	err := store.Insights.SaveBatch(ctx, ports.InsightBatch{
		Insights:           []*entities.Insight{entities.NewScanInsight("u1", sub, valueobjects.InsightPainPoint, "x", now)},
		Activity:           entities.NewActivity("u1", valueobjects.ActivitySubredditScanned, "", nil, now),
		ScannedSubredditID: "missing",
		ScannedAt:          now,
	})

	assert.True(t, pkgerrors.IsNotFound(err))
	recent, _ := store.Insights.ListRecent(ctx, "u1", 100)
	assert.Empty(t, recent)
	activities, _ := store.Activities.ListRecent(ctx, "u1", 20)
	assert.Empty(t, activities)
}

func TestInsightRepo_CountTitlesAndRecency(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	sub := &entities.Subreddit{ID: "sub-1", AppID: "app-1"}

	var batch []*entities.Insight
	for i, title := range []string{"Slow sync", "Slow sync", "Crashes on start", "slow sync"} {
		batch = append(batch, entities.NewScanInsight("u1", sub, valueobjects.InsightPainPoint, title, base.Add(time.Duration(i)*time.Minute)))
	}
	batch = append(batch, entities.NewScanInsight("u2", sub, valueobjects.InsightPainPoint, "Slow sync", base))
	batch = append(batch, entities.NewScanInsight("u1", sub, valueobjects.InsightFeatureRequest, "Slow sync", base))
	require.NoError(t, store.Insights.SaveBatch(ctx, ports.InsightBatch{Insights: batch}))

	counts, err := store.Insights.CountTitles(ctx, "u1", valueobjects.InsightPainPoint, -1)
	require.NoError(t, err)
	assert.Len(t, counts, 3)
	assert.Equal(t, "Slow sync", counts[0].Title)
	assert.Equal(t, 2, counts[0].Count)

	top, err := store.Insights.CountTitles(ctx, "u1", valueobjects.InsightPainPoint, 1)
	require.NoError(t, err)
	assert.Equal(t, []insights.TitleCount{{Title: "Slow sync", Count: 2}}, top)

	n, err := store.Insights.CountByType(ctx, "u1", valueobjects.InsightPainPoint)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	recent, err := store.Insights.ListRecent(ctx, "u1", 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "slow sync", recent[0].Title)
	assert.Equal(t, "Crashes on start", recent[1].Title)
}

func TestPostRepo_ListByStatus(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	now := time.Now().UTC()

	draft := entities.NewDraftPost("u1", "a", "s", entities.PostDraft{Title: "one", Content: "c"}, now)
	approved := entities.NewDraftPost("u1", "a", "s", entities.PostDraft{Title: "two", Content: "c"}, now.Add(time.Second))
	require.NoError(t, approved.SetStatus(valueobjects.PostApproved, now))
	require.NoError(t, store.Posts.Create(ctx, draft))
	require.NoError(t, store.Posts.Create(ctx, approved))

	all, err := store.Posts.List(ctx, ports.PostFilter{UserID: "u1"})
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, "two", all[0].Title)

	status := valueobjects.PostDraft
	drafts, err := store.Posts.List(ctx, ports.PostFilter{UserID: "u1", Status: &status})
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, "one", drafts[0].Title)

	n, err := store.Posts.CountByStatus(ctx, "u1", valueobjects.PostDraft)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestUserRepo_UpsertKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	first := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := store.Users.Upsert(ctx, &entities.User{ID: "u1", Email: "a@x.io", CreatedAt: first, UpdatedAt: first})
	require.NoError(t, err)

	later := first.Add(24 * time.Hour)
	u, err := store.Users.Upsert(ctx, &entities.User{ID: "u1", Email: "b@x.io", CreatedAt: later, UpdatedAt: later})
	require.NoError(t, err)
	assert.Equal(t, first, u.CreatedAt)
	assert.Equal(t, "b@x.io", u.Email)

	_, err = store.Users.GetByID(ctx, "nobody")
	assert.True(t, pkgerrors.IsNotFound(err))
}
