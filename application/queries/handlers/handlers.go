package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"subscout/application/ports"
	"subscout/application/queries"
	"subscout/application/queries/bus"
	"subscout/domain/core/entities"
	"subscout/domain/core/valueobjects"
	"subscout/domain/insights"
	pkgerrors "subscout/pkg/errors"
)

// Stats is the dashboard summary of one user
type Stats struct {
	ActiveSubreddits int `json:"activeSubreddits"`
	PainPoints       int `json:"painPoints"`
	PostsDrafted     int `json:"postsDrafted"`
}

// QueryHandlers answers every read of the API from one store
type QueryHandlers struct {
	store      ports.Store
	source     ports.PostSource
	normalizer insights.TitleNormalizer
	logger     *zap.Logger
}

func NewQueryHandlers(store ports.Store, source ports.PostSource, normalizer insights.TitleNormalizer, logger *zap.Logger) *QueryHandlers {
	if normalizer == nil {
		normalizer = insights.ExactTitle{}
	}
	return &QueryHandlers{store: store, source: source, normalizer: normalizer, logger: logger}
}

// Register wires every query handler into b
func (h *QueryHandlers) Register(b *bus.QueryBus) error {
	registrations := []struct {
		query   bus.Query
		handler bus.QueryHandler
	}{
		{queries.GetUserQuery{}, adapt(h.GetUser)},
		{queries.ListAppsQuery{}, adapt(h.ListApps)},
		{queries.GetAppQuery{}, adapt(h.GetApp)},
		{queries.ListSubredditsQuery{}, adapt(h.ListSubreddits)},
		{queries.ListInsightsQuery{}, adapt(h.ListInsights)},
		{queries.TopPainPointsQuery{}, adapt(h.TopPainPoints)},
		{queries.TrendingTopicsQuery{}, adapt(h.TrendingTopics)},
		{queries.ListPostsQuery{}, adapt(h.ListPosts)},
		{queries.RecentActivitiesQuery{}, adapt(h.RecentActivities)},
		{queries.UserStatsQuery{}, adapt(h.UserStats)},
		{queries.HotPostsQuery{}, adapt(h.HotPosts)},
		{queries.SearchSubredditQuery{}, adapt(h.SearchSubreddit)},
	}
	for _, r := range registrations {
		if err := b.Register(r.query, r.handler); err != nil {
			return err
		}
	}
	return nil
}

func adapt[Q bus.Query, R any](handle func(context.Context, Q) (R, error)) bus.QueryHandler {
	return bus.QueryHandlerFunc(func(ctx context.Context, query bus.Query) (interface{}, error) {
		typed, ok := query.(Q)
		if !ok {
			return nil, fmt.Errorf("unexpected query type %T", query)
		}
		result, err := handle(ctx, typed)
		if err != nil {
			return nil, err
		}
		return result, nil
	})
}

func (h *QueryHandlers) GetUser(ctx context.Context, q queries.GetUserQuery) (*entities.User, error) {
	return h.store.Users.GetByID(ctx, q.UserID)
}

func (h *QueryHandlers) ListApps(ctx context.Context, q queries.ListAppsQuery) ([]*entities.App, error) {
	apps, err := h.store.Apps.ListByUser(ctx, q.UserID)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("list apps", err)
	}
	return apps, nil
}

func (h *QueryHandlers) GetApp(ctx context.Context, q queries.GetAppQuery) (*entities.App, error) {
	return h.ownedApp(ctx, q.AppID, q.UserID)
}

func (h *QueryHandlers) ListSubreddits(ctx context.Context, q queries.ListSubredditsQuery) ([]*entities.Subreddit, error) {
	if _, err := h.ownedApp(ctx, q.AppID, q.UserID); err != nil {
		return nil, err
	}
	subs, err := h.store.Subreddits.ListByApp(ctx, q.AppID)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("list subreddits", err)
	}
	return subs, nil
}

func (h *QueryHandlers) ListInsights(ctx context.Context, q queries.ListInsightsQuery) ([]*entities.Insight, error) {
	if _, err := h.ownedApp(ctx, q.AppID, q.UserID); err != nil {
		return nil, err
	}
	list, err := h.store.Insights.ListByApp(ctx, q.AppID)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("list insights", err)
	}
	return list, nil
}

// TopPainPoints groups pain-point titles with the configured normalizer
func (h *QueryHandlers) TopPainPoints(ctx context.Context, q queries.TopPainPointsQuery) ([]insights.TitleCount, error) {
	groups, err := h.store.Insights.CountTitles(ctx, q.UserID, valueobjects.InsightPainPoint, insights.GroupLimit(h.normalizer, q.Limit))
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("count pain points", err)
	}
	return insights.TopTitles(groups, h.normalizer, q.Limit), nil
}

// TrendingTopics counts array tags over the most recent insights only
func (h *QueryHandlers) TrendingTopics(ctx context.Context, q queries.TrendingTopicsQuery) ([]insights.TagCount, error) {
	recent, err := h.store.Insights.ListRecent(ctx, q.UserID, insights.TrendingWindow)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("list recent insights", err)
	}
	return insights.TrendingTags(recent, q.Limit), nil
}

func (h *QueryHandlers) ListPosts(ctx context.Context, q queries.ListPostsQuery) ([]*entities.Post, error) {
	posts, err := h.store.Posts.List(ctx, ports.PostFilter{UserID: q.UserID, Status: q.Status})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("list posts", err)
	}
	return posts, nil
}

func (h *QueryHandlers) RecentActivities(ctx context.Context, q queries.RecentActivitiesQuery) ([]*entities.Activity, error) {
	activities, err := h.store.Activities.ListRecent(ctx, q.UserID, q.Limit)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("list activities", err)
	}
	return activities, nil
}

// UserStats runs the three counts concurrently
func (h *QueryHandlers) UserStats(ctx context.Context, q queries.UserStatsQuery) (*Stats, error) {
	var stats Stats
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := h.store.Subreddits.CountMonitored(gctx, q.UserID)
		stats.ActiveSubreddits = n
		return err
	})
	g.Go(func() error {
		n, err := h.store.Insights.CountByType(gctx, q.UserID, valueobjects.InsightPainPoint)
		stats.PainPoints = n
		return err
	})
	g.Go(func() error {
		n, err := h.store.Posts.CountByStatus(gctx, q.UserID, valueobjects.PostDraft)
		stats.PostsDrafted = n
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, pkgerrors.NewDatabaseError("user stats", err)
	}
	return &stats, nil
}

// HotPosts and SearchSubreddit return an empty list when the community API
// fails.
func (h *QueryHandlers) HotPosts(ctx context.Context, q queries.HotPostsQuery) ([]ports.RawPost, error) {
	sub, err := h.ownedSubreddit(ctx, q.SubredditID, q.UserID)
	if err != nil {
		return nil, err
	}

	posts, err := h.source.HotPosts(ctx, sub.Name, q.Limit)
	if err != nil {
		h.logger.Warn("Hot posts unavailable",
			zap.String("subreddit", sub.Name),
			zap.Error(err),
		)
		return []ports.RawPost{}, nil
	}
	if posts == nil {
		posts = []ports.RawPost{}
	}
	return posts, nil
}

func (h *QueryHandlers) SearchSubreddit(ctx context.Context, q queries.SearchSubredditQuery) ([]ports.RawPost, error) {
	sub, err := h.ownedSubreddit(ctx, q.SubredditID, q.UserID)
	if err != nil {
		return nil, err
	}

	posts, err := h.source.Search(ctx, sub.Name, q.Query, q.Limit)
	if err != nil {
		h.logger.Warn("Subreddit search unavailable",
			zap.String("subreddit", sub.Name),
			zap.Error(err),
		)
		return []ports.RawPost{}, nil
	}
	if posts == nil {
		posts = []ports.RawPost{}
	}
	return posts, nil
}

func (h *QueryHandlers) ownedApp(ctx context.Context, appID, userID string) (*entities.App, error) {
	app, err := h.store.Apps.GetByID(ctx, appID)
	if err != nil {
		return nil, err
	}
	if !app.IsOwnedBy(userID) {
		return nil, pkgerrors.NewForbiddenError("Access denied")
	}
	return app, nil
}

// ownedSubreddit reports other owners' subreddits as missing so their ids
// are not disclosed
func (h *QueryHandlers) ownedSubreddit(ctx context.Context, id, userID string) (*entities.Subreddit, error) {
	sub, err := h.store.Subreddits.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sub.IsOwnedBy(userID) {
		return nil, pkgerrors.NewNotFoundError("subreddit")
	}
	return sub, nil
}
