// Package memory is a process-local storage backend used in development and
// tests. All repositories share one lock, so an InsightBatch is applied
// atomically.
package memory

import (
	"context"
	"sort"
	"sync"

	"subscout/application/ports"
	"subscout/domain/core/entities"
	"subscout/domain/core/valueobjects"
	"subscout/domain/insights"
	pkgerrors "subscout/pkg/errors"
)

type db struct {
	mu         sync.RWMutex
	users      map[string]entities.User
	apps       map[string]entities.App
	subreddits map[string]entities.Subreddit
	insights   []entities.Insight
	posts      map[string]entities.Post
	activities []entities.Activity
}

// NewStore creates an empty in-memory store
func NewStore() ports.Store {
	d := &db{
		users:      make(map[string]entities.User),
		apps:       make(map[string]entities.App),
		subreddits: make(map[string]entities.Subreddit),
		posts:      make(map[string]entities.Post),
	}
	return ports.Store{
		Users:      &userRepo{d},
		Apps:       &appRepo{d},
		Subreddits: &subredditRepo{d},
		Insights:   &insightRepo{d},
		Posts:      &postRepo{d},
		Activities: &activityRepo{d},
		Health:     d,
	}
}

func (d *db) Ping(context.Context) error { return nil }

type userRepo struct{ d *db }

func (r *userRepo) Upsert(_ context.Context, user *entities.User) (*entities.User, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	stored := *user
	if existing, ok := r.d.users[user.ID]; ok {
		stored.CreatedAt = existing.CreatedAt
	}
	r.d.users[user.ID] = stored
	return &stored, nil
}

func (r *userRepo) GetByID(_ context.Context, id string) (*entities.User, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	u, ok := r.d.users[id]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("user")
	}
	return &u, nil
}

type appRepo struct{ d *db }

func (r *appRepo) Create(_ context.Context, app *entities.App) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	r.d.apps[app.ID] = *app
	return nil
}

func (r *appRepo) GetByID(_ context.Context, id string) (*entities.App, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	a, ok := r.d.apps[id]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("app")
	}
	return &a, nil
}

func (r *appRepo) ListByUser(_ context.Context, userID string) ([]*entities.App, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	out := []*entities.App{}
	for _, a := range r.d.apps {
		if a.UserID == userID {
			a := a
			out = append(out, &a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type subredditRepo struct{ d *db }

func (r *subredditRepo) Create(_ context.Context, sub *entities.Subreddit) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	r.d.subreddits[sub.ID] = *sub
	return nil
}

func (r *subredditRepo) GetByID(_ context.Context, id string) (*entities.Subreddit, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	s, ok := r.d.subreddits[id]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("subreddit")
	}
	return &s, nil
}

func (r *subredditRepo) ListByApp(_ context.Context, appID string) ([]*entities.Subreddit, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	out := []*entities.Subreddit{}
	for _, s := range r.d.subreddits {
		if s.AppID == appID {
			s := s
			out = append(out, &s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].MatchScore != out[j].MatchScore {
			return out[i].MatchScore > out[j].MatchScore
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *subredditRepo) Update(_ context.Context, sub *entities.Subreddit) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	if _, ok := r.d.subreddits[sub.ID]; !ok {
		return pkgerrors.NewNotFoundError("subreddit")
	}
	r.d.subreddits[sub.ID] = *sub
	return nil
}

func (r *subredditRepo) CountMonitored(_ context.Context, userID string) (int, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	n := 0
	for _, s := range r.d.subreddits {
		if s.UserID == userID && s.IsMonitored {
			n++
		}
	}
	return n, nil
}

type insightRepo struct{ d *db }

func (r *insightRepo) SaveBatch(_ context.Context, batch ports.InsightBatch) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	var scanned entities.Subreddit
	if batch.ScannedSubredditID != "" {
		s, ok := r.d.subreddits[batch.ScannedSubredditID]
		if !ok {
			return pkgerrors.NewNotFoundError("subreddit")
		}
		scanned = s
	}

	for _, in := range batch.Insights {
		r.d.insights = append(r.d.insights, *in)
	}
	if batch.Activity != nil {
		r.d.activities = append(r.d.activities, *batch.Activity)
	}
	if batch.ScannedSubredditID != "" {
		at := batch.ScannedAt
		scanned.LastScanned = &at
		r.d.subreddits[scanned.ID] = scanned
	}
	return nil
}

func (r *insightRepo) ListByApp(_ context.Context, appID string) ([]*entities.Insight, error) {
	return r.filter(func(in *entities.Insight) bool { return in.AppID == appID }, -1), nil
}

func (r *insightRepo) ListRecent(_ context.Context, userID string, limit int) ([]*entities.Insight, error) {
	return r.filter(func(in *entities.Insight) bool { return in.UserID == userID }, limit), nil
}

// filter returns matching insights newest first. Rows are appended in
// creation order, so ties on CreatedAt resolve to the later insert.
func (r *insightRepo) filter(match func(*entities.Insight) bool, limit int) []*entities.Insight {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	out := []*entities.Insight{}
	for i := len(r.d.insights) - 1; i >= 0; i-- {
		in := r.d.insights[i]
		if match(&in) {
			out = append(out, &in)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (r *insightRepo) CountTitles(_ context.Context, userID string, t valueobjects.InsightType, limit int) ([]insights.TitleCount, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	index := make(map[string]int)
	out := []insights.TitleCount{}
	for _, in := range r.d.insights {
		if in.UserID != userID || in.Type != t {
			continue
		}
		if i, ok := index[in.Title]; ok {
			out[i].Count++
			continue
		}
		index[in.Title] = len(out)
		out = append(out, insights.TitleCount{Title: in.Title, Count: 1})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *insightRepo) CountByType(_ context.Context, userID string, t valueobjects.InsightType) (int, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	n := 0
	for _, in := range r.d.insights {
		if in.UserID == userID && in.Type == t {
			n++
		}
	}
	return n, nil
}

type postRepo struct{ d *db }

func (r *postRepo) Create(_ context.Context, post *entities.Post) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	r.d.posts[post.ID] = *post
	return nil
}

func (r *postRepo) GetByID(_ context.Context, id string) (*entities.Post, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	p, ok := r.d.posts[id]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("post")
	}
	return &p, nil
}

func (r *postRepo) Update(_ context.Context, post *entities.Post) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	if _, ok := r.d.posts[post.ID]; !ok {
		return pkgerrors.NewNotFoundError("post")
	}
	r.d.posts[post.ID] = *post
	return nil
}

func (r *postRepo) List(_ context.Context, filter ports.PostFilter) ([]*entities.Post, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	out := []*entities.Post{}
	for _, p := range r.d.posts {
		if p.UserID != filter.UserID {
			continue
		}
		if filter.Status != nil && p.Status != *filter.Status {
			continue
		}
		p := p
		out = append(out, &p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *postRepo) CountByStatus(_ context.Context, userID string, status valueobjects.PostStatus) (int, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	n := 0
	for _, p := range r.d.posts {
		if p.UserID == userID && p.Status == status {
			n++
		}
	}
	return n, nil
}

type activityRepo struct{ d *db }

func (r *activityRepo) Create(_ context.Context, activity *entities.Activity) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	r.d.activities = append(r.d.activities, *activity)
	return nil
}

func (r *activityRepo) ListRecent(_ context.Context, userID string, limit int) ([]*entities.Activity, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	out := []*entities.Activity{}
	for i := len(r.d.activities) - 1; i >= 0; i-- {
		a := r.d.activities[i]
		if a.UserID == userID {
			out = append(out, &a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
