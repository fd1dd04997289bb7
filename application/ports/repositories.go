package ports

import (
	"context"
	"time"

	"subscout/domain/core/entities"
	"subscout/domain/core/valueobjects"
	"subscout/domain/insights"
)

// Repositories return a NotFound AppError from GetByID when no row exists.

// UserRepository stores profiles mirrored from the identity provider
type UserRepository interface {
	// Upsert inserts the user or refreshes the profile fields of an existing one
	Upsert(ctx context.Context, user *entities.User) (*entities.User, error)
	GetByID(ctx context.Context, id string) (*entities.User, error)
}

type AppRepository interface {
	Create(ctx context.Context, app *entities.App) error
	GetByID(ctx context.Context, id string) (*entities.App, error)
	// ListByUser returns the user's apps newest first
	ListByUser(ctx context.Context, userID string) ([]*entities.App, error)
}

type SubredditRepository interface {
	Create(ctx context.Context, sub *entities.Subreddit) error
	GetByID(ctx context.Context, id string) (*entities.Subreddit, error)
	// ListByApp returns the app's subreddits by descending match score
	ListByApp(ctx context.Context, appID string) ([]*entities.Subreddit, error)
	Update(ctx context.Context, sub *entities.Subreddit) error
	CountMonitored(ctx context.Context, userID string) (int, error)
}

// InsightBatch is written atomically: every insight, the activity and the
// scanned-at stamp commit together or not at all.
type InsightBatch struct {
	Insights []*entities.Insight
	Activity *entities.Activity
	// ScannedSubredditID, when set, gets its last_scanned set to ScannedAt
	ScannedSubredditID string
	ScannedAt          time.Time
}

type InsightRepository interface {
	SaveBatch(ctx context.Context, batch InsightBatch) error
	// ListByApp returns the app's insights newest first
	ListByApp(ctx context.Context, appID string) ([]*entities.Insight, error)
	// ListRecent returns at most limit of the user's insights newest first
	ListRecent(ctx context.Context, userID string, limit int) ([]*entities.Insight, error)
	// CountTitles groups the user's insights of type t by exact title, largest
	// first, keeping at most limit groups. A negative limit keeps them all.
	CountTitles(ctx context.Context, userID string, t valueobjects.InsightType, limit int) ([]insights.TitleCount, error)
	CountByType(ctx context.Context, userID string, t valueobjects.InsightType) (int, error)
}

// PostFilter narrows a post listing. A nil Status lists every status.
type PostFilter struct {
	UserID string
	Status *valueobjects.PostStatus
}

type PostRepository interface {
	Create(ctx context.Context, post *entities.Post) error
	GetByID(ctx context.Context, id string) (*entities.Post, error)
	Update(ctx context.Context, post *entities.Post) error
	// List returns matching posts newest first
	List(ctx context.Context, filter PostFilter) ([]*entities.Post, error)
	CountByStatus(ctx context.Context, userID string, status valueobjects.PostStatus) (int, error)
}

type ActivityRepository interface {
	Create(ctx context.Context, activity *entities.Activity) error
	// ListRecent returns at most limit of the user's activities newest first
	ListRecent(ctx context.Context, userID string, limit int) ([]*entities.Activity, error)
}

// HealthChecker is implemented by stores that can report readiness
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Store groups every repository of one storage backend
type Store struct {
	Users      UserRepository
	Apps       AppRepository
	Subreddits SubredditRepository
	Insights   InsightRepository
	Posts      PostRepository
	Activities ActivityRepository
	Health     HealthChecker
}
