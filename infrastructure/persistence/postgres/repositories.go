package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"subscout/application/ports"
	"subscout/domain/core/entities"
	"subscout/domain/core/valueobjects"
	"subscout/domain/insights"
	pkgerrors "subscout/pkg/errors"
)

// Users

type userRepo struct{ db *sql.DB }

const userColumns = `id, email, first_name, last_name, profile_image_url, created_at, updated_at`

func (r *userRepo) Upsert(ctx context.Context, user *entities.User) (*entities.User, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			profile_image_url = EXCLUDED.profile_image_url,
			updated_at = EXCLUDED.updated_at
		RETURNING `+userColumns,
		user.ID, nullString(user.Email), nullString(user.FirstName), nullString(user.LastName),
		nullString(user.ProfileImageURL), user.CreatedAt, user.UpdatedAt,
	)
	stored, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return stored, nil
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*entities.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	user, err := scanUser(row)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return user, nil
}

func scanUser(s scanner) (*entities.User, error) {
	var u entities.User
	var email, first, last, image sql.NullString
	if err := s.Scan(&u.ID, &email, &first, &last, &image, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Email, u.FirstName, u.LastName, u.ProfileImageURL = email.String, first.String, last.String, image.String
	return &u, nil
}

// Apps

type appRepo struct{ db *sql.DB }

const appColumns = `id, user_id, url, name, description, target_audience, pain_points, features, tags, created_at, updated_at`

func (r *appRepo) Create(ctx context.Context, app *entities.App) error {
	painPoints, _ := jsonParam(app.PainPoints)
	features, _ := jsonParam(app.Features)
	tags, _ := jsonParam(app.Tags)

	_, err := r.db.ExecContext(ctx, `INSERT INTO apps (`+appColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		app.ID, app.UserID, app.URL, nullString(app.Name), nullString(app.Description), nullString(app.TargetAudience),
		painPoints, features, tags, app.CreatedAt, app.UpdatedAt,
	)
	return err
}

func (r *appRepo) GetByID(ctx context.Context, id string) (*entities.App, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+appColumns+` FROM apps WHERE id = $1`, id)
	app, err := scanApp(row)
	if err != nil {
		return nil, notFound(err, "app")
	}
	return app, nil
}

func (r *appRepo) ListByUser(ctx context.Context, userID string) ([]*entities.App, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+appColumns+` FROM apps WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	apps := []*entities.App{}
	for rows.Next() {
		app, err := scanApp(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, app)
	}
	return apps, rows.Err()
}

func scanApp(s scanner) (*entities.App, error) {
	var a entities.App
	var name, description, audience sql.NullString
	var painPoints, features, tags []byte
	if err := s.Scan(&a.ID, &a.UserID, &a.URL, &name, &description, &audience,
		&painPoints, &features, &tags, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.Name, a.Description, a.TargetAudience = name.String, description.String, audience.String
	a.PainPoints = unmarshalStrings(painPoints)
	a.Features = unmarshalStrings(features)
	a.Tags = unmarshalStrings(tags)
	return &a, nil
}

// Subreddits

type subredditRepo struct{ db *sql.DB }

const subredditColumns = `id, user_id, app_id, name, display_name, description, subscribers, activity, match_score, is_monitored, last_scanned, created_at`

func (r *subredditRepo) Create(ctx context.Context, sub *entities.Subreddit) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO subreddits (`+subredditColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		sub.ID, sub.UserID, sub.AppID, sub.Name, sub.DisplayName, nullString(sub.Description),
		sub.Subscribers, string(sub.Activity), sub.MatchScore, sub.IsMonitored, nullTime(sub.LastScanned), sub.CreatedAt,
	)
	return err
}

func (r *subredditRepo) GetByID(ctx context.Context, id string) (*entities.Subreddit, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+subredditColumns+` FROM subreddits WHERE id = $1`, id)
	sub, err := scanSubreddit(row)
	if err != nil {
		return nil, notFound(err, "subreddit")
	}
	return sub, nil
}

func (r *subredditRepo) ListByApp(ctx context.Context, appID string) ([]*entities.Subreddit, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+subredditColumns+` FROM subreddits
		WHERE app_id = $1 ORDER BY match_score DESC, name`, appID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subs := []*entities.Subreddit{}
	for rows.Next() {
		sub, err := scanSubreddit(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func (r *subredditRepo) Update(ctx context.Context, sub *entities.Subreddit) error {
	res, err := r.db.ExecContext(ctx, `UPDATE subreddits
		SET display_name = $2, description = $3, subscribers = $4, activity = $5,
			match_score = $6, is_monitored = $7, last_scanned = $8
		WHERE id = $1`,
		sub.ID, sub.DisplayName, nullString(sub.Description), sub.Subscribers, string(sub.Activity),
		sub.MatchScore, sub.IsMonitored, nullTime(sub.LastScanned),
	)
	if err != nil {
		return err
	}
	return requireRow(res, "subreddit")
}

func (r *subredditRepo) CountMonitored(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM subreddits WHERE user_id = $1 AND is_monitored`, userID).Scan(&n)
	return n, err
}

func scanSubreddit(s scanner) (*entities.Subreddit, error) {
	var sub entities.Subreddit
	var description, activity sql.NullString
	var subscribers, score sql.NullInt64
	var lastScanned sql.NullTime
	if err := s.Scan(&sub.ID, &sub.UserID, &sub.AppID, &sub.Name, &sub.DisplayName, &description,
		&subscribers, &activity, &score, &sub.IsMonitored, &lastScanned, &sub.CreatedAt); err != nil {
		return nil, err
	}
	sub.Description = description.String
	sub.Subscribers = int(subscribers.Int64)
	sub.Activity = valueobjects.ActivityLevel(activity.String)
	sub.MatchScore = int(score.Int64)
	sub.LastScanned = timePtr(lastScanned)
	return &sub, nil
}

// Insights

type insightRepo struct{ db *sql.DB }

const insightColumns = `id, user_id, app_id, subreddit_id, type, title, content, url, upvotes, comments, sentiment, priority, tags, created_at`

// SaveBatch writes the whole batch in one transaction
func (r *insightRepo) SaveBatch(ctx context.Context, batch ports.InsightBatch) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if batch.ScannedSubredditID != "" {
		res, err := tx.ExecContext(ctx, `UPDATE subreddits SET last_scanned = $2 WHERE id = $1`,
			batch.ScannedSubredditID, batch.ScannedAt)
		if err != nil {
			return fmt.Errorf("mark subreddit scanned: %w", err)
		}
		if err := requireRow(res, "subreddit"); err != nil {
			return err
		}
	}

	for _, in := range batch.Insights {
		if err := insertInsight(ctx, tx, in); err != nil {
			return fmt.Errorf("insert insight: %w", err)
		}
	}

	if batch.Activity != nil {
		if err := insertActivity(ctx, tx, batch.Activity); err != nil {
			return fmt.Errorf("insert activity: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insight batch: %w", err)
	}
	return nil
}

func insertInsight(ctx context.Context, db execer, in *entities.Insight) error {
	var tags interface{}
	if !in.Tags.IsEmpty() {
		tags = string(in.Tags)
	}
	_, err := db.ExecContext(ctx, `INSERT INTO insights (`+insightColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		in.ID, in.UserID, nullString(in.AppID), nullString(in.SubredditID), string(in.Type), in.Title, in.Content,
		nullString(in.URL), nullInt(in.Upvotes), nullInt(in.Comments), nullString(in.Sentiment), nullString(in.Priority),
		tags, in.CreatedAt,
	)
	return err
}

func (r *insightRepo) ListByApp(ctx context.Context, appID string) ([]*entities.Insight, error) {
	return r.list(ctx, `SELECT `+insightColumns+` FROM insights WHERE app_id = $1 ORDER BY created_at DESC`, appID)
}

func (r *insightRepo) ListRecent(ctx context.Context, userID string, limit int) ([]*entities.Insight, error) {
	return r.list(ctx, `SELECT `+insightColumns+` FROM insights WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`, userID, limit)
}

func (r *insightRepo) list(ctx context.Context, query string, args ...interface{}) ([]*entities.Insight, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*entities.Insight{}
	for rows.Next() {
		in, err := scanInsight(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

func (r *insightRepo) CountTitles(ctx context.Context, userID string, t valueobjects.InsightType, limit int) ([]insights.TitleCount, error) {
	query := `SELECT title, COUNT(*) FROM insights
		WHERE user_id = $1 AND type = $2
		GROUP BY title
		ORDER BY COUNT(*) DESC, MIN(created_at)`
	args := []interface{}{userID, string(t)}
	if limit >= 0 {
		query += ` LIMIT $3`
		args = append(args, limit)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []insights.TitleCount{}
	for rows.Next() {
		var tc insights.TitleCount
		if err := rows.Scan(&tc.Title, &tc.Count); err != nil {
			return nil, err
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}

func (r *insightRepo) CountByType(ctx context.Context, userID string, t valueobjects.InsightType) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM insights WHERE user_id = $1 AND type = $2`, userID, string(t)).Scan(&n)
	return n, err
}

func scanInsight(s scanner) (*entities.Insight, error) {
	var in entities.Insight
	var appID, subredditID, url, sentiment, priority sql.NullString
	var upvotes, comments sql.NullInt64
	var tags []byte
	if err := s.Scan(&in.ID, &in.UserID, &appID, &subredditID, &in.Type, &in.Title, &in.Content,
		&url, &upvotes, &comments, &sentiment, &priority, &tags, &in.CreatedAt); err != nil {
		return nil, err
	}
	in.AppID, in.SubredditID, in.URL = appID.String, subredditID.String, url.String
	in.Sentiment, in.Priority = sentiment.String, priority.String
	in.Upvotes, in.Comments = intPtr(upvotes), intPtr(comments)
	if len(tags) > 0 {
		in.Tags = entities.Tags(tags)
	}
	return &in, nil
}

// Posts

type postRepo struct{ db *sql.DB }

const postColumns = `id, user_id, app_id, subreddit_id, title, content, status, reddit_post_id, published_at, created_at, updated_at`

func (r *postRepo) Create(ctx context.Context, post *entities.Post) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO posts (`+postColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		post.ID, post.UserID, post.AppID, post.SubredditID, post.Title, post.Content, string(post.Status),
		nullString(post.RedditPostID), nullTime(post.PublishedAt), post.CreatedAt, post.UpdatedAt,
	)
	return err
}

func (r *postRepo) GetByID(ctx context.Context, id string) (*entities.Post, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE id = $1`, id)
	post, err := scanPost(row)
	if err != nil {
		return nil, notFound(err, "post")
	}
	return post, nil
}

func (r *postRepo) Update(ctx context.Context, post *entities.Post) error {
	res, err := r.db.ExecContext(ctx, `UPDATE posts
		SET title = $2, content = $3, status = $4, reddit_post_id = $5, published_at = $6, updated_at = $7
		WHERE id = $1`,
		post.ID, post.Title, post.Content, string(post.Status), nullString(post.RedditPostID),
		nullTime(post.PublishedAt), post.UpdatedAt,
	)
	if err != nil {
		return err
	}
	return requireRow(res, "post")
}

func (r *postRepo) List(ctx context.Context, filter ports.PostFilter) ([]*entities.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE user_id = $1`
	args := []interface{}{filter.UserID}
	if filter.Status != nil {
		query += ` AND status = $2`
		args = append(args, string(*filter.Status))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := []*entities.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

func (r *postRepo) CountByStatus(ctx context.Context, userID string, status valueobjects.PostStatus) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts WHERE user_id = $1 AND status = $2`, userID, string(status)).Scan(&n)
	return n, err
}

func scanPost(s scanner) (*entities.Post, error) {
	var p entities.Post
	var redditID sql.NullString
	var publishedAt sql.NullTime
	if err := s.Scan(&p.ID, &p.UserID, &p.AppID, &p.SubredditID, &p.Title, &p.Content, &p.Status,
		&redditID, &publishedAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.RedditPostID = redditID.String
	p.PublishedAt = timePtr(publishedAt)
	return &p, nil
}

// Activities

type activityRepo struct{ db *sql.DB }

const activityColumns = `id, user_id, type, description, metadata, created_at`

func (r *activityRepo) Create(ctx context.Context, activity *entities.Activity) error {
	return insertActivity(ctx, r.db, activity)
}

func insertActivity(ctx context.Context, db execer, a *entities.Activity) error {
	metadata, err := jsonParam(a.Metadata)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `INSERT INTO activities (`+activityColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.UserID, string(a.Type), a.Description, metadata, a.CreatedAt)
	return err
}

func (r *activityRepo) ListRecent(ctx context.Context, userID string, limit int) ([]*entities.Activity, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+activityColumns+` FROM activities
		WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*entities.Activity{}
	for rows.Next() {
		var a entities.Activity
		var metadata []byte
		if err := rows.Scan(&a.ID, &a.UserID, &a.Type, &a.Description, &metadata, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Metadata = map[string]interface{}{}
		if len(metadata) > 0 {
			_ = json.Unmarshal(metadata, &a.Metadata)
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

func requireRow(res sql.Result, resource string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return pkgerrors.NewNotFoundError(resource)
	}
	return nil
}
