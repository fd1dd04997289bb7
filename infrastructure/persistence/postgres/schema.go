package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied statement by statement. Every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id                VARCHAR PRIMARY KEY,
		email             VARCHAR UNIQUE,
		first_name        VARCHAR,
		last_name         VARCHAR,
		profile_image_url VARCHAR,
		created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS apps (
		id              VARCHAR PRIMARY KEY,
		user_id         VARCHAR NOT NULL,
		url             TEXT NOT NULL,
		name            VARCHAR,
		description     TEXT,
		target_audience TEXT,
		pain_points     JSONB,
		features        JSONB,
		tags            JSONB,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS apps_user_id_idx ON apps (user_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS subreddits (
		id           VARCHAR PRIMARY KEY,
		user_id      VARCHAR NOT NULL,
		app_id       VARCHAR NOT NULL,
		name         VARCHAR NOT NULL,
		display_name VARCHAR NOT NULL,
		description  TEXT,
		subscribers  INTEGER,
		activity     VARCHAR,
		match_score  INTEGER,
		is_monitored BOOLEAN NOT NULL DEFAULT false,
		last_scanned TIMESTAMPTZ,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS subreddits_app_id_idx ON subreddits (app_id)`,
	`CREATE INDEX IF NOT EXISTS subreddits_user_id_idx ON subreddits (user_id) WHERE is_monitored`,
	`CREATE TABLE IF NOT EXISTS insights (
		id           VARCHAR PRIMARY KEY,
		user_id      VARCHAR NOT NULL,
		app_id       VARCHAR,
		subreddit_id VARCHAR,
		type         VARCHAR NOT NULL,
		title        TEXT NOT NULL,
		content      TEXT NOT NULL,
		url          TEXT,
		upvotes      INTEGER,
		comments     INTEGER,
		sentiment    VARCHAR,
		priority     VARCHAR,
		tags         JSONB,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS insights_user_id_idx ON insights (user_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS insights_app_id_idx ON insights (app_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS posts (
		id             VARCHAR PRIMARY KEY,
		user_id        VARCHAR NOT NULL,
		app_id         VARCHAR NOT NULL,
		subreddit_id   VARCHAR NOT NULL,
		title          TEXT NOT NULL,
		content        TEXT NOT NULL,
		status         VARCHAR NOT NULL DEFAULT 'draft',
		reddit_post_id VARCHAR,
		published_at   TIMESTAMPTZ,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS posts_user_id_idx ON posts (user_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS activities (
		id          VARCHAR PRIMARY KEY,
		user_id     VARCHAR NOT NULL,
		type        VARCHAR NOT NULL,
		description TEXT NOT NULL,
		metadata    JSONB,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS activities_user_id_idx ON activities (user_id, created_at DESC)`,
}

// Migrate creates any missing tables and indexes
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
