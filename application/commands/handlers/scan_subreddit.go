package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"subscout/application/commands"
	"subscout/application/ports"
	"subscout/application/services"
	"subscout/domain/core/entities"
	"subscout/domain/core/valueobjects"
	pkgerrors "subscout/pkg/errors"
	"subscout/pkg/observability"
)

// ScanSubredditResult reports how many insights a scan committed
type ScanSubredditResult struct {
	Insights        int `json:"insights"`
	PainPoints      int `json:"painPoints"`
	FeatureRequests int `json:"featureRequests"`
	Posts           int `json:"posts"`
}

// ScanSubredditHandler runs the insight pipeline for one subreddit and
// persists its output in a single batch.
type ScanSubredditHandler struct {
	subreddits ports.SubredditRepository
	insights   ports.InsightRepository
	scanner    *services.Scanner
	activities *ActivityRecorder
	metrics    *observability.Collector
	logger     *zap.Logger
	now        Clock
}

func NewScanSubredditHandler(
	subreddits ports.SubredditRepository,
	insights ports.InsightRepository,
	scanner *services.Scanner,
	activities *ActivityRecorder,
	metrics *observability.Collector,
	logger *zap.Logger,
	now Clock,
) *ScanSubredditHandler {
	return &ScanSubredditHandler{
		subreddits: subreddits,
		insights:   insights,
		scanner:    scanner,
		activities: activities,
		metrics:    metrics,
		logger:     logger,
		now:        now,
	}
}

func (h *ScanSubredditHandler) Handle(ctx context.Context, cmd commands.ScanSubredditCommand) (*ScanSubredditResult, error) {
	sub, err := ownedSubreddit(ctx, h.subreddits, cmd.SubredditID, cmd.UserID)
	if err != nil {
		return nil, err
	}

	scan := h.scanner.Scan(ctx, sub.Name)
	now := h.now()

	batch := make([]*entities.Insight, 0, scan.InsightCount())
	for _, title := range scan.PainPoints {
		batch = append(batch, entities.NewScanInsight(cmd.UserID, sub, valueobjects.InsightPainPoint, title, now))
	}
	for _, title := range scan.FeatureRequests {
		batch = append(batch, entities.NewScanInsight(cmd.UserID, sub, valueobjects.InsightFeatureRequest, title, now))
	}

	activity := entities.NewActivity(
		cmd.UserID,
		valueobjects.ActivitySubredditScanned,
		fmt.Sprintf("Scanned r/%s for insights", sub.Name),
		map[string]interface{}{"subredditId": sub.ID, "insightsFound": len(batch)},
		now,
	)

	err = h.insights.SaveBatch(ctx, ports.InsightBatch{
		Insights:           batch,
		Activity:           activity,
		ScannedSubredditID: sub.ID,
		ScannedAt:          now,
	})
	if err != nil {
		h.metrics.RecordScan("failed")
		if pkgerrors.IsNotFound(err) {
			return nil, err
		}
		return nil, pkgerrors.NewDatabaseError("save scan insights", err)
	}

	outcome := "ok"
	if len(batch) == 0 {
		outcome = "empty"
	}
	h.metrics.RecordScan(outcome)
	h.metrics.RecordInsights(string(valueobjects.InsightPainPoint), len(scan.PainPoints))
	h.metrics.RecordInsights(string(valueobjects.InsightFeatureRequest), len(scan.FeatureRequests))

	h.logger.Info("Subreddit scanned",
		zap.String("subredditID", sub.ID),
		zap.String("subreddit", sub.Name),
		zap.Int("painPoints", len(scan.PainPoints)),
		zap.Int("featureRequests", len(scan.FeatureRequests)),
		zap.Int("posts", len(scan.Posts)),
	)

	h.activities.Publish(ctx, activity)

	return &ScanSubredditResult{
		Insights:        len(batch),
		PainPoints:      len(scan.PainPoints),
		FeatureRequests: len(scan.FeatureRequests),
		Posts:           len(scan.Posts),
	}, nil
}
