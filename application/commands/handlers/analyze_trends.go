package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"subscout/application/commands"
	"subscout/application/ports"
	"subscout/domain/core/entities"
	"subscout/domain/core/valueobjects"
	pkgerrors "subscout/pkg/errors"
	"subscout/pkg/observability"
)

// AnalyzeTrendsResult is the analyzer report plus the insights stored for it
type AnalyzeTrendsResult struct {
	Trends   []ports.Trend       `json:"trends"`
	Summary  string              `json:"summary"`
	Insights []*entities.Insight `json:"insights"`
}

// AnalyzeTrendsHandler asks the analyzer to group an app's pain points into
// trends and stores one trend insight per reported trend.
type AnalyzeTrendsHandler struct {
	apps       ports.AppRepository
	insights   ports.InsightRepository
	analyzer   ports.ContentAnalyzer
	activities *ActivityRecorder
	metrics    *observability.Collector
	logger     *zap.Logger
	now        Clock
}

func NewAnalyzeTrendsHandler(
	apps ports.AppRepository,
	insights ports.InsightRepository,
	analyzer ports.ContentAnalyzer,
	activities *ActivityRecorder,
	metrics *observability.Collector,
	logger *zap.Logger,
	now Clock,
) *AnalyzeTrendsHandler {
	return &AnalyzeTrendsHandler{
		apps:       apps,
		insights:   insights,
		analyzer:   analyzer,
		activities: activities,
		metrics:    metrics,
		logger:     logger,
		now:        now,
	}
}

func (h *AnalyzeTrendsHandler) Handle(ctx context.Context, cmd commands.AnalyzeTrendsCommand) (*AnalyzeTrendsResult, error) {
	app, err := ownedApp(ctx, h.apps, cmd.AppID, cmd.UserID)
	if err != nil {
		return nil, err
	}

	all, err := h.insights.ListByApp(ctx, app.ID)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("list insights", err)
	}
	painPoints := make([]*entities.Insight, 0, len(all))
	for _, in := range all {
		if in.Type == valueobjects.InsightPainPoint {
			painPoints = append(painPoints, in)
		}
	}
	if len(painPoints) == 0 {
		return &AnalyzeTrendsResult{Trends: []ports.Trend{}, Insights: []*entities.Insight{}}, nil
	}

	report, err := h.analyzer.AnalyzePainPointTrends(ctx, painPoints)
	if err != nil {
		if pkgerrors.GetAppError(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.NewExternalError("gemini", err).WithMessage("Failed to analyze trends")
	}

	now := h.now()
	trends := make([]*entities.Insight, 0, len(report.Trends))
	for _, trend := range report.Trends {
		if trend.Topic == "" {
			continue
		}
		growth := trend.Growth
		if !growth.IsValid() {
			growth = valueobjects.GrowthStable
		}
		trends = append(trends, entities.NewTrendInsight(cmd.UserID, app.ID, trend.Topic, trend.Frequency, growth, report.Summary, now))
	}

	activity := entities.NewActivity(
		cmd.UserID,
		valueobjects.ActivityTrendsAnalyzed,
		fmt.Sprintf("Analyzed %d pain point trends for %s", len(trends), app.Name),
		map[string]interface{}{"appId": app.ID, "trendsFound": len(trends)},
		now,
	)

	if err := h.insights.SaveBatch(ctx, ports.InsightBatch{Insights: trends, Activity: activity}); err != nil {
		return nil, pkgerrors.NewDatabaseError("save trend insights", err)
	}
	h.metrics.RecordInsights(string(valueobjects.InsightTrend), len(trends))
	h.activities.Publish(ctx, activity)

	h.logger.Info("Pain point trends analyzed",
		zap.String("appID", app.ID),
		zap.Int("painPoints", len(painPoints)),
		zap.Int("trends", len(trends)),
	)

	reported := report.Trends
	if reported == nil {
		reported = []ports.Trend{}
	}
	return &AnalyzeTrendsResult{Trends: reported, Summary: report.Summary, Insights: trends}, nil
}
