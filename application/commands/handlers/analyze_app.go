package handlers

import (
	"context"

	"go.uber.org/zap"

	"subscout/application/commands"
	"subscout/application/ports"
	"subscout/domain/core/entities"
	"subscout/domain/core/valueobjects"
	pkgerrors "subscout/pkg/errors"
)

// AnalyzeAppHandler profiles an app URL with the content analyzer and stores it
type AnalyzeAppHandler struct {
	apps       ports.AppRepository
	analyzer   ports.ContentAnalyzer
	activities *ActivityRecorder
	logger     *zap.Logger
	now        Clock
}

func NewAnalyzeAppHandler(apps ports.AppRepository, analyzer ports.ContentAnalyzer, activities *ActivityRecorder, logger *zap.Logger, now Clock) *AnalyzeAppHandler {
	return &AnalyzeAppHandler{apps: apps, analyzer: analyzer, activities: activities, logger: logger, now: now}
}

func (h *AnalyzeAppHandler) Handle(ctx context.Context, cmd commands.AnalyzeAppCommand) (*entities.App, error) {
	profile, err := h.analyzer.AnalyzeApp(ctx, cmd.URL)
	if err != nil {
		if pkgerrors.GetAppError(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.NewExternalError("gemini", err).WithMessage("Failed to analyze app")
	}

	now := h.now()
	app := entities.NewApp(cmd.UserID, cmd.URL, *profile, now)
	if err := h.apps.Create(ctx, app); err != nil {
		return nil, pkgerrors.NewDatabaseError("create app", err)
	}

	h.logger.Info("App analyzed",
		zap.String("appID", app.ID),
		zap.String("userID", cmd.UserID),
		zap.String("name", app.Name),
	)

	h.activities.Record(ctx, entities.NewActivity(
		cmd.UserID,
		valueobjects.ActivityAppAnalyzed,
		"Analyzed app: "+app.Name,
		map[string]interface{}{"appId": app.ID, "url": cmd.URL},
		now,
	))

	return app, nil
}
