package handlers

import (
	"time"

	"go.uber.org/zap"

	"subscout/application/commands"
	"subscout/application/commands/bus"
	"subscout/application/ports"
	"subscout/application/services"
	"subscout/pkg/observability"
	"subscout/pkg/utils"
)

// Dependencies are the collaborators shared by every command handler
type Dependencies struct {
	Store       ports.Store
	Analyzer    ports.ContentAnalyzer
	Recommender ports.CommunityRecommender
	Source      ports.PostSource
	Publisher   ports.ActivityPublisher
	Metrics     *observability.Collector
	Logger      *zap.Logger
	Now         func() time.Time
}

// Register wires every command handler into b
func Register(b *bus.CommandBus, d Dependencies) error {
	now := Clock(d.Now)
	if d.Now == nil {
		now = utils.NowUTC
	}
	recorder := NewActivityRecorder(d.Store.Activities, d.Publisher, d.Logger)
	scanner := services.NewScanner(d.Source, d.Logger)
	s := d.Store

	registrations := []struct {
		cmd     bus.Command
		handler bus.CommandHandler
	}{
		{commands.AnalyzeAppCommand{}, adapt(NewAnalyzeAppHandler(s.Apps, d.Analyzer, recorder, d.Logger, now).Handle)},
		{commands.DiscoverSubredditsCommand{}, adapt(NewDiscoverSubredditsHandler(s.Apps, s.Subreddits, d.Recommender, d.Source, recorder, d.Logger, now).Handle)},
		{commands.UpdateSubredditCommand{}, adapt(NewUpdateSubredditHandler(s.Subreddits, recorder, d.Logger, now).Handle)},
		{commands.ScanSubredditCommand{}, adapt(NewScanSubredditHandler(s.Subreddits, s.Insights, scanner, recorder, d.Metrics, d.Logger, now).Handle)},
		{commands.GeneratePostCommand{}, adapt(NewGeneratePostHandler(s.Apps, s.Subreddits, s.Posts, d.Analyzer, recorder, d.Logger, now).Handle)},
		{commands.UpdatePostCommand{}, adapt(NewUpdatePostHandler(s.Posts, recorder, d.Logger, now).Handle)},
		{commands.AnalyzeTrendsCommand{}, adapt(NewAnalyzeTrendsHandler(s.Apps, s.Insights, d.Analyzer, recorder, d.Metrics, d.Logger, now).Handle)},
	}

	for _, r := range registrations {
		if err := b.Register(r.cmd, r.handler); err != nil {
			return err
		}
	}
	return nil
}
