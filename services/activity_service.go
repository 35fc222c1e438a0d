package services

import (
	"context"
	"log/slog"

	"github.com/Dosada05/league-buysell/models"
)

// ActivitySink is one destination for activity lines: the websocket hub, the
// message broker and so on.
type ActivitySink interface {
	Name() string
	Deliver(ctx context.Context, activity models.Activity) error
}

// ActivityService fans activity lines out to every configured sink. A failing
// sink is logged and skipped.
type ActivityService struct {
	sinks  []ActivitySink
	logger *slog.Logger
}

func NewActivityService(logger *slog.Logger, sinks ...ActivitySink) *ActivityService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ActivityService{sinks: sinks, logger: logger}
}

func (s *ActivityService) Publish(ctx context.Context, activity models.Activity) {
	s.logger.InfoContext(ctx, "marketplace activity",
		slog.String("activity_id", activity.ID),
		slog.String("kind", string(activity.Kind)),
		slog.Int("session_id", activity.SessionID),
		slog.Int("user_id", activity.UserID),
		slog.String("message", activity.Message),
	)
	for _, sink := range s.sinks {
		if err := sink.Deliver(ctx, activity); err != nil {
			s.logger.WarnContext(ctx, "activity delivery failed",
				slog.String("sink", sink.Name()),
				slog.String("activity_id", activity.ID),
				slog.Any("error", err),
			)
		}
	}
}
