package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/anayakapoor/luxethreads-backend/pkg/logger"
)

type idleSessionCloser interface {
	EndIdleSessions(ctx context.Context, cutoff time.Time) (int64, error)
}

// ChatCleanupJobParams configure the idle chat session sweeper.
type ChatCleanupJobParams struct {
	Logger  *logger.Logger
	Chat    idleSessionCloser
	IdleTTL time.Duration
}

// NewChatCleanupJob builds the job that ends chat sessions with no activity
// inside the idle window.
func NewChatCleanupJob(params ChatCleanupJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Chat == nil {
		return nil, fmt.Errorf("chat service required")
	}
	if params.IdleTTL <= 0 {
		return nil, fmt.Errorf("idle ttl must be positive")
	}
	return &chatCleanupJob{
		logg: params.Logger,
		chat: params.Chat,
		ttl:  params.IdleTTL,
		now:  time.Now,
	}, nil
}

type chatCleanupJob struct {
	logg *logger.Logger
	chat idleSessionCloser
	ttl  time.Duration
	now  func() time.Time
}

func (j *chatCleanupJob) Name() string { return "chat-session-cleanup" }

func (j *chatCleanupJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	ended, err := j.chat.EndIdleSessions(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("end idle chat sessions: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"count": ended, "cutoff": cutoff})
	j.logg.Info(logCtx, "idle chat session sweep complete")
	return nil
}
