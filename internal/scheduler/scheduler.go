// Package scheduler runs the periodic conversation summary repair.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"

	"github.com/SARVESHVARADKAR123/chatsync/internal/application"
	"github.com/SARVESHVARADKAR123/chatsync/internal/domain"
)

// ConversationLister enumerates the conversations to repair.
type ConversationLister interface {
	ListConversations(ctx context.Context) ([]domain.Conversation, error)
}

type Scheduler struct {
	s   gocron.Scheduler
	log *zap.Logger
}

// NewRepair schedules svc.RepairAll over every listed conversation each interval,
// with the first run immediately after Start. Runs never overlap.
func NewRepair(svc *application.Service, convs ConversationLister, interval, timeout time.Duration, log *zap.Logger) (*Scheduler, error) {
	if log == nil {
		log = zap.NewNop()
	}

	s, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
		gocron.WithLogger(gocronLogger{log: log}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func(ctx context.Context) {
			runRepair(ctx, svc, convs, timeout, log)
		}),
		gocron.WithName("summary-repair"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("failed to add repair job: %w", err)
	}

	return &Scheduler{s: s, log: log}, nil
}

func (s *Scheduler) Start() {
	s.s.Start()
}

// Shutdown stops scheduling and waits for a running job to return.
func (s *Scheduler) Shutdown() error {
	if err := s.s.Shutdown(); err != nil {
		return fmt.Errorf("failed to stop scheduler: %w", err)
	}
	return nil
}

func runRepair(ctx context.Context, svc *application.Service, convs ConversationLister, timeout time.Duration, log *zap.Logger) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	list, err := convs.ListConversations(ctx)
	if err != nil {
		log.Warn("summary repair: failed to list conversations", zap.Error(err))
		return
	}

	repaired, err := svc.RepairAll(ctx, list)
	if err != nil {
		log.Warn("summary repair failed", zap.Error(err))
		return
	}
	if repaired > 0 {
		log.Info("summary repair finished",
			zap.Int("conversations", len(list)),
			zap.Int("repaired", repaired),
		)
	}
}

// gocronLogger adapts zap to gocron's key/value logger.
type gocronLogger struct {
	log *zap.Logger
}

func (l gocronLogger) Debug(msg string, args ...any) { l.log.Sugar().Debugw(msg, args...) }
func (l gocronLogger) Info(msg string, args ...any)  { l.log.Sugar().Infow(msg, args...) }
func (l gocronLogger) Warn(msg string, args ...any)  { l.log.Sugar().Warnw(msg, args...) }
func (l gocronLogger) Error(msg string, args ...any) { l.log.Sugar().Errorw(msg, args...) }
