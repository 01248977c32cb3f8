// Package scheduler runs periodic housekeeping jobs.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// TokenPurger deletes refresh tokens that can no longer be used.
type TokenPurger interface {
	DeleteStale(ctx context.Context, now time.Time) (int64, error)
}

type Scheduler struct {
	s   gocron.Scheduler
	log *zap.Logger
}

func New(log *zap.Logger) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	return &Scheduler{s: s, log: log}, nil
}

// AddTokenCleanup purges stale refresh tokens every interval, starting now.
func (s *Scheduler) AddTokenCleanup(purger TokenPurger, every time.Duration) error {
	_, err := s.s.NewJob(
		gocron.DurationJob(every),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			n, err := purger.DeleteStale(ctx, time.Now().UTC())
			if err != nil {
				s.log.Error("refresh token cleanup failed", zap.Error(err))
				return
			}
			s.log.Info("refresh token cleanup done", zap.Int64("deleted", n))
		}),
		gocron.WithName("refresh-token-cleanup"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	return err
}

func (s *Scheduler) Start() {
	s.s.Start()
}

func (s *Scheduler) Shutdown() error {
	return s.s.Shutdown()
}
