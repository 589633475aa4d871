package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Expirer переводит просроченные активные подписки в EXPIRED
type Expirer interface {
	ExpireDue(ctx context.Context) (int, error)
}

// Scheduler периодически запускает истечение подписок по cron-расписанию
type Scheduler struct {
	cron    *cron.Cron
	expirer Expirer
	timeout time.Duration
	logger  *slog.Logger
}

func New(expirer Expirer, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	return &Scheduler{
		cron:    cron.New(cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger))),
		expirer: expirer,
		timeout: time.Minute,
		logger:  logger,
	}
}

// Start регистрирует задачу и запускает планировщик
func (s *Scheduler) Start(schedule string) error {
	if _, err := s.cron.AddFunc(schedule, s.RunExpire); err != nil {
		return fmt.Errorf("schedule expire job %q: %w", schedule, err)
	}
	s.logger.Info("scheduled expire job", "schedule", schedule)
	s.cron.Start()
	return nil
}

// Stop останавливает планировщик и ждет завершения текущей задачи
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) RunExpire() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	n, err := s.expirer.ExpireDue(ctx)
	if err != nil {
		s.logger.Error("expire job failed", "expired", n, "error", err)
		return
	}
	if n > 0 {
		s.logger.Info("expire job finished", "expired", n)
	}
}
