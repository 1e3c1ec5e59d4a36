package scheduler

import (
	"context"
	"fmt"
	"time"

	"schedule_notification_bot/internal/app"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// NotificationScheduler drives the periodic jobs: the reminder tick and the
// daily ledger prune. Jobs are wrapped in SkipIfStillRunning, so a tick that
// has not finished suppresses the next one instead of queueing it.
type NotificationScheduler struct {
	cronEngine   *cron.Cron
	notifService app.NotificationService
	log          *logrus.Entry
	tickInterval time.Duration
}

func NewNotificationScheduler(
	notifService app.NotificationService,
	log *logrus.Entry,
	tickInterval time.Duration,
) *NotificationScheduler {
	cronLog := cron.PrintfLogger(log)
	engine := cron.New(
		cron.WithLocation(time.Local),
		cron.WithChain(cron.SkipIfStillRunning(cronLog), cron.Recover(cronLog)),
	)
	return &NotificationScheduler{
		cronEngine:   engine,
		notifService: notifService,
		log:          log,
		tickInterval: tickInterval,
	}
}

// Start registers the jobs and starts the cron engine.
func (s *NotificationScheduler) Start() error {
	tickSpec := fmt.Sprintf("@every %s", s.tickInterval)
	_, err := s.cronEngine.AddFunc(tickSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		if err := s.notifService.ProcessDueLessonReminders(ctx); err != nil {
			s.log.Errorf("Reminder tick failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("could not add reminder tick job: %w", err)
	}

	_, err = s.cronEngine.AddFunc("@daily", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := s.notifService.PruneLedger(ctx); err != nil {
			s.log.Errorf("Ledger prune failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("could not add ledger prune job: %w", err)
	}

	s.cronEngine.Start()
	s.log.Infof("Notification scheduler started, tick every %s", s.tickInterval)
	return nil
}

// Stop stops the scheduler and waits for running jobs to finish, so an
// in-flight tick commits or rolls back before process exit.
func (s *NotificationScheduler) Stop() {
	s.log.Info("Stopping notification scheduler...")
	ctx := s.cronEngine.Stop()
	<-ctx.Done()
	s.log.Info("Notification scheduler stopped")
}
