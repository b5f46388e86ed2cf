package utils

import (
	"context"
	"time"

	"learnhub/services/enrollment"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Maintainer is the part of the enrollment coordinator the scheduled jobs use
type Maintainer interface {
	ReconcileCounts(ctx context.Context) (int64, error)
	IdleEnrollments(ctx context.Context, since time.Time) ([]enrollment.IdleEnrollment, error)
}

type ReminderSender interface {
	SendProgressReminder(email, name, courseTitle string, completed, total int)
}

type SchedulerConfig struct {
	ReconcileCron string
	ReminderCron  string
	IdleDays      int
}

// Scheduler runs the nightly counter reconciliation and progress reminders
type Scheduler struct {
	cron     *cron.Cron
	svc      Maintainer
	mailer   ReminderSender
	idleDays int
	log      zerolog.Logger
	now      func() time.Time
}

func NewScheduler(svc Maintainer, mailer ReminderSender, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		svc:    svc,
		mailer: mailer,
		log:    log.With().Str("component", "scheduler").Logger(),
		now:    time.Now,
	}
}

// Start registers the jobs. An empty spec disables that job.
func (s *Scheduler) Start(cfg SchedulerConfig) error {
	s.idleDays = cfg.IdleDays
	if cfg.ReconcileCron != "" {
		if _, err := s.cron.AddFunc(cfg.ReconcileCron, s.ReconcileCounts); err != nil {
			return err
		}
	}
	if cfg.ReminderCron != "" && s.idleDays > 0 {
		if _, err := s.cron.AddFunc(cfg.ReminderCron, s.SendReminders); err != nil {
			return err
		}
	}

	s.cron.Start()
	s.log.Info().Str("reconcile", cfg.ReconcileCron).Str("reminders", cfg.ReminderCron).Msg("scheduler started")
	return nil
}

func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) ReconcileCounts() {
	fixed, err := s.svc.ReconcileCounts(context.Background())
	if err != nil {
		s.log.Error().Err(err).Msg("reconciling enrollment counts failed")
		return
	}
	if fixed > 0 {
		s.log.Warn().Int64("courses", fixed).Msg("enrollment counts drifted and were reset")
	}
}

// SendReminders emails every learner whose enrollment has been idle longer
// than the configured number of days.
func (s *Scheduler) SendReminders() {
	since := s.now().AddDate(0, 0, -s.idleDays)
	idle, err := s.svc.IdleEnrollments(context.Background(), since)
	if err != nil {
		s.log.Error().Err(err).Msg("loading idle enrollments failed")
		return
	}

	s.log.Info().Int("count", len(idle)).Msg("sending progress reminders")
	for _, e := range idle {
		s.mailer.SendProgressReminder(e.UserEmail, e.UserName, e.CourseTitle, e.Completed, e.SectionCount)
	}
}
