// Package jobs runs background work on a cron schedule.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/medbook/internal/clock"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/medbook/pkg/metrics"
)

type AppointmentLister interface {
	ListStartingBetween(ctx context.Context, status appointment.Status, from, to time.Time) ([]*appointment.Appointment, error)
}

// ReminderJob notifies patients of confirmed appointments starting in
// [now+Lead, now+Lead+Window). Scheduling it once per Window reminds each
// appointment once.
type ReminderJob struct {
	appointments AppointmentLister
	notifier     Notifier
	clock        clock.Clock
	metrics      *metrics.Collector
	log          *zap.Logger

	Lead   time.Duration
	Window time.Duration
}

func NewReminderJob(appointments AppointmentLister, notifier Notifier, c clock.Clock, m *metrics.Collector, log *zap.Logger, lead, window time.Duration) *ReminderJob {
	return &ReminderJob{
		appointments: appointments,
		notifier:     notifier,
		clock:        c,
		metrics:      m,
		log:          log,
		Lead:         lead,
		Window:       window,
	}
}

// Run performs one pass and returns how many reminders were sent.
func (j *ReminderJob) Run(ctx context.Context) (int, error) {
	from := j.clock.Now().Add(j.Lead)
	to := from.Add(j.Window)

	due, err := j.appointments.ListStartingBetween(ctx, appointment.StatusConfirmed, from, to)
	if err != nil {
		return 0, fmt.Errorf("listing due appointments: %w", err)
	}

	sent := 0
	for _, a := range due {
		err := j.notifier.Notify(ctx, Reminder{
			AppointmentID: a.ID,
			PatientID:     a.PatientID,
			DoctorID:      a.DoctorID,
			ScheduledAt:   a.ScheduledAt,
		})
		if err != nil {
			j.metrics.RemindersTotal.WithLabelValues("failed").Inc()
			j.log.Warn("reminder not delivered",
				zap.String("appointment_id", a.ID.String()),
				zap.Error(err),
			)
			continue
		}
		j.metrics.RemindersTotal.WithLabelValues("sent").Inc()
		sent++
	}

	if len(due) > 0 {
		j.log.Info("reminder pass finished", zap.Int("due", len(due)), zap.Int("sent", sent))
	}
	return sent, nil
}

// Scheduler owns the cron runner for background jobs.
type Scheduler struct {
	cron *cron.Cron
	log  *zap.Logger
}

func NewScheduler(loc *time.Location, log *zap.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithLocation(loc), cron.WithChain(cron.Recover(cron.DefaultLogger))),
		log:  log,
	}
}

// AddReminders registers job under spec. spec must fire at a fixed period
// equal to job.Window, otherwise passes would overlap or leave gaps. Each
// pass gets its own timeout.
func (s *Scheduler) AddReminders(spec string, job *ReminderJob, timeout time.Duration) error {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return fmt.Errorf("scheduling reminders %q: %w", spec, err)
	}
	if err := checkPeriod(sched, job.Window); err != nil {
		return fmt.Errorf("scheduling reminders %q: %w", spec, err)
	}

	s.cron.Schedule(sched, cron.FuncJob(func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if _, err := job.Run(ctx); err != nil {
			s.log.Error("reminder pass failed", zap.Error(err))
		}
	}))
	return nil
}

// periodSamples covers a full day of a five minute schedule.
const periodSamples = 288

func checkPeriod(sched cron.Schedule, window time.Duration) error {
	if window <= 0 {
		return fmt.Errorf("reminder window must be positive, got %s", window)
	}
	prev := sched.Next(time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC))
	for i := 0; i < periodSamples; i++ {
		next := sched.Next(prev)
		if got := next.Sub(prev); got != window {
			return fmt.Errorf("fires every %s at %s, reminder window is %s", got, prev.Format(time.RFC3339), window)
		}
		prev = next
	}
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("job scheduler started", zap.Int("jobs", len(s.cron.Entries())))
}

// Stop waits for running jobs or ctx, whichever ends first.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn("job scheduler stop timed out")
	}
}
