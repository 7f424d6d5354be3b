package reminder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"

	"github.com/medpal/assist-api/internal/model"
	"github.com/medpal/assist-api/internal/notify"
	"github.com/medpal/assist-api/internal/repository"
	"github.com/medpal/assist-api/pkg/logger"
	"github.com/medpal/assist-api/pkg/messaging"
	"github.com/medpal/assist-api/pkg/metrics"
)

const firedChannel = "reminders.fired"

type SchedulerConfig struct {
	// CatchupWindow bounds how many skipped minutes a late tick walks.
	// Zero drops skipped minutes entirely.
	CatchupWindow time.Duration
}

// Scheduler fires reminders once per matching wall-clock minute. Ticks
// are aligned to the minute boundary by cron rather than to process
// start. When ticks were missed (process suspension, clock jump) the
// skipped minutes inside the catch-up window are evaluated so their
// reminders fire late instead of never.
type Scheduler struct {
	svc      *Service
	users    repository.UserRepository
	notifier notify.Notifier
	broker   messaging.Broker
	logger   *logger.Logger
	metrics  *metrics.Metrics
	config   SchedulerConfig

	mu       sync.Mutex
	lastTick time.Time
	current  string
}

func NewScheduler(
	svc *Service,
	users repository.UserRepository,
	notifier notify.Notifier,
	broker messaging.Broker,
	logger *logger.Logger,
	m *metrics.Metrics,
	config SchedulerConfig,
) *Scheduler {
	return &Scheduler{
		svc:      svc,
		users:    users,
		notifier: notifier,
		broker:   broker,
		logger:   logger,
		metrics:  m,
		config:   config,
	}
}

// Start runs the minute tick until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	now := time.Now()
	s.mu.Lock()
	s.lastTick = now.Truncate(time.Minute)
	s.current = s.lastTick.Format("15:04")
	s.mu.Unlock()

	c := cron.New()
	if _, err := c.AddFunc("* * * * *", func() {
		s.tick(context.Background(), time.Now())
	}); err != nil {
		return fmt.Errorf("failed to schedule reminder tick: %w", err)
	}

	s.logger.Info("starting reminder scheduler", "catchup_window", s.config.CatchupWindow.String())
	c.Start()

	<-ctx.Done()
	s.logger.Info("shutting down reminder scheduler")
	stopCtx := c.Stop()
	<-stopCtx.Done()
	return nil
}

// CurrentMinute is the HH:MM minute of the most recent tick, used for due
// highlighting.
func (s *Scheduler) CurrentMinute() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Scheduler) tick(ctx context.Context, now time.Time) {
	timer := prometheus.NewTimer(s.metrics.SchedulerTickLatency)
	defer timer.ObserveDuration()

	minute := now.Truncate(time.Minute)

	s.mu.Lock()
	last := s.lastTick
	if minute.Equal(last) {
		// Duplicate tick inside the same minute; firing again would
		// break once-per-minute semantics.
		s.mu.Unlock()
		return
	}
	s.lastTick = minute
	s.current = minute.Format("15:04")
	s.mu.Unlock()

	s.metrics.SchedulerTicks.Inc()

	// Walk minutes skipped since the previous tick, bounded by the
	// catch-up window, then the current minute.
	if s.config.CatchupWindow > 0 && !last.IsZero() {
		start := last.Add(time.Minute)
		if minute.Sub(start) > s.config.CatchupWindow {
			start = minute.Add(-s.config.CatchupWindow)
		}
		for m := start; m.Before(minute); m = m.Add(time.Minute) {
			s.fireDue(ctx, m, true)
		}
	}

	s.fireDue(ctx, minute, false)
}

func (s *Scheduler) fireDue(ctx context.Context, minute time.Time, catchup bool) {
	for _, fired := range s.svc.DueAt(minute.Format("15:04")) {
		s.metrics.RemindersFired.Inc()
		if catchup {
			s.metrics.ReminderCatchupFires.Inc()
		}
		s.deliver(ctx, fired)
		s.publish(ctx, fired)
	}
}

func (s *Scheduler) deliver(ctx context.Context, fired model.FiredReminder) {
	var deviceToken string
	if user, err := s.users.Get(ctx, fired.UserID); err == nil {
		deviceToken = user.PushoverToken
		s.metrics.DatabaseOperations.WithLabelValues("get_user", "success").Inc()
	} else {
		s.metrics.DatabaseOperations.WithLabelValues("get_user", "error").Inc()
	}

	msg := notify.Message{
		Title: "Medicine Reminder",
		Body:  fmt.Sprintf("Time to take your %s", fired.Reminder.MedicineName),
	}

	channel := "alert"
	if s.notifier.Availability() == notify.Available && deviceToken != "" {
		channel = "push"
	}

	if err := s.notifier.Push(ctx, deviceToken, msg); err != nil {
		s.metrics.NotificationFailures.Inc()
		s.logger.Error(err, "failed to deliver reminder notification",
			"user_id", fired.UserID.String(),
			"reminder_id", fired.Reminder.ID.String())
		return
	}

	s.metrics.NotificationsSent.WithLabelValues(channel).Inc()
}

func (s *Scheduler) publish(ctx context.Context, fired model.FiredReminder) {
	if s.broker == nil {
		return
	}
	if err := s.broker.Publish(ctx, firedChannel, fired); err != nil {
		s.logger.Error(err, "failed to publish fired reminder", "reminder_id", fired.Reminder.ID.String())
	}
}
