// Package reminder scans for subscriptions renewing soon and files
// notifications for them on a cron schedule.
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/pennywise/internal/model"
	"github.com/Veraticus/pennywise/internal/service"
	"github.com/Veraticus/pennywise/internal/stats"
	"github.com/robfig/cron/v3"
)

// DefaultSchedule runs the scan every morning at 8am local time.
const DefaultSchedule = "0 8 * * *"

const notificationTypeRenewal = "renewal_reminder"

// Scheduler periodically scans upcoming renewals and inserts
// notifications for subscriptions renewing within the next week.
type Scheduler struct {
	store  service.Store
	cron   *cron.Cron
	logger *slog.Logger
	userID string
}

// New creates a scheduler for the given user.
func New(store service.Store, userID string) *Scheduler {
	return &Scheduler{
		store:  store,
		cron:   cron.New(),
		logger: slog.Default(),
		userID: userID,
	}
}

// Start registers the scan on the given cron schedule and starts the
// scheduler. Use DefaultSchedule unless configured otherwise.
func (s *Scheduler) Start(schedule string) error {
	_, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := s.Scan(ctx); err != nil {
			s.logger.Error("Renewal scan failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid reminder schedule %q: %w", schedule, err)
	}
	s.cron.Start()
	s.logger.Info("Reminder scheduler started", "schedule", schedule)
	return nil
}

// Stop halts the scheduler and waits for a running scan to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Scan inserts one notification per subscription renewing within the
// next seven days. Renewals already announced by an unread
// notification are skipped so a daily schedule does not nag.
func (s *Scheduler) Scan(ctx context.Context) error {
	subs, err := s.store.Subscriptions().List(ctx, s.userID)
	if err != nil {
		return fmt.Errorf("failed to list subscriptions: %w", err)
	}

	upcoming := stats.UpcomingRenewals(subs, time.Now())
	if len(upcoming) == 0 {
		return nil
	}

	existing, err := s.store.Notifications().List(ctx, s.userID)
	if err != nil {
		return fmt.Errorf("failed to list notifications: %w", err)
	}
	seen := make(map[string]bool, len(existing))
	for _, n := range existing {
		if n.Type == notificationTypeRenewal && !n.IsRead {
			seen[n.Message] = true
		}
	}

	var created int
	for _, sub := range upcoming {
		msg := renewalMessage(sub)
		if seen[msg] {
			continue
		}
		_, err := s.store.Notifications().Insert(ctx, model.Notification{
			UserID:  s.userID,
			Type:    notificationTypeRenewal,
			Message: msg,
		})
		if err != nil {
			return fmt.Errorf("failed to create reminder for %s: %w", sub.ServiceName, err)
		}
		created++
	}

	if created > 0 {
		s.logger.Info("Created renewal reminders", "count", created)
	}
	return nil
}

func renewalMessage(sub model.Subscription) string {
	return fmt.Sprintf("%s renews on %s for $%s",
		sub.ServiceName, sub.RenewalDate.Format("Jan 2"), sub.Cost.StringFixed(2))
}
