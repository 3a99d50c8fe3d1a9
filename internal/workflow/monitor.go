package workflow

import (
	"context"
	"log"
	"sync"
	"time"

	"campus-backend/internal/model"
	"campus-backend/internal/notify"
	"campus-backend/internal/repository"
)

const (
	// sweepPageSize bounds how many rows one sweep invocation processes.
	sweepPageSize = 1000
	// upcomingWindow is how far ahead the pre-emptive reminder looks.
	upcomingWindow = 24 * time.Hour
)

// Monitor periodically flags overdue applications and reminds approvers of
// deadlines closing within 24 hours. It only ever reads application state and
// writes the overdue flag — approval records are never touched here.
//
// Overdue reminders are deliberately re-sent on every sweep for every row
// still overdue and pending; only the flag write itself is once-only.
type Monitor struct {
	apps     repository.ApplicationRepository
	notifier notify.Notifier
	interval time.Duration

	// TryLock single-flight guards: a sweep that would overlap a still-running
	// one returns immediately instead of doubling up.
	overdueMu  sync.Mutex
	upcomingMu sync.Mutex
}

func NewMonitor(apps repository.ApplicationRepository, notifier notify.Notifier, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Monitor{apps: apps, notifier: notifier, interval: interval}
}

// Start runs both sweeps on the configured interval until ctx is cancelled.
func (m *Monitor) Start(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := m.RunOverdueSweep(ctx); err != nil {
					log.Printf("monitor: overdue sweep failed: %v", err)
				}
				if err := m.RunUpcomingSweep(ctx); err != nil {
					log.Printf("monitor: upcoming sweep failed: %v", err)
				}
			}
		}
	}()
}

// RunOverdueSweep marks PENDING applications past their deadline as overdue
// (once, monotonically) and notifies the admin channel. Rows that are already
// flagged still get a reminder on every invocation.
func (m *Monitor) RunOverdueSweep(ctx context.Context) error {
	if !m.overdueMu.TryLock() {
		log.Println("monitor: overdue sweep already running, skipping")
		return nil
	}
	defer m.overdueMu.Unlock()

	apps, err := m.apps.FindOverdue(ctx, time.Now(), sweepPageSize)
	if err != nil {
		return err
	}

	for i := range apps {
		app := &apps[i]
		title := "Approval overdue reminder"
		if !app.IsOverdue {
			if err := m.apps.MarkOverdue(ctx, app.ID); err != nil {
				log.Printf("monitor: failed to flag application %s overdue: %v", app.ID, err)
				continue
			}
			title = "Approval overdue"
		}
		if m.notifier != nil {
			m.notifier.Notify(ctx, nil, model.RoleAdmin, title,
				"Application "+app.ID.String()+" ("+app.Kind+") passed its level "+itoa(app.CurrentLevel)+" deadline.",
				app.Kind, app.ID.String())
		}
	}

	return nil
}

// RunUpcomingSweep reminds the current approver of every PENDING application
// whose deadline falls within the next 24 hours. It mutates nothing and will
// re-fire on each invocation while the deadline stays inside the window.
func (m *Monitor) RunUpcomingSweep(ctx context.Context) error {
	if !m.upcomingMu.TryLock() {
		log.Println("monitor: upcoming sweep already running, skipping")
		return nil
	}
	defer m.upcomingMu.Unlock()

	apps, err := m.apps.FindDeadlineWithin(ctx, time.Now(), upcomingWindow, sweepPageSize)
	if err != nil {
		return err
	}

	if m.notifier == nil {
		return nil
	}

	for i := range apps {
		app := &apps[i]
		if app.CurrentApproverID == nil {
			continue
		}
		m.notifier.Notify(ctx, app.CurrentApproverID, "", "Approval deadline approaching",
			"Application "+app.ID.String()+" ("+app.Kind+") is due "+app.Deadline.Format(time.RFC3339)+".",
			app.Kind, app.ID.String())
	}

	return nil
}
