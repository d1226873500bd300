package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/abudi-09/CMS-sub000/internal/models"
	"github.com/abudi-09/CMS-sub000/internal/repository"
)

// EscalationMonitor flags complaints that sat assigned past the handling
// threshold without reaching a terminal state. escalation is never set by a
// user action; this sweep is the only writer of the flag.
type EscalationMonitor interface {
	Start(ctx context.Context)
	Stop()
	Sweep(ctx context.Context) error
}

type escalationMonitor struct {
	complaints repository.ComplaintRepository
	users      repository.UserRepository
	notifier   NotificationService
	interval   time.Duration
	threshold  time.Duration
	log        zerolog.Logger
	stopChan   chan struct{}
	running    bool
	now        func() time.Time
}

func NewEscalationMonitor(
	complaints repository.ComplaintRepository,
	users repository.UserRepository,
	notifier NotificationService,
	interval, threshold time.Duration,
	log zerolog.Logger,
) EscalationMonitor {
	if interval == 0 {
		interval = 5 * time.Minute
	}
	if threshold == 0 {
		threshold = 72 * time.Hour
	}
	return &escalationMonitor{
		complaints: complaints,
		users:      users,
		notifier:   notifier,
		interval:   interval,
		threshold:  threshold,
		log:        log.With().Str("component", "escalation").Logger(),
		stopChan:   make(chan struct{}),
		now:        time.Now,
	}
}

func (m *escalationMonitor) Start(ctx context.Context) {
	if m.running {
		return
	}
	m.running = true
	m.log.Info().Dur("interval", m.interval).Dur("threshold", m.threshold).Msg("escalation monitor started")

	go func() {
		if err := m.Sweep(ctx); err != nil {
			m.log.Error().Err(err).Msg("initial escalation sweep failed")
		}

		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := m.Sweep(ctx); err != nil {
					m.log.Error().Err(err).Msg("escalation sweep failed")
				}
			case <-m.stopChan:
				m.log.Info().Msg("escalation monitor stopped")
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (m *escalationMonitor) Stop() {
	if !m.running {
		return
	}
	m.running = false
	close(m.stopChan)
}

// Sweep is idempotent: the overdue query excludes already-escalated rows and
// MarkEscalated only reports true for the run that actually flipped the
// flag, so concurrent or repeated sweeps never double-notify.
func (m *escalationMonitor) Sweep(ctx context.Context) error {
	now := m.now()
	overdue, err := m.complaints.ListOverdue(ctx, now.Add(-m.threshold), now)
	if err != nil {
		return err
	}
	if len(overdue) == 0 {
		return nil
	}

	admins, err := m.users.ListIDsByRoles(ctx, "", []models.Role{models.RoleAdmin})
	if err != nil {
		m.log.Warn().Err(err).Msg("could not resolve admins for escalation notice")
	}

	escalated := 0
	for i := range overdue {
		c := &overdue[i]
		flipped, err := m.complaints.MarkEscalated(ctx, c.ID, now)
		if err != nil {
			m.log.Error().Err(err).Str("complaint_id", c.ID.String()).Msg("could not mark complaint escalated")
			continue
		}
		if !flipped {
			continue
		}
		escalated++

		cid := c.ID
		err = m.notifier.NotifyUsers(ctx, admins, models.Notification{
			ComplaintID: &cid,
			Type:        models.NotificationStatus,
			Title:       "Complaint escalated",
			Message:     fmt.Sprintf("Complaint %s exceeded its handling window and was escalated.", c.ComplaintCode),
		})
		if err != nil {
			m.log.Warn().Err(err).Str("complaint_id", c.ID.String()).Msg("escalation notification failed")
		}
	}

	if escalated > 0 {
		m.log.Info().Int("escalated", escalated).Msg("escalation sweep complete")
	}
	return nil
}
