package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/msrishav-28/medipal-sub002/internal/domain"
	"github.com/msrishav-28/medipal-sub002/internal/notify"
)

// This file is the reminder lifecycle manager: it governs the progression
// of a delivered reminder to a terminal outcome. Terminal states are
// one-way. Every transition emits a TransitionEvent.

// markDelivered transitions Scheduled → Delivered and starts the expiry
// timer for the response window.
func (s *Scheduler) markDelivered(id domain.ReminderID, now time.Time) {
	s.mu.Lock()
	r, ok := s.live[id]
	if !ok || r.State != domain.StateScheduled {
		s.mu.Unlock()
		return
	}
	from := r.State
	r.State = domain.StateDelivered
	s.dropTimerLocked(id)
	s.timers[id] = time.AfterFunc(s.timeout, func() { s.expire(id) })
	med := r.MedicationID
	s.mu.Unlock()

	s.emit(domain.TransitionEvent{
		ReminderID:   id,
		MedicationID: med,
		From:         from,
		To:           domain.StateDelivered,
		At:           now,
	})
}

// Taken records that the user took the dose. A zero actualTime means "now".
func (s *Scheduler) Taken(id domain.ReminderID, actualTime time.Time) error {
	if actualTime.IsZero() {
		actualTime = s.now()
	}
	return s.finish(id, domain.StateTaken, actualTime)
}

// Skip records that the user declined this dose. The reason is logged for
// the record; callers wanting history keep their own.
func (s *Scheduler) Skip(id domain.ReminderID, reason string) error {
	if reason != "" {
		s.log.Info("reminder skipped",
			zap.String("reminder", id.String()),
			zap.String("reason", reason),
		)
	}
	return s.finish(id, domain.StateSkipped, s.now())
}

// Snooze ends the current reminder and re-enters a successor into the
// schedule at now+minutes with an incremented snooze count. At the ceiling
// it fails with ErrMaxSnoozeExceeded and mutates nothing. minutes <= 0
// falls back to the user's configured snooze offset.
func (s *Scheduler) Snooze(ctx context.Context, id domain.ReminderID, minutes int) error {
	s.mu.Lock()
	r, ok := s.live[id]
	if !ok {
		s.mu.Unlock()
		s.log.Warn("snooze for unknown reminder", zap.String("reminder", id.String()))
		return domain.ErrUnknownReminder
	}
	if r.State.Terminal() {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s is %s", domain.ErrReminderTerminal, id, r.State)
	}
	if r.State != domain.StateDelivered {
		s.mu.Unlock()
		return fmt.Errorf("reminder %s not delivered yet", id)
	}
	if r.SnoozeCount >= r.MaxSnoozes {
		s.mu.Unlock()
		return fmt.Errorf("%w: %d of %d used", domain.ErrMaxSnoozeExceeded, r.SnoozeCount, r.MaxSnoozes)
	}
	snapshot := *r
	s.releaseLocked(id)
	s.mu.Unlock()

	if minutes <= 0 {
		minutes = s.settingsFor(ctx, snapshot.UserID).SnoozeMinutes
	}
	now := s.now()

	successor := snapshot
	successor.ScheduledTime = now.Add(time.Duration(minutes) * time.Minute)
	successor.ID = domain.NewReminderID(snapshot.MedicationID, successor.ScheduledTime)
	successor.SnoozeCount = snapshot.SnoozeCount + 1
	successor.State = domain.StateScheduled

	s.emit(domain.TransitionEvent{
		ReminderID:   id,
		MedicationID: snapshot.MedicationID,
		From:         domain.StateDelivered,
		To:           domain.StateScheduled,
		At:           now,
	})
	return s.ScheduleReminder(ctx, successor)
}

// HandleAction dispatches a platform action callback to the matching
// lifecycle method. Unrecognized actions are ignored, not errors.
func (s *Scheduler) HandleAction(ctx context.Context, action string, id domain.ReminderID) error {
	switch action {
	case notify.ActionTaken:
		return s.Taken(id, s.now())
	case notify.ActionSnooze:
		return s.Snooze(ctx, id, 0)
	case notify.ActionSkip:
		return s.Skip(id, "")
	default:
		s.log.Debug("ignoring unrecognized action", zap.String("action", action))
		return nil
	}
}

// expire runs when the response window elapses without a user action.
func (s *Scheduler) expire(id domain.ReminderID) {
	s.mu.Lock()
	r, ok := s.live[id]
	if !ok || r.State != domain.StateDelivered {
		s.mu.Unlock()
		return
	}
	delete(s.timers, id)
	from := r.State
	r.State = domain.StateExpired
	med := r.MedicationID
	s.mu.Unlock()

	s.log.Info("reminder expired without response", zap.String("reminder", id.String()))
	s.emit(domain.TransitionEvent{
		ReminderID:   id,
		MedicationID: med,
		From:         from,
		To:           domain.StateExpired,
		At:           s.now(),
	})
}

// finish moves a delivered reminder to a terminal outcome.
func (s *Scheduler) finish(id domain.ReminderID, to domain.State, at time.Time) error {
	s.mu.Lock()
	r, ok := s.live[id]
	if !ok {
		s.mu.Unlock()
		s.log.Warn("lifecycle action for unknown reminder",
			zap.String("reminder", id.String()),
			zap.String("target", string(to)),
		)
		return domain.ErrUnknownReminder
	}
	if r.State.Terminal() {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s is %s", domain.ErrReminderTerminal, id, r.State)
	}
	if r.State != domain.StateDelivered {
		s.mu.Unlock()
		return fmt.Errorf("reminder %s not delivered yet", id)
	}
	from := r.State
	r.State = to
	s.dropTimerLocked(id)
	med := r.MedicationID
	s.mu.Unlock()

	s.emit(domain.TransitionEvent{
		ReminderID:   id,
		MedicationID: med,
		From:         from,
		To:           to,
		At:           at,
	})
	return nil
}
