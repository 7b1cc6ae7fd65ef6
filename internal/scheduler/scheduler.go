// Package scheduler turns materialized reminders into timed deliveries and
// drives each delivered reminder through its lifecycle.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/msrishav-28/medipal-sub002/internal/domain"
	"github.com/msrishav-28/medipal-sub002/internal/notify"
	"github.com/msrishav-28/medipal-sub002/internal/store"
)

// SettingsSource provides the externally persisted per-user settings the
// engine reads at delivery time. The store implements it.
type SettingsSource interface {
	GetSettings(ctx context.Context, userID uuid.UUID) (domain.Settings, error)
}

// Config carries the tunables a deployment chooses.
type Config struct {
	// Window is how far ahead reminders are materialized.
	Window time.Duration
	// ResponseTimeout auto-expires a Delivered reminder nobody responded to.
	ResponseTimeout time.Duration
	// Defaults apply when no per-user settings can be read.
	Defaults domain.Settings
}

// Scheduler owns the in-memory timer table and the tracked lifecycle state
// of every live reminder. Timers are ephemeral: a process restart loses them
// all, and recovery is a RescheduleAll pass from the medication repository.
type Scheduler struct {
	log      *zap.Logger
	sink     notify.Sink
	voice    notify.Announcer
	settings SettingsSource
	defaults domain.Settings
	window   time.Duration
	timeout  time.Duration

	now func() time.Time

	// regenMu makes each clear-then-rebuild regeneration a single logical
	// transaction; two regenerations never interleave.
	regenMu sync.Mutex

	mu     sync.Mutex
	timers map[domain.ReminderID]*time.Timer
	byMed  map[uuid.UUID]map[domain.ReminderID]struct{}
	live   map[domain.ReminderID]*domain.Reminder

	listener        func(domain.TransitionEvent)
	onDeliveryError func(domain.Reminder, error)
}

// New creates a Scheduler. Zero config fields fall back to a 7-day window
// and a 30-minute response timeout.
func New(cfg Config, sink notify.Sink, voice notify.Announcer, settings SettingsSource, log *zap.Logger) *Scheduler {
	if cfg.Window <= 0 {
		cfg.Window = 7 * 24 * time.Hour
	}
	if cfg.ResponseTimeout <= 0 {
		cfg.ResponseTimeout = 30 * time.Minute
	}
	if voice == nil {
		voice = notify.NoopAnnouncer{}
	}
	if cfg.Defaults == (domain.Settings{}) {
		cfg.Defaults = domain.DefaultSettings()
	}
	return &Scheduler{
		log:      log,
		sink:     sink,
		voice:    voice,
		settings: settings,
		defaults: cfg.Defaults,
		window:   cfg.Window,
		timeout:  cfg.ResponseTimeout,
		now:      time.Now,
		timers:   make(map[domain.ReminderID]*time.Timer),
		byMed:    make(map[uuid.UUID]map[domain.ReminderID]struct{}),
		live:     make(map[domain.ReminderID]*domain.Reminder),
	}
}

// SetTransitionListener registers the consumer of lifecycle events. Set it
// during wiring, before any reminder is scheduled.
func (s *Scheduler) SetTransitionListener(fn func(domain.TransitionEvent)) {
	s.listener = fn
}

// SetDeliveryErrorHook registers a callback for delivery failures on the
// deferred (timer) path, where there is no caller to return the error to.
func (s *Scheduler) SetDeliveryErrorHook(fn func(domain.Reminder, error)) {
	s.onDeliveryError = fn
}

// ScheduleMedicationReminders regenerates the reminder set for one
// medication: clear, then rebuild. Regeneration is idempotent; running it
// twice with no elapsed time yields the same ids with one live timer each.
// An inactive medication only clears.
func (s *Scheduler) ScheduleMedicationReminders(ctx context.Context, med *domain.Medication) error {
	s.regenMu.Lock()
	defer s.regenMu.Unlock()

	s.ClearForMedication(med.ID)

	rules, err := domain.GenerateSchedules(med)
	if err != nil {
		return err
	}
	if len(rules) == 0 {
		return nil
	}

	now := s.now()
	window := domain.Window{Start: now, End: now.Add(s.window)}
	maxSnoozes := s.settingsFor(ctx, med.UserID).MaxSnoozes

	var firstErr error
	for _, r := range domain.Materialize(med, rules, window) {
		r.MaxSnoozes = maxSnoozes
		if err := s.ScheduleReminder(ctx, r); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.log.Debug("medication rescheduled",
		zap.String("medication", med.ID.String()),
		zap.Int("rules", len(rules)),
	)
	return firstErr
}

// RescheduleAll regenerates every given medication, e.g. as the startup
// recovery pass or after a settings change. One medication's invalid
// schedule does not abort the others.
func (s *Scheduler) RescheduleAll(ctx context.Context, meds []domain.Medication) error {
	var firstErr error
	for i := range meds {
		if err := s.ScheduleMedicationReminders(ctx, &meds[i]); err != nil {
			s.log.Warn("reschedule failed",
				zap.String("medication", meds[i].ID.String()),
				zap.Error(err),
			)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// ScheduleReminder arranges delivery of a single reminder. A reminder whose
// due time has already passed is delivered synchronously rather than
// silently dropped; delivery errors on that path go to the caller.
// Scheduling an id that already has a timer replaces it, never appends.
func (s *Scheduler) ScheduleReminder(ctx context.Context, r domain.Reminder) error {
	r.State = domain.StateScheduled
	delay := r.ScheduledTime.Sub(s.now())

	s.mu.Lock()
	s.dropTimerLocked(r.ID)
	tracked := r
	s.live[r.ID] = &tracked
	set := s.byMed[r.MedicationID]
	if set == nil {
		set = make(map[domain.ReminderID]struct{})
		s.byMed[r.MedicationID] = set
	}
	set[r.ID] = struct{}{}
	if delay > 0 {
		id := r.ID
		s.timers[id] = time.AfterFunc(delay, func() { s.fire(id) })
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	return s.deliver(ctx, r)
}

// Cancel stops a pending timer and forgets the reminder. Unknown ids are a
// no-op. Cancellation always prevents a not-yet-fired timer from firing; a
// delivery already mid-flight wins over a concurrent cancel.
func (s *Scheduler) Cancel(id domain.ReminderID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseLocked(id)
}

// ClearForMedication cancels every pending timer for a medication's
// reminders, via the explicit medication index. Used before regeneration
// and on delete or deactivate.
func (s *Scheduler) ClearForMedication(medID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.byMed[medID] {
		s.dropTimerLocked(id)
		delete(s.live, id)
	}
	delete(s.byMed, medID)
}

// Stop cancels every pending timer. Pending reminders are not durable; the
// next start recovers them from the medication repository.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

// State reports the tracked state of a reminder, if it is still tracked.
func (s *Scheduler) State(id domain.ReminderID) (domain.State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.live[id]
	if !ok {
		return "", false
	}
	return r.State, true
}

// PendingTimers reports how many delivery/expiry timers are live.
func (s *Scheduler) PendingTimers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// fire runs when a delivery timer elapses. A reminder canceled after the
// timer fired but before this lookup is simply gone: last observed state
// wins, nothing is delivered.
func (s *Scheduler) fire(id domain.ReminderID) {
	s.mu.Lock()
	delete(s.timers, id)
	r, ok := s.live[id]
	if !ok || r.State != domain.StateScheduled {
		s.mu.Unlock()
		return
	}
	snapshot := *r
	s.mu.Unlock()

	if err := s.deliver(context.Background(), snapshot); err != nil {
		s.log.Error("reminder delivery failed",
			zap.String("reminder", id.String()),
			zap.Error(err),
		)
		if s.onDeliveryError != nil {
			s.onDeliveryError(snapshot, err)
		}
	}
}

// deliver runs the check-then-deliver sequence: quiet hours, permission,
// platform delivery, best-effort voice, then the Delivered transition.
func (s *Scheduler) deliver(ctx context.Context, r domain.Reminder) error {
	now := s.now()
	settings := s.settingsFor(ctx, r.UserID)

	if domain.IsQuietHours(now, settings.Quiet) {
		// Dropped for this cycle; the next materialized instance is
		// unaffected. No redelivery when quiet hours end.
		s.log.Warn("reminder suppressed by quiet hours",
			zap.String("reminder", r.ID.String()),
			zap.Time("scheduled", r.ScheduledTime),
		)
		s.forget(r.ID)
		return nil
	}

	if state := s.sink.PermissionState(ctx, r.UserID); state != notify.PermissionGranted {
		s.forget(r.ID)
		return fmt.Errorf("%w: permission state %q", domain.ErrPermissionDenied, state)
	}

	payload := buildPayload(r, now)
	if err := s.sink.Deliver(ctx, payload); err != nil {
		s.forget(r.ID)
		return fmt.Errorf("deliver reminder %s: %w", r.ID, err)
	}

	if err := s.voice.Announce(ctx, payload.Title+". "+payload.Body); err != nil {
		s.log.Warn("voice announcement failed", zap.Error(err))
	}

	s.markDelivered(r.ID, now)
	return nil
}

func (s *Scheduler) settingsFor(ctx context.Context, userID uuid.UUID) domain.Settings {
	if s.settings == nil {
		return s.defaults
	}
	set, err := s.settings.GetSettings(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return s.defaults
	}
	if err != nil {
		s.log.Warn("settings lookup failed, using defaults",
			zap.String("user", userID.String()),
			zap.Error(err),
		)
		return s.defaults
	}
	return set
}

// forget removes all trace of a reminder: timer, state, index entry.
func (s *Scheduler) forget(id domain.ReminderID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseLocked(id)
}

func (s *Scheduler) releaseLocked(id domain.ReminderID) {
	s.dropTimerLocked(id)
	delete(s.live, id)
	if set := s.byMed[id.MedicationID]; set != nil {
		delete(set, id)
		if len(set) == 0 {
			delete(s.byMed, id.MedicationID)
		}
	}
}

// dropTimerLocked enforces the at-most-one-live-timer-per-id invariant.
func (s *Scheduler) dropTimerLocked(id domain.ReminderID) {
	if t := s.timers[id]; t != nil {
		t.Stop()
		delete(s.timers, id)
	}
}

func (s *Scheduler) emit(ev domain.TransitionEvent) {
	if s.listener != nil {
		s.listener(ev)
	}
}
