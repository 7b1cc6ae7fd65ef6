package domain

import "errors"

var (
	// ErrInvalidSchedule marks a schedule rule that cannot be derived, e.g.
	// a non-positive interval. It is scoped to the offending medication.
	ErrInvalidSchedule = errors.New("invalid schedule")

	// ErrPermissionDenied is returned when a delivery is attempted without
	// granted notification permission. It is never retried automatically;
	// the UI layer must re-request permission and re-invoke.
	ErrPermissionDenied = errors.New("notification permission not granted")

	// ErrMaxSnoozeExceeded is returned when a snooze would push a reminder
	// past its snooze ceiling. The reminder's state is left unchanged.
	ErrMaxSnoozeExceeded = errors.New("snooze limit reached")

	// ErrUnknownReminder is returned for lifecycle actions on an id with no
	// tracked state. Callers may treat it as a no-op: the reminder likely
	// finished its lifecycle already.
	ErrUnknownReminder = errors.New("unknown reminder")

	// ErrReminderTerminal is returned for lifecycle actions on a reminder
	// that already reached a terminal outcome.
	ErrReminderTerminal = errors.New("reminder already completed")
)
