// Package notify holds the platform capability interfaces the scheduler
// delivers through, so the scheduler core contains no platform-specific code.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PermissionState mirrors the platform notification permission model.
type PermissionState string

const (
	PermissionGranted PermissionState = "granted"
	PermissionDenied  PermissionState = "denied"
	PermissionDefault PermissionState = "default"
)

// Action identifiers the receiving handler reports back with. Anything else
// is ignored, not an error.
const (
	ActionTaken  = "taken"
	ActionSnooze = "snooze"
	ActionSkip   = "skip"
)

// Data correlates a delivered notification back to its originating reminder.
type Data struct {
	Type         string
	MedicationID string
	ReminderID   string
	UserID       string
	Timestamp    time.Time
}

// Action is one response button offered with a delivery.
type Action struct {
	Action string
	Title  string
}

// Payload is what a platform sink ultimately shows the user.
type Payload struct {
	Title   string
	Body    string
	Data    Data
	Actions []Action
}

// Sink delivers reminder notifications on some platform. The scheduler
// checks PermissionState before every delivery attempt.
type Sink interface {
	RequestPermission(ctx context.Context, userID uuid.UUID) (PermissionState, error)
	PermissionState(ctx context.Context, userID uuid.UUID) PermissionState
	Deliver(ctx context.Context, p Payload) error
}

// Announcer optionally voices a reminder out loud. It is best-effort: a
// failed announcement must never block or fail the notification itself.
type Announcer interface {
	Announce(ctx context.Context, text string) error
}

// NoopAnnouncer is the Announcer used when no speech capability exists.
type NoopAnnouncer struct{}

func (NoopAnnouncer) Announce(context.Context, string) error { return nil }
