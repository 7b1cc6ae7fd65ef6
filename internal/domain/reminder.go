package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// State is a reminder's position in its lifecycle.
type State string

const (
	StateScheduled State = "scheduled"
	StateDelivered State = "delivered"
	StateTaken     State = "taken"
	StateSkipped   State = "skipped"
	StateExpired   State = "expired"
)

// Terminal reports whether the state is a one-way terminal outcome.
func (s State) Terminal() bool {
	return s == StateTaken || s == StateSkipped || s == StateExpired
}

// ReminderID is the composite key of the owning medication and the scheduled
// instant in unix milliseconds. The same schedule always materializes to the
// same ids, which is what makes regeneration idempotent.
type ReminderID struct {
	MedicationID uuid.UUID
	UnixMilli    int64
}

// NewReminderID builds the deterministic id for a medication instance.
func NewReminderID(medicationID uuid.UUID, at time.Time) ReminderID {
	return ReminderID{MedicationID: medicationID, UnixMilli: at.UnixMilli()}
}

// String encodes the id as "<medication-uuid>@<unix-millis>". The encoding
// is a transport detail, not a display format.
func (id ReminderID) String() string {
	return id.MedicationID.String() + "@" + strconv.FormatInt(id.UnixMilli, 10)
}

// ParseReminderID decodes an id produced by String.
func ParseReminderID(s string) (ReminderID, error) {
	medPart, millisPart, ok := strings.Cut(s, "@")
	if !ok {
		return ReminderID{}, errors.New("expected <medication-id>@<millis>")
	}
	medID, err := uuid.Parse(medPart)
	if err != nil {
		return ReminderID{}, fmt.Errorf("medication id: %w", err)
	}
	millis, err := strconv.ParseInt(millisPart, 10, 64)
	if err != nil {
		return ReminderID{}, fmt.Errorf("timestamp: %w", err)
	}
	return ReminderID{MedicationID: medID, UnixMilli: millis}, nil
}

// Reminder is a concrete, timestamped instance of a medication schedule.
// Instances are created by materialization, mutated only by the lifecycle
// manager, and removed when superseded by a snooze successor or when their
// medication is deactivated or deleted.
type Reminder struct {
	ID             ReminderID
	MedicationID   uuid.UUID
	UserID         uuid.UUID
	MedicationName string
	Dosage         string
	ScheduledTime  time.Time
	SnoozeCount    int
	MaxSnoozes     int
	State          State
}
