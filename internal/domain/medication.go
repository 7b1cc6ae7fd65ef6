package domain

import (
	"time"

	"github.com/google/uuid"
)

// ScheduleType says how a medication's reminders are derived.
type ScheduleType string

const (
	// ScheduleTimeBased fires at fixed times of day, e.g. 08:00 and 20:00.
	ScheduleTimeBased ScheduleType = "time"
	// ScheduleIntervalBased fires every N hours from an anchor.
	ScheduleIntervalBased ScheduleType = "interval"
)

// Medication is the declarative definition reminders are derived from.
// Exactly one of Times / IntervalHours is meaningful per ScheduleType.
type Medication struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	Name          string
	Dosage        string
	ScheduleType  ScheduleType
	Times         []string       // "HH:MM" entries; time-based only
	IntervalHours float64        // hours between doses; interval-based only
	DaysOfWeek    []time.Weekday // time-based only; empty means every day
	StartDate     time.Time
	EndDate       *time.Time // nil means open-ended
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
