package domain

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Schedule is an abstract recurring rule derived from a medication. Rules
// are fully regenerated (clear, then rebuild) whenever the owning
// medication's active schedule changes; they are never appended to.
type Schedule struct {
	MedicationID uuid.UUID
	Kind         ScheduleType
	MinuteOfDay  int            // time-based: minutes since midnight
	DaysOfWeek   []time.Weekday // time-based: empty means every day
	AnchorMinute int            // interval-based: anchor time of day
	Interval     time.Duration  // interval-based: > 0
}

// OnDay reports whether a time-based rule applies on the given weekday.
func (s Schedule) OnDay(d time.Weekday) bool {
	if len(s.DaysOfWeek) == 0 {
		return true
	}
	for _, w := range s.DaysOfWeek {
		if w == d {
			return true
		}
	}
	return false
}

// GenerateSchedules derives the recurring rules for a medication.
//
// An inactive medication yields no rules; the caller is expected to clear
// any timers it still owns. Time entries that fail HH:MM parsing are
// dropped one by one, so the remaining valid entries still produce rules.
// An interval that is not a positive finite number of hours fails with
// ErrInvalidSchedule and yields no rule for this medication.
func GenerateSchedules(med *Medication) ([]Schedule, error) {
	if !med.IsActive {
		return nil, nil
	}

	switch med.ScheduleType {
	case ScheduleTimeBased:
		rules := make([]Schedule, 0, len(med.Times))
		for _, entry := range med.Times {
			m, err := ParseHHMM(entry)
			if err != nil {
				continue
			}
			rules = append(rules, Schedule{
				MedicationID: med.ID,
				Kind:         ScheduleTimeBased,
				MinuteOfDay:  m,
				DaysOfWeek:   med.DaysOfWeek,
			})
		}
		sort.Slice(rules, func(i, j int) bool { return rules[i].MinuteOfDay < rules[j].MinuteOfDay })
		return rules, nil

	case ScheduleIntervalBased:
		if med.IntervalHours <= 0 || math.IsNaN(med.IntervalHours) || math.IsInf(med.IntervalHours, 0) {
			return nil, fmt.Errorf("%w: interval %v hours", ErrInvalidSchedule, med.IntervalHours)
		}
		return []Schedule{{
			MedicationID: med.ID,
			Kind:         ScheduleIntervalBased,
			AnchorMinute: MinuteOfDay(med.StartDate),
			Interval:     time.Duration(med.IntervalHours * float64(time.Hour)),
		}}, nil

	default:
		return nil, fmt.Errorf("%w: unknown schedule type %q", ErrInvalidSchedule, med.ScheduleType)
	}
}
