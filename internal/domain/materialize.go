package domain

import (
	"sort"
	"time"
)

// Window bounds materialization. Instances are produced inside (Start, End].
type Window struct {
	Start time.Time
	End   time.Time
}

// DefaultWindow returns the standard look-ahead window starting at now.
func DefaultWindow(now time.Time, days int) Window {
	if days <= 0 {
		days = 7
	}
	return Window{Start: now, End: now.AddDate(0, 0, days)}
}

// Materialize expands recurring rules into concrete reminders within the
// window. Identical inputs always produce identical ids and timestamps, so
// re-materializing after a settings change never creates duplicates. The
// result is sorted ascending by scheduled time.
func Materialize(med *Medication, rules []Schedule, w Window) []Reminder {
	var out []Reminder
	for _, rule := range rules {
		switch rule.Kind {
		case ScheduleTimeBased:
			out = append(out, expandTimeRule(med, rule, w)...)
		case ScheduleIntervalBased:
			out = append(out, expandIntervalRule(med, rule, w)...)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledTime.Before(out[j].ScheduledTime) })
	return out
}

// expandTimeRule walks each calendar day in the window, keeping days whose
// weekday the rule covers, and combines the date with the rule's time of day.
func expandTimeRule(med *Medication, rule Schedule, w Window) []Reminder {
	var out []Reminder
	day := startOfDay(w.Start)
	for ; !day.After(w.End); day = day.AddDate(0, 0, 1) {
		if !rule.OnDay(day.Weekday()) {
			continue
		}
		at := day.Add(time.Duration(rule.MinuteOfDay) * time.Minute)
		if includeInstance(med, at, w) {
			out = append(out, instance(med, at))
		}
	}
	return out
}

// expandIntervalRule steps from the anchor (rule time of day on the window
// start's date) in whole intervals, keeping the steps inside the window.
func expandIntervalRule(med *Medication, rule Schedule, w Window) []Reminder {
	if rule.Interval <= 0 {
		return nil
	}
	var out []Reminder
	anchor := startOfDay(w.Start).Add(time.Duration(rule.AnchorMinute) * time.Minute)
	for at := anchor; !at.After(w.End); at = at.Add(rule.Interval) {
		if includeInstance(med, at, w) {
			out = append(out, instance(med, at))
		}
	}
	return out
}

// includeInstance applies the (Start, End] window bounds plus the
// medication's own start/end dates.
func includeInstance(med *Medication, at time.Time, w Window) bool {
	if !at.After(w.Start) || at.After(w.End) {
		return false
	}
	if !med.StartDate.IsZero() && at.Before(med.StartDate) {
		return false
	}
	if med.EndDate != nil && at.After(*med.EndDate) {
		return false
	}
	return true
}

func instance(med *Medication, at time.Time) Reminder {
	return Reminder{
		ID:             NewReminderID(med.ID, at),
		MedicationID:   med.ID,
		UserID:         med.UserID,
		MedicationName: med.Name,
		Dosage:         med.Dosage,
		ScheduledTime:  at,
		State:          StateScheduled,
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
