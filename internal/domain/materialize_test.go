package domain

import (
	"testing"
	"time"
)

// fixedNow is a Monday, 07:00 UTC.
var fixedNow = time.Date(2025, time.March, 3, 7, 0, 0, 0, time.UTC)

func materializeFor(t *testing.T, med *Medication, w Window) []Reminder {
	t.Helper()
	rules, err := GenerateSchedules(med)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	return Materialize(med, rules, w)
}

func TestMaterialize_TimeBasedTwoDayWindow(t *testing.T) {
	med := testMedication(ScheduleTimeBased)
	med.Times = []string{"08:00", "20:00"}

	w := Window{Start: fixedNow, End: fixedNow.Add(48 * time.Hour)}
	got := materializeFor(t, med, w)

	if len(got) != 4 {
		t.Fatalf("want 4 instances over 2 days, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if d := got[i].ScheduledTime.Sub(got[i-1].ScheduledTime); d != 12*time.Hour {
			t.Fatalf("instances %d..%d spaced %v, want 12h", i-1, i, d)
		}
	}
	first := time.Date(2025, time.March, 3, 8, 0, 0, 0, time.UTC)
	if !got[0].ScheduledTime.Equal(first) {
		t.Fatalf("first instance at %v, want %v", got[0].ScheduledTime, first)
	}
}

func TestMaterialize_ExcludesAlreadyPassedTimes(t *testing.T) {
	med := testMedication(ScheduleTimeBased)
	med.Times = []string{"08:00"}

	// Window starts at 09:00; today's 08:00 lies outside (Start, End].
	start := fixedNow.Add(2 * time.Hour)
	got := materializeFor(t, med, Window{Start: start, End: start.Add(48 * time.Hour)})

	if len(got) != 2 {
		t.Fatalf("want 2 instances, got %d", len(got))
	}
	want := time.Date(2025, time.March, 4, 8, 0, 0, 0, time.UTC)
	if !got[0].ScheduledTime.Equal(want) {
		t.Fatalf("first instance at %v, want %v", got[0].ScheduledTime, want)
	}
}

func TestMaterialize_WeekdayFilter(t *testing.T) {
	med := testMedication(ScheduleTimeBased)
	med.Times = []string{"09:00"}
	med.DaysOfWeek = []time.Weekday{time.Monday, time.Wednesday}

	got := materializeFor(t, med, Window{Start: fixedNow, End: fixedNow.AddDate(0, 0, 7)})

	if len(got) != 2 {
		// Mon 3rd and Wed 5th; the next Monday's 09:00 falls past the window end
		t.Fatalf("want 2 instances, got %d", len(got))
	}
	for _, r := range got {
		wd := r.ScheduledTime.Weekday()
		if wd != time.Monday && wd != time.Wednesday {
			t.Fatalf("instance on %s, want Monday or Wednesday", wd)
		}
	}
}

func TestMaterialize_IntervalStepsFromAnchor(t *testing.T) {
	med := testMedication(ScheduleIntervalBased)
	med.IntervalHours = 8
	med.StartDate = fixedNow // anchor time of day = 07:00

	// 24h window anchored exactly at the window start: steps at +8h, +16h
	// and +24h; the last one sits exactly on the window edge and is included.
	w := Window{Start: fixedNow, End: fixedNow.Add(24 * time.Hour)}
	got := materializeFor(t, med, w)

	if len(got) != 3 {
		t.Fatalf("want 3 instances, got %d", len(got))
	}
	for i, r := range got {
		want := fixedNow.Add(time.Duration(i+1) * 8 * time.Hour)
		if !r.ScheduledTime.Equal(want) {
			t.Fatalf("instance %d at %v, want %v", i, r.ScheduledTime, want)
		}
	}
	if !got[2].ScheduledTime.Equal(w.End) {
		t.Fatalf("window edge instance must be included, got %v", got[2].ScheduledTime)
	}
}

func TestMaterialize_AnchorItselfExcluded(t *testing.T) {
	med := testMedication(ScheduleIntervalBased)
	med.IntervalHours = 8
	med.StartDate = fixedNow

	got := materializeFor(t, med, Window{Start: fixedNow, End: fixedNow.Add(24 * time.Hour)})
	for _, r := range got {
		if r.ScheduledTime.Equal(fixedNow) {
			t.Fatal("anchor instant equals window start and must be excluded")
		}
	}
}

func TestMaterialize_Deterministic(t *testing.T) {
	med := testMedication(ScheduleTimeBased)
	med.Times = []string{"08:00", "20:00"}
	w := Window{Start: fixedNow, End: fixedNow.AddDate(0, 0, 7)}

	a := materializeFor(t, med, w)
	b := materializeFor(t, med, w)
	if len(a) != len(b) {
		t.Fatalf("runs differ in size: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].ID != b[i].ID || !a[i].ScheduledTime.Equal(b[i].ScheduledTime) {
			t.Fatalf("instance %d differs between runs", i)
		}
	}
}

func TestMaterialize_RespectsEndDate(t *testing.T) {
	med := testMedication(ScheduleTimeBased)
	med.Times = []string{"08:00"}
	end := fixedNow.AddDate(0, 0, 2)
	med.EndDate = &end

	got := materializeFor(t, med, Window{Start: fixedNow, End: fixedNow.AddDate(0, 0, 7)})
	for _, r := range got {
		if r.ScheduledTime.After(end) {
			t.Fatalf("instance %v past medication end date %v", r.ScheduledTime, end)
		}
	}
	if len(got) != 2 {
		t.Fatalf("want 2 instances before end date, got %d", len(got))
	}
}

func TestMaterialize_SortedAscending(t *testing.T) {
	med := testMedication(ScheduleTimeBased)
	med.Times = []string{"20:00", "08:00"}

	got := materializeFor(t, med, Window{Start: fixedNow, End: fixedNow.AddDate(0, 0, 3)})
	for i := 1; i < len(got); i++ {
		if got[i].ScheduledTime.Before(got[i-1].ScheduledTime) {
			t.Fatal("output not sorted by scheduled time")
		}
	}
}
