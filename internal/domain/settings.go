package domain

import "time"

// QuietHours is a configured window during which reminders are computed but
// not delivered. Start and End are "HH:MM"; the window may span midnight.
type QuietHours struct {
	Enabled bool
	Start   string
	End     string
}

// Settings mirror the externally persisted per-user preferences this engine
// reads. The engine does not own their persistence.
type Settings struct {
	Quiet         QuietHours
	MaxSnoozes    int
	SnoozeMinutes int
	Sound         bool
	Vibration     bool
}

// DefaultSettings are used when no persisted settings exist for a user.
func DefaultSettings() Settings {
	return Settings{
		Quiet:         QuietHours{Enabled: false, Start: "22:00", End: "07:00"},
		MaxSnoozes:    3,
		SnoozeMinutes: 10,
		Sound:         true,
		Vibration:     true,
	}
}

// IsQuietHours reports whether now falls inside the suppression window.
// It is evaluated at delivery time, not at materialization time. A window
// with malformed start or end never suppresses: a broken configuration must
// not be able to permanently silence reminders.
func IsQuietHours(now time.Time, qh QuietHours) bool {
	if !qh.Enabled {
		return false
	}
	startM, err := ParseHHMM(qh.Start)
	if err != nil {
		return false
	}
	endM, err := ParseHHMM(qh.End)
	if err != nil {
		return false
	}
	nowM := MinuteOfDay(now)
	if startM <= endM {
		return nowM >= startM && nowM <= endM
	}
	// spans midnight, e.g. 22:00..07:00
	return nowM >= startM || nowM <= endM
}
