package scheduler

import (
	"fmt"
	"time"

	"github.com/msrishav-28/medipal-sub002/internal/domain"
	"github.com/msrishav-28/medipal-sub002/internal/notify"
)

// payloadType tags deliveries so receiving action handlers can dispatch.
const payloadType = "medication_reminder"

// buildPayload renders a reminder as a platform notification. The data
// block carries the ids the action handler needs to correlate the user's
// response back to this reminder.
func buildPayload(r domain.Reminder, now time.Time) notify.Payload {
	body := fmt.Sprintf("Time to take %s", r.MedicationName)
	if r.Dosage != "" {
		body = fmt.Sprintf("Time to take %s (%s)", r.MedicationName, r.Dosage)
	}
	if r.SnoozeCount > 0 {
		body += fmt.Sprintf(" (snooze %d of %d)", r.SnoozeCount, r.MaxSnoozes)
	}
	return notify.Payload{
		Title: "Medication reminder",
		Body:  body,
		Data: notify.Data{
			Type:         payloadType,
			MedicationID: r.MedicationID.String(),
			ReminderID:   r.ID.String(),
			UserID:       r.UserID.String(),
			Timestamp:    now,
		},
		Actions: []notify.Action{
			{Action: notify.ActionTaken, Title: "Taken"},
			{Action: notify.ActionSnooze, Title: "Snooze"},
			{Action: notify.ActionSkip, Title: "Skip"},
		},
	}
}
