package domain

import (
	"time"

	"github.com/google/uuid"
)

// TransitionEvent describes one lifecycle transition. Every transition
// emits one, for consumption by external collaborators such as the UI or
// caregiver notifications.
type TransitionEvent struct {
	ReminderID   ReminderID
	MedicationID uuid.UUID
	From         State
	To           State
	At           time.Time
}

// ChatLink binds an engine user to a messaging chat that can receive
// deliveries. A missing link means permission was never decided; a disabled
// link means the user revoked it.
type ChatLink struct {
	UserID  uuid.UUID
	ChatID  int64
	Enabled bool
}
