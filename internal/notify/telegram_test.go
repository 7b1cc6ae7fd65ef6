package notify

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func samplePayload() Payload {
	return Payload{
		Title: "Medication reminder",
		Body:  "Time to take Vitamin D3 (1000 IU)",
		Data: Data{
			Type:         "medication_reminder",
			MedicationID: uuid.New().String(),
			ReminderID:   uuid.New().String() + "@1741000000000",
			UserID:       uuid.New().String(),
			Timestamp:    time.Now(),
		},
		Actions: []Action{
			{Action: ActionTaken, Title: "Taken"},
			{Action: ActionSnooze, Title: "Snooze"},
			{Action: ActionSkip, Title: "Skip"},
		},
	}
}

func TestRenderText(t *testing.T) {
	p := samplePayload()
	text := renderText(p)
	if !strings.Contains(text, p.Title) || !strings.Contains(text, p.Body) {
		t.Fatalf("rendered text missing title or body: %q", text)
	}

	p.Body = ""
	if got := renderText(p); got != p.Title {
		t.Fatalf("title-only payload rendered as %q", got)
	}
}

func TestRenderKeyboard_CorrelatesReminder(t *testing.T) {
	p := samplePayload()
	kb, ok := renderKeyboard(p)
	if !ok {
		t.Fatal("want a keyboard for payload with actions")
	}
	if len(kb.InlineKeyboard) != 1 || len(kb.InlineKeyboard[0]) != 3 {
		t.Fatalf("want one row of 3 buttons, got %v", kb.InlineKeyboard)
	}
	for i, btn := range kb.InlineKeyboard[0] {
		data := *btn.CallbackData
		action, id, found := strings.Cut(data, ":")
		if !found {
			t.Fatalf("button %d data %q not action:id", i, data)
		}
		if action != p.Actions[i].Action {
			t.Fatalf("button %d action %q, want %q", i, action, p.Actions[i].Action)
		}
		if id != p.Data.ReminderID {
			t.Fatalf("button %d reminder id %q, want %q", i, id, p.Data.ReminderID)
		}
	}
}

func TestRenderKeyboard_NoActions(t *testing.T) {
	p := samplePayload()
	p.Actions = nil
	if _, ok := renderKeyboard(p); ok {
		t.Fatal("want no keyboard for payload without actions")
	}
}
