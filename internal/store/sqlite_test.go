package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/msrishav-28/medipal-sub002/internal/domain"
)

func openTestRepo(t *testing.T) *SQLiteRepo {
	t.Helper()
	repo, err := OpenSQLite(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func sampleMedication(userID uuid.UUID) *domain.Medication {
	return &domain.Medication{
		UserID:       userID,
		Name:         "Metformin",
		Dosage:       "500 mg",
		ScheduleType: domain.ScheduleTimeBased,
		Times:        []string{"08:00", "20:00"},
		DaysOfWeek:   []time.Weekday{time.Monday, time.Thursday},
		StartDate:    time.Date(2025, time.March, 1, 8, 0, 0, 0, time.UTC),
		IsActive:     true,
	}
}

func TestMedicationCRUD(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	userID := uuid.New()

	med := sampleMedication(userID)
	if err := repo.CreateMedication(ctx, med); err != nil {
		t.Fatalf("create: %v", err)
	}
	if med.ID == uuid.Nil {
		t.Fatal("create must assign an id")
	}

	got, err := repo.GetMedication(ctx, med.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != med.Name || got.Dosage != med.Dosage {
		t.Fatalf("got %q/%q, want %q/%q", got.Name, got.Dosage, med.Name, med.Dosage)
	}
	if len(got.Times) != 2 || got.Times[0] != "08:00" {
		t.Fatalf("times round trip broken: %v", got.Times)
	}
	if len(got.DaysOfWeek) != 2 || got.DaysOfWeek[1] != time.Thursday {
		t.Fatalf("days round trip broken: %v", got.DaysOfWeek)
	}

	got.Dosage = "850 mg"
	got.Times = []string{"09:00"}
	if err := repo.UpdateMedication(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}
	got2, err := repo.GetMedication(ctx, med.ID)
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if got2.Dosage != "850 mg" || len(got2.Times) != 1 {
		t.Fatalf("update not persisted: %+v", got2)
	}

	if err := repo.DeleteMedication(ctx, med.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetMedication(ctx, med.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound after delete, got %v", err)
	}
}

func TestGetActiveMedications_SkipsInactive(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	userID := uuid.New()

	active := sampleMedication(userID)
	if err := repo.CreateMedication(ctx, active); err != nil {
		t.Fatalf("create active: %v", err)
	}
	inactive := sampleMedication(userID)
	inactive.Name = "Old prescription"
	if err := repo.CreateMedication(ctx, inactive); err != nil {
		t.Fatalf("create inactive: %v", err)
	}
	if err := repo.DeactivateMedication(ctx, inactive.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	meds, err := repo.GetActiveMedications(ctx)
	if err != nil {
		t.Fatalf("get active: %v", err)
	}
	if len(meds) != 1 || meds[0].ID != active.ID {
		t.Fatalf("want only the active medication, got %d", len(meds))
	}

	all, err := repo.GetByUserID(ctx, userID)
	if err != nil {
		t.Fatalf("get by user: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("deactivation must not delete, got %d rows", len(all))
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	userID := uuid.New()

	// No row yet: the caller decides the defaults, so this is a miss.
	if _, err := repo.GetSettings(ctx, userID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound for unknown user, got %v", err)
	}

	want := domain.Settings{
		Quiet:         domain.QuietHours{Enabled: true, Start: "21:30", End: "06:45"},
		MaxSnoozes:    5,
		SnoozeMinutes: 15,
		Sound:         false,
		Vibration:     true,
	}
	if err := repo.SaveSettings(ctx, userID, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := repo.GetSettings(ctx, userID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != want {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, want)
	}
}

func TestChatLinkLifecycle(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	userID := uuid.New()

	link, err := repo.ChatLink(ctx, userID)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if link != nil {
		t.Fatalf("want no link for unknown user, got %+v", link)
	}

	if err := repo.LinkChat(ctx, userID, 42); err != nil {
		t.Fatalf("link: %v", err)
	}
	link, err = repo.ChatLink(ctx, userID)
	if err != nil || link == nil {
		t.Fatalf("lookup after link: %v, %v", link, err)
	}
	if link.ChatID != 42 || !link.Enabled {
		t.Fatalf("unexpected link %+v", link)
	}

	if err := repo.SetChatEnabled(ctx, userID, false); err != nil {
		t.Fatalf("disable: %v", err)
	}
	link, _ = repo.ChatLink(ctx, userID)
	if link.Enabled {
		t.Fatal("link must be disabled")
	}

	// Relinking re-enables.
	if err := repo.LinkChat(ctx, userID, 43); err != nil {
		t.Fatalf("relink: %v", err)
	}
	link, _ = repo.ChatLink(ctx, userID)
	if link.ChatID != 43 || !link.Enabled {
		t.Fatalf("relink must update chat and re-enable, got %+v", link)
	}
}
