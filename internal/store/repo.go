package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/msrishav-28/medipal-sub002/internal/domain"
)

// Repo defines the medication repository and settings store the scheduling
// engine consumes. Mutations do not reschedule anything by themselves; the
// caller must invoke the scheduler afterwards (manual, synchronous contract).
type Repo interface {
	CreateMedication(ctx context.Context, med *domain.Medication) error
	UpdateMedication(ctx context.Context, med *domain.Medication) error
	DeleteMedication(ctx context.Context, id uuid.UUID) error
	DeactivateMedication(ctx context.Context, id uuid.UUID) error
	GetMedication(ctx context.Context, id uuid.UUID) (*domain.Medication, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Medication, error)
	GetActiveMedications(ctx context.Context) ([]domain.Medication, error)

	GetSettings(ctx context.Context, userID uuid.UUID) (domain.Settings, error)
	SaveSettings(ctx context.Context, userID uuid.UUID, s domain.Settings) error

	LinkChat(ctx context.Context, userID uuid.UUID, chatID int64) error
	SetChatEnabled(ctx context.Context, userID uuid.UUID, enabled bool) error
	ChatLink(ctx context.Context, userID uuid.UUID) (*domain.ChatLink, error)

	Close() error
}
