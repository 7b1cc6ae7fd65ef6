package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"

	"github.com/google/uuid"

	"github.com/msrishav-28/medipal-sub002/internal/domain"
)

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("not found")

// SQLiteRepo implements Repo using an embedded SQLite database.
type SQLiteRepo struct{ db *sql.DB }

// OpenSQLite opens (or creates) the SQLite database at the given path,
// applies recommended PRAGMAs, runs SQL migrations, and returns a repository.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepo, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Reasonable pooling for SQLite; it's a single-writer engine.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &SQLiteRepo{db: db}, nil
}

// applyPragmas configures the SQLite connection for durability and concurrency.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database resources.
func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

const medicationColumns = `id, user_id, name, dosage, schedule_type, times,
       interval_hours, days_of_week, start_date, end_date, is_active,
       created_at, updated_at`

// CreateMedication inserts a new medication. A zero id is assigned.
func (r *SQLiteRepo) CreateMedication(ctx context.Context, med *domain.Medication) error {
	if med == nil {
		return errors.New("nil medication")
	}
	if med.ID == uuid.Nil {
		med.ID = uuid.New()
	}
	now := time.Now().UTC()
	if med.CreatedAt.IsZero() {
		med.CreatedAt = now
	}
	med.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO medications (
			id, user_id, name, dosage, schedule_type, times,
			interval_hours, days_of_week, start_date, end_date, is_active,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		med.ID.String(), med.UserID.String(), med.Name, med.Dosage,
		string(med.ScheduleType), marshalJSON(med.Times),
		med.IntervalHours, marshalJSON(med.DaysOfWeek),
		med.StartDate.UTC().Unix(), toNullInt64(med.EndDate),
		boolToInt(med.IsActive),
		med.CreatedAt.Unix(), med.UpdatedAt.Unix(),
	)
	return err
}

// UpdateMedication replaces the stored definition for med.ID.
func (r *SQLiteRepo) UpdateMedication(ctx context.Context, med *domain.Medication) error {
	if med == nil {
		return errors.New("nil medication")
	}
	med.UpdatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
		UPDATE medications
		SET name = ?, dosage = ?, schedule_type = ?, times = ?,
		    interval_hours = ?, days_of_week = ?, start_date = ?, end_date = ?,
		    is_active = ?, updated_at = ?
		WHERE id = ?`,
		med.Name, med.Dosage, string(med.ScheduleType), marshalJSON(med.Times),
		med.IntervalHours, marshalJSON(med.DaysOfWeek),
		med.StartDate.UTC().Unix(), toNullInt64(med.EndDate),
		boolToInt(med.IsActive), med.UpdatedAt.Unix(),
		med.ID.String(),
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// DeleteMedication removes a medication row.
func (r *SQLiteRepo) DeleteMedication(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM medications WHERE id = ?`, id.String())
	if err != nil {
		return err
	}
	return requireRow(res)
}

// DeactivateMedication flips is_active off without deleting history.
func (r *SQLiteRepo) DeactivateMedication(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE medications SET is_active = 0, updated_at = ? WHERE id = ?`,
		time.Now().UTC().Unix(), id.String(),
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// GetMedication returns one medication by id.
func (r *SQLiteRepo) GetMedication(ctx context.Context, id uuid.UUID) (*domain.Medication, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+medicationColumns+` FROM medications WHERE id = ?`, id.String())
	med, err := scanMedication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("medication %s: %w", id, ErrNotFound)
	}
	return med, err
}

// GetByUserID returns all of a user's medications, newest first.
func (r *SQLiteRepo) GetByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Medication, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+medicationColumns+` FROM medications
		 WHERE user_id = ? ORDER BY created_at DESC`, userID.String())
	if err != nil {
		return nil, err
	}
	return collectMedications(rows)
}

// GetActiveMedications returns every active medication across users. The
// startup recovery pass reschedules from this set, since pending timers do
// not survive a restart.
func (r *SQLiteRepo) GetActiveMedications(ctx context.Context) ([]domain.Medication, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+medicationColumns+` FROM medications
		 WHERE is_active = 1 ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	return collectMedications(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMedication(row rowScanner) (*domain.Medication, error) {
	var (
		idStr, userStr, name, dosage   string
		schedType, timesJSON, daysJSON string
		intervalHours                  float64
		startUnix                      int64
		endNS                          sql.NullInt64
		activeInt                      int
		createdUnix, updatedUnix       int64
	)
	if err := row.Scan(
		&idStr, &userStr, &name, &dosage, &schedType, &timesJSON,
		&intervalHours, &daysJSON, &startUnix, &endNS, &activeInt,
		&createdUnix, &updatedUnix,
	); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("medication id: %w", err)
	}
	userID, err := uuid.Parse(userStr)
	if err != nil {
		return nil, fmt.Errorf("user id: %w", err)
	}

	med := &domain.Medication{
		ID:            id,
		UserID:        userID,
		Name:          name,
		Dosage:        dosage,
		ScheduleType:  domain.ScheduleType(schedType),
		IntervalHours: intervalHours,
		StartDate:     time.Unix(startUnix, 0).UTC(),
		EndDate:       fromNullInt64(endNS),
		IsActive:      activeInt != 0,
		CreatedAt:     time.Unix(createdUnix, 0).UTC(),
		UpdatedAt:     time.Unix(updatedUnix, 0).UTC(),
	}
	unmarshalJSON(timesJSON, &med.Times)
	unmarshalJSON(daysJSON, &med.DaysOfWeek)
	return med, nil
}

func collectMedications(rows *sql.Rows) ([]domain.Medication, error) {
	defer rows.Close()
	var res []domain.Medication
	for rows.Next() {
		med, err := scanMedication(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *med)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// GetSettings returns persisted settings for a user. When none were saved
// yet it returns an ErrNotFound-wrapped error so callers can fall back to
// their own configured defaults.
func (r *SQLiteRepo) GetSettings(ctx context.Context, userID uuid.UUID) (domain.Settings, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT quiet_enabled, quiet_start, quiet_end, max_snoozes,
		       snooze_minutes, sound, vibration
		FROM settings WHERE user_id = ?`, userID.String())

	var (
		quietInt, soundInt, vibInt int
		s                          domain.Settings
	)
	err := row.Scan(&quietInt, &s.Quiet.Start, &s.Quiet.End,
		&s.MaxSnoozes, &s.SnoozeMinutes, &soundInt, &vibInt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Settings{}, fmt.Errorf("settings for %s: %w", userID, ErrNotFound)
	}
	if err != nil {
		return domain.Settings{}, err
	}
	s.Quiet.Enabled = quietInt != 0
	s.Sound = soundInt != 0
	s.Vibration = vibInt != 0
	return s, nil
}

// SaveSettings upserts a user's settings.
func (r *SQLiteRepo) SaveSettings(ctx context.Context, userID uuid.UUID, s domain.Settings) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO settings (
			user_id, quiet_enabled, quiet_start, quiet_end,
			max_snoozes, snooze_minutes, sound, vibration
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			quiet_enabled  = excluded.quiet_enabled,
			quiet_start    = excluded.quiet_start,
			quiet_end      = excluded.quiet_end,
			max_snoozes    = excluded.max_snoozes,
			snooze_minutes = excluded.snooze_minutes,
			sound          = excluded.sound,
			vibration      = excluded.vibration`,
		userID.String(), boolToInt(s.Quiet.Enabled), s.Quiet.Start, s.Quiet.End,
		s.MaxSnoozes, s.SnoozeMinutes, boolToInt(s.Sound), boolToInt(s.Vibration),
	)
	return err
}

// LinkChat binds a user to a chat, enabling deliveries there.
func (r *SQLiteRepo) LinkChat(ctx context.Context, userID uuid.UUID, chatID int64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO chat_links (user_id, chat_id, enabled, created_at)
		VALUES (?, ?, 1, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			chat_id = excluded.chat_id,
			enabled = 1`,
		userID.String(), chatID, time.Now().UTC().Unix(),
	)
	return err
}

// SetChatEnabled toggles deliveries for an existing chat link.
func (r *SQLiteRepo) SetChatEnabled(ctx context.Context, userID uuid.UUID, enabled bool) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE chat_links SET enabled = ? WHERE user_id = ?`,
		boolToInt(enabled), userID.String(),
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// ChatLink returns the user's chat link, or nil when none exists.
func (r *SQLiteRepo) ChatLink(ctx context.Context, userID uuid.UUID) (*domain.ChatLink, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT chat_id, enabled FROM chat_links WHERE user_id = ?`, userID.String())

	var (
		chatID     int64
		enabledInt int
	)
	err := row.Scan(&chatID, &enabledInt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &domain.ChatLink{UserID: userID, ChatID: chatID, Enabled: enabledInt != 0}, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
