package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hrms-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hrms-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type attendanceSettingsRepository struct {
	db *database.DB
}

func NewAttendanceSettingsRepository(db *database.DB) attendance.SettingsRepository {
	return &attendanceSettingsRepository{db: db}
}

// Get implements attendance.SettingsRepository.
func (r *attendanceSettingsRepository) Get(ctx context.Context, companyID string) (attendance.Settings, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT company_id, standard_work_hours, half_day_threshold, allow_self_clock_in, updated_at
		FROM attendance_settings
		WHERE company_id = $1
	`

	var s attendance.Settings
	err := q.QueryRow(ctx, query, companyID).Scan(
		&s.CompanyID, &s.StandardWorkHours, &s.HalfDayThreshold, &s.AllowSelfClockIn, &s.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return attendance.Settings{}, attendance.ErrSettingsNotFound
		}
		return attendance.Settings{}, fmt.Errorf("failed to get attendance settings: %w", err)
	}

	return s, nil
}

// Upsert implements attendance.SettingsRepository.
func (r *attendanceSettingsRepository) Upsert(ctx context.Context, settings attendance.Settings) (attendance.Settings, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO attendance_settings (company_id, standard_work_hours, half_day_threshold, allow_self_clock_in)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (company_id) DO UPDATE SET
			standard_work_hours = EXCLUDED.standard_work_hours,
			half_day_threshold = EXCLUDED.half_day_threshold,
			allow_self_clock_in = EXCLUDED.allow_self_clock_in,
			updated_at = NOW()
		RETURNING company_id, standard_work_hours, half_day_threshold, allow_self_clock_in, updated_at
	`

	var s attendance.Settings
	err := q.QueryRow(ctx, query,
		settings.CompanyID, settings.StandardWorkHours, settings.HalfDayThreshold, settings.AllowSelfClockIn,
	).Scan(
		&s.CompanyID, &s.StandardWorkHours, &s.HalfDayThreshold, &s.AllowSelfClockIn, &s.UpdatedAt,
	)
	if err != nil {
		return attendance.Settings{}, fmt.Errorf("failed to upsert attendance settings: %w", err)
	}

	return s, nil
}
