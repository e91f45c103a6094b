package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hrms-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hrms-backend-go/internal/pkg/database"
)

type holidayRepository struct {
	db *database.DB
}

func NewHolidayRepository(db *database.DB) attendance.HolidayRepository {
	return &holidayRepository{db: db}
}

// Create implements attendance.HolidayRepository.
func (r *holidayRepository) Create(ctx context.Context, holiday attendance.Holiday) (attendance.Holiday, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO holidays (company_id, date, name)
		VALUES ($1, $2, $3)
		RETURNING id, company_id, date, name, created_at
	`

	var h attendance.Holiday
	err := q.QueryRow(ctx, query, holiday.CompanyID, holiday.Date, holiday.Name).Scan(
		&h.ID, &h.CompanyID, &h.Date, &h.Name, &h.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return attendance.Holiday{}, attendance.ErrHolidayExists
		}
		return attendance.Holiday{}, fmt.Errorf("failed to create holiday: %w", err)
	}

	return h, nil
}

// ListByRange implements attendance.HolidayRepository.
func (r *holidayRepository) ListByRange(ctx context.Context, companyID string, from, to time.Time) ([]attendance.Holiday, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, company_id, date, name, created_at
		FROM holidays
		WHERE company_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date
	`

	rows, err := q.Query(ctx, query, companyID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query holidays: %w", err)
	}
	defer rows.Close()

	var holidays []attendance.Holiday
	for rows.Next() {
		var h attendance.Holiday
		if err := rows.Scan(&h.ID, &h.CompanyID, &h.Date, &h.Name, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan holiday: %w", err)
		}
		holidays = append(holidays, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate holidays: %w", err)
	}

	return holidays, nil
}

// IsHoliday implements attendance.HolidayRepository.
func (r *holidayRepository) IsHoliday(ctx context.Context, companyID string, date time.Time) (bool, error) {
	q := GetQuerier(ctx, r.db)

	var exists bool
	err := q.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM holidays WHERE company_id = $1 AND date = $2)`,
		companyID, date,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check holiday: %w", err)
	}

	return exists, nil
}
