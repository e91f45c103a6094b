package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/hrms-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hrms-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/hrms-backend-go/internal/pkg/validator"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const attendanceColumns = `
	a.id, a.company_id, a.employee_id, a.date, a.check_in, a.check_out, a.work_hours,
	a.status, a.status_overridden, a.notes, a.edit_reason, a.edited_by, a.version,
	a.created_at, a.updated_at, e.full_name, e.employee_code`

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}

func scanAttendance(row pgx.Row) (attendance.Attendance, error) {
	var att attendance.Attendance
	var status *string
	err := row.Scan(
		&att.ID, &att.CompanyID, &att.EmployeeID, &att.Date, &att.CheckIn, &att.CheckOut, &att.WorkHours,
		&status, &att.StatusOverridden, &att.Notes, &att.EditReason, &att.EditedBy, &att.Version,
		&att.CreatedAt, &att.UpdatedAt, &att.EmployeeName, &att.EmployeeCode,
	)
	if err != nil {
		return attendance.Attendance{}, err
	}
	if status != nil {
		att.Status = attendance.StatusPtr(attendance.Status(*status))
	}
	return att, nil
}

func statusArg(s *attendance.Status) *string {
	if s == nil {
		return nil
	}
	v := string(*s)
	return &v
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Create implements attendance.AttendanceRepository.
func (a *attendanceRepository) Create(ctx context.Context, newAttendance attendance.Attendance) (attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		WITH inserted AS (
			INSERT INTO attendances (
				company_id, employee_id, date, check_in, check_out, work_hours,
				status, status_overridden, notes, edit_reason, edited_by
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING *
		)
		SELECT ` + attendanceColumns + `
		FROM inserted a
		LEFT JOIN employees e ON e.id = a.employee_id
	`

	created, err := scanAttendance(q.QueryRow(ctx, query,
		newAttendance.CompanyID, newAttendance.EmployeeID, newAttendance.Date,
		newAttendance.CheckIn, newAttendance.CheckOut, newAttendance.WorkHours,
		statusArg(newAttendance.Status), newAttendance.StatusOverridden, newAttendance.Notes,
		newAttendance.EditReason, newAttendance.EditedBy,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return attendance.Attendance{}, attendance.ErrAttendanceAlreadyExists
		}
		return attendance.Attendance{}, fmt.Errorf("failed to create attendance: %w", err)
	}

	return created, nil
}

// GetByID implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByID(ctx context.Context, id string, companyID string) (attendance.Attendance, error) {
	if !validator.IsValidUUID(id) {
		return attendance.Attendance{}, attendance.ErrAttendanceNotFound
	}

	q := GetQuerier(ctx, a.db)

	query := `
		SELECT ` + attendanceColumns + `
		FROM attendances a
		LEFT JOIN employees e ON e.id = a.employee_id
		WHERE a.id = $1 AND a.company_id = $2
	`

	att, err := scanAttendance(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return attendance.Attendance{}, attendance.ErrAttendanceNotFound
		}
		return attendance.Attendance{}, fmt.Errorf("failed to get attendance: %w", err)
	}

	return att, nil
}

// GetByEmployeeAndDate implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time, companyID string) (*attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT ` + attendanceColumns + `
		FROM attendances a
		LEFT JOIN employees e ON e.id = a.employee_id
		WHERE a.employee_id = $1 AND a.date = $2 AND a.company_id = $3
	`

	att, err := scanAttendance(q.QueryRow(ctx, query, employeeID, date, companyID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get attendance by date: %w", err)
	}

	return &att, nil
}

// Update implements attendance.AttendanceRepository.
func (a *attendanceRepository) Update(ctx context.Context, att attendance.Attendance, expectedVersion *int) (attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	where := "id = $10 AND company_id = $11"
	args := []interface{}{
		att.CheckIn, att.CheckOut, att.WorkHours, statusArg(att.Status), att.StatusOverridden,
		att.Notes, att.EditReason, att.EditedBy, time.Now(),
		att.ID, att.CompanyID,
	}
	if expectedVersion != nil {
		where += " AND version = $12"
		args = append(args, *expectedVersion)
	}

	query := `
		WITH updated AS (
			UPDATE attendances SET
				check_in = $1, check_out = $2, work_hours = $3,
				status = $4, status_overridden = $5, notes = $6,
				edit_reason = $7, edited_by = $8, updated_at = $9,
				version = version + 1
			WHERE ` + where + `
			RETURNING *
		)
		SELECT ` + attendanceColumns + `
		FROM updated a
		LEFT JOIN employees e ON e.id = a.employee_id
	`

	updated, err := scanAttendance(q.QueryRow(ctx, query, args...))
	if err != nil {
		if err == pgx.ErrNoRows {
			if expectedVersion != nil {
				// distinguish a stale version from a missing row
				if _, getErr := a.GetByID(ctx, att.ID, att.CompanyID); getErr == nil {
					return attendance.Attendance{}, attendance.ErrVersionConflict
				}
			}
			return attendance.Attendance{}, attendance.ErrAttendanceNotFound
		}
		return attendance.Attendance{}, fmt.Errorf("failed to update attendance: %w", err)
	}

	return updated, nil
}

// List implements attendance.AttendanceRepository.
func (a *attendanceRepository) List(ctx context.Context, filter attendance.AttendanceFilter, companyID string) ([]attendance.Attendance, int64, error) {
	q := GetQuerier(ctx, a.db)

	// Build WHERE clause
	baseWhere := "a.company_id = $1"
	args := []interface{}{companyID}
	argIdx := 2

	if filter.EmployeeID != nil && *filter.EmployeeID != "" {
		baseWhere += fmt.Sprintf(" AND a.employee_id = $%d", argIdx)
		args = append(args, *filter.EmployeeID)
		argIdx++
	}

	// Date range filters
	if filter.StartDate != nil && *filter.StartDate != "" {
		baseWhere += fmt.Sprintf(" AND a.date >= $%d", argIdx)
		args = append(args, *filter.StartDate)
		argIdx++
	}
	if filter.EndDate != nil && *filter.EndDate != "" {
		baseWhere += fmt.Sprintf(" AND a.date <= $%d", argIdx)
		args = append(args, *filter.EndDate)
		argIdx++
	}

	if filter.Status != nil && *filter.Status != "" {
		baseWhere += fmt.Sprintf(" AND a.status = $%d", argIdx)
		args = append(args, *filter.Status)
		argIdx++
	}

	countQuery := `
		SELECT COUNT(*)
		FROM attendances a
		WHERE ` + baseWhere
	var total int64
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count attendances: %w", err)
	}

	// Build ORDER BY
	orderByField := "a.date"
	switch filter.SortBy {
	case "employee_name":
		orderByField = "e.full_name"
	case "check_in":
		orderByField = "a.check_in"
	case "status":
		orderByField = "a.status"
	}
	sortOrder := "DESC"
	if strings.ToLower(filter.SortOrder) == "asc" {
		sortOrder = "ASC"
	}

	selectQuery := fmt.Sprintf(`
		SELECT %s
		FROM attendances a
		LEFT JOIN employees e ON e.id = a.employee_id
		WHERE %s
		ORDER BY %s %s, a.id
		LIMIT $%d OFFSET $%d
	`, attendanceColumns, baseWhere, orderByField, sortOrder, argIdx, argIdx+1)

	limit := filter.Limit
	if limit == 0 {
		limit = 20
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	args = append(args, limit, (page-1)*limit)

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query attendances: %w", err)
	}
	defer rows.Close()

	attendances, err := collectAttendances(rows)
	if err != nil {
		return nil, 0, err
	}

	return attendances, total, nil
}

// ListByEmployeeAndRange implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListByEmployeeAndRange(ctx context.Context, employeeID string, from, to time.Time, companyID string) ([]attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT ` + attendanceColumns + `
		FROM attendances a
		LEFT JOIN employees e ON e.id = a.employee_id
		WHERE a.employee_id = $1 AND a.company_id = $2 AND a.date BETWEEN $3 AND $4
		ORDER BY a.date
	`

	rows, err := q.Query(ctx, query, employeeID, companyID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query employee attendances: %w", err)
	}
	defer rows.Close()

	return collectAttendances(rows)
}

// ListByCompanyAndRange implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListByCompanyAndRange(ctx context.Context, companyID string, from, to time.Time) ([]attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT ` + attendanceColumns + `
		FROM attendances a
		LEFT JOIN employees e ON e.id = a.employee_id
		WHERE a.company_id = $1 AND a.date BETWEEN $2 AND $3
		ORDER BY e.full_name, a.date
	`

	rows, err := q.Query(ctx, query, companyID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query company attendances: %w", err)
	}
	defer rows.Close()

	return collectAttendances(rows)
}

// BulkCreateAbsences implements attendance.AttendanceRepository.
func (a *attendanceRepository) BulkCreateAbsences(ctx context.Context, records []attendance.Attendance) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}
	q := GetQuerier(ctx, a.db)

	query := `
		INSERT INTO attendances (company_id, employee_id, date, status, status_overridden, notes, edit_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (employee_id, date) DO NOTHING
	`

	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(query,
			rec.CompanyID, rec.EmployeeID, rec.Date, statusArg(rec.Status),
			rec.StatusOverridden, rec.Notes, rec.EditReason,
		)
	}

	br := q.SendBatch(ctx, batch)
	defer br.Close()

	var inserted int64
	for range records {
		tag, err := br.Exec()
		if err != nil {
			return inserted, fmt.Errorf("failed to insert absence: %w", err)
		}
		inserted += tag.RowsAffected()
	}

	return inserted, nil
}

func collectAttendances(rows pgx.Rows) ([]attendance.Attendance, error) {
	var attendances []attendance.Attendance
	for rows.Next() {
		att, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		attendances = append(attendances, att)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendances: %w", err)
	}
	return attendances, nil
}
