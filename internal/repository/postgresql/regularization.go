package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hrms-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hrms-backend-go/internal/domain/regularization"
	"github.com/cmlabs-hris/hrms-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/hrms-backend-go/internal/pkg/validator"
	"github.com/jackc/pgx/v5"
)

const regularizationColumns = `
	r.id, r.company_id, r.employee_id, r.attendance_date, r.type,
	r.proposed_check_in, r.proposed_check_out, r.proposed_status, r.reason, r.status,
	r.attendance_id, r.reviewed_by, r.reviewed_at, r.rejection_reason,
	r.created_at, r.updated_at, e.full_name`

type regularizationRepository struct {
	db *database.DB
}

func NewRegularizationRepository(db *database.DB) regularization.RegularizationRepository {
	return &regularizationRepository{db: db}
}

func scanRegularization(row pgx.Row) (regularization.Regularization, error) {
	var reg regularization.Regularization
	var regType, status string
	var proposedStatus *string
	err := row.Scan(
		&reg.ID, &reg.CompanyID, &reg.EmployeeID, &reg.AttendanceDate, &regType,
		&reg.ProposedCheckIn, &reg.ProposedCheckOut, &proposedStatus, &reg.Reason, &status,
		&reg.AttendanceID, &reg.ReviewedBy, &reg.ReviewedAt, &reg.RejectionReason,
		&reg.CreatedAt, &reg.UpdatedAt, &reg.EmployeeName,
	)
	if err != nil {
		return regularization.Regularization{}, err
	}
	reg.Type = regularization.Type(regType)
	reg.Status = regularization.Status(status)
	if proposedStatus != nil {
		reg.ProposedStatus = attendance.StatusPtr(attendance.Status(*proposedStatus))
	}
	return reg, nil
}

// Create implements regularization.RegularizationRepository.
func (r *regularizationRepository) Create(ctx context.Context, reg regularization.Regularization) (regularization.Regularization, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		WITH inserted AS (
			INSERT INTO regularizations (
				company_id, employee_id, attendance_date, type,
				proposed_check_in, proposed_check_out, proposed_status, reason, status
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING *
		)
		SELECT ` + regularizationColumns + `
		FROM inserted r
		LEFT JOIN employees e ON e.id = r.employee_id
	`

	created, err := scanRegularization(q.QueryRow(ctx, query,
		reg.CompanyID, reg.EmployeeID, reg.AttendanceDate, string(reg.Type),
		reg.ProposedCheckIn, reg.ProposedCheckOut, statusArg(reg.ProposedStatus), reg.Reason, string(reg.Status),
	))
	if err != nil {
		if isUniqueViolation(err) {
			return regularization.Regularization{}, regularization.ErrPendingRequestExists
		}
		return regularization.Regularization{}, fmt.Errorf("failed to create regularization: %w", err)
	}

	return created, nil
}

// GetByID implements regularization.RegularizationRepository.
func (r *regularizationRepository) GetByID(ctx context.Context, id string, companyID string) (regularization.Regularization, error) {
	if !validator.IsValidUUID(id) {
		return regularization.Regularization{}, regularization.ErrRegularizationNotFound
	}

	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + regularizationColumns + `
		FROM regularizations r
		LEFT JOIN employees e ON e.id = r.employee_id
		WHERE r.id = $1 AND r.company_id = $2
	`

	reg, err := scanRegularization(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return regularization.Regularization{}, regularization.ErrRegularizationNotFound
		}
		return regularization.Regularization{}, fmt.Errorf("failed to get regularization: %w", err)
	}

	return reg, nil
}

// List implements regularization.RegularizationRepository.
func (r *regularizationRepository) List(ctx context.Context, filter regularization.RegularizationFilter, companyID string) ([]regularization.Regularization, int64, error) {
	q := GetQuerier(ctx, r.db)

	baseWhere := "r.company_id = $1"
	args := []interface{}{companyID}
	argIdx := 2

	if filter.EmployeeID != nil && *filter.EmployeeID != "" {
		baseWhere += fmt.Sprintf(" AND r.employee_id = $%d", argIdx)
		args = append(args, *filter.EmployeeID)
		argIdx++
	}
	if filter.Status != nil && *filter.Status != "" {
		baseWhere += fmt.Sprintf(" AND r.status = $%d", argIdx)
		args = append(args, *filter.Status)
		argIdx++
	}

	var total int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM regularizations r WHERE "+baseWhere, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count regularizations: %w", err)
	}

	selectQuery := fmt.Sprintf(`
		SELECT %s
		FROM regularizations r
		LEFT JOIN employees e ON e.id = r.employee_id
		WHERE %s
		ORDER BY r.created_at DESC, r.id
		LIMIT $%d OFFSET $%d
	`, regularizationColumns, baseWhere, argIdx, argIdx+1)

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
		return nil, 0, fmt.Errorf("failed to query regularizations: %w", err)
	}
	defer rows.Close()

	var regs []regularization.Regularization
	for rows.Next() {
		reg, err := scanRegularization(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan regularization: %w", err)
		}
		regs = append(regs, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate regularizations: %w", err)
	}

	return regs, total, nil
}

// HasPending implements regularization.RegularizationRepository.
func (r *regularizationRepository) HasPending(ctx context.Context, employeeID string, date time.Time, companyID string) (bool, error) {
	q := GetQuerier(ctx, r.db)

	var exists bool
	err := q.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM regularizations
			WHERE employee_id = $1 AND attendance_date = $2 AND company_id = $3 AND status = 'pending'
		)
	`, employeeID, date, companyID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check pending regularization: %w", err)
	}

	return exists, nil
}

// Review implements regularization.RegularizationRepository.
func (r *regularizationRepository) Review(ctx context.Context, reg regularization.Regularization) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE regularizations
		SET status = $1, attendance_id = $2, reviewed_by = $3, reviewed_at = $4,
			rejection_reason = $5, updated_at = NOW()
		WHERE id = $6 AND company_id = $7 AND status = 'pending'
	`

	tag, err := q.Exec(ctx, query,
		string(reg.Status), reg.AttendanceID, reg.ReviewedBy, reg.ReviewedAt, reg.RejectionReason,
		reg.ID, reg.CompanyID,
	)
	if err != nil {
		return fmt.Errorf("failed to review regularization: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return regularization.ErrAlreadyProcessed
	}

	return nil
}
