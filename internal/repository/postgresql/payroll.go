package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hrms-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hrms-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/hrms-backend-go/internal/pkg/validator"
	"github.com/jackc/pgx/v5"
)

type payrollRepository struct {
	db *database.DB
}

func NewPayrollRepository(db *database.DB) payroll.PayrollRepository {
	return &payrollRepository{db: db}
}

// ========== SLIPS ==========

const slipColumns = `
	s.id, s.company_id, s.employee_id, s.month, s.year,
	s.basic_salary, s.hra, s.da, s.reimbursements, s.bonus,
	s.pf, s.tax, s.loss_of_pay, s.other,
	s.gross_salary, s.total_deductions, s.net_salary, s.total_days, s.absent_days,
	s.batch_id, s.run_id, s.generated_at, s.created_by, s.created_at,
	e.full_name, e.employee_code`

const insertSlipQuery = `
	INSERT INTO salary_slips (
		company_id, employee_id, month, year,
		basic_salary, hra, da, reimbursements, bonus,
		pf, tax, loss_of_pay, other,
		gross_salary, total_deductions, net_salary, total_days, absent_days,
		batch_id, run_id, generated_at, created_by
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)`

func scanSlip(row pgx.Row) (payroll.SalarySlip, error) {
	var s payroll.SalarySlip
	err := row.Scan(
		&s.ID, &s.CompanyID, &s.EmployeeID, &s.Month, &s.Year,
		&s.Earnings.Basic, &s.Earnings.HRA, &s.Earnings.DA, &s.Earnings.Reimbursements, &s.Earnings.Bonus,
		&s.Deductions.PF, &s.Deductions.Tax, &s.Deductions.LossOfPay, &s.Deductions.Other,
		&s.Gross, &s.TotalDeductions, &s.Net, &s.TotalDays, &s.AbsentDays,
		&s.BatchID, &s.RunID, &s.GeneratedAt, &s.CreatedBy, &s.CreatedAt,
		&s.EmployeeName, &s.EmployeeCode,
	)
	return s, err
}

func slipArgs(s payroll.SalarySlip) []interface{} {
	return []interface{}{
		s.CompanyID, s.EmployeeID, s.Month, s.Year,
		s.Earnings.Basic, s.Earnings.HRA, s.Earnings.DA, s.Earnings.Reimbursements, s.Earnings.Bonus,
		s.Deductions.PF, s.Deductions.Tax, s.Deductions.LossOfPay, s.Deductions.Other,
		s.Gross, s.TotalDeductions, s.Net, s.TotalDays, s.AbsentDays,
		s.BatchID, s.RunID, s.GeneratedAt, s.CreatedBy,
	}
}

func (r *payrollRepository) CreateSlip(ctx context.Context, slip payroll.SalarySlip) (payroll.SalarySlip, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		WITH inserted AS (` + insertSlipQuery + `
			RETURNING *
		)
		SELECT ` + slipColumns + `
		FROM inserted s
		LEFT JOIN employees e ON e.id = s.employee_id
	`

	created, err := scanSlip(q.QueryRow(ctx, query, slipArgs(slip)...))
	if err != nil {
		return payroll.SalarySlip{}, fmt.Errorf("failed to create salary slip: %w", err)
	}

	return created, nil
}

func (r *payrollRepository) CreateSlips(ctx context.Context, slips []payroll.SalarySlip) error {
	if len(slips) == 0 {
		return nil
	}
	q := GetQuerier(ctx, r.db)

	batch := &pgx.Batch{}
	for _, s := range slips {
		batch.Queue(insertSlipQuery, slipArgs(s)...)
	}

	br := q.SendBatch(ctx, batch)
	defer br.Close()

	for i := range slips {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to insert salary slip for employee %s: %w", slips[i].EmployeeID, err)
		}
	}

	return nil
}

func (r *payrollRepository) GetSlipByID(ctx context.Context, id string, companyID string) (payroll.SalarySlip, error) {
	if !validator.IsValidUUID(id) {
		return payroll.SalarySlip{}, payroll.ErrSlipNotFound
	}

	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + slipColumns + `
		FROM salary_slips s
		LEFT JOIN employees e ON e.id = s.employee_id
		WHERE s.id = $1 AND s.company_id = $2
	`

	s, err := scanSlip(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return payroll.SalarySlip{}, payroll.ErrSlipNotFound
		}
		return payroll.SalarySlip{}, fmt.Errorf("failed to get salary slip: %w", err)
	}

	return s, nil
}

func (r *payrollRepository) ListSlips(ctx context.Context, filter payroll.SlipFilter, companyID string) ([]payroll.SalarySlip, int64, error) {
	q := GetQuerier(ctx, r.db)

	baseWhere := "s.company_id = $1"
	args := []interface{}{companyID}
	argIdx := 2

	if filter.EmployeeID != nil && *filter.EmployeeID != "" {
		baseWhere += fmt.Sprintf(" AND s.employee_id = $%d", argIdx)
		args = append(args, *filter.EmployeeID)
		argIdx++
	}
	if filter.BatchID != nil && *filter.BatchID != "" {
		baseWhere += fmt.Sprintf(" AND s.batch_id = $%d", argIdx)
		args = append(args, *filter.BatchID)
		argIdx++
	}
	if filter.Month != nil {
		baseWhere += fmt.Sprintf(" AND s.month = $%d", argIdx)
		args = append(args, *filter.Month)
		argIdx++
	}
	if filter.Year != nil {
		baseWhere += fmt.Sprintf(" AND s.year = $%d", argIdx)
		args = append(args, *filter.Year)
		argIdx++
	}
	if !filter.AllRuns {
		baseWhere += " AND (s.batch_id IS NULL OR s.run_id = (SELECT b.latest_run_id FROM payroll_batches b WHERE b.id = s.batch_id))"
	}

	var total int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM salary_slips s WHERE "+baseWhere, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count salary slips: %w", err)
	}

	selectQuery := fmt.Sprintf(`
		SELECT %s
		FROM salary_slips s
		LEFT JOIN employees e ON e.id = s.employee_id
		WHERE %s
		ORDER BY s.year DESC, s.month DESC, s.generated_at DESC, s.id
		LIMIT $%d OFFSET $%d
	`, slipColumns, baseWhere, argIdx, argIdx+1)

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
		return nil, 0, fmt.Errorf("failed to query salary slips: %w", err)
	}
	defer rows.Close()

	slips, err := collectSlips(rows)
	if err != nil {
		return nil, 0, err
	}

	return slips, total, nil
}

func (r *payrollRepository) ListSlipsByBatch(ctx context.Context, batchID string, companyID string) ([]payroll.SalarySlip, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + slipColumns + `
		FROM salary_slips s
		LEFT JOIN employees e ON e.id = s.employee_id
		WHERE s.batch_id = $1 AND s.company_id = $2
		ORDER BY s.generated_at DESC, e.full_name
	`

	rows, err := q.Query(ctx, query, batchID, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query batch slips: %w", err)
	}
	defer rows.Close()

	return collectSlips(rows)
}

func collectSlips(rows pgx.Rows) ([]payroll.SalarySlip, error) {
	var slips []payroll.SalarySlip
	for rows.Next() {
		s, err := scanSlip(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan salary slip: %w", err)
		}
		slips = append(slips, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate salary slips: %w", err)
	}
	return slips, nil
}

// ========== STRUCTURES ==========

func (r *payrollRepository) UpsertStructure(ctx context.Context, structure payroll.SalaryStructure) (payroll.SalaryStructure, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO salary_structures (employee_id, company_id, basic_salary, hra, da, reimbursements, pf, tax)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (employee_id) DO UPDATE SET
			basic_salary = EXCLUDED.basic_salary,
			hra = EXCLUDED.hra,
			da = EXCLUDED.da,
			reimbursements = EXCLUDED.reimbursements,
			pf = EXCLUDED.pf,
			tax = EXCLUDED.tax,
			updated_at = NOW()
		WHERE salary_structures.company_id = EXCLUDED.company_id
		RETURNING employee_id, company_id, basic_salary, hra, da, reimbursements, pf, tax, updated_at
	`

	var s payroll.SalaryStructure
	err := q.QueryRow(ctx, query,
		structure.EmployeeID, structure.CompanyID, structure.Basic, structure.HRA, structure.DA,
		structure.Reimbursements, structure.PF, structure.Tax,
	).Scan(
		&s.EmployeeID, &s.CompanyID, &s.Basic, &s.HRA, &s.DA, &s.Reimbursements, &s.PF, &s.Tax, &s.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return payroll.SalaryStructure{}, payroll.ErrEmployeeNotFound
		}
		return payroll.SalaryStructure{}, fmt.Errorf("failed to upsert salary structure: %w", err)
	}

	return s, nil
}

const structureColumns = `
	ss.employee_id, ss.company_id, ss.basic_salary, ss.hra, ss.da, ss.reimbursements, ss.pf, ss.tax,
	ss.updated_at, e.full_name`

func scanStructure(row pgx.Row) (payroll.SalaryStructure, error) {
	var s payroll.SalaryStructure
	err := row.Scan(
		&s.EmployeeID, &s.CompanyID, &s.Basic, &s.HRA, &s.DA, &s.Reimbursements, &s.PF, &s.Tax,
		&s.UpdatedAt, &s.EmployeeName,
	)
	return s, err
}

func (r *payrollRepository) GetStructure(ctx context.Context, employeeID string, companyID string) (payroll.SalaryStructure, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + structureColumns + `
		FROM salary_structures ss
		LEFT JOIN employees e ON e.id = ss.employee_id
		WHERE ss.employee_id = $1 AND ss.company_id = $2
	`

	s, err := scanStructure(q.QueryRow(ctx, query, employeeID, companyID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return payroll.SalaryStructure{}, payroll.ErrStructureNotFound
		}
		return payroll.SalaryStructure{}, fmt.Errorf("failed to get salary structure: %w", err)
	}

	return s, nil
}

// ListStructures returns the structures of active employees only
func (r *payrollRepository) ListStructures(ctx context.Context, companyID string) ([]payroll.SalaryStructure, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + structureColumns + `
		FROM salary_structures ss
		JOIN employees e ON e.id = ss.employee_id
		WHERE ss.company_id = $1 AND e.employment_status = 'active' AND e.deleted_at IS NULL
		ORDER BY e.full_name
	`

	rows, err := q.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query salary structures: %w", err)
	}
	defer rows.Close()

	var structures []payroll.SalaryStructure
	for rows.Next() {
		s, err := scanStructure(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan salary structure: %w", err)
		}
		structures = append(structures, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate salary structures: %w", err)
	}

	return structures, nil
}

// ========== BATCHES ==========

const batchColumns = `
	id, company_id, month, year, status, total_amount, latest_run_id,
	processed_at, processed_by, paid_at, paid_by, created_at, updated_at`

func scanBatch(row pgx.Row) (payroll.PayrollBatch, error) {
	var b payroll.PayrollBatch
	var status string
	err := row.Scan(
		&b.ID, &b.CompanyID, &b.Month, &b.Year, &status, &b.TotalAmount, &b.LatestRunID,
		&b.ProcessedAt, &b.ProcessedBy, &b.PaidAt, &b.PaidBy, &b.CreatedAt, &b.UpdatedAt,
	)
	b.Status = payroll.BatchStatus(status)
	return b, err
}

func (r *payrollRepository) CreateBatch(ctx context.Context, batch payroll.PayrollBatch) (payroll.PayrollBatch, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payroll_batches (company_id, month, year, status, total_amount)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + batchColumns

	created, err := scanBatch(q.QueryRow(ctx, query,
		batch.CompanyID, batch.Month, batch.Year, string(batch.Status), batch.TotalAmount,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return payroll.PayrollBatch{}, payroll.ErrBatchAlreadyExists
		}
		return payroll.PayrollBatch{}, fmt.Errorf("failed to create payroll batch: %w", err)
	}

	return created, nil
}

func (r *payrollRepository) GetBatchByID(ctx context.Context, id string, companyID string) (payroll.PayrollBatch, error) {
	if !validator.IsValidUUID(id) {
		return payroll.PayrollBatch{}, payroll.ErrBatchNotFound
	}

	q := GetQuerier(ctx, r.db)

	b, err := scanBatch(q.QueryRow(ctx,
		`SELECT `+batchColumns+` FROM payroll_batches WHERE id = $1 AND company_id = $2`,
		id, companyID,
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			return payroll.PayrollBatch{}, payroll.ErrBatchNotFound
		}
		return payroll.PayrollBatch{}, fmt.Errorf("failed to get payroll batch: %w", err)
	}

	return b, nil
}

func (r *payrollRepository) GetBatchByPeriod(ctx context.Context, month, year int, companyID string) (*payroll.PayrollBatch, error) {
	q := GetQuerier(ctx, r.db)

	b, err := scanBatch(q.QueryRow(ctx,
		`SELECT `+batchColumns+` FROM payroll_batches WHERE month = $1 AND year = $2 AND company_id = $3`,
		month, year, companyID,
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get payroll batch by period: %w", err)
	}

	return &b, nil
}

func (r *payrollRepository) ListBatches(ctx context.Context, filter payroll.BatchFilter, companyID string) ([]payroll.PayrollBatch, int64, error) {
	q := GetQuerier(ctx, r.db)

	baseWhere := "company_id = $1"
	args := []interface{}{companyID}
	argIdx := 2

	if filter.Year != nil {
		baseWhere += fmt.Sprintf(" AND year = $%d", argIdx)
		args = append(args, *filter.Year)
		argIdx++
	}
	if filter.Status != nil && *filter.Status != "" {
		baseWhere += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, *filter.Status)
		argIdx++
	}

	var total int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM payroll_batches WHERE "+baseWhere, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count payroll batches: %w", err)
	}

	selectQuery := fmt.Sprintf(`
		SELECT %s
		FROM payroll_batches
		WHERE %s
		ORDER BY year DESC, month DESC
		LIMIT $%d OFFSET $%d
	`, batchColumns, baseWhere, argIdx, argIdx+1)

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
		return nil, 0, fmt.Errorf("failed to query payroll batches: %w", err)
	}
	defer rows.Close()

	var batches []payroll.PayrollBatch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan payroll batch: %w", err)
		}
		batches = append(batches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate payroll batches: %w", err)
	}

	return batches, total, nil
}

func (r *payrollRepository) UpdateBatch(ctx context.Context, batch payroll.PayrollBatch, fromStatus payroll.BatchStatus) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payroll_batches
		SET status = $1, total_amount = $2, latest_run_id = $3,
			processed_at = $4, processed_by = $5, paid_at = $6, paid_by = $7,
			updated_at = NOW()
		WHERE id = $8 AND company_id = $9 AND status = $10
	`

	tag, err := q.Exec(ctx, query,
		string(batch.Status), batch.TotalAmount, batch.LatestRunID,
		batch.ProcessedAt, batch.ProcessedBy, batch.PaidAt, batch.PaidBy,
		batch.ID, batch.CompanyID, string(fromStatus),
	)
	if err != nil {
		return fmt.Errorf("failed to update payroll batch: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrInvalidTransition
	}

	return nil
}
