package payroll

import (
	"encoding/json"

	"github.com/cmlabs-hris/hrms-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========== SLIP DTOs ==========

type CreateSlipRequest struct {
	EmployeeID string          `json:"employee_id"`
	Month      int             `json:"month"`
	Year       int             `json:"year"`
	TotalDays  *int            `json:"total_days,omitempty"`
	Components json.RawMessage `json:"components"`

	raw map[string]any
}

// Validate checks the employee first so a slip without one never reaches the repository
func (r *CreateSlipRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs.Add("employee_id", "employee must be selected")
	}
	if !validator.IsValidMonth(r.Month) {
		errs.Add("month", "month must be between 1 and 12")
	}
	if !validator.IsValidYear(r.Year) {
		errs.Add("year", "year must be between 2000 and 2100")
	}
	if r.TotalDays != nil && (*r.TotalDays < 1 || *r.TotalDays > 31) {
		errs.Add("total_days", "total_days must be between 1 and 31")
	}

	raw, err := DecodeComponents(r.Components)
	if err != nil {
		errs.Add("components", ErrInvalidComponentJSON.Error())
	} else {
		r.raw = raw
		e, d := NormalizeComponents(raw)
		for key, amount := range ToMap(e, d) {
			if amount.IsNegative() {
				errs.Add("components."+key, key+" must be non-negative")
			}
		}
	}

	return errs.OrNil()
}

// Normalized returns the canonical components; call Validate first
func (r *CreateSlipRequest) Normalized() (Earnings, Deductions) {
	return NormalizeComponents(r.raw)
}

type EarningsResponse struct {
	BasicSalary    decimal.Decimal `json:"basic_salary"`
	HRA            decimal.Decimal `json:"hra"`
	DA             decimal.Decimal `json:"da"`
	Reimbursements decimal.Decimal `json:"reimbursements"`
	Bonus          decimal.Decimal `json:"bonus"`
}

type DeductionsResponse struct {
	PF        decimal.Decimal `json:"pf"`
	Tax       decimal.Decimal `json:"tax"`
	LossOfPay decimal.Decimal `json:"loss_of_pay"`
	Other     decimal.Decimal `json:"other"`
}

type SlipResponse struct {
	ID              string             `json:"id,omitempty"`
	EmployeeID      string             `json:"employee_id"`
	EmployeeName    string             `json:"employee_name,omitempty"`
	EmployeeCode    *string            `json:"employee_code,omitempty"`
	Month           int                `json:"month"`
	Year            int                `json:"year"`
	Earnings        EarningsResponse   `json:"earnings"`
	Deductions      DeductionsResponse `json:"deductions"`
	GrossSalary     decimal.Decimal    `json:"gross_salary"`
	TotalDeductions decimal.Decimal    `json:"total_deductions"`
	NetSalary       decimal.Decimal    `json:"net_salary"`
	TotalDays       int                `json:"total_days"`
	AbsentDays      decimal.Decimal    `json:"absent_days"`
	BatchID         *string            `json:"batch_id,omitempty"`
	RunID           *string            `json:"run_id,omitempty"`
	GeneratedAt     string             `json:"generated_at"`
}

type SlipFilter struct {
	EmployeeID *string `json:"employee_id,omitempty"`
	BatchID    *string `json:"batch_id,omitempty"`
	Month      *int    `json:"month,omitempty"`
	Year       *int    `json:"year,omitempty"`
	AllRuns    bool    `json:"all_runs"` // include slips from superseded batch runs
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
}

func (f *SlipFilter) Validate() error {
	var errs validator.ValidationErrors
	validatePaging(&errs, &f.Page, &f.Limit)
	if f.Month != nil && !validator.IsValidMonth(*f.Month) {
		errs.Add("month", "month must be between 1 and 12")
	}
	if f.Year != nil && !validator.IsValidYear(*f.Year) {
		errs.Add("year", "year must be between 2000 and 2100")
	}
	return errs.OrNil()
}

type ListSlipResponse struct {
	TotalCount int64          `json:"total_count"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalPages int            `json:"total_pages"`
	Showing    string         `json:"showing"`
	Slips      []SlipResponse `json:"slips"`
}

// ========== STRUCTURE DTOs ==========

type UpsertStructureRequest struct {
	EmployeeID     string           `json:"-"`
	BasicSalary    *decimal.Decimal `json:"basic_salary"`
	HRA            *decimal.Decimal `json:"hra"`
	DA             *decimal.Decimal `json:"da"`
	Reimbursements *decimal.Decimal `json:"reimbursements"`
	PF             *decimal.Decimal `json:"pf"`
	Tax            *decimal.Decimal `json:"tax"`
}

func (r *UpsertStructureRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs.Add("employee_id", "employee_id is required")
	}
	if r.BasicSalary == nil {
		errs.Add("basic_salary", "basic_salary is required")
	}

	amounts := map[string]*decimal.Decimal{
		"basic_salary":   r.BasicSalary,
		"hra":            r.HRA,
		"da":             r.DA,
		"reimbursements": r.Reimbursements,
		"pf":             r.PF,
		"tax":            r.Tax,
	}
	for field, v := range amounts {
		if v != nil && v.IsNegative() {
			errs.Add(field, field+" must be non-negative")
		}
	}

	return errs.OrNil()
}

func (r *UpsertStructureRequest) ToEntity(companyID string) SalaryStructure {
	orZero := func(d *decimal.Decimal) decimal.Decimal {
		if d == nil {
			return decimal.Zero
		}
		return *d
	}
	return SalaryStructure{
		EmployeeID:     r.EmployeeID,
		CompanyID:      companyID,
		Basic:          orZero(r.BasicSalary),
		HRA:            orZero(r.HRA),
		DA:             orZero(r.DA),
		Reimbursements: orZero(r.Reimbursements),
		PF:             orZero(r.PF),
		Tax:            orZero(r.Tax),
	}
}

type StructureResponse struct {
	EmployeeID     string          `json:"employee_id"`
	EmployeeName   string          `json:"employee_name,omitempty"`
	BasicSalary    decimal.Decimal `json:"basic_salary"`
	HRA            decimal.Decimal `json:"hra"`
	DA             decimal.Decimal `json:"da"`
	Reimbursements decimal.Decimal `json:"reimbursements"`
	PF             decimal.Decimal `json:"pf"`
	Tax            decimal.Decimal `json:"tax"`
	UpdatedAt      string          `json:"updated_at"`
}

// ========== BATCH DTOs ==========

type PeriodRequest struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

func (r *PeriodRequest) Validate() error {
	var errs validator.ValidationErrors
	if !validator.IsValidMonth(r.Month) {
		errs.Add("month", "month must be between 1 and 12")
	}
	if !validator.IsValidYear(r.Year) {
		errs.Add("year", "year must be between 2000 and 2100")
	}
	return errs.OrNil()
}

type RunResponse struct {
	ID          string          `json:"id"`
	GeneratedAt string          `json:"generated_at"`
	SlipCount   int             `json:"slip_count"`
	TotalNet    decimal.Decimal `json:"total_net"`
}

type BatchResponse struct {
	ID          string          `json:"id"`
	Month       int             `json:"month"`
	Year        int             `json:"year"`
	Status      BatchStatus     `json:"status"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	LatestRunID *string         `json:"latest_run_id,omitempty"`
	ProcessedAt *string         `json:"processed_at,omitempty"`
	PaidAt      *string         `json:"paid_at,omitempty"`
	CreatedAt   string          `json:"created_at"`
	Runs        []RunResponse   `json:"runs,omitempty"`
}

type BatchFilter struct {
	Year   *int    `json:"year,omitempty"`
	Status *string `json:"status,omitempty"`
	Page   int     `json:"page"`
	Limit  int     `json:"limit"`
}

func (f *BatchFilter) Validate() error {
	var errs validator.ValidationErrors
	validatePaging(&errs, &f.Page, &f.Limit)
	if f.Year != nil && !validator.IsValidYear(*f.Year) {
		errs.Add("year", "year must be between 2000 and 2100")
	}
	if f.Status != nil && !validator.IsInSlice(*f.Status, ValidBatchStatuses) {
		errs.Add("status", "status must be one of: draft, processed, paid")
	}
	return errs.OrNil()
}

type ListBatchResponse struct {
	TotalCount int64           `json:"total_count"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalPages int             `json:"total_pages"`
	Showing    string          `json:"showing"`
	Batches    []BatchResponse `json:"batches"`
}

type PayrollSummary struct {
	EmployeeCount   int             `json:"employee_count"`
	TotalGross      decimal.Decimal `json:"total_gross"`
	TotalDeductions decimal.Decimal `json:"total_deductions"`
	TotalNet        decimal.Decimal `json:"total_net"`
}

type PreviewResponse struct {
	Month   int            `json:"month"`
	Year    int            `json:"year"`
	Summary PayrollSummary `json:"summary"`
	Slips   []SlipResponse `json:"slips"`
}

type ProcessResponse struct {
	Batch   BatchResponse  `json:"batch"`
	RunID   string         `json:"run_id"`
	Summary PayrollSummary `json:"summary"`
}

func validatePaging(errs *validator.ValidationErrors, page, limit *int) {
	if *page < 0 {
		errs.Add("page", "page must be a positive number")
	}
	if *page == 0 {
		*page = 1
	}
	if *limit < 0 {
		errs.Add("limit", "limit must be a positive number")
	}
	if *limit == 0 {
		*limit = 20
	}
	if *limit > 100 {
		errs.Add("limit", "limit must not exceed 100")
	}
}
