package payroll

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Earnings are the positive components of a slip. Bonus is only carried for legacy slips.
type Earnings struct {
	Basic          decimal.Decimal
	HRA            decimal.Decimal
	DA             decimal.Decimal
	Reimbursements decimal.Decimal
	Bonus          decimal.Decimal
}

func (e Earnings) Total() decimal.Decimal {
	return decimal.Sum(e.Basic, e.HRA, e.DA, e.Reimbursements, e.Bonus)
}

type Deductions struct {
	PF        decimal.Decimal
	Tax       decimal.Decimal
	LossOfPay decimal.Decimal
	Other     decimal.Decimal
}

func (d Deductions) Total() decimal.Decimal {
	return decimal.Sum(d.PF, d.Tax, d.LossOfPay, d.Other)
}

type SlipTotals struct {
	Gross           decimal.Decimal
	TotalDeductions decimal.Decimal
	Net             decimal.Decimal
}

// ComputeSlip sums earnings and deductions. Net is not clamped: deductions
// larger than earnings give a negative net.
func ComputeSlip(e Earnings, d Deductions) SlipTotals {
	gross := e.Total()
	deductions := d.Total()
	return SlipTotals{
		Gross:           gross,
		TotalDeductions: deductions,
		Net:             gross.Sub(deductions),
	}
}

// LossOfPay prorates basic pay over the days in the period
func LossOfPay(basic, absentDays decimal.Decimal, totalDays int) decimal.Decimal {
	if totalDays <= 0 || !absentDays.IsPositive() {
		return decimal.Zero
	}
	return basic.Mul(absentDays).Div(decimal.NewFromInt(int64(totalDays))).Round(2)
}

// SalarySlip is a stored snapshot; Gross, TotalDeductions and Net are always ComputeSlip of its own components.
type SalarySlip struct {
	ID              string
	CompanyID       string
	EmployeeID      string
	Month           int
	Year            int
	Earnings        Earnings
	Deductions      Deductions
	Gross           decimal.Decimal
	TotalDeductions decimal.Decimal
	Net             decimal.Decimal
	TotalDays       int
	AbsentDays      decimal.Decimal
	BatchID         *string
	RunID           *string
	GeneratedAt     time.Time
	CreatedBy       *string
	CreatedAt       time.Time

	// Joined fields
	EmployeeName *string
	EmployeeCode *string
}

// NewSalarySlip computes the totals for the given components
func NewSalarySlip(e Earnings, d Deductions) SalarySlip {
	totals := ComputeSlip(e, d)
	return SalarySlip{
		Earnings:        e,
		Deductions:      d,
		Gross:           totals.Gross,
		TotalDeductions: totals.TotalDeductions,
		Net:             totals.Net,
	}
}

// SalaryStructure holds an employee's monthly pay used by batch runs
type SalaryStructure struct {
	EmployeeID     string
	CompanyID      string
	Basic          decimal.Decimal
	HRA            decimal.Decimal
	DA             decimal.Decimal
	Reimbursements decimal.Decimal
	PF             decimal.Decimal
	Tax            decimal.Decimal
	UpdatedAt      time.Time

	// Joined fields
	EmployeeName *string
}

type BatchStatus string

const (
	BatchStatusDraft     BatchStatus = "draft"
	BatchStatusProcessed BatchStatus = "processed"
	BatchStatusPaid      BatchStatus = "paid"
)

var ValidBatchStatuses = []string{
	string(BatchStatusDraft),
	string(BatchStatusProcessed),
	string(BatchStatusPaid),
}

// CanTransition enforces draft -> processed -> paid. Re-running a processed
// batch keeps it processed; paid is terminal.
func CanTransition(from, to BatchStatus) bool {
	switch from {
	case BatchStatusDraft:
		return to == BatchStatusProcessed
	case BatchStatusProcessed:
		return to == BatchStatusProcessed || to == BatchStatusPaid
	}
	return false
}

type PayrollBatch struct {
	ID          string
	CompanyID   string
	Month       int
	Year        int
	Status      BatchStatus
	TotalAmount decimal.Decimal
	LatestRunID *string
	ProcessedAt *time.Time
	ProcessedBy *string
	PaidAt      *time.Time
	PaidBy      *string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Runs []Run
}

// Run is one processing pass of a batch
type Run struct {
	ID          string
	GeneratedAt time.Time
	SlipCount   int
	TotalNet    decimal.Decimal
}

// TotalNet sums the net pay of the slips
func TotalNet(slips []SalarySlip) decimal.Decimal {
	total := decimal.Zero
	for _, s := range slips {
		total = total.Add(s.Net)
	}
	return total
}

// GroupRuns groups slips by run, newest run first. Slips without a run are ignored.
func GroupRuns(slips []SalarySlip) []Run {
	byID := make(map[string]*Run)
	for _, s := range slips {
		if s.RunID == nil {
			continue
		}
		run, ok := byID[*s.RunID]
		if !ok {
			run = &Run{ID: *s.RunID, GeneratedAt: s.GeneratedAt, TotalNet: decimal.Zero}
			byID[*s.RunID] = run
		}
		run.SlipCount++
		run.TotalNet = run.TotalNet.Add(s.Net)
		if s.GeneratedAt.Before(run.GeneratedAt) {
			run.GeneratedAt = s.GeneratedAt
		}
	}

	runs := make([]Run, 0, len(byID))
	for _, r := range byID {
		runs = append(runs, *r)
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].GeneratedAt.After(runs[j].GeneratedAt)
	})
	return runs
}
