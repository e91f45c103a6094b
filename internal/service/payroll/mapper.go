package payroll

import (
	"time"

	"github.com/cmlabs-hris/hrms-backend-go/internal/domain/payroll"
)

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func timePtrToString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	format := t.UTC().Format(time.RFC3339)
	return &format
}

func toSlipResponse(s payroll.SalarySlip) payroll.SlipResponse {
	resp := payroll.SlipResponse{
		ID:           s.ID,
		EmployeeID:   s.EmployeeID,
		EmployeeCode: s.EmployeeCode,
		Month:        s.Month,
		Year:         s.Year,
		Earnings: payroll.EarningsResponse{
			BasicSalary:    s.Earnings.Basic,
			HRA:            s.Earnings.HRA,
			DA:             s.Earnings.DA,
			Reimbursements: s.Earnings.Reimbursements,
			Bonus:          s.Earnings.Bonus,
		},
		Deductions: payroll.DeductionsResponse{
			PF:        s.Deductions.PF,
			Tax:       s.Deductions.Tax,
			LossOfPay: s.Deductions.LossOfPay,
			Other:     s.Deductions.Other,
		},
		GrossSalary:     s.Gross,
		TotalDeductions: s.TotalDeductions,
		NetSalary:       s.Net,
		TotalDays:       s.TotalDays,
		AbsentDays:      s.AbsentDays,
		BatchID:         s.BatchID,
		RunID:           s.RunID,
		GeneratedAt:     s.GeneratedAt.UTC().Format(time.RFC3339),
	}
	if s.EmployeeName != nil {
		resp.EmployeeName = *s.EmployeeName
	}
	return resp
}

func toStructureResponse(s payroll.SalaryStructure) payroll.StructureResponse {
	resp := payroll.StructureResponse{
		EmployeeID:     s.EmployeeID,
		BasicSalary:    s.Basic,
		HRA:            s.HRA,
		DA:             s.DA,
		Reimbursements: s.Reimbursements,
		PF:             s.PF,
		Tax:            s.Tax,
		UpdatedAt:      s.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if s.EmployeeName != nil {
		resp.EmployeeName = *s.EmployeeName
	}
	return resp
}

func toBatchResponse(b payroll.PayrollBatch) payroll.BatchResponse {
	resp := payroll.BatchResponse{
		ID:          b.ID,
		Month:       b.Month,
		Year:        b.Year,
		Status:      b.Status,
		TotalAmount: b.TotalAmount,
		LatestRunID: b.LatestRunID,
		ProcessedAt: timePtrToString(b.ProcessedAt),
		PaidAt:      timePtrToString(b.PaidAt),
		CreatedAt:   b.CreatedAt.UTC().Format(time.RFC3339),
	}
	for _, r := range b.Runs {
		resp.Runs = append(resp.Runs, payroll.RunResponse{
			ID:          r.ID,
			GeneratedAt: r.GeneratedAt.UTC().Format(time.RFC3339),
			SlipCount:   r.SlipCount,
			TotalNet:    r.TotalNet,
		})
	}
	return resp
}
