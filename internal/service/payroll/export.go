package payroll

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/hrms-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hrms-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/hrms-backend-go/internal/pkg/export"
)

var slipHeaders = []string{
	"Employee Code", "Employee Name", "Basic Salary", "HRA", "DA", "Reimbursements", "Bonus",
	"PF", "Tax", "Loss of Pay", "Other Deductions",
	"Gross Salary", "Total Deductions", "Net Salary", "Total Days", "Absent Days",
}

// ExportBatch implements payroll.PayrollService. Only the latest run is exported.
func (s *PayrollServiceImpl) ExportBatch(ctx context.Context, id string) (*bytes.Buffer, string, error) {
	claims, err := user.ClaimsFromContext(ctx)
	if err != nil {
		return nil, "", err
	}

	batch, err := s.payrollRepo.GetBatchByID(ctx, id, claims.CompanyID)
	if err != nil {
		return nil, "", err
	}
	if batch.LatestRunID == nil {
		return nil, "", payroll.ErrBatchNotProcessed
	}

	slips, err := s.payrollRepo.ListSlipsByBatch(ctx, batch.ID, claims.CompanyID)
	if err != nil {
		return nil, "", err
	}

	rows := make([][]interface{}, 0, len(slips))
	for _, slip := range slips {
		if slip.RunID == nil || *slip.RunID != *batch.LatestRunID {
			continue
		}
		rows = append(rows, []interface{}{
			deref(slip.EmployeeCode), deref(slip.EmployeeName),
			slip.Earnings.Basic.StringFixed(2), slip.Earnings.HRA.StringFixed(2), slip.Earnings.DA.StringFixed(2),
			slip.Earnings.Reimbursements.StringFixed(2), slip.Earnings.Bonus.StringFixed(2),
			slip.Deductions.PF.StringFixed(2), slip.Deductions.Tax.StringFixed(2),
			slip.Deductions.LossOfPay.StringFixed(2), slip.Deductions.Other.StringFixed(2),
			slip.Gross.StringFixed(2), slip.TotalDeductions.StringFixed(2), slip.Net.StringFixed(2),
			slip.TotalDays, slip.AbsentDays.String(),
		})
	}

	buf, err := export.WriteXLSX(export.Sheet{
		Name:    "Salary Slips",
		Headers: slipHeaders,
		Rows:    rows,
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to build payroll workbook: %w", err)
	}

	slog.Info("payroll batch exported", "batch_id", batch.ID, "run_id", *batch.LatestRunID, "slips", len(rows))
	return buf, fmt.Sprintf("payroll_%04d_%02d.xlsx", batch.Year, batch.Month), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
