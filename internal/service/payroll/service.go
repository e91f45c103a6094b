package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/cmlabs-hris/hrms-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hrms-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/hrms-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hrms-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/hrms-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/hrms-backend-go/internal/pkg/sse"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

type PayrollServiceImpl struct {
	tx             database.Transactor
	payrollRepo    payroll.PayrollRepository
	employeeRepo   employee.EmployeeRepository
	attendanceRepo attendance.AttendanceRepository
	holidayRepo    attendance.HolidayRepository
	hub            *sse.Hub
	now            func() time.Time
}

func NewPayrollService(
	tx database.Transactor,
	payrollRepo payroll.PayrollRepository,
	employeeRepo employee.EmployeeRepository,
	attendanceRepo attendance.AttendanceRepository,
	holidayRepo attendance.HolidayRepository,
	hub *sse.Hub,
) payroll.PayrollService {
	return &PayrollServiceImpl{
		tx:             tx,
		payrollRepo:    payrollRepo,
		employeeRepo:   employeeRepo,
		attendanceRepo: attendanceRepo,
		holidayRepo:    holidayRepo,
		hub:            hub,
		now:            time.Now,
	}
}

func daysIn(year int, month time.Month) int {
	_, last := attendance.MonthBounds(year, month)
	return last.Day()
}

func paging(total int64, page, limit int) (int, string) {
	totalPages := int(math.Ceil(float64(total) / float64(limit)))
	if total == 0 {
		return totalPages, "0 of 0"
	}
	return totalPages, fmt.Sprintf("%d-%d of %d", (page-1)*limit+1, min(page*limit, int(total)), total)
}

// ========== SLIPS ==========

// CreateSlip implements payroll.PayrollService.
func (s *PayrollServiceImpl) CreateSlip(ctx context.Context, req payroll.CreateSlipRequest) (payroll.SlipResponse, error) {
	// validation runs before anything touches storage
	if err := req.Validate(); err != nil {
		return payroll.SlipResponse{}, err
	}

	claims, err := user.ClaimsFromContext(ctx)
	if err != nil {
		return payroll.SlipResponse{}, err
	}

	emp, err := s.employeeRepo.GetByID(ctx, req.EmployeeID, claims.CompanyID)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return payroll.SlipResponse{}, payroll.ErrEmployeeNotFound
		}
		return payroll.SlipResponse{}, err
	}

	totalDays := daysIn(req.Year, time.Month(req.Month))
	if req.TotalDays != nil {
		totalDays = *req.TotalDays
	}

	slip := payroll.NewSalarySlip(req.Normalized())
	slip.CompanyID = claims.CompanyID
	slip.EmployeeID = emp.ID
	slip.Month = req.Month
	slip.Year = req.Year
	slip.TotalDays = totalDays
	slip.AbsentDays = decimal.Zero
	slip.GeneratedAt = s.now().UTC()
	slip.CreatedBy = optional(claims.UserID)

	created, err := s.payrollRepo.CreateSlip(ctx, slip)
	if err != nil {
		return payroll.SlipResponse{}, err
	}

	slog.Info("salary slip created",
		"slip_id", created.ID,
		"employee_id", created.EmployeeID,
		"period", fmt.Sprintf("%04d-%02d", created.Year, created.Month),
		"net_salary", created.Net.String(),
	)
	s.hub.Invalidate(claims.CompanyID, sse.EventPayrollChanged, "salary_slip", created.ID)
	return toSlipResponse(created), nil
}

// ListSlips implements payroll.PayrollService.
func (s *PayrollServiceImpl) ListSlips(ctx context.Context, filter payroll.SlipFilter) (payroll.ListSlipResponse, error) {
	if err := filter.Validate(); err != nil {
		return payroll.ListSlipResponse{}, err
	}

	claims, err := user.ClaimsFromContext(ctx)
	if err != nil {
		return payroll.ListSlipResponse{}, err
	}

	return s.listSlips(ctx, filter, claims.CompanyID)
}

// ListMySlips implements payroll.PayrollService.
func (s *PayrollServiceImpl) ListMySlips(ctx context.Context, filter payroll.SlipFilter) (payroll.ListSlipResponse, error) {
	if err := filter.Validate(); err != nil {
		return payroll.ListSlipResponse{}, err
	}

	claims, err := user.ClaimsFromContext(ctx)
	if err != nil {
		return payroll.ListSlipResponse{}, err
	}
	employeeID, err := claims.RequireEmployee()
	if err != nil {
		return payroll.ListSlipResponse{}, err
	}
	filter.EmployeeID = &employeeID

	return s.listSlips(ctx, filter, claims.CompanyID)
}

func (s *PayrollServiceImpl) listSlips(ctx context.Context, filter payroll.SlipFilter, companyID string) (payroll.ListSlipResponse, error) {
	slips, total, err := s.payrollRepo.ListSlips(ctx, filter, companyID)
	if err != nil {
		return payroll.ListSlipResponse{}, err
	}

	responses := make([]payroll.SlipResponse, 0, len(slips))
	for _, slip := range slips {
		responses = append(responses, toSlipResponse(slip))
	}

	totalPages, showing := paging(total, filter.Page, filter.Limit)
	return payroll.ListSlipResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
		Showing:    showing,
		Slips:      responses,
	}, nil
}

// GetSlip implements payroll.PayrollService. Employees only see their own slips.
func (s *PayrollServiceImpl) GetSlip(ctx context.Context, id string) (payroll.SlipResponse, error) {
	claims, err := user.ClaimsFromContext(ctx)
	if err != nil {
		return payroll.SlipResponse{}, err
	}

	slip, err := s.payrollRepo.GetSlipByID(ctx, id, claims.CompanyID)
	if err != nil {
		return payroll.SlipResponse{}, err
	}
	if !claims.Role.IsHR() && slip.EmployeeID != claims.EmployeeID {
		return payroll.SlipResponse{}, payroll.ErrNotOwner
	}

	return toSlipResponse(slip), nil
}

// ========== STRUCTURES ==========

// UpsertStructure implements payroll.PayrollService.
func (s *PayrollServiceImpl) UpsertStructure(ctx context.Context, req payroll.UpsertStructureRequest) (payroll.StructureResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.StructureResponse{}, err
	}

	claims, err := user.ClaimsFromContext(ctx)
	if err != nil {
		return payroll.StructureResponse{}, err
	}

	emp, err := s.employeeRepo.GetByID(ctx, req.EmployeeID, claims.CompanyID)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return payroll.StructureResponse{}, payroll.ErrEmployeeNotFound
		}
		return payroll.StructureResponse{}, err
	}

	saved, err := s.payrollRepo.UpsertStructure(ctx, req.ToEntity(claims.CompanyID))
	if err != nil {
		return payroll.StructureResponse{}, err
	}
	saved.EmployeeName = &emp.FullName

	slog.Info("salary structure saved", "employee_id", saved.EmployeeID, "basic_salary", saved.Basic.String())
	s.hub.Invalidate(claims.CompanyID, sse.EventPayrollChanged, "salary_structure", saved.EmployeeID)
	return toStructureResponse(saved), nil
}

// GetStructure implements payroll.PayrollService.
func (s *PayrollServiceImpl) GetStructure(ctx context.Context, employeeID string) (payroll.StructureResponse, error) {
	claims, err := user.ClaimsFromContext(ctx)
	if err != nil {
		return payroll.StructureResponse{}, err
	}

	structure, err := s.payrollRepo.GetStructure(ctx, employeeID, claims.CompanyID)
	if err != nil {
		return payroll.StructureResponse{}, err
	}
	return toStructureResponse(structure), nil
}

// ========== BATCHES ==========

// CreateBatch implements payroll.PayrollService.
func (s *PayrollServiceImpl) CreateBatch(ctx context.Context, req payroll.PeriodRequest) (payroll.BatchResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.BatchResponse{}, err
	}

	claims, err := user.ClaimsFromContext(ctx)
	if err != nil {
		return payroll.BatchResponse{}, err
	}

	created, err := s.payrollRepo.CreateBatch(ctx, payroll.PayrollBatch{
		CompanyID:   claims.CompanyID,
		Month:       req.Month,
		Year:        req.Year,
		Status:      payroll.BatchStatusDraft,
		TotalAmount: decimal.Zero,
	})
	if err != nil {
		return payroll.BatchResponse{}, err
	}

	s.hub.Invalidate(claims.CompanyID, sse.EventPayrollChanged, "payroll_batch", created.ID)
	return toBatchResponse(created), nil
}

// computeSlips builds one unsaved slip per active employee with a salary structure.
// Loss of pay is prorated from the absent days of the month's attendance calendar.
func (s *PayrollServiceImpl) computeSlips(ctx context.Context, companyID string, year int, month time.Month) ([]payroll.SalarySlip, error) {
	first, last := attendance.MonthBounds(year, month)

	var (
		structures []payroll.SalaryStructure
		records    []attendance.Attendance
		holidays   []attendance.Holiday
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		structures, err = s.payrollRepo.ListStructures(gctx, companyID)
		return err
	})
	g.Go(func() error {
		var err error
		records, err = s.attendanceRepo.ListByCompanyAndRange(gctx, companyID, first, last)
		return err
	})
	g.Go(func() error {
		var err error
		holidays, err = s.holidayRepo.ListByRange(gctx, companyID, first, last)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if len(structures) == 0 {
		return nil, payroll.ErrNoEligibleEmployees
	}

	byEmployee := make(map[string][]attendance.Attendance, len(structures))
	for _, r := range records {
		byEmployee[r.EmployeeID] = append(byEmployee[r.EmployeeID], r)
	}

	now := s.now().UTC()
	totalDays := last.Day()
	slips := make([]payroll.SalarySlip, 0, len(structures))
	for _, st := range structures {
		summary := attendance.SummarizeMonth(year, month, now, byEmployee[st.EmployeeID], holidays)
		absent := decimal.NewFromFloat(summary.Absent)

		e := payroll.Earnings{
			Basic:          st.Basic,
			HRA:            st.HRA,
			DA:             st.DA,
			Reimbursements: st.Reimbursements,
			Bonus:          decimal.Zero,
		}
		d := payroll.Deductions{
			PF:        st.PF,
			Tax:       st.Tax,
			LossOfPay: payroll.LossOfPay(st.Basic, absent, totalDays),
			Other:     decimal.Zero,
		}

		slip := payroll.NewSalarySlip(e, d)
		slip.CompanyID = companyID
		slip.EmployeeID = st.EmployeeID
		slip.EmployeeName = st.EmployeeName
		slip.Month = int(month)
		slip.Year = year
		slip.TotalDays = totalDays
		slip.AbsentDays = absent
		slips = append(slips, slip)
	}
	return slips, nil
}

func summarize(slips []payroll.SalarySlip) payroll.PayrollSummary {
	sum := payroll.PayrollSummary{
		EmployeeCount:   len(slips),
		TotalGross:      decimal.Zero,
		TotalDeductions: decimal.Zero,
		TotalNet:        decimal.Zero,
	}
	for _, slip := range slips {
		sum.TotalGross = sum.TotalGross.Add(slip.Gross)
		sum.TotalDeductions = sum.TotalDeductions.Add(slip.TotalDeductions)
		sum.TotalNet = sum.TotalNet.Add(slip.Net)
	}
	return sum
}

// Preview implements payroll.PayrollService.
func (s *PayrollServiceImpl) Preview(ctx context.Context, req payroll.PeriodRequest) (payroll.PreviewResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.PreviewResponse{}, err
	}

	claims, err := user.ClaimsFromContext(ctx)
	if err != nil {
		return payroll.PreviewResponse{}, err
	}

	slips, err := s.computeSlips(ctx, claims.CompanyID, req.Year, time.Month(req.Month))
	if err != nil {
		return payroll.PreviewResponse{}, err
	}

	generatedAt := s.now().UTC()
	responses := make([]payroll.SlipResponse, 0, len(slips))
	for _, slip := range slips {
		slip.GeneratedAt = generatedAt
		responses = append(responses, toSlipResponse(slip))
	}

	return payroll.PreviewResponse{
		Month:   req.Month,
		Year:    req.Year,
		Summary: summarize(slips),
		Slips:   responses,
	}, nil
}

// Process implements payroll.PayrollService.
func (s *PayrollServiceImpl) Process(ctx context.Context, req payroll.PeriodRequest) (payroll.ProcessResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.ProcessResponse{}, err
	}

	claims, err := user.ClaimsFromContext(ctx)
	if err != nil {
		return payroll.ProcessResponse{}, err
	}

	// loaded outside the transaction: a pgx.Tx cannot serve the concurrent reads
	slips, err := s.computeSlips(ctx, claims.CompanyID, req.Year, time.Month(req.Month))
	if err != nil {
		return payroll.ProcessResponse{}, err
	}

	runID := uuid.NewString()
	generatedAt := s.now().UTC()
	var processed payroll.PayrollBatch

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		batch, err := s.payrollRepo.GetBatchByPeriod(ctx, req.Month, req.Year, claims.CompanyID)
		if err != nil {
			return err
		}
		if batch == nil {
			created, err := s.payrollRepo.CreateBatch(ctx, payroll.PayrollBatch{
				CompanyID:   claims.CompanyID,
				Month:       req.Month,
				Year:        req.Year,
				Status:      payroll.BatchStatusDraft,
				TotalAmount: decimal.Zero,
			})
			if err != nil {
				return err
			}
			batch = &created
		}

		if batch.Status == payroll.BatchStatusPaid {
			return payroll.ErrBatchAlreadyPaid
		}
		fromStatus := batch.Status
		if !payroll.CanTransition(fromStatus, payroll.BatchStatusProcessed) {
			return payroll.ErrInvalidTransition
		}

		for i := range slips {
			slips[i].BatchID = &batch.ID
			slips[i].RunID = &runID
			slips[i].GeneratedAt = generatedAt
			slips[i].CreatedBy = optional(claims.UserID)
		}
		if err := s.payrollRepo.CreateSlips(ctx, slips); err != nil {
			return err
		}

		batch.Status = payroll.BatchStatusProcessed
		batch.TotalAmount = payroll.TotalNet(slips)
		batch.LatestRunID = &runID
		batch.ProcessedAt = &generatedAt
		batch.ProcessedBy = optional(claims.UserID)
		if err := s.payrollRepo.UpdateBatch(ctx, *batch, fromStatus); err != nil {
			return err
		}

		processed = *batch
		return nil
	})
	if err != nil {
		return payroll.ProcessResponse{}, err
	}

	summary := summarize(slips)
	slog.Info("payroll processed",
		"batch_id", processed.ID,
		"run_id", runID,
		"period", fmt.Sprintf("%04d-%02d", req.Year, req.Month),
		"employees", summary.EmployeeCount,
		"total_net", summary.TotalNet.String(),
	)
	s.hub.Invalidate(claims.CompanyID, sse.EventPayrollChanged, "payroll_batch", processed.ID)

	return payroll.ProcessResponse{
		Batch:   toBatchResponse(processed),
		RunID:   runID,
		Summary: summary,
	}, nil
}

// ListBatches implements payroll.PayrollService.
func (s *PayrollServiceImpl) ListBatches(ctx context.Context, filter payroll.BatchFilter) (payroll.ListBatchResponse, error) {
	if err := filter.Validate(); err != nil {
		return payroll.ListBatchResponse{}, err
	}

	claims, err := user.ClaimsFromContext(ctx)
	if err != nil {
		return payroll.ListBatchResponse{}, err
	}

	batches, total, err := s.payrollRepo.ListBatches(ctx, filter, claims.CompanyID)
	if err != nil {
		return payroll.ListBatchResponse{}, err
	}

	responses := make([]payroll.BatchResponse, 0, len(batches))
	for _, b := range batches {
		responses = append(responses, toBatchResponse(b))
	}

	totalPages, showing := paging(total, filter.Page, filter.Limit)
	return payroll.ListBatchResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
		Showing:    showing,
		Batches:    responses,
	}, nil
}

// GetBatch implements payroll.PayrollService.
func (s *PayrollServiceImpl) GetBatch(ctx context.Context, id string) (payroll.BatchResponse, error) {
	claims, err := user.ClaimsFromContext(ctx)
	if err != nil {
		return payroll.BatchResponse{}, err
	}

	batch, err := s.payrollRepo.GetBatchByID(ctx, id, claims.CompanyID)
	if err != nil {
		return payroll.BatchResponse{}, err
	}

	slips, err := s.payrollRepo.ListSlipsByBatch(ctx, batch.ID, claims.CompanyID)
	if err != nil {
		return payroll.BatchResponse{}, err
	}
	batch.Runs = payroll.GroupRuns(slips)

	return toBatchResponse(batch), nil
}

// MarkPaid implements payroll.PayrollService.
func (s *PayrollServiceImpl) MarkPaid(ctx context.Context, id string) (payroll.BatchResponse, error) {
	claims, err := user.ClaimsFromContext(ctx)
	if err != nil {
		return payroll.BatchResponse{}, err
	}

	batch, err := s.payrollRepo.GetBatchByID(ctx, id, claims.CompanyID)
	if err != nil {
		return payroll.BatchResponse{}, err
	}
	switch batch.Status {
	case payroll.BatchStatusPaid:
		return payroll.BatchResponse{}, payroll.ErrBatchAlreadyPaid
	case payroll.BatchStatusDraft:
		return payroll.BatchResponse{}, payroll.ErrBatchNotProcessed
	}

	paidAt := s.now().UTC()
	batch.Status = payroll.BatchStatusPaid
	batch.PaidAt = &paidAt
	batch.PaidBy = optional(claims.UserID)
	if err := s.payrollRepo.UpdateBatch(ctx, batch, payroll.BatchStatusProcessed); err != nil {
		return payroll.BatchResponse{}, err
	}

	slog.Info("payroll batch marked paid", "batch_id", batch.ID, "total_amount", batch.TotalAmount.String())
	s.hub.Invalidate(claims.CompanyID, sse.EventPayrollChanged, "payroll_batch", batch.ID)
	return toBatchResponse(batch), nil
}
