package payroll

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/cmlabs-hris/hrms-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hrms-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/hrms-backend-go/internal/domain/payroll"
)

type fakeTransactor struct {
	calls int
}

func (f *fakeTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	return fn(ctx)
}

type fakePayrollRepo struct {
	slips      []payroll.SalarySlip
	structures map[string]payroll.SalaryStructure
	batches    map[string]payroll.PayrollBatch
	seq        int
}

func newFakePayrollRepo() *fakePayrollRepo {
	return &fakePayrollRepo{
		structures: make(map[string]payroll.SalaryStructure),
		batches:    make(map[string]payroll.PayrollBatch),
	}
}

func (f *fakePayrollRepo) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

func (f *fakePayrollRepo) CreateSlip(_ context.Context, slip payroll.SalarySlip) (payroll.SalarySlip, error) {
	slip.ID = f.nextID("slip")
	f.slips = append(f.slips, slip)
	return slip, nil
}

func (f *fakePayrollRepo) CreateSlips(_ context.Context, slips []payroll.SalarySlip) error {
	for _, slip := range slips {
		slip.ID = f.nextID("slip")
		f.slips = append(f.slips, slip)
	}
	return nil
}

func (f *fakePayrollRepo) GetSlipByID(_ context.Context, id string, companyID string) (payroll.SalarySlip, error) {
	for _, slip := range f.slips {
		if slip.ID == id && slip.CompanyID == companyID {
			return slip, nil
		}
	}
	return payroll.SalarySlip{}, payroll.ErrSlipNotFound
}

func (f *fakePayrollRepo) ListSlips(_ context.Context, filter payroll.SlipFilter, companyID string) ([]payroll.SalarySlip, int64, error) {
	var out []payroll.SalarySlip
	for _, slip := range f.slips {
		if slip.CompanyID != companyID {
			continue
		}
		if filter.EmployeeID != nil && slip.EmployeeID != *filter.EmployeeID {
			continue
		}
		if !filter.AllRuns && slip.BatchID != nil {
			latest := f.batches[*slip.BatchID].LatestRunID
			if latest == nil || slip.RunID == nil || *slip.RunID != *latest {
				continue
			}
		}
		out = append(out, slip)
	}
	return out, int64(len(out)), nil
}

func (f *fakePayrollRepo) ListSlipsByBatch(_ context.Context, batchID string, companyID string) ([]payroll.SalarySlip, error) {
	var out []payroll.SalarySlip
	for _, slip := range f.slips {
		if slip.CompanyID == companyID && slip.BatchID != nil && *slip.BatchID == batchID {
			out = append(out, slip)
		}
	}
	return out, nil
}

func (f *fakePayrollRepo) UpsertStructure(_ context.Context, st payroll.SalaryStructure) (payroll.SalaryStructure, error) {
	st.UpdatedAt = time.Date(2025, time.April, 2, 9, 0, 0, 0, time.UTC)
	f.structures[st.EmployeeID] = st
	return st, nil
}

func (f *fakePayrollRepo) GetStructure(_ context.Context, employeeID string, companyID string) (payroll.SalaryStructure, error) {
	st, ok := f.structures[employeeID]
	if !ok || st.CompanyID != companyID {
		return payroll.SalaryStructure{}, payroll.ErrStructureNotFound
	}
	return st, nil
}

func (f *fakePayrollRepo) ListStructures(_ context.Context, companyID string) ([]payroll.SalaryStructure, error) {
	var out []payroll.SalaryStructure
	for _, st := range f.structures {
		if st.CompanyID == companyID {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out, nil
}

func (f *fakePayrollRepo) CreateBatch(_ context.Context, batch payroll.PayrollBatch) (payroll.PayrollBatch, error) {
	for _, b := range f.batches {
		if b.CompanyID == batch.CompanyID && b.Month == batch.Month && b.Year == batch.Year {
			return payroll.PayrollBatch{}, payroll.ErrBatchAlreadyExists
		}
	}
	batch.ID = f.nextID("batch")
	f.batches[batch.ID] = batch
	return batch, nil
}

func (f *fakePayrollRepo) GetBatchByID(_ context.Context, id string, companyID string) (payroll.PayrollBatch, error) {
	b, ok := f.batches[id]
	if !ok || b.CompanyID != companyID {
		return payroll.PayrollBatch{}, payroll.ErrBatchNotFound
	}
	return b, nil
}

func (f *fakePayrollRepo) GetBatchByPeriod(_ context.Context, month, year int, companyID string) (*payroll.PayrollBatch, error) {
	for _, b := range f.batches {
		if b.CompanyID == companyID && b.Month == month && b.Year == year {
			return &b, nil
		}
	}
	return nil, nil
}

func (f *fakePayrollRepo) ListBatches(_ context.Context, _ payroll.BatchFilter, companyID string) ([]payroll.PayrollBatch, int64, error) {
	var out []payroll.PayrollBatch
	for _, b := range f.batches {
		if b.CompanyID == companyID {
			out = append(out, b)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakePayrollRepo) UpdateBatch(_ context.Context, batch payroll.PayrollBatch, fromStatus payroll.BatchStatus) error {
	stored, ok := f.batches[batch.ID]
	if !ok || stored.Status != fromStatus {
		return payroll.ErrInvalidTransition
	}
	f.batches[batch.ID] = batch
	return nil
}

type fakeEmployeeRepo struct {
	employees map[string]employee.Employee
	calls     int
}

func (f *fakeEmployeeRepo) GetByID(_ context.Context, id string, companyID string) (employee.Employee, error) {
	f.calls++
	e, ok := f.employees[id]
	if !ok || e.CompanyID != companyID {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

func (f *fakeEmployeeRepo) GetActiveByCompanyID(_ context.Context, companyID string) ([]employee.Employee, error) {
	var out []employee.Employee
	for _, e := range f.employees {
		if e.CompanyID == companyID && e.IsActive() {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEmployeeRepo) ListCompanyIDsWithActiveEmployees(context.Context) ([]string, error) {
	return nil, nil
}

type fakeAttendanceRepo struct {
	records []attendance.Attendance
}

func (f *fakeAttendanceRepo) Create(context.Context, attendance.Attendance) (attendance.Attendance, error) {
	return attendance.Attendance{}, nil
}

func (f *fakeAttendanceRepo) GetByID(context.Context, string, string) (attendance.Attendance, error) {
	return attendance.Attendance{}, attendance.ErrAttendanceNotFound
}

func (f *fakeAttendanceRepo) GetByEmployeeAndDate(context.Context, string, time.Time, string) (*attendance.Attendance, error) {
	return nil, nil
}

func (f *fakeAttendanceRepo) Update(_ context.Context, a attendance.Attendance, _ *int) (attendance.Attendance, error) {
	return a, nil
}

func (f *fakeAttendanceRepo) List(context.Context, attendance.AttendanceFilter, string) ([]attendance.Attendance, int64, error) {
	return nil, 0, nil
}

func (f *fakeAttendanceRepo) ListByEmployeeAndRange(context.Context, string, time.Time, time.Time, string) ([]attendance.Attendance, error) {
	return nil, nil
}

func (f *fakeAttendanceRepo) ListByCompanyAndRange(_ context.Context, companyID string, from, to time.Time) ([]attendance.Attendance, error) {
	var out []attendance.Attendance
	for _, r := range f.records {
		if r.CompanyID == companyID && !r.Date.Before(from) && !r.Date.After(to) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeAttendanceRepo) BulkCreateAbsences(context.Context, []attendance.Attendance) (int64, error) {
	return 0, nil
}

type fakeHolidayRepo struct {
	holidays []attendance.Holiday
}

func (f *fakeHolidayRepo) Create(_ context.Context, h attendance.Holiday) (attendance.Holiday, error) {
	f.holidays = append(f.holidays, h)
	return h, nil
}

func (f *fakeHolidayRepo) ListByRange(_ context.Context, companyID string, from, to time.Time) ([]attendance.Holiday, error) {
	var out []attendance.Holiday
	for _, h := range f.holidays {
		if h.CompanyID == companyID && !h.Date.Before(from) && !h.Date.After(to) {
			out = append(out, h)
		}
	}
	return out, nil
}

func (f *fakeHolidayRepo) IsHoliday(_ context.Context, companyID string, date time.Time) (bool, error) {
	for _, h := range f.holidays {
		if h.CompanyID == companyID && h.Date.Equal(date) {
			return true, nil
		}
	}
	return false, nil
}
