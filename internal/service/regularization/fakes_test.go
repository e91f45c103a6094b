package regularization

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hrms-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hrms-backend-go/internal/domain/regularization"
)

type fakeTransactor struct {
	calls int
}

func (f *fakeTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	return fn(ctx)
}

type fakeRegRepo struct {
	regs map[string]regularization.Regularization
	seq  int
}

func (f *fakeRegRepo) Create(_ context.Context, reg regularization.Regularization) (regularization.Regularization, error) {
	f.seq++
	reg.ID = fmt.Sprintf("reg-%d", f.seq)
	reg.CreatedAt = time.Date(2025, time.March, 13, 8, 0, 0, 0, time.UTC)
	f.regs[reg.ID] = reg
	return reg, nil
}

func (f *fakeRegRepo) GetByID(_ context.Context, id string, companyID string) (regularization.Regularization, error) {
	reg, ok := f.regs[id]
	if !ok || reg.CompanyID != companyID {
		return regularization.Regularization{}, regularization.ErrRegularizationNotFound
	}
	return reg, nil
}

func (f *fakeRegRepo) List(_ context.Context, filter regularization.RegularizationFilter, companyID string) ([]regularization.Regularization, int64, error) {
	var out []regularization.Regularization
	for _, reg := range f.regs {
		if reg.CompanyID != companyID {
			continue
		}
		if filter.EmployeeID != nil && reg.EmployeeID != *filter.EmployeeID {
			continue
		}
		if filter.Status != nil && string(reg.Status) != *filter.Status {
			continue
		}
		out = append(out, reg)
	}
	return out, int64(len(out)), nil
}

func (f *fakeRegRepo) HasPending(_ context.Context, employeeID string, date time.Time, companyID string) (bool, error) {
	for _, reg := range f.regs {
		if reg.EmployeeID == employeeID && reg.CompanyID == companyID && reg.AttendanceDate.Equal(date) && reg.IsPending() {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRegRepo) Review(_ context.Context, reg regularization.Regularization) error {
	stored, ok := f.regs[reg.ID]
	if !ok || !stored.IsPending() {
		return regularization.ErrAlreadyProcessed
	}
	f.regs[reg.ID] = reg
	return nil
}

type fakeAttendanceRepo struct {
	records map[string]attendance.Attendance
	seq     int
}

func (f *fakeAttendanceRepo) Create(_ context.Context, a attendance.Attendance) (attendance.Attendance, error) {
	f.seq++
	a.ID = fmt.Sprintf("att-%d", f.seq)
	a.Version = 1
	f.records[a.ID] = a
	return a, nil
}

func (f *fakeAttendanceRepo) GetByID(_ context.Context, id string, companyID string) (attendance.Attendance, error) {
	a, ok := f.records[id]
	if !ok || a.CompanyID != companyID {
		return attendance.Attendance{}, attendance.ErrAttendanceNotFound
	}
	return a, nil
}

func (f *fakeAttendanceRepo) GetByEmployeeAndDate(_ context.Context, employeeID string, date time.Time, companyID string) (*attendance.Attendance, error) {
	for _, a := range f.records {
		if a.EmployeeID == employeeID && a.CompanyID == companyID && a.Date.Equal(date) {
			return &a, nil
		}
	}
	return nil, nil
}

func (f *fakeAttendanceRepo) Update(_ context.Context, a attendance.Attendance, _ *int) (attendance.Attendance, error) {
	stored, ok := f.records[a.ID]
	if !ok {
		return attendance.Attendance{}, attendance.ErrAttendanceNotFound
	}
	a.Version = stored.Version + 1
	f.records[a.ID] = a
	return a, nil
}

func (f *fakeAttendanceRepo) List(context.Context, attendance.AttendanceFilter, string) ([]attendance.Attendance, int64, error) {
	return nil, 0, nil
}

func (f *fakeAttendanceRepo) ListByEmployeeAndRange(context.Context, string, time.Time, time.Time, string) ([]attendance.Attendance, error) {
	return nil, nil
}

func (f *fakeAttendanceRepo) ListByCompanyAndRange(context.Context, string, time.Time, time.Time) ([]attendance.Attendance, error) {
	return nil, nil
}

func (f *fakeAttendanceRepo) BulkCreateAbsences(context.Context, []attendance.Attendance) (int64, error) {
	return 0, nil
}

type fakeSettingsRepo struct{}

func (fakeSettingsRepo) Get(context.Context, string) (attendance.Settings, error) {
	return attendance.Settings{}, attendance.ErrSettingsNotFound
}

func (fakeSettingsRepo) Upsert(_ context.Context, s attendance.Settings) (attendance.Settings, error) {
	return s, nil
}
