package attendance

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/cmlabs-hris/hrms-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hrms-backend-go/internal/domain/employee"
)

type fakeAttendanceRepo struct {
	records map[string]attendance.Attendance
	seq     int
}

func newFakeAttendanceRepo() *fakeAttendanceRepo {
	return &fakeAttendanceRepo{records: make(map[string]attendance.Attendance)}
}

func (f *fakeAttendanceRepo) Create(_ context.Context, a attendance.Attendance) (attendance.Attendance, error) {
	for _, r := range f.records {
		if r.EmployeeID == a.EmployeeID && r.Date.Equal(a.Date) {
			return attendance.Attendance{}, attendance.ErrAttendanceAlreadyExists
		}
	}
	f.seq++
	a.ID = fmt.Sprintf("att-%d", f.seq)
	a.Version = 1
	f.records[a.ID] = a
	return a, nil
}

func (f *fakeAttendanceRepo) GetByID(_ context.Context, id string, companyID string) (attendance.Attendance, error) {
	r, ok := f.records[id]
	if !ok || r.CompanyID != companyID {
		return attendance.Attendance{}, attendance.ErrAttendanceNotFound
	}
	return r, nil
}

func (f *fakeAttendanceRepo) GetByEmployeeAndDate(_ context.Context, employeeID string, date time.Time, companyID string) (*attendance.Attendance, error) {
	for _, r := range f.records {
		if r.EmployeeID == employeeID && r.CompanyID == companyID && r.Date.Equal(date) {
			return &r, nil
		}
	}
	return nil, nil
}

func (f *fakeAttendanceRepo) Update(_ context.Context, a attendance.Attendance, expectedVersion *int) (attendance.Attendance, error) {
	stored, ok := f.records[a.ID]
	if !ok {
		return attendance.Attendance{}, attendance.ErrAttendanceNotFound
	}
	if expectedVersion != nil && stored.Version != *expectedVersion {
		return attendance.Attendance{}, attendance.ErrVersionConflict
	}
	a.Version = stored.Version + 1
	f.records[a.ID] = a
	return a, nil
}

func (f *fakeAttendanceRepo) List(_ context.Context, filter attendance.AttendanceFilter, companyID string) ([]attendance.Attendance, int64, error) {
	var out []attendance.Attendance
	for _, r := range f.records {
		if r.CompanyID != companyID {
			continue
		}
		if filter.EmployeeID != nil && r.EmployeeID != *filter.EmployeeID {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (f *fakeAttendanceRepo) inRange(r attendance.Attendance, from, to time.Time) bool {
	return !r.Date.Before(from) && !r.Date.After(to)
}

func (f *fakeAttendanceRepo) ListByEmployeeAndRange(_ context.Context, employeeID string, from, to time.Time, companyID string) ([]attendance.Attendance, error) {
	var out []attendance.Attendance
	for _, r := range f.records {
		if r.EmployeeID == employeeID && r.CompanyID == companyID && f.inRange(r, from, to) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeAttendanceRepo) ListByCompanyAndRange(_ context.Context, companyID string, from, to time.Time) ([]attendance.Attendance, error) {
	var out []attendance.Attendance
	for _, r := range f.records {
		if r.CompanyID == companyID && f.inRange(r, from, to) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (f *fakeAttendanceRepo) BulkCreateAbsences(ctx context.Context, records []attendance.Attendance) (int64, error) {
	var n int64
	for _, r := range records {
		if _, err := f.Create(ctx, r); err == nil {
			n++
		}
	}
	return n, nil
}

type fakeSettingsRepo struct {
	settings map[string]attendance.Settings
}

func (f *fakeSettingsRepo) Get(_ context.Context, companyID string) (attendance.Settings, error) {
	s, ok := f.settings[companyID]
	if !ok {
		return attendance.Settings{}, attendance.ErrSettingsNotFound
	}
	return s, nil
}

func (f *fakeSettingsRepo) Upsert(_ context.Context, s attendance.Settings) (attendance.Settings, error) {
	if f.settings == nil {
		f.settings = make(map[string]attendance.Settings)
	}
	s.UpdatedAt = time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	f.settings[s.CompanyID] = s
	return s, nil
}

type fakeHolidayRepo struct {
	holidays []attendance.Holiday
}

func (f *fakeHolidayRepo) Create(_ context.Context, h attendance.Holiday) (attendance.Holiday, error) {
	for _, existing := range f.holidays {
		if existing.CompanyID == h.CompanyID && existing.Date.Equal(h.Date) {
			return attendance.Holiday{}, attendance.ErrHolidayExists
		}
	}
	h.ID = fmt.Sprintf("hol-%d", len(f.holidays)+1)
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

type fakeEmployeeRepo struct {
	employees []employee.Employee
}

func (f *fakeEmployeeRepo) GetByID(_ context.Context, id string, companyID string) (employee.Employee, error) {
	for _, e := range f.employees {
		if e.ID == id && e.CompanyID == companyID {
			return e, nil
		}
	}
	return employee.Employee{}, employee.ErrEmployeeNotFound
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

func (f *fakeEmployeeRepo) ListCompanyIDsWithActiveEmployees(_ context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	for _, e := range f.employees {
		if _, ok := seen[e.CompanyID]; !ok && e.IsActive() {
			seen[e.CompanyID] = struct{}{}
			out = append(out, e.CompanyID)
		}
	}
	return out, nil
}
