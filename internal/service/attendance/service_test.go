package attendance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/hrms-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hrms-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/hrms-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/hrms-backend-go/internal/pkg/sse"
	"github.com/cmlabs-hris/hrms-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const testCompanyID = "c1"

type testEnv struct {
	svc      *AttendanceServiceImpl
	records  *fakeAttendanceRepo
	settings *fakeSettingsRepo
	holidays *fakeHolidayRepo
	hub      *sse.Hub
	clock    time.Time
}

// newTestEnv fixes "now" at Thursday 2025-03-13 10:00 UTC
func newTestEnv() *testEnv {
	env := &testEnv{
		records:  newFakeAttendanceRepo(),
		settings: &fakeSettingsRepo{},
		holidays: &fakeHolidayRepo{},
		hub:      sse.NewHub(),
		clock:    time.Date(2025, time.March, 13, 10, 0, 0, 0, time.UTC),
	}
	employees := &fakeEmployeeRepo{employees: []employee.Employee{
		{ID: "e1", CompanyID: testCompanyID, EmployeeCode: "E001", FullName: "Jane Doe", EmploymentStatus: employee.EmploymentStatusActive},
		{ID: "e2", CompanyID: testCompanyID, EmployeeCode: "E002", FullName: "John Roe", EmploymentStatus: employee.EmploymentStatusActive},
		{ID: "e-left", CompanyID: testCompanyID, EmployeeCode: "E003", FullName: "Sam Left", EmploymentStatus: employee.EmploymentStatusInactive},
	}}
	svc := NewAttendanceService(env.records, env.settings, env.holidays, employees, env.hub).(*AttendanceServiceImpl)
	svc.now = func() time.Time { return env.clock }
	env.svc = svc
	return env
}

func hrContext() context.Context {
	return user.WithClaims(context.Background(), user.Claims{UserID: "u-hr", EmployeeID: "e9", CompanyID: testCompanyID, Role: user.RoleHR})
}

func employeeContext(employeeID string) context.Context {
	return user.WithClaims(context.Background(), user.Claims{UserID: "u-" + employeeID, EmployeeID: employeeID, CompanyID: testCompanyID, Role: user.RoleEmployee})
}

func strPtr(s string) *string { return &s }

func assertValidationField(t *testing.T, err error, field string) {
	t.Helper()
	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs), "expected validation errors, got %v", err)
	assert.Contains(t, verrs.ToMap(), field)
}

func TestAttendanceService_GetSettings_Defaults(t *testing.T) {
	env := newTestEnv()

	resp, err := env.svc.GetSettings(hrContext())
	require.NoError(t, err)
	assert.Equal(t, "8", resp.StandardWorkHours.String())
	assert.Equal(t, "4", resp.HalfDayThreshold.String())
	assert.True(t, resp.AllowSelfClockIn)
	assert.Nil(t, resp.UpdatedAt)
}

func TestAttendanceService_UpdateSettings(t *testing.T) {
	env := newTestEnv()
	events, cleanup := env.hub.Subscribe(testCompanyID)
	defer cleanup()

	standard := decimal.RequireFromString("7.5")
	half := decimal.RequireFromString("9")
	allow := false

	_, err := env.svc.UpdateSettings(hrContext(), attendance.UpdateSettingsRequest{
		StandardWorkHours: &standard, HalfDayThreshold: &half, AllowSelfClockIn: &allow,
	})
	assertValidationField(t, err, "half_day_threshold")

	half = decimal.RequireFromString("3.75")
	resp, err := env.svc.UpdateSettings(hrContext(), attendance.UpdateSettingsRequest{
		StandardWorkHours: &standard, HalfDayThreshold: &half, AllowSelfClockIn: &allow,
	})
	require.NoError(t, err)
	assert.Equal(t, "7.5", resp.StandardWorkHours.String())
	assert.False(t, resp.AllowSelfClockIn)
	require.NotNil(t, resp.UpdatedAt)

	select {
	case ev := <-events:
		assert.Equal(t, sse.EventAttendanceChanged, ev.Event)
	default:
		t.Fatal("expected an invalidation event")
	}
}

func TestAttendanceService_Preview(t *testing.T) {
	env := newTestEnv()

	resp, err := env.svc.Preview(hrContext(), attendance.PreviewRequest{
		CheckIn:  strPtr("2025-03-03T09:00:00Z"),
		CheckOut: strPtr("2025-03-03T17:30:00Z"),
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Hours)
	assert.Equal(t, "8.5", resp.Hours.String())
	assert.Equal(t, attendance.StatusPresent, *resp.Status)
	assert.True(t, resp.Determined)

	resp, err = env.svc.Preview(hrContext(), attendance.PreviewRequest{CheckIn: strPtr("2025-03-03T09:00:00Z")})
	require.NoError(t, err)
	assert.Nil(t, resp.Hours)
	assert.Nil(t, resp.Status)
	assert.False(t, resp.Determined)

	_, err = env.svc.Preview(hrContext(), attendance.PreviewRequest{CheckIn: strPtr("09:00")})
	assertValidationField(t, err, "check_in")
}

func TestAttendanceService_Mark(t *testing.T) {
	env := newTestEnv()
	ctx := hrContext()

	resp, err := env.svc.Mark(ctx, attendance.MarkAttendanceRequest{
		EmployeeID: "e1",
		Date:       "2025-03-03",
		CheckIn:    strPtr("2025-03-03T09:00:00Z"),
		CheckOut:   strPtr("2025-03-03T15:00:00Z"),
	})
	require.NoError(t, err)
	assert.Equal(t, "2025-03-03", resp.Date)
	assert.Equal(t, "6", resp.WorkHours.String())
	assert.Equal(t, attendance.StatusHalfDay, *resp.Status)
	assert.False(t, resp.StatusOverridden)
	require.NotNil(t, resp.EditedBy)
	assert.Equal(t, "u-hr", *resp.EditedBy)

	t.Run("status only", func(t *testing.T) {
		resp, err := env.svc.Mark(ctx, attendance.MarkAttendanceRequest{
			EmployeeID: "e1",
			Date:       "2025-03-04",
			Status:     strPtr("on_leave"),
		})
		require.NoError(t, err)
		assert.Nil(t, resp.WorkHours)
		assert.Equal(t, attendance.StatusOnLeave, *resp.Status)
		assert.True(t, resp.StatusOverridden)
	})

	t.Run("duplicate date", func(t *testing.T) {
		_, err := env.svc.Mark(ctx, attendance.MarkAttendanceRequest{
			EmployeeID: "e1",
			Date:       "2025-03-03",
			Status:     strPtr("present"),
		})
		assert.ErrorIs(t, err, attendance.ErrAttendanceAlreadyExists)
	})

	t.Run("unknown employee", func(t *testing.T) {
		_, err := env.svc.Mark(ctx, attendance.MarkAttendanceRequest{
			EmployeeID: "nope",
			Date:       "2025-03-03",
			Status:     strPtr("present"),
		})
		assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
	})

	t.Run("inactive employee", func(t *testing.T) {
		_, err := env.svc.Mark(ctx, attendance.MarkAttendanceRequest{
			EmployeeID: "e-left",
			Date:       "2025-03-03",
			Status:     strPtr("present"),
		})
		assert.ErrorIs(t, err, employee.ErrEmployeeInactive)
	})

	t.Run("status required without a full pair", func(t *testing.T) {
		_, err := env.svc.Mark(ctx, attendance.MarkAttendanceRequest{
			EmployeeID: "e2",
			Date:       "2025-03-03",
			CheckIn:    strPtr("2025-03-03T09:00:00Z"),
		})
		assertValidationField(t, err, "status")
	})
}

func TestAttendanceService_ClockInClockOut(t *testing.T) {
	env := newTestEnv()
	ctx := employeeContext("e1")

	_, err := env.svc.ClockOut(ctx, attendance.ClockRequest{})
	assert.ErrorIs(t, err, attendance.ErrNotCheckedIn)

	env.clock = time.Date(2025, time.March, 13, 9, 0, 0, 0, time.UTC)
	in, err := env.svc.ClockIn(ctx, attendance.ClockRequest{Notes: "office"})
	require.NoError(t, err)
	assert.Equal(t, "2025-03-13", in.Date)
	assert.Equal(t, "2025-03-13T09:00:00Z", *in.CheckIn)
	assert.Nil(t, in.Status)

	_, err = env.svc.ClockIn(ctx, attendance.ClockRequest{})
	assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedIn)

	env.clock = time.Date(2025, time.March, 13, 13, 30, 0, 0, time.UTC)
	out, err := env.svc.ClockOut(ctx, attendance.ClockRequest{})
	require.NoError(t, err)
	assert.Equal(t, "4.5", out.WorkHours.String())
	assert.Equal(t, attendance.StatusHalfDay, *out.Status)
	assert.Equal(t, "office", out.Notes)
	assert.Equal(t, 2, out.Version)

	_, err = env.svc.ClockOut(ctx, attendance.ClockRequest{})
	assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedOut)
}

func TestAttendanceService_ClockIn_Disabled(t *testing.T) {
	env := newTestEnv()
	env.settings.settings = map[string]attendance.Settings{
		testCompanyID: {
			CompanyID:         testCompanyID,
			StandardWorkHours: decimal.NewFromInt(8),
			HalfDayThreshold:  decimal.NewFromInt(4),
			AllowSelfClockIn:  false,
		},
	}

	_, err := env.svc.ClockIn(employeeContext("e1"), attendance.ClockRequest{})
	assert.ErrorIs(t, err, attendance.ErrSelfClockInDisabled)
}

func TestAttendanceService_ClockIn_RequiresEmployee(t *testing.T) {
	env := newTestEnv()
	ctx := user.WithClaims(context.Background(), user.Claims{UserID: "admin", CompanyID: testCompanyID, Role: user.RoleAdmin})

	_, err := env.svc.ClockIn(ctx, attendance.ClockRequest{})
	assert.ErrorIs(t, err, user.ErrEmployeeRequired)
}

func TestAttendanceService_Update(t *testing.T) {
	env := newTestEnv()
	ctx := hrContext()

	created, err := env.svc.Mark(ctx, attendance.MarkAttendanceRequest{
		EmployeeID: "e1",
		Date:       "2025-03-03",
		CheckIn:    strPtr("2025-03-03T09:00:00Z"),
		CheckOut:   strPtr("2025-03-03T12:00:00Z"),
	})
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusAbsent, *created.Status)

	t.Run("edit reason is mandatory", func(t *testing.T) {
		_, err := env.svc.Update(ctx, attendance.UpdateAttendanceRequest{ID: created.ID, CheckOut: strPtr("2025-03-03T18:00:00Z")})
		assertValidationField(t, err, "edit_reason")
	})

	t.Run("new check-out reclassifies", func(t *testing.T) {
		resp, err := env.svc.Update(ctx, attendance.UpdateAttendanceRequest{
			ID:         created.ID,
			CheckOut:   strPtr("2025-03-03T18:00:00Z"),
			EditReason: "forgot to clock out",
			Version:    &created.Version,
		})
		require.NoError(t, err)
		assert.Equal(t, "9", resp.WorkHours.String())
		assert.Equal(t, attendance.StatusPresent, *resp.Status)
		assert.Equal(t, "forgot to clock out", *resp.EditReason)
		assert.Equal(t, 2, resp.Version)
	})

	t.Run("stale version conflicts", func(t *testing.T) {
		_, err := env.svc.Update(ctx, attendance.UpdateAttendanceRequest{
			ID:         created.ID,
			Notes:      strPtr("late"),
			EditReason: "note",
			Version:    &created.Version,
		})
		assert.ErrorIs(t, err, attendance.ErrVersionConflict)
	})

	t.Run("timestamp edits drop the override", func(t *testing.T) {
		resp, err := env.svc.Update(ctx, attendance.UpdateAttendanceRequest{
			ID: created.ID, Status: strPtr("on_leave"), EditReason: "approved leave",
		})
		require.NoError(t, err)
		assert.Equal(t, attendance.StatusOnLeave, *resp.Status)
		assert.True(t, resp.StatusOverridden)
		assert.Equal(t, "9", resp.WorkHours.String())

		resp, err = env.svc.Update(ctx, attendance.UpdateAttendanceRequest{
			ID: created.ID, CheckIn: strPtr("2025-03-03T14:00:00Z"), EditReason: "fix check-in",
		})
		require.NoError(t, err)
		assert.Equal(t, attendance.StatusHalfDay, *resp.Status)
		assert.False(t, resp.StatusOverridden)
		assert.Equal(t, "4", resp.WorkHours.String())
	})

	t.Run("override survives note edits until cleared", func(t *testing.T) {
		resp, err := env.svc.Update(ctx, attendance.UpdateAttendanceRequest{
			ID: created.ID, Status: strPtr("absent"), EditReason: "no show",
		})
		require.NoError(t, err)
		assert.Equal(t, attendance.StatusAbsent, *resp.Status)

		resp, err = env.svc.Update(ctx, attendance.UpdateAttendanceRequest{
			ID: created.ID, Notes: strPtr("called in"), EditReason: "note",
		})
		require.NoError(t, err)
		assert.Equal(t, attendance.StatusAbsent, *resp.Status)
		assert.True(t, resp.StatusOverridden)

		resp, err = env.svc.Update(ctx, attendance.UpdateAttendanceRequest{
			ID: created.ID, ClearStatusOverride: true, EditReason: "leave cancelled",
		})
		require.NoError(t, err)
		assert.Equal(t, attendance.StatusHalfDay, *resp.Status)
		assert.False(t, resp.StatusOverridden)
	})

	t.Run("check-out before check-in", func(t *testing.T) {
		_, err := env.svc.Update(ctx, attendance.UpdateAttendanceRequest{
			ID: created.ID, CheckOut: strPtr("2025-03-03T08:00:00Z"), EditReason: "typo",
		})
		assert.ErrorIs(t, err, attendance.ErrCheckOutNotAfterIn)
	})

	t.Run("other company cannot see the record", func(t *testing.T) {
		other := user.WithClaims(context.Background(), user.Claims{UserID: "x", CompanyID: "c2", Role: user.RoleHR})
		_, err := env.svc.Update(other, attendance.UpdateAttendanceRequest{ID: created.ID, EditReason: "x"})
		assert.ErrorIs(t, err, attendance.ErrAttendanceNotFound)
	})
}

func TestAttendanceService_ListMine(t *testing.T) {
	env := newTestEnv()
	ctx := hrContext()
	for _, req := range []attendance.MarkAttendanceRequest{
		{EmployeeID: "e1", Date: "2025-03-03", Status: strPtr("present")},
		{EmployeeID: "e1", Date: "2025-03-04", Status: strPtr("present")},
		{EmployeeID: "e2", Date: "2025-03-03", Status: strPtr("absent")},
	} {
		_, err := env.svc.Mark(ctx, req)
		require.NoError(t, err)
	}

	resp, err := env.svc.ListMine(employeeContext("e1"), attendance.AttendanceFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.TotalCount)
	assert.Equal(t, "1-2 of 2", resp.Showing)
	assert.Equal(t, 1, resp.TotalPages)

	all, err := env.svc.List(ctx, attendance.AttendanceFilter{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), all.TotalCount)
	assert.Equal(t, 2, all.TotalPages)

	none, err := env.svc.ListMine(employeeContext("e3"), attendance.AttendanceFilter{})
	require.NoError(t, err)
	assert.Equal(t, "0 of 0", none.Showing)
}

func TestAttendanceService_MonthlySummary(t *testing.T) {
	env := newTestEnv()
	ctx := hrContext()

	_, err := env.svc.Mark(ctx, attendance.MarkAttendanceRequest{EmployeeID: "e1", Date: "2025-03-03", Status: strPtr("present")})
	require.NoError(t, err)
	_, err = env.svc.Mark(ctx, attendance.MarkAttendanceRequest{EmployeeID: "e1", Date: "2025-03-04", Status: strPtr("half_day")})
	require.NoError(t, err)
	_, err = env.svc.CreateHoliday(ctx, attendance.CreateHolidayRequest{Date: "2025-03-05", Name: "Founders Day"})
	require.NoError(t, err)

	resp, err := env.svc.MonthlySummary(employeeContext("e1"), attendance.MonthlySummaryRequest{Year: 2025, Month: 3})
	require.NoError(t, err)
	assert.Equal(t, "e1", resp.EmployeeID)
	assert.Equal(t, 1.5, resp.Present)
	assert.Equal(t, 5.5, resp.Absent)
	assert.Equal(t, 1, resp.HalfDays)
	assert.Equal(t, 5, resp.UnmarkedAbsent)
	assert.Equal(t, 1, resp.Holidays)
	assert.Equal(t, 4, resp.Weekends)
	assert.Equal(t, 1, resp.Pending)
	assert.Equal(t, 21, resp.AttendanceRate)
	assert.Len(t, resp.Days, 31)

	t.Run("employees cannot read someone else's month", func(t *testing.T) {
		_, err := env.svc.MonthlySummary(employeeContext("e2"), attendance.MonthlySummaryRequest{EmployeeID: "e1", Year: 2025, Month: 3})
		assert.ErrorIs(t, err, attendance.ErrUnauthorized)
	})

	t.Run("hr reads any employee", func(t *testing.T) {
		resp, err := env.svc.MonthlySummary(ctx, attendance.MonthlySummaryRequest{EmployeeID: "e2", Year: 2025, Month: 3})
		require.NoError(t, err)
		assert.Equal(t, float64(0), resp.Present)
		assert.Equal(t, 0, resp.AttendanceRate)
	})

	t.Run("local clock ahead of UTC keeps today pending", func(t *testing.T) {
		env.clock = time.Date(2025, time.March, 14, 2, 0, 0, 0, time.FixedZone("WIB", 7*60*60))
		defer func() { env.clock = time.Date(2025, time.March, 13, 10, 0, 0, 0, time.UTC) }()

		resp, err := env.svc.MonthlySummary(employeeContext("e1"), attendance.MonthlySummaryRequest{Year: 2025, Month: 3})
		require.NoError(t, err)
		assert.Equal(t, 5, resp.UnmarkedAbsent)
		assert.Equal(t, 1, resp.Pending)
	})
}

func TestAttendanceService_ExportMonth(t *testing.T) {
	env := newTestEnv()
	ctx := hrContext()

	_, err := env.svc.Mark(ctx, attendance.MarkAttendanceRequest{
		EmployeeID: "e1",
		Date:       "2025-03-03",
		CheckIn:    strPtr("2025-03-03T09:00:00Z"),
		CheckOut:   strPtr("2025-03-03T17:00:00Z"),
	})
	require.NoError(t, err)

	buf, filename, err := env.svc.ExportMonth(ctx, attendance.ExportMonthRequest{Year: 2025, Month: 3})
	require.NoError(t, err)
	assert.Equal(t, "attendance_2025_03.xlsx", filename)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	summary, err := f.GetRows("Summary")
	require.NoError(t, err)
	require.Len(t, summary, 3)
	assert.Equal(t, "Employee Code", summary[0][0])
	assert.Equal(t, "E001", summary[1][0])

	records, err := f.GetRows("Records")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "2025-03-03", records[1][0])
	assert.Equal(t, "present", records[1][6])

	_, _, err = env.svc.ExportMonth(ctx, attendance.ExportMonthRequest{Year: 2025, Month: 13})
	assertValidationField(t, err, "month")
}

func TestAttendanceService_Holidays(t *testing.T) {
	env := newTestEnv()
	ctx := hrContext()

	_, err := env.svc.CreateHoliday(ctx, attendance.CreateHolidayRequest{Date: "2025-12-25", Name: "Christmas"})
	require.NoError(t, err)
	_, err = env.svc.CreateHoliday(ctx, attendance.CreateHolidayRequest{Date: "2025-12-25", Name: "Again"})
	assert.ErrorIs(t, err, attendance.ErrHolidayExists)

	holidays, err := env.svc.ListHolidays(ctx, 0)
	require.NoError(t, err)
	require.Len(t, holidays, 1)
	assert.Equal(t, "2025-12-25", holidays[0].Date)

	holidays, err = env.svc.ListHolidays(ctx, 2026)
	require.NoError(t, err)
	assert.Empty(t, holidays)
}
