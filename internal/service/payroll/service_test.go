package payroll

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/cmlabs-hris/hrms-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hrms-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/hrms-backend-go/internal/domain/payroll"
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
	svc       *PayrollServiceImpl
	tx        *fakeTransactor
	repo      *fakePayrollRepo
	employees *fakeEmployeeRepo
	records   *fakeAttendanceRepo
	holidays  *fakeHolidayRepo
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, d(want).Equal(got), "want %s, got %s", want, got)
}

func newTestEnv() *testEnv {
	name1, name2 := "Jane Doe", "John Roe"
	env := &testEnv{
		tx:   &fakeTransactor{},
		repo: newFakePayrollRepo(),
		employees: &fakeEmployeeRepo{employees: map[string]employee.Employee{
			"e1": {ID: "e1", CompanyID: testCompanyID, EmployeeCode: "E001", FullName: name1, EmploymentStatus: employee.EmploymentStatusActive},
			"e2": {ID: "e2", CompanyID: testCompanyID, EmployeeCode: "E002", FullName: name2, EmploymentStatus: employee.EmploymentStatusActive},
		}},
		records:  &fakeAttendanceRepo{},
		holidays: &fakeHolidayRepo{},
	}
	env.repo.structures["e1"] = payroll.SalaryStructure{
		EmployeeID: "e1", CompanyID: testCompanyID, EmployeeName: &name1,
		Basic: d("31000"), HRA: d("5000"), PF: d("1800"), Tax: d("200"),
	}
	env.repo.structures["e2"] = payroll.SalaryStructure{
		EmployeeID: "e2", CompanyID: testCompanyID, EmployeeName: &name2,
		Basic: d("20000"),
	}

	svc := NewPayrollService(env.tx, env.repo, env.employees, env.records, env.holidays, sse.NewHub()).(*PayrollServiceImpl)
	svc.now = func() time.Time { return time.Date(2025, time.April, 2, 9, 0, 0, 0, time.UTC) }
	env.svc = svc
	return env
}

// seedMarch fills March 2025: e2 present every workday, e1 present except a
// half day on the 10th and no record on the 11th. The 14th is a holiday.
func (env *testEnv) seedMarch() {
	holiday := time.Date(2025, time.March, 14, 0, 0, 0, 0, time.UTC)
	env.holidays.holidays = append(env.holidays.holidays, attendance.Holiday{CompanyID: testCompanyID, Date: holiday, Name: "Founders Day"})

	for day := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC); day.Month() == time.March; day = day.AddDate(0, 0, 1) {
		if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday || day.Equal(holiday) {
			continue
		}
		env.records.records = append(env.records.records, attendance.Attendance{
			CompanyID: testCompanyID, EmployeeID: "e2", Date: day, Status: attendance.StatusPtr(attendance.StatusPresent),
		})
		switch day.Day() {
		case 10:
			env.records.records = append(env.records.records, attendance.Attendance{
				CompanyID: testCompanyID, EmployeeID: "e1", Date: day, Status: attendance.StatusPtr(attendance.StatusHalfDay),
			})
		case 11:
		default:
			env.records.records = append(env.records.records, attendance.Attendance{
				CompanyID: testCompanyID, EmployeeID: "e1", Date: day, Status: attendance.StatusPtr(attendance.StatusPresent),
			})
		}
	}
}

func hrContext() context.Context {
	return user.WithClaims(context.Background(), user.Claims{UserID: "u-hr", CompanyID: testCompanyID, Role: user.RoleHR})
}

func employeeContext(employeeID string) context.Context {
	return user.WithClaims(context.Background(), user.Claims{UserID: "u-" + employeeID, EmployeeID: employeeID, CompanyID: testCompanyID, Role: user.RoleEmployee})
}

func TestPayrollService_CreateSlip(t *testing.T) {
	env := newTestEnv()

	resp, err := env.svc.CreateSlip(hrContext(), payroll.CreateSlipRequest{
		EmployeeID: "e1",
		Month:      3,
		Year:       2025,
		Components: json.RawMessage(`{"basic":"30000","hra":5000,"pf":1800,"tax":200,"lop":"n/a","other_deductions":null}`),
	})
	require.NoError(t, err)
	assertDecimal(t, "30000", resp.Earnings.BasicSalary)
	assertDecimal(t, "35000", resp.GrossSalary)
	assertDecimal(t, "2000", resp.TotalDeductions)
	assertDecimal(t, "33000", resp.NetSalary)
	assertDecimal(t, "0", resp.Deductions.LossOfPay)
	assert.Equal(t, 31, resp.TotalDays)
	assert.Equal(t, "2025-04-02T09:00:00Z", resp.GeneratedAt)
	require.Len(t, env.repo.slips, 1)
	assert.Equal(t, "u-hr", *env.repo.slips[0].CreatedBy)
}

func TestPayrollService_CreateSlip_ValidatesBeforeLookup(t *testing.T) {
	env := newTestEnv()

	_, err := env.svc.CreateSlip(hrContext(), payroll.CreateSlipRequest{
		Month:      3,
		Year:       2025,
		Components: json.RawMessage(`{"basic_salary":1000}`),
	})
	var errs validator.ValidationErrors
	require.ErrorAs(t, err, &errs)
	assert.Contains(t, errs.ToMap(), "employee_id")
	assert.Zero(t, env.employees.calls)
	assert.Empty(t, env.repo.slips)

	_, err = env.svc.CreateSlip(hrContext(), payroll.CreateSlipRequest{
		EmployeeID: "ghost",
		Month:      3,
		Year:       2025,
		Components: json.RawMessage(`{}`),
	})
	assert.ErrorIs(t, err, payroll.ErrEmployeeNotFound)
}

func TestPayrollService_Preview(t *testing.T) {
	env := newTestEnv()
	env.seedMarch()

	resp, err := env.svc.Preview(hrContext(), payroll.PeriodRequest{Month: 3, Year: 2025})
	require.NoError(t, err)

	require.Len(t, resp.Slips, 2)
	jane := resp.Slips[0]
	assert.Equal(t, "Jane Doe", jane.EmployeeName)
	assertDecimal(t, "1.5", jane.AbsentDays)
	assertDecimal(t, "1500", jane.Deductions.LossOfPay)
	assertDecimal(t, "36000", jane.GrossSalary)
	assertDecimal(t, "32500", jane.NetSalary)

	john := resp.Slips[1]
	assertDecimal(t, "0", john.AbsentDays)
	assertDecimal(t, "20000", john.NetSalary)

	assert.Equal(t, 2, resp.Summary.EmployeeCount)
	assertDecimal(t, "56000", resp.Summary.TotalGross)
	assertDecimal(t, "52500", resp.Summary.TotalNet)

	assert.Empty(t, env.repo.slips)
	assert.Empty(t, env.repo.batches)
	assert.Zero(t, env.tx.calls)
}

func TestPayrollService_ProcessLifecycle(t *testing.T) {
	env := newTestEnv()
	env.seedMarch()
	ctx := hrContext()
	period := payroll.PeriodRequest{Month: 3, Year: 2025}

	first, err := env.svc.Process(ctx, period)
	require.NoError(t, err)
	assert.Equal(t, payroll.BatchStatusProcessed, first.Batch.Status)
	assertDecimal(t, "52500", first.Batch.TotalAmount)
	assert.Equal(t, first.RunID, *first.Batch.LatestRunID)
	require.Len(t, env.repo.slips, 2)
	assert.Equal(t, first.Batch.ID, *env.repo.slips[0].BatchID)

	second, err := env.svc.Process(ctx, period)
	require.NoError(t, err)
	assert.Equal(t, first.Batch.ID, second.Batch.ID)
	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, payroll.BatchStatusProcessed, second.Batch.Status)
	assert.Equal(t, 2, env.tx.calls)

	current, err := env.svc.ListSlips(ctx, payroll.SlipFilter{})
	require.NoError(t, err)
	require.Equal(t, int64(2), current.TotalCount)
	for _, slip := range current.Slips {
		assert.Equal(t, second.RunID, *slip.RunID)
	}
	mine, err := env.svc.ListMySlips(employeeContext("e1"), payroll.SlipFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), mine.TotalCount)
	history, err := env.svc.ListSlips(ctx, payroll.SlipFilter{AllRuns: true})
	require.NoError(t, err)
	assert.Equal(t, int64(4), history.TotalCount)

	batch, err := env.svc.GetBatch(ctx, first.Batch.ID)
	require.NoError(t, err)
	require.Len(t, batch.Runs, 2)
	for _, run := range batch.Runs {
		assert.Equal(t, 2, run.SlipCount)
		assertDecimal(t, "52500", run.TotalNet)
	}

	paid, err := env.svc.MarkPaid(ctx, first.Batch.ID)
	require.NoError(t, err)
	assert.Equal(t, payroll.BatchStatusPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)

	_, err = env.svc.MarkPaid(ctx, first.Batch.ID)
	assert.ErrorIs(t, err, payroll.ErrBatchAlreadyPaid)
	_, err = env.svc.Process(ctx, period)
	assert.ErrorIs(t, err, payroll.ErrBatchAlreadyPaid)
	assert.Len(t, env.repo.slips, 4)
}

func TestPayrollService_MarkPaid_RequiresProcessed(t *testing.T) {
	env := newTestEnv()

	batch, err := env.svc.CreateBatch(hrContext(), payroll.PeriodRequest{Month: 2, Year: 2025})
	require.NoError(t, err)
	assert.Equal(t, payroll.BatchStatusDraft, batch.Status)

	_, err = env.svc.CreateBatch(hrContext(), payroll.PeriodRequest{Month: 2, Year: 2025})
	assert.ErrorIs(t, err, payroll.ErrBatchAlreadyExists)

	_, err = env.svc.MarkPaid(hrContext(), batch.ID)
	assert.ErrorIs(t, err, payroll.ErrBatchNotProcessed)

	_, _, err = env.svc.ExportBatch(hrContext(), batch.ID)
	assert.ErrorIs(t, err, payroll.ErrBatchNotProcessed)
}

func TestPayrollService_Process_NoStructures(t *testing.T) {
	env := newTestEnv()
	env.repo.structures = map[string]payroll.SalaryStructure{}

	_, err := env.svc.Process(hrContext(), payroll.PeriodRequest{Month: 3, Year: 2025})
	assert.ErrorIs(t, err, payroll.ErrNoEligibleEmployees)
	assert.Empty(t, env.repo.batches)
}

func TestPayrollService_ExportBatch_LatestRunOnly(t *testing.T) {
	env := newTestEnv()
	env.seedMarch()
	ctx := hrContext()

	_, err := env.svc.Process(ctx, payroll.PeriodRequest{Month: 3, Year: 2025})
	require.NoError(t, err)
	second, err := env.svc.Process(ctx, payroll.PeriodRequest{Month: 3, Year: 2025})
	require.NoError(t, err)

	buf, filename, err := env.svc.ExportBatch(ctx, second.Batch.ID)
	require.NoError(t, err)
	assert.Equal(t, "payroll_2025_03.xlsx", filename)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Salary Slips")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Employee Code", rows[0][0])
	assert.Equal(t, "Jane Doe", rows[1][1])
	assert.Equal(t, "1500.00", rows[1][9])
	assert.Equal(t, "32500.00", rows[1][13])
	assert.Equal(t, "20000.00", rows[2][13])
}

func TestPayrollService_SlipAccess(t *testing.T) {
	env := newTestEnv()

	created, err := env.svc.CreateSlip(hrContext(), payroll.CreateSlipRequest{
		EmployeeID: "e1",
		Month:      3,
		Year:       2025,
		Components: json.RawMessage(`{"basic_salary":1000}`),
	})
	require.NoError(t, err)

	_, err = env.svc.GetSlip(employeeContext("e2"), created.ID)
	assert.ErrorIs(t, err, payroll.ErrNotOwner)

	own, err := env.svc.GetSlip(employeeContext("e1"), created.ID)
	require.NoError(t, err)
	assertDecimal(t, "1000", own.NetSalary)

	mine, err := env.svc.ListMySlips(employeeContext("e2"), payroll.SlipFilter{})
	require.NoError(t, err)
	assert.Zero(t, mine.TotalCount)
	assert.Equal(t, "0 of 0", mine.Showing)

	all, err := env.svc.ListSlips(hrContext(), payroll.SlipFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), all.TotalCount)
	assert.Equal(t, "1-1 of 1", all.Showing)
}

func TestPayrollService_Structures(t *testing.T) {
	env := newTestEnv()
	basic := d("45000")
	hra := d("9000")

	saved, err := env.svc.UpsertStructure(hrContext(), payroll.UpsertStructureRequest{
		EmployeeID:  "e2",
		BasicSalary: &basic,
		HRA:         &hra,
	})
	require.NoError(t, err)
	assert.Equal(t, "John Roe", saved.EmployeeName)
	assertDecimal(t, "45000", saved.BasicSalary)
	assertDecimal(t, "0", saved.PF)

	got, err := env.svc.GetStructure(hrContext(), "e2")
	require.NoError(t, err)
	assertDecimal(t, "9000", got.HRA)

	_, err = env.svc.UpsertStructure(hrContext(), payroll.UpsertStructureRequest{EmployeeID: "ghost", BasicSalary: &basic})
	assert.ErrorIs(t, err, payroll.ErrEmployeeNotFound)
}
