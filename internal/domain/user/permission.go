package user

import "slices"

type Permission string

const (
	// Attendance
	PermissionAttendanceViewOwn  Permission = "attendance.view_own"
	PermissionAttendanceClock    Permission = "attendance.clock"
	PermissionAttendanceViewAll  Permission = "attendance.view_all"
	PermissionAttendanceManage   Permission = "attendance.manage"
	PermissionAttendanceSettings Permission = "attendance.settings"
	PermissionAttendanceHolidays Permission = "attendance.holidays"
	PermissionAttendanceExport   Permission = "attendance.export"

	// Regularization
	PermissionRegularizationCreate  Permission = "regularization.create"
	PermissionRegularizationViewOwn Permission = "regularization.view_own"
	PermissionRegularizationViewAll Permission = "regularization.view_all"
	PermissionRegularizationReview  Permission = "regularization.review"

	// Payroll
	PermissionPayrollViewOwn Permission = "payroll.view_own"
	PermissionPayrollViewAll Permission = "payroll.view_all"
	PermissionPayrollManage  Permission = "payroll.manage"
)

var employeePermissions = []Permission{
	PermissionAttendanceViewOwn,
	PermissionAttendanceClock,
	PermissionRegularizationCreate,
	PermissionRegularizationViewOwn,
	PermissionPayrollViewOwn,
}

var hrPermissions = append(slices.Clone(employeePermissions),
	PermissionAttendanceViewAll,
	PermissionAttendanceManage,
	PermissionAttendanceExport,
	PermissionRegularizationViewAll,
	PermissionRegularizationReview,
	PermissionPayrollViewAll,
	PermissionPayrollManage,
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleEmployee: employeePermissions,
	RoleHR:       hrPermissions,
	RoleAdmin: append(slices.Clone(hrPermissions),
		PermissionAttendanceSettings,
		PermissionAttendanceHolidays,
	),
}

// HasPermission checks if a role has a specific permission
func HasPermission(role Role, permission Permission) bool {
	return slices.Contains(RolePermissions[role], permission)
}
