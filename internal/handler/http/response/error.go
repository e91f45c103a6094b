package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hrms-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hrms-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/hrms-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hrms-backend-go/internal/domain/regularization"
	"github.com/cmlabs-hris/hrms-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/hrms-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses. Domain messages are passed through as-is.
func HandleError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth & role errors
	case errors.Is(err, user.ErrMissingClaims):
		Unauthorized(w, err.Error())
	case errors.Is(err, user.ErrEmployeeRequired),
		errors.Is(err, user.ErrInsufficientPermissions):
		Forbidden(w, err.Error())

	// Employee domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound),
		errors.Is(err, payroll.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, employee.ErrEmployeeInactive):
		UnprocessableEntity(w, err.Error())

	// Attendance domain errors
	case errors.Is(err, attendance.ErrAttendanceNotFound):
		NotFound(w, "Attendance record not found")
	case errors.Is(err, attendance.ErrAttendanceAlreadyExists),
		errors.Is(err, attendance.ErrAlreadyCheckedIn),
		errors.Is(err, attendance.ErrAlreadyCheckedOut),
		errors.Is(err, attendance.ErrVersionConflict),
		errors.Is(err, attendance.ErrHolidayExists):
		Conflict(w, err.Error())
	case errors.Is(err, attendance.ErrUnauthorized),
		errors.Is(err, attendance.ErrSelfClockInDisabled):
		Forbidden(w, err.Error())
	case errors.Is(err, attendance.ErrNotCheckedIn):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, attendance.ErrCheckOutNotAfterIn),
		errors.Is(err, attendance.ErrInvalidSettings):
		UnprocessableEntity(w, err.Error())

	// Regularization domain errors
	case errors.Is(err, regularization.ErrRegularizationNotFound):
		NotFound(w, "Regularization request not found")
	case errors.Is(err, regularization.ErrAlreadyProcessed),
		errors.Is(err, regularization.ErrPendingRequestExists):
		Conflict(w, err.Error())
	case errors.Is(err, regularization.ErrNotOwner):
		Forbidden(w, err.Error())
	case errors.Is(err, regularization.ErrFutureDate):
		UnprocessableEntity(w, err.Error())

	// Payroll domain errors
	case errors.Is(err, payroll.ErrSlipNotFound):
		NotFound(w, "Salary slip not found")
	case errors.Is(err, payroll.ErrStructureNotFound):
		NotFound(w, "Salary structure not found")
	case errors.Is(err, payroll.ErrBatchNotFound):
		NotFound(w, "Payroll batch not found")
	case errors.Is(err, payroll.ErrBatchAlreadyExists),
		errors.Is(err, payroll.ErrBatchAlreadyPaid),
		errors.Is(err, payroll.ErrBatchNotProcessed),
		errors.Is(err, payroll.ErrInvalidTransition):
		Conflict(w, err.Error())
	case errors.Is(err, payroll.ErrNotOwner):
		Forbidden(w, err.Error())
	case errors.Is(err, payroll.ErrNoEligibleEmployees),
		errors.Is(err, payroll.ErrInvalidPeriod),
		errors.Is(err, payroll.ErrInvalidComponentJSON):
		UnprocessableEntity(w, err.Error())

	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
