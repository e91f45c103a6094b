package regularization

import (
	"time"

	"github.com/cmlabs-hris/hrms-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hrms-backend-go/internal/pkg/validator"
)

type CreateRegularizationRequest struct {
	AttendanceDate string  `json:"attendance_date"`
	Type           string  `json:"type"`
	CheckIn        *string `json:"check_in"`
	CheckOut       *string `json:"check_out"`
	Status         *string `json:"status"`
	Reason         string  `json:"reason"`

	date     time.Time
	checkIn  *time.Time
	checkOut *time.Time
}

func (r *CreateRegularizationRequest) Validate() error {
	var errs validator.ValidationErrors

	if d, ok := validator.IsValidDate(r.AttendanceDate); !ok {
		errs.Add("attendance_date", "attendance_date must be in YYYY-MM-DD format")
	} else {
		r.date = d
	}

	if validator.IsEmpty(r.Reason) {
		errs.Add("reason", "reason is required")
	}

	r.checkIn = parseTimestamp(&errs, "check_in", r.CheckIn)
	r.checkOut = parseTimestamp(&errs, "check_out", r.CheckOut)

	switch Type(r.Type) {
	case TypeCheckIn:
		if r.CheckIn == nil {
			errs.Add("check_in", "check_in is required for a check_in correction")
		}
	case TypeCheckOut:
		if r.CheckOut == nil {
			errs.Add("check_out", "check_out is required for a check_out correction")
		}
	case TypeBoth:
		if r.CheckIn == nil {
			errs.Add("check_in", "check_in is required")
		}
		if r.CheckOut == nil {
			errs.Add("check_out", "check_out is required")
		}
		if r.checkIn != nil && r.checkOut != nil && !r.checkOut.After(*r.checkIn) {
			errs.Add("check_out", attendance.ErrCheckOutNotAfterIn.Error())
		}
	case TypeStatusChange:
		if r.Status == nil {
			errs.Add("status", "status is required for a status_change request")
		} else if !attendance.Status(*r.Status).IsValid() {
			errs.Add("status", "status must be one of: present, absent, half_day, on_leave")
		}
	default:
		errs.Add("type", "type must be one of: check_in, check_out, both, status_change")
	}

	return errs.OrNil()
}

// ToEntity builds a pending request; call Validate first
func (r *CreateRegularizationRequest) ToEntity(companyID, employeeID string) Regularization {
	reg := Regularization{
		CompanyID:      companyID,
		EmployeeID:     employeeID,
		AttendanceDate: r.date,
		Type:           Type(r.Type),
		Reason:         r.Reason,
		Status:         StatusPending,
	}
	switch reg.Type {
	case TypeCheckIn:
		reg.ProposedCheckIn = r.checkIn
	case TypeCheckOut:
		reg.ProposedCheckOut = r.checkOut
	case TypeBoth:
		reg.ProposedCheckIn = r.checkIn
		reg.ProposedCheckOut = r.checkOut
	case TypeStatusChange:
		s := attendance.Status(*r.Status)
		reg.ProposedStatus = &s
	}
	return reg
}

type RejectRequest struct {
	ID     string `json:"-"`
	Reason string `json:"reason"`
}

func (r *RejectRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.ID) {
		errs.Add("id", "id is required")
	}
	if validator.IsEmpty(r.Reason) {
		errs.Add("reason", "rejection reason is required")
	}
	return errs.OrNil()
}

type RegularizationFilter struct {
	EmployeeID *string `json:"employee_id,omitempty"`
	Status     *string `json:"status,omitempty"`
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
}

func (f *RegularizationFilter) Validate() error {
	var errs validator.ValidationErrors
	if f.Page < 0 {
		errs.Add("page", "page must be a positive number")
	}
	if f.Page == 0 {
		f.Page = 1
	}
	if f.Limit < 0 {
		errs.Add("limit", "limit must be a positive number")
	}
	if f.Limit == 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		errs.Add("limit", "limit must not exceed 100")
	}
	if f.Status != nil && !validator.IsInSlice(*f.Status, ValidStatuses) {
		errs.Add("status", "status must be one of: pending, approved, rejected")
	}
	return errs.OrNil()
}

type RegularizationResponse struct {
	ID               string             `json:"id"`
	EmployeeID       string             `json:"employee_id"`
	EmployeeName     string             `json:"employee_name,omitempty"`
	AttendanceDate   string             `json:"attendance_date"`
	Type             Type               `json:"type"`
	ProposedCheckIn  *string            `json:"proposed_check_in,omitempty"`
	ProposedCheckOut *string            `json:"proposed_check_out,omitempty"`
	ProposedStatus   *attendance.Status `json:"proposed_status,omitempty"`
	Reason           string             `json:"reason"`
	Status           Status             `json:"status"`
	AttendanceID     *string            `json:"attendance_id,omitempty"`
	ReviewedBy       *string            `json:"reviewed_by,omitempty"`
	ReviewedAt       *string            `json:"reviewed_at,omitempty"`
	RejectionReason  *string            `json:"rejection_reason,omitempty"`
	CreatedAt        string             `json:"created_at"`
}

type ListRegularizationResponse struct {
	TotalCount      int64                    `json:"total_count"`
	Page            int                      `json:"page"`
	Limit           int                      `json:"limit"`
	TotalPages      int                      `json:"total_pages"`
	Showing         string                   `json:"showing"`
	Regularizations []RegularizationResponse `json:"regularizations"`
}

func parseTimestamp(errs *validator.ValidationErrors, field string, value *string) *time.Time {
	if value == nil {
		return nil
	}
	t, ok := validator.IsValidDateTime(*value)
	if !ok {
		errs.Add(field, field+" must be an RFC3339 timestamp")
		return nil
	}
	return &t
}
