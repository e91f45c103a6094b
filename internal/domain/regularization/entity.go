package regularization

import (
	"time"

	"github.com/cmlabs-hris/hrms-backend-go/internal/domain/attendance"
)

type Type string

const (
	TypeCheckIn      Type = "check_in"
	TypeCheckOut     Type = "check_out"
	TypeBoth         Type = "both"
	TypeStatusChange Type = "status_change"
)

var ValidTypes = []string{
	string(TypeCheckIn),
	string(TypeCheckOut),
	string(TypeBoth),
	string(TypeStatusChange),
}

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

var ValidStatuses = []string{
	string(StatusPending),
	string(StatusApproved),
	string(StatusRejected),
}

type Regularization struct {
	ID               string
	CompanyID        string
	EmployeeID       string
	AttendanceDate   time.Time
	Type             Type
	ProposedCheckIn  *time.Time
	ProposedCheckOut *time.Time
	ProposedStatus   *attendance.Status
	Reason           string
	Status           Status
	AttendanceID     *string
	ReviewedBy       *string
	ReviewedAt       *time.Time
	RejectionReason  *string
	CreatedAt        time.Time
	UpdatedAt        time.Time

	// DTO
	EmployeeName *string
}

func (r Regularization) IsPending() bool {
	return r.Status == StatusPending
}

// ApplyTo writes the proposed values onto the attendance record.
// A status_change becomes an HR override of the status. Timestamp corrections
// drop any existing override so the status is derived from the new hours.
func (r Regularization) ApplyTo(a *attendance.Attendance) {
	switch r.Type {
	case TypeCheckIn:
		a.CheckIn = r.ProposedCheckIn
		a.StatusOverridden = false
	case TypeCheckOut:
		a.CheckOut = r.ProposedCheckOut
		a.StatusOverridden = false
	case TypeBoth:
		a.CheckIn = r.ProposedCheckIn
		a.CheckOut = r.ProposedCheckOut
		a.StatusOverridden = false
	case TypeStatusChange:
		if r.ProposedStatus != nil {
			s := *r.ProposedStatus
			a.Status = &s
			a.StatusOverridden = true
		}
	}
}
