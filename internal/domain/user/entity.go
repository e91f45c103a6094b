package user

type Role string

const (
	RoleEmployee Role = "employee" // Own attendance, regularizations and slips
	RoleHR       Role = "hr"       // Manages attendance, regularizations and payroll
	RoleAdmin    Role = "admin"    // HR plus company settings and holidays
)

func (r Role) IsValid() bool {
	switch r {
	case RoleEmployee, RoleHR, RoleAdmin:
		return true
	}
	return false
}

// IsHR checks if the role can manage other employees' records
func (r Role) IsHR() bool {
	return r == RoleHR || r == RoleAdmin
}
