package employee

import "context"

type EmployeeRepository interface {
	// GetByID returns ErrEmployeeNotFound when the employee does not belong to the company
	GetByID(ctx context.Context, id string, companyID string) (Employee, error)
	GetActiveByCompanyID(ctx context.Context, companyID string) ([]Employee, error)
	// ListCompanyIDsWithActiveEmployees is used by background jobs that sweep every tenant
	ListCompanyIDsWithActiveEmployees(ctx context.Context) ([]string, error)
}
