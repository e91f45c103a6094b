package payroll

import "context"

// PayrollRepository defines data access methods for payroll.
// All methods include companyID parameter to prevent cross-company data access attacks.
type PayrollRepository interface {
	// Slips
	CreateSlip(ctx context.Context, slip SalarySlip) (SalarySlip, error)
	CreateSlips(ctx context.Context, slips []SalarySlip) error
	GetSlipByID(ctx context.Context, id string, companyID string) (SalarySlip, error)
	ListSlips(ctx context.Context, filter SlipFilter, companyID string) ([]SalarySlip, int64, error)
	ListSlipsByBatch(ctx context.Context, batchID string, companyID string) ([]SalarySlip, error)

	// Structures
	UpsertStructure(ctx context.Context, structure SalaryStructure) (SalaryStructure, error)
	GetStructure(ctx context.Context, employeeID string, companyID string) (SalaryStructure, error)
	ListStructures(ctx context.Context, companyID string) ([]SalaryStructure, error)

	// Batches
	CreateBatch(ctx context.Context, batch PayrollBatch) (PayrollBatch, error)
	GetBatchByID(ctx context.Context, id string, companyID string) (PayrollBatch, error)
	// GetBatchByPeriod returns nil when no batch exists for the period
	GetBatchByPeriod(ctx context.Context, month, year int, companyID string) (*PayrollBatch, error)
	ListBatches(ctx context.Context, filter BatchFilter, companyID string) ([]PayrollBatch, int64, error)
	// UpdateBatch persists status, totals and timestamps. The row is only
	// updated while its stored status is fromStatus; ErrInvalidTransition otherwise.
	UpdateBatch(ctx context.Context, batch PayrollBatch, fromStatus BatchStatus) error
}
