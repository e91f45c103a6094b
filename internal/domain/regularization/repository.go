package regularization

import (
	"context"
	"time"
)

type RegularizationRepository interface {
	Create(ctx context.Context, reg Regularization) (Regularization, error)
	GetByID(ctx context.Context, id string, companyID string) (Regularization, error)
	List(ctx context.Context, filter RegularizationFilter, companyID string) ([]Regularization, int64, error)

	// HasPending reports whether the employee already has a pending request for the date
	HasPending(ctx context.Context, employeeID string, date time.Time, companyID string) (bool, error)

	// Review stores the decision. Only pending rows are updated; ErrAlreadyProcessed otherwise.
	Review(ctx context.Context, reg Regularization) error
}
