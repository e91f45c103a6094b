package regularization

import "errors"

var (
	ErrRegularizationNotFound = errors.New("regularization request not found")
	ErrAlreadyProcessed       = errors.New("regularization request has already been approved or rejected")
	ErrPendingRequestExists   = errors.New("a pending regularization request already exists for this date")
	ErrFutureDate             = errors.New("cannot regularize attendance for a future date")
	ErrNotOwner               = errors.New("regularization request belongs to another employee")
)
