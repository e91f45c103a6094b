package payroll

import "errors"

var (
	ErrSlipNotFound         = errors.New("salary slip not found")
	ErrStructureNotFound    = errors.New("salary structure not found")
	ErrBatchNotFound        = errors.New("payroll batch not found")
	ErrBatchAlreadyExists   = errors.New("payroll batch already exists for this period")
	ErrBatchAlreadyPaid     = errors.New("payroll batch already paid, cannot modify")
	ErrBatchNotProcessed    = errors.New("payroll batch must be processed before it can be marked paid")
	ErrInvalidTransition    = errors.New("invalid payroll batch status transition")
	ErrNoEligibleEmployees  = errors.New("no active employees with a salary structure for this period")
	ErrEmployeeNotFound     = errors.New("employee not found")
	ErrInvalidPeriod        = errors.New("invalid payroll period")
	ErrInvalidComponentJSON = errors.New("components must be a JSON object")
	ErrNotOwner             = errors.New("salary slip belongs to another employee")
)
