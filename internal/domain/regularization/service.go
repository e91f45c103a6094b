package regularization

import "context"

type RegularizationService interface {
	// Create files a correction for the caller's own attendance
	Create(ctx context.Context, req CreateRegularizationRequest) (RegularizationResponse, error)

	List(ctx context.Context, filter RegularizationFilter) (ListRegularizationResponse, error)
	ListMine(ctx context.Context, filter RegularizationFilter) (ListRegularizationResponse, error)
	Get(ctx context.Context, id string) (RegularizationResponse, error)

	// Approve applies the correction to the attendance record in one transaction
	Approve(ctx context.Context, id string) (RegularizationResponse, error)
	Reject(ctx context.Context, req RejectRequest) (RegularizationResponse, error)
}
