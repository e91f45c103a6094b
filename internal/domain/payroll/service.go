package payroll

import (
	"bytes"
	"context"
)

type PayrollService interface {
	// Slips
	CreateSlip(ctx context.Context, req CreateSlipRequest) (SlipResponse, error)
	ListSlips(ctx context.Context, filter SlipFilter) (ListSlipResponse, error)
	ListMySlips(ctx context.Context, filter SlipFilter) (ListSlipResponse, error)
	GetSlip(ctx context.Context, id string) (SlipResponse, error)

	// Structures
	UpsertStructure(ctx context.Context, req UpsertStructureRequest) (StructureResponse, error)
	GetStructure(ctx context.Context, employeeID string) (StructureResponse, error)

	// Batches
	CreateBatch(ctx context.Context, req PeriodRequest) (BatchResponse, error)
	Preview(ctx context.Context, req PeriodRequest) (PreviewResponse, error)
	Process(ctx context.Context, req PeriodRequest) (ProcessResponse, error)
	ListBatches(ctx context.Context, filter BatchFilter) (ListBatchResponse, error)
	GetBatch(ctx context.Context, id string) (BatchResponse, error)
	MarkPaid(ctx context.Context, id string) (BatchResponse, error)
	ExportBatch(ctx context.Context, id string) (*bytes.Buffer, string, error)
}
