package payroll

import (
	"context"

	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/access"
)

type PayrollService interface {
	// Generation
	GenerateSingle(ctx context.Context, p access.Principal, req GeneratePayrollRequest) (PayrollResponse, error)
	GenerateForBusiness(ctx context.Context, p access.Principal, req GenerateBusinessPayrollRequest) (BatchGenerateResponse, error)

	// Lifecycle
	Approve(ctx context.Context, p access.Principal, req ApprovePayrollRequest) (PayrollResponse, error)
	MarkPaid(ctx context.Context, p access.Principal, id string) (PayrollResponse, error)
	AddAdjustment(ctx context.Context, p access.Principal, req AddAdjustmentRequest) (PayrollResponse, error)
	Delete(ctx context.Context, p access.Principal, id string) error

	// Reads
	GetByID(ctx context.Context, p access.Principal, id string) (PayrollResponse, error)
	GetByStaff(ctx context.Context, p access.Principal, staffID string, filter PayrollFilter) (ListPayrollResponse, error)
	GetByBusiness(ctx context.Context, p access.Principal, businessID string, filter PayrollFilter) (ListPayrollResponse, error)
	Summary(ctx context.Context, p access.Principal, businessID string, filter SummaryFilter) (SummaryResponse, error)
	Export(ctx context.Context, p access.Principal, businessID string, filter PayrollFilter) (ExportFile, error)
}
