package attendance

import (
	"context"

	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/access"
)

type AttendanceService interface {
	// ClockIn opens a shift for the calling staff member.
	ClockIn(ctx context.Context, p access.Principal, req ClockInRequest) (AttendanceResponse, error)

	// ClockOut closes the calling staff member's open shift.
	ClockOut(ctx context.Context, p access.Principal, req ClockOutRequest) (AttendanceResponse, error)

	// Review approves or rejects a pending, closed shift.
	Review(ctx context.Context, p access.Principal, req ReviewRequest) (AttendanceResponse, error)

	// Edit applies an admin correction.
	Edit(ctx context.Context, p access.Principal, req EditRequest) (AttendanceResponse, error)

	Delete(ctx context.Context, p access.Principal, id string) error
	Get(ctx context.Context, p access.Principal, id string) (AttendanceResponse, error)
	Query(ctx context.Context, p access.Principal, filter AttendanceFilter) (ListAttendanceResponse, error)
}
