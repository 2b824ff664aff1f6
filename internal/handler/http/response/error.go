package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/access"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/admin"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/business"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/staff"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/pkg/validator"
)

type conflictingID interface {
	ConflictingID() string
}

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	// Conflicts that know which record they collided with
	var withID conflictingID
	if errors.As(err, &withID) {
		Conflict(w, err.Error(), map[string]string{"existing_id": withID.ConflictingID()})
		return
	}

	switch {
	// Access
	case errors.Is(err, access.ErrUnauthenticated),
		errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken):
		Unauthorized(w, err.Error())
	case errors.Is(err, access.ErrForbidden),
		errors.Is(err, access.ErrAdminRequired),
		errors.Is(err, access.ErrSuperAdminRequired),
		errors.Is(err, access.ErrStaffRequired),
		errors.Is(err, auth.ErrAccountDisabled):
		Forbidden(w, err.Error())

	// Not found
	case errors.Is(err, admin.ErrAdminNotFound),
		errors.Is(err, business.ErrBusinessNotFound),
		errors.Is(err, staff.ErrStaffNotFound),
		errors.Is(err, attendance.ErrAttendanceNotFound),
		errors.Is(err, attendance.ErrNoOpenShift),
		errors.Is(err, payroll.ErrPayrollNotFound):
		NotFound(w, err.Error())

	// Illegal state transitions
	case errors.Is(err, payroll.ErrInvalidStatusTransition),
		errors.Is(err, payroll.ErrNegativeNetPay),
		errors.Is(err, attendance.ErrAttendanceLocked),
		errors.Is(err, attendance.ErrAttendanceAlreadyProcessed),
		errors.Is(err, attendance.ErrShiftStillOpen):
		InvalidState(w, err.Error())

	// Conflicts
	case errors.Is(err, admin.ErrEmailExists),
		errors.Is(err, admin.ErrAlreadySuperUser),
		errors.Is(err, business.ErrSlugExists),
		errors.Is(err, staff.ErrEmailExists),
		errors.Is(err, payroll.ErrAttendanceClaimed):
		Conflict(w, err.Error(), nil)

	// Business rules on otherwise valid input
	case errors.Is(err, attendance.ErrClockOutBeforeClockIn),
		errors.Is(err, attendance.ErrOutsideAllowedRadius),
		errors.Is(err, attendance.ErrLocationRequired),
		errors.Is(err, staff.ErrStaffNotActive),
		errors.Is(err, staff.ErrSalaryMissing),
		errors.Is(err, staff.ErrInvalidSalaryType),
		errors.Is(err, payroll.ErrInvalidPeriod):
		writeJSON(w, http.StatusUnprocessableEntity, Response{
			Success: false,
			Error: &ErrorDetail{
				Code:    "BUSINESS_RULE_VIOLATION",
				Message: err.Error(),
			},
		})

	case database.IsUnavailable(err):
		slog.Error("database unavailable", "error", err)
		ServiceUnavailable(w, "Service temporarily unavailable")

	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
