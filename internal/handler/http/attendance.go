package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

// 10MB photo plus form fields.
const maxClockInForm = 11 << 20

type AttendanceHandler interface {
	ClockIn(w http.ResponseWriter, r *http.Request)
	ClockOut(w http.ResponseWriter, r *http.Request)
	GetMyAttendance(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	ListByBusiness(w http.ResponseWriter, r *http.Request)
	ListByStaff(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Review(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
	}
}

// ClockIn accepts either a JSON body or a multipart form with an optional
// 'data' JSON field and an optional 'photo' file.
func (h *attendanceHandlerImpl) ClockIn(w http.ResponseWriter, r *http.Request) {
	var req attendance.ClockInRequest

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxClockInForm); err != nil {
			slog.Error("Failed to parse multipart form", "error", err)
			response.BadRequest(w, "Failed to parse form data", nil)
			return
		}

		if dataJSON := r.FormValue("data"); dataJSON != "" {
			if err := json.Unmarshal([]byte(dataJSON), &req); err != nil {
				response.BadRequest(w, "Invalid request format", nil)
				return
			}
		}

		file, fileHeader, err := r.FormFile("photo")
		switch {
		case err == nil:
			defer file.Close()
			req.File = file
			req.FileHeader = fileHeader
		case errors.Is(err, http.ErrMissingFile):
		default:
			slog.Error("Failed to get file from form", "error", err)
			response.BadRequest(w, "Invalid file upload", nil)
			return
		}
	} else if !decodeOptionalJSON(w, r, &req) {
		return
	}

	result, err := h.attendanceService.ClockIn(r.Context(), middleware.PrincipalFrom(r), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Clock in successful", result)
}

// ClockOut implements AttendanceHandler. The body is optional.
func (h *attendanceHandlerImpl) ClockOut(w http.ResponseWriter, r *http.Request) {
	var req attendance.ClockOutRequest
	if !decodeOptionalJSON(w, r, &req) {
		return
	}

	result, err := h.attendanceService.ClockOut(r.Context(), middleware.PrincipalFrom(r), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Clock out successful", result)
}

// GetMyAttendance lists the caller's own records. Staff scope is applied by
// the service, so the filter carries no staff id here.
func (h *attendanceHandlerImpl) GetMyAttendance(w http.ResponseWriter, r *http.Request) {
	h.query(w, r, attendanceFilterFrom(r))
}

// List implements AttendanceHandler.
func (h *attendanceHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	filter := attendanceFilterFrom(r)
	filter.BusinessID = queryPtr(r, "business_id")
	filter.StaffID = queryPtr(r, "staff_id")
	h.query(w, r, filter)
}

// ListByBusiness implements AttendanceHandler.
func (h *attendanceHandlerImpl) ListByBusiness(w http.ResponseWriter, r *http.Request) {
	businessID := chi.URLParam(r, "businessID")
	filter := attendanceFilterFrom(r)
	filter.BusinessID = &businessID
	filter.StaffID = queryPtr(r, "staff_id")
	h.query(w, r, filter)
}

// ListByStaff implements AttendanceHandler.
func (h *attendanceHandlerImpl) ListByStaff(w http.ResponseWriter, r *http.Request) {
	staffID := chi.URLParam(r, "staffID")
	filter := attendanceFilterFrom(r)
	filter.StaffID = &staffID
	h.query(w, r, filter)
}

func (h *attendanceHandlerImpl) query(w http.ResponseWriter, r *http.Request, filter attendance.AttendanceFilter) {
	result, err := h.attendanceService.Query(r.Context(), middleware.PrincipalFrom(r), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result, &response.Meta{
		Page:       result.Page,
		Limit:      result.Limit,
		TotalItems: result.TotalCount,
		TotalPages: result.TotalPages,
	})
}

// Get implements AttendanceHandler.
func (h *attendanceHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	result, err := h.attendanceService.Get(r.Context(), middleware.PrincipalFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Review approves or rejects a closed shift.
func (h *attendanceHandlerImpl) Review(w http.ResponseWriter, r *http.Request) {
	var req attendance.ReviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ID = chi.URLParam(r, "id")

	result, err := h.attendanceService.Review(r.Context(), middleware.PrincipalFrom(r), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Attendance "+req.Status, result)
}

// Update implements AttendanceHandler.
func (h *attendanceHandlerImpl) Update(w http.ResponseWriter, r *http.Request) {
	var req attendance.EditRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ID = chi.URLParam(r, "id")

	result, err := h.attendanceService.Edit(r.Context(), middleware.PrincipalFrom(r), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Attendance updated", result)
}

// Delete implements AttendanceHandler.
func (h *attendanceHandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.attendanceService.Delete(r.Context(), middleware.PrincipalFrom(r), chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Attendance deleted", nil)
}

func attendanceFilterFrom(r *http.Request) attendance.AttendanceFilter {
	return attendance.AttendanceFilter{
		Status:          queryPtr(r, "status"),
		StartDate:       queryPtr(r, "start_date"),
		EndDate:         queryPtr(r, "end_date"),
		IncludeInactive: queryBool(r, "include_inactive"),
		Page:            queryInt(r, "page"),
		Limit:           queryInt(r, "limit"),
	}
}
