package http

import (
	"net/http"

	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/staff"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type StaffHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
}

type staffHandlerImpl struct {
	staffService staff.StaffService
}

func NewStaffHandler(staffService staff.StaffService) StaffHandler {
	return &staffHandlerImpl{
		staffService: staffService,
	}
}

// Create implements StaffHandler.
func (h *staffHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	var req staff.CreateStaffRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.staffService.Create(r.Context(), middleware.PrincipalFrom(r), chi.URLParam(r, "businessID"), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Staff created", result)
}

// List implements StaffHandler.
func (h *staffHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	filter := staff.StaffFilter{
		Status:          queryPtr(r, "status"),
		IncludeInactive: queryBool(r, "include_inactive"),
		Page:            queryInt(r, "page"),
		Limit:           queryInt(r, "limit"),
	}

	result, err := h.staffService.ListByBusiness(r.Context(), middleware.PrincipalFrom(r), chi.URLParam(r, "businessID"), filter)
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

// Get implements StaffHandler.
func (h *staffHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	result, err := h.staffService.Get(r.Context(), middleware.PrincipalFrom(r), chi.URLParam(r, "staffID"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Update implements StaffHandler.
func (h *staffHandlerImpl) Update(w http.ResponseWriter, r *http.Request) {
	var req staff.UpdateStaffRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.staffService.Update(r.Context(), middleware.PrincipalFrom(r), chi.URLParam(r, "staffID"), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Staff updated", result)
}

// Delete implements StaffHandler.
func (h *staffHandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.staffService.Delete(r.Context(), middleware.PrincipalFrom(r), chi.URLParam(r, "staffID")); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Staff deleted", nil)
}
