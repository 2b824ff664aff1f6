package http

import (
	"net/http"

	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/admin"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/business"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type BusinessHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	GrantAdmin(w http.ResponseWriter, r *http.Request)
	RevokeAdmin(w http.ResponseWriter, r *http.Request)
	CreateAdmin(w http.ResponseWriter, r *http.Request)
}

type businessHandlerImpl struct {
	businessService business.BusinessService
	adminService    admin.AdminService
}

func NewBusinessHandler(businessService business.BusinessService, adminService admin.AdminService) BusinessHandler {
	return &businessHandlerImpl{
		businessService: businessService,
		adminService:    adminService,
	}
}

// Create implements BusinessHandler.
func (h *businessHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	var req business.CreateBusinessRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.businessService.Create(r.Context(), middleware.PrincipalFrom(r), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Business created", result)
}

// List implements BusinessHandler.
func (h *businessHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	result, err := h.businessService.List(r.Context(), middleware.PrincipalFrom(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Get implements BusinessHandler.
func (h *businessHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	result, err := h.businessService.Get(r.Context(), middleware.PrincipalFrom(r), chi.URLParam(r, "businessID"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// GrantAdmin implements BusinessHandler.
func (h *businessHandlerImpl) GrantAdmin(w http.ResponseWriter, r *http.Request) {
	var req business.GrantAdminRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.businessService.GrantAdmin(r.Context(), middleware.PrincipalFrom(r), chi.URLParam(r, "businessID"), req); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Admin granted access", nil)
}

// RevokeAdmin implements BusinessHandler.
func (h *businessHandlerImpl) RevokeAdmin(w http.ResponseWriter, r *http.Request) {
	err := h.businessService.RevokeAdmin(r.Context(), middleware.PrincipalFrom(r), chi.URLParam(r, "businessID"), chi.URLParam(r, "adminID"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Admin access revoked", nil)
}

// CreateAdmin implements BusinessHandler.
func (h *businessHandlerImpl) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	var req admin.CreateAdminRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.adminService.Create(r.Context(), middleware.PrincipalFrom(r), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Admin created", result)
}
