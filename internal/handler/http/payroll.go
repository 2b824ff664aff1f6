package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type PayrollHandler interface {
	// Generation
	GeneratePayroll(w http.ResponseWriter, r *http.Request)
	GenerateBusinessPayroll(w http.ResponseWriter, r *http.Request)

	// Lifecycle
	ApprovePayroll(w http.ResponseWriter, r *http.Request)
	MarkPayrollPaid(w http.ResponseWriter, r *http.Request)
	AddPayrollAdjustment(w http.ResponseWriter, r *http.Request)
	DeletePayroll(w http.ResponseWriter, r *http.Request)

	// Reads
	GetPayrollByID(w http.ResponseWriter, r *http.Request)
	GetPayrollByStaff(w http.ResponseWriter, r *http.Request)
	GetPayrollByBusiness(w http.ResponseWriter, r *http.Request)
	GetPayrollSummary(w http.ResponseWriter, r *http.Request)
	ExportPayroll(w http.ResponseWriter, r *http.Request)
}

type payrollHandlerImpl struct {
	payrollService payroll.PayrollService
}

func NewPayrollHandler(payrollService payroll.PayrollService) PayrollHandler {
	return &payrollHandlerImpl{
		payrollService: payrollService,
	}
}

// ========== GENERATION ==========

func (h *payrollHandlerImpl) GeneratePayroll(w http.ResponseWriter, r *http.Request) {
	var req payroll.GeneratePayrollRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.payrollService.GenerateSingle(r.Context(), middleware.PrincipalFrom(r), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Payroll generated", result)
}

func (h *payrollHandlerImpl) GenerateBusinessPayroll(w http.ResponseWriter, r *http.Request) {
	var req payroll.GenerateBusinessPayrollRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.BusinessID = chi.URLParam(r, "businessID")

	result, err := h.payrollService.GenerateForBusiness(r.Context(), middleware.PrincipalFrom(r), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	message := fmt.Sprintf("Generated %d, skipped %d, failed %d",
		result.Summary.Generated, result.Summary.Skipped, result.Summary.Errors)
	response.Created(w, message, result)
}

// ========== LIFECYCLE ==========

func (h *payrollHandlerImpl) ApprovePayroll(w http.ResponseWriter, r *http.Request) {
	var req payroll.ApprovePayrollRequest
	if !decodeOptionalJSON(w, r, &req) {
		return
	}
	req.ID = chi.URLParam(r, "id")

	result, err := h.payrollService.Approve(r.Context(), middleware.PrincipalFrom(r), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll approved", result)
}

func (h *payrollHandlerImpl) MarkPayrollPaid(w http.ResponseWriter, r *http.Request) {
	result, err := h.payrollService.MarkPaid(r.Context(), middleware.PrincipalFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll marked as paid", result)
}

func (h *payrollHandlerImpl) AddPayrollAdjustment(w http.ResponseWriter, r *http.Request) {
	var req payroll.AddAdjustmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ID = chi.URLParam(r, "id")

	result, err := h.payrollService.AddAdjustment(r.Context(), middleware.PrincipalFrom(r), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Adjustment added", result)
}

func (h *payrollHandlerImpl) DeletePayroll(w http.ResponseWriter, r *http.Request) {
	if err := h.payrollService.Delete(r.Context(), middleware.PrincipalFrom(r), chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll deleted", nil)
}

// ========== READS ==========

func (h *payrollHandlerImpl) GetPayrollByID(w http.ResponseWriter, r *http.Request) {
	result, err := h.payrollService.GetByID(r.Context(), middleware.PrincipalFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) GetPayrollByStaff(w http.ResponseWriter, r *http.Request) {
	result, err := h.payrollService.GetByStaff(r.Context(), middleware.PrincipalFrom(r), chi.URLParam(r, "staffID"), payrollFilterFrom(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	writePayrollList(w, result)
}

func (h *payrollHandlerImpl) GetPayrollByBusiness(w http.ResponseWriter, r *http.Request) {
	result, err := h.payrollService.GetByBusiness(r.Context(), middleware.PrincipalFrom(r), chi.URLParam(r, "businessID"), payrollFilterFrom(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	writePayrollList(w, result)
}

func (h *payrollHandlerImpl) GetPayrollSummary(w http.ResponseWriter, r *http.Request) {
	filter := payroll.SummaryFilter{
		PeriodStart: queryPtr(r, "period_start"),
		PeriodEnd:   queryPtr(r, "period_end"),
	}

	result, err := h.payrollService.Summary(r.Context(), middleware.PrincipalFrom(r), chi.URLParam(r, "businessID"), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ExportPayroll streams the filtered payroll list as an xlsx attachment.
func (h *payrollHandlerImpl) ExportPayroll(w http.ResponseWriter, r *http.Request) {
	file, err := h.payrollService.Export(r.Context(), middleware.PrincipalFrom(r), chi.URLParam(r, "businessID"), payrollFilterFrom(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Content)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(file.Content); err != nil {
		slog.Error("Failed to write payroll export", "error", err)
	}
}

func payrollFilterFrom(r *http.Request) payroll.PayrollFilter {
	return payroll.PayrollFilter{
		Status:          queryPtr(r, "status"),
		PeriodStart:     queryPtr(r, "period_start"),
		PeriodEnd:       queryPtr(r, "period_end"),
		IncludeInactive: queryBool(r, "include_inactive"),
		Page:            queryInt(r, "page"),
		Limit:           queryInt(r, "limit"),
	}
}

func writePayrollList(w http.ResponseWriter, result payroll.ListPayrollResponse) {
	response.SuccessWithMeta(w, result, &response.Meta{
		Page:       result.Page,
		Limit:      result.Limit,
		TotalItems: result.TotalCount,
		TotalPages: result.TotalPages,
	})
}
