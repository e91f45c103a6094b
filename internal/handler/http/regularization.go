package http

import (
	"encoding/json"
	"net/http"

	"github.com/cmlabs-hris/hrms-backend-go/internal/domain/regularization"
	"github.com/cmlabs-hris/hrms-backend-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type RegularizationHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	ListMine(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Approve(w http.ResponseWriter, r *http.Request)
	Reject(w http.ResponseWriter, r *http.Request)
}

type regularizationHandlerImpl struct {
	regularizationService regularization.RegularizationService
}

func NewRegularizationHandler(regularizationService regularization.RegularizationService) RegularizationHandler {
	return &regularizationHandlerImpl{regularizationService: regularizationService}
}

func (h *regularizationHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	var req regularization.CreateRegularizationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.regularizationService.Create(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Regularization request submitted", result)
}

func parseRegularizationFilter(r *http.Request) regularization.RegularizationFilter {
	return regularization.RegularizationFilter{
		EmployeeID: queryString(r, "employee_id"),
		Status:     queryString(r, "status"),
		Page:       queryInt(r, "page"),
		Limit:      queryInt(r, "limit"),
	}
}

func (h *regularizationHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	result, err := h.regularizationService.List(r.Context(), parseRegularizationFilter(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *regularizationHandlerImpl) ListMine(w http.ResponseWriter, r *http.Request) {
	result, err := h.regularizationService.ListMine(r.Context(), parseRegularizationFilter(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *regularizationHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	result, err := h.regularizationService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *regularizationHandlerImpl) Approve(w http.ResponseWriter, r *http.Request) {
	result, err := h.regularizationService.Approve(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Regularization approved", result)
}

func (h *regularizationHandlerImpl) Reject(w http.ResponseWriter, r *http.Request) {
	var req regularization.RejectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.ID = chi.URLParam(r, "id")

	result, err := h.regularizationService.Reject(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Regularization rejected", result)
}
