package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/marketplace-api/internal/api/shared"
	"github.com/phrazzld/marketplace-api/internal/domain"
	"github.com/phrazzld/marketplace-api/internal/platform/logger"
	"github.com/phrazzld/marketplace-api/internal/query"
	"github.com/phrazzld/marketplace-api/internal/service"
)

// ServiceHandler serves the service and event listings.
type ServiceHandler struct {
	services service.OfferingService
	logger   *slog.Logger
}

// NewServiceHandler creates a new ServiceHandler.
func NewServiceHandler(services service.OfferingService, log *slog.Logger) *ServiceHandler {
	if log == nil {
		log = slog.Default()
	}
	return &ServiceHandler{services: services, logger: log.With(slog.String("component", "service_handler"))}
}

func validServiceCategory(v string) bool { return domain.ServiceCategory(v).IsValid() }

// decodeServiceRequest reads and validates a full service body.
func decodeServiceRequest(w http.ResponseWriter, r *http.Request) (service.ServiceInput, bool) {
	var req ServiceRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return service.ServiceInput{}, false
	}
	if err := shared.ValidateRequest(req); err != nil {
		HandleAPIError(w, r, err, "")
		return service.ServiceInput{}, false
	}
	in, err := req.input()
	if err != nil {
		HandleAPIError(w, r, err, "")
		return service.ServiceInput{}, false
	}
	return in, true
}

// CreateService handles POST /services.
func (h *ServiceHandler) CreateService(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	in, ok := decodeServiceRequest(w, r)
	if !ok {
		return
	}

	svc, err := h.services.CreateService(r.Context(), userID, in)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create service")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, serviceToResponse(svc))
}

func (h *ServiceHandler) list(w http.ResponseWriter, r *http.Request, filter query.ServiceFilter, q *queryParams) {
	page := q.page()
	if err := q.err(); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	result, err := h.services.ListServices(r.Context(), filter, page)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list services")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, query.MapResult(result, serviceToResponse))
}

// ListServices handles GET /services.
func (h *ServiceHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	q := newQueryParams(r)
	filter := query.ServiceFilter{
		Search:   q.str("searchTitle"),
		Location: q.str("location"),
		MinPrice: q.number("minPrice"),
		MaxPrice: q.number("maxPrice"),
		Category: q.oneOf("category", q.str("category"), validServiceCategory),
	}
	h.list(w, r, filter, q)
}

// ListUserServices handles GET /services/user/{userId}.
func (h *ServiceHandler) ListUserServices(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := handlePathUUID(w, r, "userId")
	if !ok {
		return
	}
	h.list(w, r, query.ServiceFilter{OwnerID: ownerID}, newQueryParams(r))
}

// GetService handles GET /services/{serviceId}, by UUID or serviceId key.
func (h *ServiceHandler) GetService(w http.ResponseWriter, r *http.Request) {
	svc, err := h.services.GetService(r.Context(), chi.URLParam(r, "serviceId"))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get service")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, serviceToResponse(svc))
}

// ReplaceService handles PUT /services/{serviceId}.
func (h *ServiceHandler) ReplaceService(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	in, ok := decodeServiceRequest(w, r)
	if !ok {
		return
	}

	svc, err := h.services.ReplaceService(r.Context(), userID, chi.URLParam(r, "serviceId"), in)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update service")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, serviceToResponse(svc))
}

// PatchService handles PATCH /services/{serviceId}.
func (h *ServiceHandler) PatchService(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req PatchServiceRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	patch, err := req.patch()
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	svc, err := h.services.PatchService(r.Context(), userID, chi.URLParam(r, "serviceId"), patch)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update service")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, serviceToResponse(svc))
}

// DeleteService handles DELETE /services/{serviceId}.
func (h *ServiceHandler) DeleteService(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.services.DeleteService(r.Context(), userID, chi.URLParam(r, "serviceId")); err != nil {
		HandleAPIError(w, r, err, "Failed to delete service")
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Info("service deleted",
		slog.String("service_id", chi.URLParam(r, "serviceId")),
		slog.String("user_id", userID.String()))
	w.WriteHeader(http.StatusNoContent)
}
