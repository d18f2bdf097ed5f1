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

// ProductHandler serves the product listings.
type ProductHandler struct {
	products service.ProductService
	logger   *slog.Logger
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(products service.ProductService, log *slog.Logger) *ProductHandler {
	if log == nil {
		log = slog.Default()
	}
	return &ProductHandler{products: products, logger: log.With(slog.String("component", "product_handler"))}
}

func validProductCategory(v string) bool { return domain.ProductCategory(v).IsValid() }

// CreateProduct handles POST /products.
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req ProductRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	product, err := h.products.CreateProduct(r.Context(), userID, req.input())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create product")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, productToResponse(product))
}

func (h *ProductHandler) list(w http.ResponseWriter, r *http.Request, filter query.ProductFilter, q *queryParams) {
	page := q.page()
	if err := q.err(); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	result, err := h.products.ListProducts(r.Context(), filter, page)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list products")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, query.MapResult(result, productToResponse))
}

// ListProducts handles GET /products.
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := newQueryParams(r)
	filter := query.ProductFilter{
		Search:   q.str("searchQuery"),
		MinPrice: q.number("minPrice"),
		MaxPrice: q.number("maxPrice"),
		Category: q.oneOf("category", q.str("category"), validProductCategory),
	}
	h.list(w, r, filter, q)
}

// ListUserProducts handles GET /products/user/{userId}.
func (h *ProductHandler) ListUserProducts(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := handlePathUUID(w, r, "userId")
	if !ok {
		return
	}
	h.list(w, r, query.ProductFilter{OwnerID: ownerID}, newQueryParams(r))
}

// GetProduct handles GET /products/{productId}. The parameter is either the
// UUID or the productId key.
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.products.GetProduct(r.Context(), chi.URLParam(r, "productId"))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get product")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, productToResponse(product))
}

// ReplaceProduct handles PUT /products/{productId}.
func (h *ProductHandler) ReplaceProduct(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req ProductRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	product, err := h.products.ReplaceProduct(r.Context(), userID, chi.URLParam(r, "productId"), req.input())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update product")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, productToResponse(product))
}

// PatchProduct handles PATCH /products/{productId}.
func (h *ProductHandler) PatchProduct(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req PatchProductRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	product, err := h.products.PatchProduct(r.Context(), userID, chi.URLParam(r, "productId"), req.patch())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update product")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, productToResponse(product))
}

// DeleteProduct handles DELETE /products/{productId}.
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.products.DeleteProduct(r.Context(), userID, chi.URLParam(r, "productId")); err != nil {
		HandleAPIError(w, r, err, "Failed to delete product")
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Info("product deleted",
		slog.String("product_id", chi.URLParam(r, "productId")),
		slog.String("user_id", userID.String()))
	w.WriteHeader(http.StatusNoContent)
}
