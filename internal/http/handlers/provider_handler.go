// Provider HTTP handlers.
//
// This file exposes REST endpoints for the service directory:
//   - POST   /providers          (create)
//   - DELETE /providers?id=      (delete own)
//   - GET    /providers          (list active, paginated)
//   - GET    /providers/search   (topic + provider search)
//   - GET    /providers/{id}     (detail with rating)
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/briar-chapel-connect/internal/services"
)

// ListProvidersResponse wraps a page of providers.
type ListProvidersResponse struct {
	Providers  []services.Provider `json:"providers"`
	Pagination Pagination          `json:"pagination"`
}

// CreateProvider godoc
// @ID          createProvider
// @Summary     Create a provider listing
// @Description Lists the caller as a provider of one taxonomy service. Supports Idempotency-Key.
// @Tags        Providers
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       Idempotency-Key  header  string                  false  "Idempotency key for safe retries"
// @Param       body             body    services.ProviderInput  true   "Provider payload"
// @Success     201  {object}  domain.ServiceListing
// @Failure     400  {object}  handlers.ErrorResponse  "category, service, and name are required"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Failed to create provider"
// @Router      /providers [post]
func (h *Handlers) CreateProvider(c *gin.Context) {
	if h.replay(c, func(ctx context.Context, id string) (any, error) {
		p, err := h.svc.Providers.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return &p.ServiceListing, nil
	}) {
		return
	}

	var in services.ProviderInput
	if !bindJSON(c, &in) {
		return
	}
	row, err := h.svc.Providers.Create(c.Request.Context(), in)
	if err != nil {
		h.mutationFailed(c, "providers", "create", err, failure{ErrCodeCreateFailed, "Failed to create provider"})
		return
	}
	h.created(c, "providers", row.ID, row)
}

// DeleteProvider godoc
// @ID          deleteProvider
// @Summary     Delete own provider listing
// @Tags        Providers
// @Produce     json
// @Security    BearerAuth
// @Param       id  query  string  true  "Listing ID"  format(uuid)
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Missing id"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse  "Provider not found or not owned by user"
// @Failure     500  {object}  handlers.ErrorResponse  "Failed to delete provider"
// @Router      /providers [delete]
func (h *Handlers) DeleteProvider(c *gin.Context) {
	h.deleteByQuery(c, "providers", h.svc.Providers.Delete, failure{ErrCodeDeleteFailed, "Failed to delete provider"})
}

// ListProviders godoc
// @ID          listProviders
// @Summary     List active providers
// @Description Newest first. category filters by taxonomy path prefix ("home-services" or "home-services/plumbing").
// @Tags        Providers
// @Produce     json
// @Param       category   query  string  false  "Category or category/service"
// @Param       page       query  int     false  "Page number"     minimum(1) default(1)
// @Param       page_size  query  int     false  "Items per page"  minimum(1) maximum(100) default(20)
// @Success     200  {object}  handlers.ListProvidersResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Failed to load providers"
// @Router      /providers [get]
func (h *Handlers) ListProviders(c *gin.Context) {
	page, pageSize := clampPagination(c)
	items, total, err := h.svc.Providers.List(c.Request.Context(), c.Query("category"), page, pageSize)
	if err != nil {
		h.writeError(c, err, failure{ErrCodeListFailed, "Failed to load providers"})
		return
	}
	ok(c, http.StatusOK, ListProvidersResponse{Providers: items, Pagination: newPagination(page, pageSize, total)})
}

// GetProvider godoc
// @ID          getProvider
// @Summary     Get a provider with its rating
// @Tags        Providers
// @Produce     json
// @Param       id  path  string  true  "Listing ID"  format(uuid)
// @Success     200  {object}  services.Provider
// @Failure     404  {object}  handlers.ErrorResponse  "Provider not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Failed to load provider"
// @Router      /providers/{id} [get]
func (h *Handlers) GetProvider(c *gin.Context) {
	p, err := h.svc.Providers.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err, failure{ErrCodeListFailed, "Failed to load provider"})
		return
	}
	ok(c, http.StatusOK, p)
}

// SearchProviders godoc
// @ID          searchProviders
// @Summary     Search services and providers
// @Description Returns matching taxonomy topics and active providers whose name contains q.
// @Tags        Providers
// @Produce     json
// @Param       q  query  string  false  "Search text; empty returns no hits"  example(plumber)
// @Success     200  {object}  services.ProviderSearch
// @Failure     500  {object}  handlers.ErrorResponse  "Search failed"
// @Router      /providers/search [get]
func (h *Handlers) SearchProviders(c *gin.Context) {
	res, err := h.svc.Providers.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.writeError(c, err, failure{ErrCodeListFailed, "Search failed"})
		return
	}
	ok(c, http.StatusOK, res)
}
