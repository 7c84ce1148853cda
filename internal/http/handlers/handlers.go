// Package handlers exposes the community directory over HTTP.
//
// Handlers are transport-thin: they bind input, call application services and
// translate results into HTTP responses (including conditional and replayed
// responses). Business rules live in package services.
package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/briar-chapel-connect/internal/auth"
	"github.com/tbourn/briar-chapel-connect/internal/domain"
	"github.com/tbourn/briar-chapel-connect/internal/http/middleware"
	"github.com/tbourn/briar-chapel-connect/internal/repo"
	"github.com/tbourn/briar-chapel-connect/internal/services"
	"github.com/tbourn/briar-chapel-connect/internal/storage"
	"github.com/tbourn/briar-chapel-connect/internal/utils"
)

//
// Service contracts (context-aware)
//

// ProviderService manages service-directory listings.
type ProviderService interface {
	Create(ctx context.Context, in services.ProviderInput) (*domain.ServiceListing, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*services.Provider, error)
	List(ctx context.Context, category string, page, pageSize int) ([]services.Provider, int64, error)
	Search(ctx context.Context, q string) (*services.ProviderSearch, error)
}

// MarketplaceService manages classified listings.
type MarketplaceService interface {
	Create(ctx context.Context, in services.ItemInput) (*domain.MarketplaceItem, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*domain.MarketplaceItem, error)
	List(ctx context.Context, category, status, q string, page, pageSize int) ([]domain.MarketplaceItem, int64, error)
}

// EventService manages calendar events.
type EventService interface {
	Create(ctx context.Context, in services.EventInput) (*domain.Event, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*domain.Event, error)
	List(ctx context.Context, category string, from time.Time, page, pageSize int) ([]domain.Event, int64, error)
	Calendar(ctx context.Context, year, month int) (*services.CalendarMonth, error)
	Categories() []domain.Option
}

// GroupService manages neighborhood groups.
type GroupService interface {
	Create(ctx context.Context, in services.GroupInput) (*domain.Group, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*domain.Group, error)
	List(ctx context.Context, groupType string, page, pageSize int) ([]domain.Group, int64, error)
	Types() []domain.Option
}

// CommentService manages comments on any commentable entity.
type CommentService interface {
	List(ctx context.Context, entityType, entityID string) ([]domain.Comment, error)
	Thread(ctx context.Context, entityType, entityID string) ([]*services.ThreadNode, error)
	Stats(ctx context.Context, entityType, entityID string) (int64, *time.Time, error)
	Get(ctx context.Context, id string) (*domain.Comment, error)
	Post(ctx context.Context, in services.CommentInput) (*domain.Comment, error)
	Delete(ctx context.Context, id string) error
}

// ReviewService manages service reviews and their aggregates.
type ReviewService interface {
	Get(ctx context.Context, id string) (*domain.ServiceReview, error)
	Post(ctx context.Context, in services.ReviewInput) (*domain.ServiceReview, error)
	ListForService(ctx context.Context, serviceID string) (*services.ReviewList, error)
}

// UploadService stores user images.
type UploadService interface {
	Upload(ctx context.Context, bucket string, r io.Reader) (*storage.Object, error)
}

// IdempotencyStore remembers which resource a create request produced.
type IdempotencyStore interface {
	Get(ctx context.Context, userID, scope, key string, now time.Time) (*domain.Idempotency, error)
	Save(ctx context.Context, userID, scope, key, resourceID string, status int) error
	Forget(ctx context.Context, userID, scope, key string) error
}

//
// Handler wiring
//

// Services bundles the dependencies of Handlers. Idempotency may be nil.
type Services struct {
	Providers   ProviderService
	Marketplace MarketplaceService
	Events      EventService
	Groups      GroupService
	Comments    CommentService
	Reviews     ReviewService
	Uploads     UploadService
	Idempotency IdempotencyStore
}

// Handlers groups the HTTP endpoints.
type Handlers struct {
	svc   Services
	debug bool
}

// New returns Handlers bound to s. When debug is true, 500 responses carry
// the internal error text.
func New(s Services, debug bool) *Handlers {
	return &Handlers{svc: s, debug: debug}
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.IntParam(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.IntParam(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// bindJSON decodes the request body into dst. It writes the error response
// and returns false on failure.
func bindJSON(c *gin.Context, dst any) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		fail(c, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, "Request body too large")
		return false
	}
	fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON body")
	return false
}

// callerID is the authenticated user id, or "" for anonymous requests.
func callerID(c *gin.Context) string {
	id, _ := auth.IdentityFrom(c.Request.Context())
	return id.UserID
}

// replay serves a previously created resource when the request carries an
// Idempotency-Key the caller already used on this route. It reports whether a
// response was written. A stored record whose resource has since been deleted
// is dropped and the request falls through to a fresh create, which records
// the key again.
func (h *Handlers) replay(c *gin.Context, fetch func(ctx context.Context, id string) (any, error)) bool {
	if h.svc.Idempotency == nil || !middleware.IsReplay(c) {
		return false
	}
	key, has := middleware.GetIdempotencyKey(c)
	uid := callerID(c)
	if !has || uid == "" {
		return false
	}
	ctx := c.Request.Context()
	rec, err := h.svc.Idempotency.Get(ctx, uid, middleware.IdempotencyScope(c), key, time.Now().UTC())
	if err != nil || rec == nil {
		return false
	}
	body, err := fetch(ctx, rec.ResourceID)
	if err != nil {
		if ferr := h.svc.Idempotency.Forget(ctx, uid, middleware.IdempotencyScope(c), key); ferr != nil {
			middleware.LoggerFrom(c).Warn().Err(ferr).Msg("drop stale idempotency record")
		}
		return false
	}
	c.Header(middleware.HeaderIdempotencyReplayed, "true")
	ok(c, rec.Status, body)
	return true
}

// remember records the created resource under the request's Idempotency-Key.
// Failures are logged and never fail the request.
func (h *Handlers) remember(c *gin.Context, resourceID string, status int) {
	if h.svc.Idempotency == nil {
		return
	}
	key, has := middleware.GetIdempotencyKey(c)
	uid := callerID(c)
	if !has || uid == "" {
		return
	}
	err := h.svc.Idempotency.Save(c.Request.Context(), uid, middleware.IdempotencyScope(c), key, resourceID, status)
	if err != nil && !errors.Is(err, repo.ErrDuplicate) {
		middleware.LoggerFrom(c).Warn().Err(err).Msg("store idempotency record")
	}
}

// created finishes a successful create.
func (h *Handlers) created(c *gin.Context, resource, id string, body any) {
	h.remember(c, id, http.StatusCreated)
	middleware.RecordMutation(resource, "create", http.StatusCreated)
	ok(c, http.StatusCreated, body)
}

// mutationFailed writes err and counts the failed mutation.
func (h *Handlers) mutationFailed(c *gin.Context, resource, op string, err error, f failure) {
	h.writeError(c, err, f)
	middleware.RecordMutation(resource, op, c.Writer.Status())
}

// deleteByQuery implements the DELETE ?id= endpoints.
func (h *Handlers) deleteByQuery(c *gin.Context, resource string, del func(ctx context.Context, id string) error, f failure) {
	if err := del(c.Request.Context(), c.Query("id")); err != nil {
		h.mutationFailed(c, resource, "delete", err, f)
		return
	}
	middleware.RecordMutation(resource, "delete", http.StatusNoContent)
	noContent(c)
}
