// Comment and review HTTP handlers.
//
//   - GET    /comments?entity_type=&entity_id=         (flat, ETag support)
//   - GET    /comments/thread?entity_type=&entity_id=  (nested)
//   - POST   /comments
//   - DELETE /comments?id=
//   - GET    /service-reviews?service_id=              (reviews + aggregate)
//   - POST   /service-reviews
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/briar-chapel-connect/internal/services"
)

// ListComments godoc
// @ID          listComments
// @Summary     List comments on an entity
// @Description Oldest first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Comments
// @Produce     json
// @Param       entity_type    query   string  true   "Commentable type"  example(event)
// @Param       entity_id      query   string  true   "Entity ID"
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
// @Success     200  {array}   domain.Comment
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string  "Not Modified"
// @Failure     400  {object}  handlers.ErrorResponse  "Missing entity_type or entity_id"
// @Failure     500  {object}  handlers.ErrorResponse  "Failed to load comments"
// @Router      /comments [get]
func (h *Handlers) ListComments(c *gin.Context) {
	ctx := c.Request.Context()
	et, eid := c.Query("entity_type"), c.Query("entity_id")

	// ETag pre-check (best effort).
	if count, maxTS, err := h.svc.Comments.Stats(ctx, et, eid); err == nil {
		var ts int64
		if maxTS != nil {
			ts = maxTS.UnixNano()
		}
		etag := fmt.Sprintf(`W/"comments:%s:%s:%d:%d"`, strings.TrimSpace(et), strings.TrimSpace(eid), count, ts)
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	items, err := h.svc.Comments.List(ctx, et, eid)
	if err != nil {
		h.writeError(c, err, failure{ErrCodeListFailed, "Failed to load comments"})
		return
	}
	ok(c, http.StatusOK, items)
}

// CommentThread godoc
// @ID          commentThread
// @Summary     Comments as a reply tree
// @Description Roots and replies in creation order. Replies whose parent is gone are shown as roots.
// @Tags        Comments
// @Produce     json
// @Param       entity_type  query  string  true  "Commentable type"  example(event)
// @Param       entity_id    query  string  true  "Entity ID"
// @Success     200  {array}   services.ThreadNode
// @Failure     400  {object}  handlers.ErrorResponse  "Missing entity_type or entity_id"
// @Failure     500  {object}  handlers.ErrorResponse  "Failed to load comments"
// @Router      /comments/thread [get]
func (h *Handlers) CommentThread(c *gin.Context) {
	tree, err := h.svc.Comments.Thread(c.Request.Context(), c.Query("entity_type"), c.Query("entity_id"))
	if err != nil {
		h.writeError(c, err, failure{ErrCodeListFailed, "Failed to load comments"})
		return
	}
	ok(c, http.StatusOK, tree)
}

// PostComment godoc
// @ID          postComment
// @Summary     Comment on an entity
// @Tags        Comments
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body  services.CommentInput  true  "Comment payload"
// @Success     201  {object}  domain.Comment
// @Failure     400  {object}  handlers.ErrorResponse  "Missing required fields / Parent comment not found"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Failed to create comment"
// @Router      /comments [post]
func (h *Handlers) PostComment(c *gin.Context) {
	if h.replay(c, func(ctx context.Context, id string) (any, error) { return h.svc.Comments.Get(ctx, id) }) {
		return
	}
	var in services.CommentInput
	if !bindJSON(c, &in) {
		return
	}
	cm, err := h.svc.Comments.Post(c.Request.Context(), in)
	if err != nil {
		h.mutationFailed(c, "comments", "create", err, failure{ErrCodeCreateFailed, "Failed to create comment"})
		return
	}
	h.created(c, "comments", cm.ID, cm)
}

// DeleteComment godoc
// @ID          deleteComment
// @Summary     Delete own comment
// @Description Replies are left in place.
// @Tags        Comments
// @Produce     json
// @Security    BearerAuth
// @Param       id  query  string  true  "Comment ID"  format(uuid)
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Missing id"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse  "Comment not found or not owned by user"
// @Failure     500  {object}  handlers.ErrorResponse  "Failed to delete comment"
// @Router      /comments [delete]
func (h *Handlers) DeleteComment(c *gin.Context) {
	h.deleteByQuery(c, "comments", h.svc.Comments.Delete, failure{ErrCodeDeleteFailed, "Failed to delete comment"})
}

// ListReviews godoc
// @ID          listReviews
// @Summary     Reviews of a service with average and count
// @Tags        Reviews
// @Produce     json
// @Param       service_id  query  string  true  "Service listing ID"  format(uuid)
// @Success     200  {object}  services.ReviewList
// @Failure     400  {object}  handlers.ErrorResponse  "Missing service_id"
// @Failure     500  {object}  handlers.ErrorResponse  "Failed to load reviews"
// @Router      /service-reviews [get]
func (h *Handlers) ListReviews(c *gin.Context) {
	res, err := h.svc.Reviews.ListForService(c.Request.Context(), c.Query("service_id"))
	if err != nil {
		h.writeError(c, err, failure{ErrCodeListFailed, "Failed to load reviews"})
		return
	}
	ok(c, http.StatusOK, res)
}

// PostReview godoc
// @ID          postReview
// @Summary     Review a service
// @Tags        Reviews
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body  services.ReviewInput  true  "Review payload"
// @Success     201  {object}  domain.ServiceReview
// @Failure     400  {object}  handlers.ErrorResponse  "rating must be between 1 and 5 / Service is not active"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse  "Service not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Failed to submit review"
// @Router      /service-reviews [post]
func (h *Handlers) PostReview(c *gin.Context) {
	if h.replay(c, func(ctx context.Context, id string) (any, error) { return h.svc.Reviews.Get(ctx, id) }) {
		return
	}
	var in services.ReviewInput
	if !bindJSON(c, &in) {
		return
	}
	rv, err := h.svc.Reviews.Post(c.Request.Context(), in)
	if err != nil {
		h.mutationFailed(c, "service_reviews", "create", err, failure{ErrCodeCreateFailed, "Failed to submit review"})
		return
	}
	h.created(c, "service_reviews", rv.ID, rv)
}
