// Marketplace, event and group HTTP handlers.
//
//   - POST   /marketplace-items, DELETE /marketplace-items?id=,
//     GET /marketplace-items, GET /marketplace-items/{id}
//   - POST   /events, DELETE /events?id=, GET /events, GET /events/{id},
//     GET /events/calendar, GET /events/categories
//   - POST   /groups, DELETE /groups?id=, GET /groups, GET /groups/{id},
//     GET /groups/types
package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/briar-chapel-connect/internal/domain"
	"github.com/tbourn/briar-chapel-connect/internal/services"
	"github.com/tbourn/briar-chapel-connect/internal/utils"
)

// ListItemsResponse wraps a page of marketplace items.
type ListItemsResponse struct {
	Items      []domain.MarketplaceItem `json:"items"`
	Pagination Pagination               `json:"pagination"`
}

// ListEventsResponse wraps a page of events.
type ListEventsResponse struct {
	Events     []domain.Event `json:"events"`
	Pagination Pagination     `json:"pagination"`
}

// ListGroupsResponse wraps a page of groups.
type ListGroupsResponse struct {
	Groups     []domain.Group `json:"groups"`
	Pagination Pagination     `json:"pagination"`
}

//
// Marketplace
//

// CreateItem godoc
// @ID          createMarketplaceItem
// @Summary     Create a marketplace item
// @Description price accepts a number or numeric string; images beyond the fifth are dropped. Supports Idempotency-Key.
// @Tags        Marketplace
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       Idempotency-Key  header  string              false  "Idempotency key for safe retries"
// @Param       body             body    services.ItemInput  true   "Item payload"
// @Success     201  {object}  domain.MarketplaceItem
// @Failure     400  {object}  handlers.ErrorResponse  "Missing title / Invalid price"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Failed to create item"
// @Router      /marketplace-items [post]
func (h *Handlers) CreateItem(c *gin.Context) {
	if h.replay(c, func(ctx context.Context, id string) (any, error) { return h.svc.Marketplace.Get(ctx, id) }) {
		return
	}
	var in services.ItemInput
	if !bindJSON(c, &in) {
		return
	}
	item, err := h.svc.Marketplace.Create(c.Request.Context(), in)
	if err != nil {
		h.mutationFailed(c, "marketplace_items", "create", err, failure{ErrCodeCreateFailed, "Failed to create item"})
		return
	}
	h.created(c, "marketplace_items", item.ID, item)
}

// DeleteItem godoc
// @ID          deleteMarketplaceItem
// @Summary     Delete own marketplace item
// @Tags        Marketplace
// @Produce     json
// @Security    BearerAuth
// @Param       id  query  string  true  "Item ID"  format(uuid)
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Missing id"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse  "Item not found or not owned by user"
// @Failure     500  {object}  handlers.ErrorResponse  "Failed to delete item"
// @Router      /marketplace-items [delete]
func (h *Handlers) DeleteItem(c *gin.Context) {
	h.deleteByQuery(c, "marketplace_items", h.svc.Marketplace.Delete, failure{ErrCodeDeleteFailed, "Failed to delete item"})
}

// ListItems godoc
// @ID          listMarketplaceItems
// @Summary     List marketplace items
// @Tags        Marketplace
// @Produce     json
// @Param       category   query  string  false  "Category slug"
// @Param       status     query  string  false  "available, pending or sold"
// @Param       q          query  string  false  "Title contains"
// @Param       page       query  int     false  "Page number"     minimum(1) default(1)
// @Param       page_size  query  int     false  "Items per page"  minimum(1) maximum(100) default(20)
// @Success     200  {object}  handlers.ListItemsResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Failed to load items"
// @Router      /marketplace-items [get]
func (h *Handlers) ListItems(c *gin.Context) {
	page, pageSize := clampPagination(c)
	items, total, err := h.svc.Marketplace.List(c.Request.Context(), c.Query("category"), c.Query("status"), c.Query("q"), page, pageSize)
	if err != nil {
		h.writeError(c, err, failure{ErrCodeListFailed, "Failed to load items"})
		return
	}
	ok(c, http.StatusOK, ListItemsResponse{Items: items, Pagination: newPagination(page, pageSize, total)})
}

// GetItem godoc
// @ID          getMarketplaceItem
// @Summary     Get a marketplace item
// @Tags        Marketplace
// @Produce     json
// @Param       id  path  string  true  "Item ID"  format(uuid)
// @Success     200  {object}  domain.MarketplaceItem
// @Failure     404  {object}  handlers.ErrorResponse  "Item not found"
// @Router      /marketplace-items/{id} [get]
func (h *Handlers) GetItem(c *gin.Context) {
	item, err := h.svc.Marketplace.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err, failure{ErrCodeListFailed, "Failed to load item"})
		return
	}
	ok(c, http.StatusOK, item)
}

//
// Events
//

// CreateEvent godoc
// @ID          createEvent
// @Summary     Create an event
// @Description Defaults: category general, location Briar Chapel, status upcoming. Supports Idempotency-Key.
// @Tags        Events
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       Idempotency-Key  header  string               false  "Idempotency key for safe retries"
// @Param       body             body    services.EventInput  true   "Event payload"
// @Success     201  {object}  domain.Event
// @Failure     400  {object}  handlers.ErrorResponse  "Missing title / Missing event_date"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Failed to create event"
// @Router      /events [post]
func (h *Handlers) CreateEvent(c *gin.Context) {
	if h.replay(c, func(ctx context.Context, id string) (any, error) { return h.svc.Events.Get(ctx, id) }) {
		return
	}
	var in services.EventInput
	if !bindJSON(c, &in) {
		return
	}
	ev, err := h.svc.Events.Create(c.Request.Context(), in)
	if err != nil {
		h.mutationFailed(c, "events", "create", err, failure{ErrCodeCreateFailed, "Failed to create event"})
		return
	}
	h.created(c, "events", ev.ID, ev)
}

// DeleteEvent godoc
// @ID          deleteEvent
// @Summary     Delete own event
// @Tags        Events
// @Produce     json
// @Security    BearerAuth
// @Param       id  query  string  true  "Event ID"  format(uuid)
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Missing id"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse  "Event not found or not owned by user"
// @Failure     500  {object}  handlers.ErrorResponse  "Failed to delete event"
// @Router      /events [delete]
func (h *Handlers) DeleteEvent(c *gin.Context) {
	h.deleteByQuery(c, "events", h.svc.Events.Delete, failure{ErrCodeDeleteFailed, "Failed to delete event"})
}

// ListEvents godoc
// @ID          listEvents
// @Summary     List upcoming events
// @Description Events starting at or after from (default now), soonest first.
// @Tags        Events
// @Produce     json
// @Param       category   query  string  false  "Category slug"
// @Param       from       query  string  false  "RFC3339 time or YYYY-MM-DD"  example(2025-06-01)
// @Param       page       query  int     false  "Page number"     minimum(1) default(1)
// @Param       page_size  query  int     false  "Items per page"  minimum(1) maximum(100) default(20)
// @Success     200  {object}  handlers.ListEventsResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid from"
// @Failure     500  {object}  handlers.ErrorResponse  "Failed to load events"
// @Router      /events [get]
func (h *Handlers) ListEvents(c *gin.Context) {
	var from time.Time
	if v := strings.TrimSpace(c.Query("from")); v != "" {
		t, err := parseFrom(v)
		if err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Invalid from")
			return
		}
		from = t
	}
	page, pageSize := clampPagination(c)
	evs, total, err := h.svc.Events.List(c.Request.Context(), c.Query("category"), from, page, pageSize)
	if err != nil {
		h.writeError(c, err, failure{ErrCodeListFailed, "Failed to load events"})
		return
	}
	ok(c, http.StatusOK, ListEventsResponse{Events: evs, Pagination: newPagination(page, pageSize, total)})
}

func parseFrom(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", v)
}

// GetEvent godoc
// @ID          getEvent
// @Summary     Get an event
// @Tags        Events
// @Produce     json
// @Param       id  path  string  true  "Event ID"  format(uuid)
// @Success     200  {object}  domain.Event
// @Failure     404  {object}  handlers.ErrorResponse  "Event not found"
// @Router      /events/{id} [get]
func (h *Handlers) GetEvent(c *gin.Context) {
	ev, err := h.svc.Events.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err, failure{ErrCodeListFailed, "Failed to load event"})
		return
	}
	ok(c, http.StatusOK, ev)
}

// EventCalendar godoc
// @ID          eventCalendar
// @Summary     Month calendar
// @Description Sunday-first week grid for the month plus events keyed by day of month (UTC). Defaults to the current month.
// @Tags        Events
// @Produce     json
// @Param       year   query  int  false  "Year"   example(2025)
// @Param       month  query  int  false  "Month"  minimum(1) maximum(12) example(6)
// @Success     200  {object}  services.CalendarMonth
// @Failure     400  {object}  handlers.ErrorResponse  "month must be between 1 and 12"
// @Failure     500  {object}  handlers.ErrorResponse  "Failed to load calendar"
// @Router      /events/calendar [get]
func (h *Handlers) EventCalendar(c *gin.Context) {
	now := time.Now().UTC()
	year := utils.IntParam(c.Query("year"), now.Year())
	month := utils.IntParam(c.Query("month"), int(now.Month()))
	cal, err := h.svc.Events.Calendar(c.Request.Context(), year, month)
	if err != nil {
		h.writeError(c, err, failure{ErrCodeListFailed, "Failed to load calendar"})
		return
	}
	ok(c, http.StatusOK, cal)
}

// EventCategories godoc
// @ID          eventCategories
// @Summary     Event categories
// @Tags        Events
// @Produce     json
// @Success     200  {array}  domain.Option
// @Router      /events/categories [get]
func (h *Handlers) EventCategories(c *gin.Context) {
	ok(c, http.StatusOK, h.svc.Events.Categories())
}

//
// Groups
//

// CreateGroup godoc
// @ID          createGroup
// @Summary     Create a group
// @Tags        Groups
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       Idempotency-Key  header  string               false  "Idempotency key for safe retries"
// @Param       body             body    services.GroupInput  true   "Group payload"
// @Success     201  {object}  domain.Group
// @Failure     400  {object}  handlers.ErrorResponse  "Missing required fields / Invalid group type"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Failed to create group"
// @Router      /groups [post]
func (h *Handlers) CreateGroup(c *gin.Context) {
	if h.replay(c, func(ctx context.Context, id string) (any, error) { return h.svc.Groups.Get(ctx, id) }) {
		return
	}
	var in services.GroupInput
	if !bindJSON(c, &in) {
		return
	}
	g, err := h.svc.Groups.Create(c.Request.Context(), in)
	if err != nil {
		h.mutationFailed(c, "groups", "create", err, failure{ErrCodeCreateFailed, "Failed to create group"})
		return
	}
	h.created(c, "groups", g.ID, g)
}

// DeleteGroup godoc
// @ID          deleteGroup
// @Summary     Delete own group
// @Tags        Groups
// @Produce     json
// @Security    BearerAuth
// @Param       id  query  string  true  "Group ID"  format(uuid)
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Missing id"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse  "Group not found or not owned by user"
// @Failure     500  {object}  handlers.ErrorResponse  "Failed to delete group"
// @Router      /groups [delete]
func (h *Handlers) DeleteGroup(c *gin.Context) {
	h.deleteByQuery(c, "groups", h.svc.Groups.Delete, failure{ErrCodeDeleteFailed, "Failed to delete group"})
}

// ListGroups godoc
// @ID          listGroups
// @Summary     List active groups
// @Tags        Groups
// @Produce     json
// @Param       type       query  string  false  "Group type"
// @Param       page       query  int     false  "Page number"     minimum(1) default(1)
// @Param       page_size  query  int     false  "Items per page"  minimum(1) maximum(100) default(20)
// @Success     200  {object}  handlers.ListGroupsResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Failed to load groups"
// @Router      /groups [get]
func (h *Handlers) ListGroups(c *gin.Context) {
	page, pageSize := clampPagination(c)
	gs, total, err := h.svc.Groups.List(c.Request.Context(), c.Query("type"), page, pageSize)
	if err != nil {
		h.writeError(c, err, failure{ErrCodeListFailed, "Failed to load groups"})
		return
	}
	ok(c, http.StatusOK, ListGroupsResponse{Groups: gs, Pagination: newPagination(page, pageSize, total)})
}

// GetGroup godoc
// @ID          getGroup
// @Summary     Get a group
// @Tags        Groups
// @Produce     json
// @Param       id  path  string  true  "Group ID"  format(uuid)
// @Success     200  {object}  domain.Group
// @Failure     404  {object}  handlers.ErrorResponse  "Group not found"
// @Router      /groups/{id} [get]
func (h *Handlers) GetGroup(c *gin.Context) {
	g, err := h.svc.Groups.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err, failure{ErrCodeListFailed, "Failed to load group"})
		return
	}
	ok(c, http.StatusOK, g)
}

// GroupTypes godoc
// @ID          groupTypes
// @Summary     Group types
// @Tags        Groups
// @Produce     json
// @Success     200  {array}  domain.Option
// @Router      /groups/types [get]
func (h *Handlers) GroupTypes(c *gin.Context) {
	ok(c, http.StatusOK, h.svc.Groups.Types())
}
