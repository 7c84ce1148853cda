// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are lowercase snake_case. Generic codes mirror HTTP status semantics;
// the *_failed codes name the operation that hit a store failure. Clients
// branch on codes, not on messages.
//
// writeError translates service errors:
//
//	*services.ValidationError        400 bad_request
//	services.ErrUnauthenticated      401 unauthorized
//	services.ErrNotFoundOrForbidden  404 not_found
//	services.ErrNotFound             404 not_found
//	services.ErrPayloadTooLarge      413 payload_too_large
//	anything else                    500 <fallback code>
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/briar-chapel-connect/internal/http/middleware"
	"github.com/tbourn/briar-chapel-connect/internal/services"
)

const (
	ErrCodeBadRequest      = "bad_request"
	ErrCodeUnauthorized    = "unauthorized"
	ErrCodeNotFound        = "not_found"
	ErrCodePayloadTooLarge = "payload_too_large"
	ErrCodeInternal        = "internal_error"

	// Domain-specific:
	ErrCodeCreateFailed     = "create_failed"
	ErrCodeDeleteFailed     = "delete_failed"
	ErrCodeListFailed       = "list_failed"
	ErrCodeUploadFailed     = "upload_failed"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)

// failure names the 500 response of one operation, e.g.
// {ErrCodeCreateFailed, "Failed to create event"}.
type failure struct {
	code string
	msg  string
}

// writeError maps err onto the error envelope. Store failures use f and, when
// debugging is enabled, expose err's text in the debug field.
func (h *Handlers) writeError(c *gin.Context, err error, f failure) {
	var (
		ve  *services.ValidationError
		de  *services.DetailError
		mbe *http.MaxBytesError
	)
	switch {
	case errors.As(err, &ve):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, ve.Msg)
	case errors.Is(err, services.ErrUnauthenticated):
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "Unauthorized")
	case errors.Is(err, services.ErrNotFoundOrForbidden), errors.Is(err, services.ErrNotFound):
		msg := "Not found"
		if errors.As(err, &de) {
			msg = de.Msg
		}
		fail(c, http.StatusNotFound, ErrCodeNotFound, msg)
	case errors.Is(err, services.ErrPayloadTooLarge), errors.As(err, &mbe):
		fail(c, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, "File too large")
	default:
		middleware.LoggerFrom(c).Error().Err(err).Str("code", f.code).Msg(f.msg)
		var debug string
		if h.debug {
			debug = err.Error()
		}
		failDebug(c, http.StatusInternalServerError, f.code, f.msg, debug)
	}
}
