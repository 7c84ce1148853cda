package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// UploadLimiter caps uploads per user (or IP for anonymous callers) using a
// fixed-window limiter. rate is in ulule's "<limit>-<period>" form, e.g.
// "20-M" for twenty per minute.
func UploadLimiter(rate string) (gin.HandlerFunc, error) {
	r, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, err
	}
	instance := limiter.New(memory.NewStore(), r)
	key := KeyByUserOrIP()

	return func(c *gin.Context) {
		lc, err := instance.Get(c.Request.Context(), "upload:"+key(c))
		if err != nil {
			abortJSON(c, http.StatusInternalServerError, "internal_error", "rate limiter unavailable")
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(lc.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(lc.Remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(lc.Reset, 10))

		if lc.Reached {
			abortJSON(c, http.StatusTooManyRequests, "rate_limited", "too many uploads, try again later")
			return
		}
		c.Next()
	}, nil
}
