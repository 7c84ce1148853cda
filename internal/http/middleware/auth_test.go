package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/briar-chapel-connect/internal/auth"
)

func TestAuthenticate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	p := auth.NewJWTProvider("test-secret", "briar", "briar-api")
	good, err := p.Issue(auth.Identity{UserID: "u-1", DisplayName: "Pat"}, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	cases := []struct {
		name   string
		header string
		wantID string
	}{
		{"no header", "", ""},
		{"valid bearer", "Bearer " + good, "u-1"},
		{"lowercase scheme", "bearer " + good, "u-1"},
		{"garbage token", "Bearer not-a-jwt", ""},
		{"wrong scheme", "Basic " + good, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.Use(Authenticate(p))
			r.GET("/me", func(c *gin.Context) {
				if got := c.GetString(ctxKeyUserID); got != tc.wantID {
					t.Fatalf("userID = %q; want %q", got, tc.wantID)
				}
				id, ok := auth.IdentityFrom(c.Request.Context())
				if ok != (tc.wantID != "") || id.UserID != tc.wantID {
					t.Fatalf("identity = %+v ok=%v", id, ok)
				}
				if ok && id.DisplayName != "Pat" {
					t.Fatalf("display name lost: %+v", id)
				}
				c.Status(http.StatusNoContent)
			})

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			r.ServeHTTP(w, req)
			if w.Code != http.StatusNoContent {
				t.Fatalf("status = %d", w.Code)
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	if got := bearerToken("  Bearer   abc "); got != "abc" {
		t.Fatalf("got %q", got)
	}
	if got := bearerToken("Bearer"); got != "" {
		t.Fatalf("got %q", got)
	}
}
