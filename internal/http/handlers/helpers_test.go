package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/briar-chapel-connect/internal/auth"
	"github.com/tbourn/briar-chapel-connect/internal/domain"
	"github.com/tbourn/briar-chapel-connect/internal/http/middleware"
	"github.com/tbourn/briar-chapel-connect/internal/repo"
	"github.com/tbourn/briar-chapel-connect/internal/services"
)

// ---------- test DB + stack ----------

func newHandlerDB(t *testing.T) *gorm.DB {
	t.Helper()

	// Unique DSN per call to avoid cross-test contamination
	dsn := fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.RegisterOwnerPolicy(db); err != nil {
		t.Fatalf("register policy: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		t.Cleanup(func() { _ = sqlDB.Close() })
	}
	return db
}

// tokens resolves "tok-<uid>" to user <uid>.
type tokens struct{}

func (tokens) Resolve(_ context.Context, token string) (auth.Identity, error) {
	if len(token) > 4 && token[:4] == "tok-" {
		return auth.Identity{UserID: token[4:], DisplayName: "Neighbor " + token[4:]}, nil
	}
	return auth.Identity{}, auth.ErrInvalidToken
}

// testIdem is the repo-backed idempotency store.
type testIdem struct{ db *gorm.DB }

func (s testIdem) Get(ctx context.Context, userID, scope, key string, now time.Time) (*domain.Idempotency, error) {
	return repo.GetIdempotency(ctx, s.db, userID, scope, key, now)
}

func (s testIdem) Save(ctx context.Context, userID, scope, key, resourceID string, status int) error {
	_, err := repo.CreateIdempotency(ctx, s.db, userID, scope, key, resourceID, status, time.Hour)
	return err
}

func (s testIdem) Forget(ctx context.Context, userID, scope, key string) error {
	_, err := repo.DeleteIdempotency(ctx, s.db, userID, scope, key)
	return err
}

// realServices wires the production services over db.
func realServices(db *gorm.DB) Services {
	gate := auth.NewGate(db)
	return Services{
		Providers:   services.NewProviderService(db, gate),
		Marketplace: &services.MarketplaceService{DB: db, Gate: gate},
		Events:      &services.EventService{DB: db, Gate: gate},
		Groups:      &services.GroupService{DB: db, Gate: gate},
		Comments:    &services.CommentService{DB: db, Gate: gate},
		Reviews:     &services.ReviewService{DB: db, Gate: gate},
		Idempotency: testIdem{db: db},
	}
}

// newEngine mounts every JSON route of h behind authentication and the
// idempotency validator, mirroring the production middleware order.
func newEngine(db *gorm.DB, h *Handlers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.Authenticate(tokens{}))
	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{},
		func(ctx context.Context, userID, scope, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, userID, scope, key, now)
			return err == nil && rec != nil, nil
		}))

	r.POST("/providers", h.CreateProvider)
	r.DELETE("/providers", h.DeleteProvider)
	r.GET("/providers", h.ListProviders)
	r.GET("/providers/search", h.SearchProviders)
	r.GET("/providers/:id", h.GetProvider)

	r.POST("/marketplace-items", h.CreateItem)
	r.DELETE("/marketplace-items", h.DeleteItem)
	r.GET("/marketplace-items", h.ListItems)
	r.GET("/marketplace-items/:id", h.GetItem)

	r.POST("/events", h.CreateEvent)
	r.DELETE("/events", h.DeleteEvent)
	r.GET("/events", h.ListEvents)
	r.GET("/events/calendar", h.EventCalendar)
	r.GET("/events/categories", h.EventCategories)
	r.GET("/events/:id", h.GetEvent)

	r.POST("/groups", h.CreateGroup)
	r.DELETE("/groups", h.DeleteGroup)
	r.GET("/groups", h.ListGroups)
	r.GET("/groups/types", h.GroupTypes)
	r.GET("/groups/:id", h.GetGroup)

	r.GET("/comments", h.ListComments)
	r.GET("/comments/thread", h.CommentThread)
	r.POST("/comments", h.PostComment)
	r.DELETE("/comments", h.DeleteComment)

	r.GET("/service-reviews", h.ListReviews)
	r.POST("/service-reviews", h.PostReview)

	r.POST("/uploads/comment-image", h.UploadCommentImage)
	r.POST("/uploads/provider-logo", h.UploadProviderLogo)
	return r
}

// do sends a JSON request as user (anonymous when empty). body may be a
// string (sent verbatim) or any JSON-marshalable value.
func do(t *testing.T, r http.Handler, method, path, user string, body any, hdr ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set("Authorization", "Bearer tok-"+user)
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

// wantError asserts status and the envelope's error message.
func wantError(t *testing.T, w *httptest.ResponseRecorder, status int, msg string) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status=%d want %d body=%s", w.Code, status, w.Body.String())
	}
	er := decode[ErrorResponse](t, w)
	if er.Error != msg {
		t.Fatalf("error=%q want %q", er.Error, msg)
	}
}

func countRows(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	if err := db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

var errStore = errors.New("disk on fire")
