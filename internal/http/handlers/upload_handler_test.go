package handlers

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/briar-chapel-connect/internal/domain"
	"github.com/tbourn/briar-chapel-connect/internal/services"
	"github.com/tbourn/briar-chapel-connect/internal/storage"
)

// stubUploads is a flexible UploadService stub.
type stubUploads struct {
	upload func(ctx context.Context, bucket string, r io.Reader) (*storage.Object, error)
}

func (s stubUploads) Upload(ctx context.Context, bucket string, r io.Reader) (*storage.Object, error) {
	return s.upload(ctx, bucket, r)
}

func multipartBody(t *testing.T, field string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		fw, err := mw.CreateFormFile(field, "pic.png")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		_, _ = fw.Write(data)
	} else {
		_ = mw.WriteField("note", "no file here")
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func TestUpload_Handlers(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var gotBucket string
	var gotData []byte
	svc := stubUploads{upload: func(_ context.Context, bucket string, r io.Reader) (*storage.Object, error) {
		gotBucket = bucket
		gotData, _ = io.ReadAll(r)
		switch string(gotData) {
		case "huge":
			return nil, services.ErrPayloadTooLarge
		case "anon":
			return nil, services.ErrUnauthenticated
		case "text":
			return nil, &services.ValidationError{Msg: "Only image files are allowed"}
		case "broken":
			return nil, errStore
		}
		return &storage.Object{URL: "https://cdn.example/" + bucket + "/u1/x.png", Path: "u1/x.png"}, nil
	}}
	h := New(Services{Uploads: svc}, true)
	r := gin.New()
	r.POST("/uploads/comment-image", h.UploadCommentImage)
	r.POST("/uploads/provider-logo", h.UploadProviderLogo)

	post := func(path, field string, data []byte) *httptest.ResponseRecorder {
		body, ct := multipartBody(t, field, data)
		req := httptest.NewRequest(http.MethodPost, path, body)
		req.Header.Set("Content-Type", ct)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := post("/uploads/provider-logo", "file", []byte("img"))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	res := decode[UploadResponse](t, w)
	if gotBucket != domain.BucketProviderLogos || string(gotData) != "img" || res.Path != "u1/x.png" || res.URL == "" {
		t.Fatalf("bucket=%q data=%q res=%+v", gotBucket, gotData, res)
	}

	_ = post("/uploads/comment-image", "file", []byte("img"))
	if gotBucket != domain.BucketCommentImages {
		t.Fatalf("bucket=%q", gotBucket)
	}

	wantError(t, post("/uploads/comment-image", "", nil), http.StatusBadRequest, "Missing file")
	wantError(t, post("/uploads/comment-image", "file", []byte("huge")), http.StatusRequestEntityTooLarge, "File too large")
	wantError(t, post("/uploads/comment-image", "file", []byte("anon")), http.StatusUnauthorized, "Unauthorized")
	wantError(t, post("/uploads/comment-image", "file", []byte("text")), http.StatusBadRequest, "Only image files are allowed")

	w = post("/uploads/comment-image", "file", []byte("broken"))
	wantError(t, w, http.StatusInternalServerError, "Failed to upload file")
	if er := decode[ErrorResponse](t, w); er.Code != ErrCodeUploadFailed || er.Debug != errStore.Error() {
		t.Fatalf("unexpected envelope: %+v", er)
	}
}

func TestUpload_BodyOverLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	called := false
	h := New(Services{Uploads: stubUploads{upload: func(context.Context, string, io.Reader) (*storage.Object, error) {
		called = true
		return &storage.Object{}, nil
	}}}, false)

	r := gin.New()
	r.POST("/up", func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 64)
		c.Next()
	}, h.UploadCommentImage)

	body, ct := multipartBody(t, "file", bytes.Repeat([]byte("x"), 4096))
	req := httptest.NewRequest(http.MethodPost, "/up", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	wantError(t, w, http.StatusRequestEntityTooLarge, "File too large")
	if called {
		t.Fatalf("service must not run for oversized bodies")
	}
}
