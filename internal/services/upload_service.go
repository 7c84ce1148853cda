package services

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/tbourn/briar-chapel-connect/internal/auth"
	"github.com/tbourn/briar-chapel-connect/internal/domain"
	"github.com/tbourn/briar-chapel-connect/internal/observability"
	"github.com/tbourn/briar-chapel-connect/internal/storage"
)

const uploadTracer = "services/uploads"

// UploadService stores user images in a blob store.
type UploadService struct {
	Gate  *auth.Gate
	Store storage.BlobStore

	// MaxBytes caps one file; zero means 5 MiB.
	MaxBytes int64
}

// Upload stores r in bucket as <userID>/<uuid>.<ext> after checking that it
// is an image no larger than MaxBytes.
func (s *UploadService) Upload(ctx context.Context, bucket string, r io.Reader) (_ *storage.Object, err error) {
	ctx, span := observability.StartSpan(ctx, uploadTracer, "Upload")
	defer func() { observability.Finish(span, err) }()

	if bucket != domain.BucketCommentImages && bucket != domain.BucketProviderLogos {
		return nil, invalid("Unknown bucket")
	}
	if r == nil {
		return nil, invalid("Missing file")
	}
	sess, err := s.Gate.Require(ctx)
	if err != nil {
		return nil, err
	}

	limit := s.MaxBytes
	if limit <= 0 {
		limit = 5 << 20
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, ErrPayloadTooLarge
	}
	if len(data) == 0 {
		return nil, invalid("Missing file")
	}
	ext, mime, ok := storage.Sniff(data)
	if !ok {
		return nil, invalid("Only image files are allowed")
	}

	key := sess.UserID() + "/" + uuid.NewString() + "." + ext
	obj, err := s.Store.Put(ctx, bucket, key, bytes.NewReader(data), mime)
	if err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}
	return &obj, nil
}
