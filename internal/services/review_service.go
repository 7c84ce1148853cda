// Package services – ReviewService
//
// Reviews are 1..5 star ratings on active service listings. The aggregate
// shown next to a listing is computed from the stored reviews on every read.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/tbourn/briar-chapel-connect/internal/auth"
	"github.com/tbourn/briar-chapel-connect/internal/domain"
	"github.com/tbourn/briar-chapel-connect/internal/observability"
	"github.com/tbourn/briar-chapel-connect/internal/repo"
	"github.com/tbourn/briar-chapel-connect/internal/sysutil"
)

const reviewTracer = "services/reviews"

// ReviewInput is the create payload for a review. Rating accepts any
// integer-valued JSON number or numeric string.
type ReviewInput struct {
	ServiceID string  `json:"service_id"`
	Rating    any     `json:"rating"  swaggertype:"integer"`
	Comment   *string `json:"comment"`
}

// ReviewList is a listing's reviews with their aggregate.
type ReviewList struct {
	Reviews []domain.ServiceReview `json:"reviews"`
	Average float64                `json:"average"`
	Count   int64                  `json:"count"`
}

// ReviewService manages service reviews.
type ReviewService struct {
	DB   *gorm.DB
	Gate *auth.Gate
}

// Post validates in and stores a review by the caller against an active
// listing.
func (s *ReviewService) Post(ctx context.Context, in ReviewInput) (_ *domain.ServiceReview, err error) {
	ctx, span := observability.StartSpan(ctx, reviewTracer, "Post")
	defer func() { observability.Finish(span, err) }()

	serviceID := clean(in.ServiceID)
	if serviceID == "" {
		return nil, invalid("Missing service_id")
	}
	rating, ok := parseRating(in.Rating)
	if !ok {
		return nil, invalid("rating must be between 1 and 5")
	}
	comment := cleanPtr(in.Comment)
	if comment != nil && utf8.RuneCountInString(*comment) > domain.MaxReviewCommentRunes {
		return nil, invalid(fmt.Sprintf("comment too long (max %d chars)", domain.MaxReviewCommentRunes))
	}

	sess, err := s.Gate.Require(ctx)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("service_id", serviceID), attribute.Int("rating", rating))

	svc, err := repo.GetService(ctx, s.DB, serviceID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, notFound("Service not found")
	}
	if err != nil {
		return nil, fmt.Errorf("lookup service: %w", err)
	}
	if svc.Status != domain.StatusActive {
		return nil, invalid("Service is not active")
	}

	r := &domain.ServiceReview{
		ServiceID:  serviceID,
		UserID:     sess.UserID(),
		Rating:     rating,
		Comment:    comment,
		AuthorName: sysutil.NilIfBlank(sess.Identity.DisplayName),
	}
	if err := repo.CreateReview(ctx, sess.Store, r); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}
	return r, nil
}

// ListForService returns a listing's reviews, newest first, with the
// average and count over all of them.
func (s *ReviewService) ListForService(ctx context.Context, serviceID string) (*ReviewList, error) {
	serviceID = clean(serviceID)
	if serviceID == "" {
		return nil, invalid("Missing service_id")
	}
	reviews, err := repo.ListReviews(ctx, s.DB, serviceID)
	if err != nil {
		return nil, err
	}
	agg, err := s.Aggregate(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	return &ReviewList{Reviews: reviews, Average: agg.Average, Count: agg.Count}, nil
}

// Get returns the review with id.
func (s *ReviewService) Get(ctx context.Context, id string) (*domain.ServiceReview, error) {
	r, err := repo.GetReview(ctx, s.DB, clean(id))
	if errors.Is(err, repo.ErrNotFound) {
		return nil, notFound("Review not found")
	}
	return r, err
}

// Aggregate computes the rating summary of a listing.
func (s *ReviewService) Aggregate(ctx context.Context, serviceID string) (domain.RatingAggregate, error) {
	return repo.RatingFor(ctx, s.DB, serviceID)
}

func parseRating(v any) (int, bool) {
	var f float64
	switch r := v.(type) {
	case float64:
		f = r
	case int:
		f = float64(r)
	case json.Number:
		n, err := r.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(r), 64)
		if err != nil {
			return 0, false
		}
		f = n
	default:
		return 0, false
	}
	if f != math.Trunc(f) || f < 1 || f > 5 {
		return 0, false
	}
	return int(f), true
}
