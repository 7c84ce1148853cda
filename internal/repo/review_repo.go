package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/briar-chapel-connect/internal/domain"
)

// CreateReview inserts r. The referenced listing must exist.
func CreateReview(ctx context.Context, db *gorm.DB, r *domain.ServiceReview) error {
	stampNew(&r.ID, &r.CreatedAt, &r.UpdatedAt)
	return db.WithContext(ctx).Omit("Service").Create(r).Error
}

// GetReview fetches a review by id, or ErrNotFound.
func GetReview(ctx context.Context, db *gorm.DB, id string) (*domain.ServiceReview, error) {
	var r domain.ServiceReview
	if err := db.WithContext(ctx).Where("id = ?", id).First(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// ListReviews returns the reviews of a listing, newest first.
func ListReviews(ctx context.Context, db *gorm.DB, serviceID string) ([]domain.ServiceReview, error) {
	out := []domain.ServiceReview{}
	err := db.WithContext(ctx).
		Where("service_id = ?", serviceID).
		Order("created_at DESC, id ASC").
		Find(&out).Error
	return out, err
}

// RatingFor aggregates the ratings of a single listing. A listing without
// reviews yields the zero aggregate.
func RatingFor(ctx context.Context, db *gorm.DB, serviceID string) (domain.RatingAggregate, error) {
	m, err := ServiceRatings(ctx, db, []string{serviceID})
	if err != nil {
		return domain.RatingAggregate{}, err
	}
	return m[serviceID], nil
}
