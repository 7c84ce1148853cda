// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for service
// listings (the provider directory).
//
// Functions:
//
//   - CreateService(ctx, db, s) inserts a listing, assigning id and timestamps.
//   - GetService(ctx, db, id) fetches one listing regardless of status.
//   - ListServices(ctx, db, f) pages through active listings.
//   - SearchServices(ctx, db, q, limit) matches active listings by title.
//   - ServiceRatings(ctx, db, ids) aggregates review ratings per listing.
//
// Deletion goes through DeleteOwned with an owner-bound handle.
package repo

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/briar-chapel-connect/internal/domain"
)

// ServiceFilter narrows ListServices. Category matches either the full
// "<category>/<service>" path or any path under a bare category.
type ServiceFilter struct {
	Category string
	Offset   int
	Limit    int
}

// CreateService inserts s. Empty ID, Status and timestamps are filled in.
func CreateService(ctx context.Context, db *gorm.DB, s *domain.ServiceListing) error {
	stampNew(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if s.Status == "" {
		s.Status = domain.StatusActive
	}
	return db.WithContext(ctx).Create(s).Error
}

// GetService fetches a listing by id, or ErrNotFound.
func GetService(ctx context.Context, db *gorm.DB, id string) (*domain.ServiceListing, error) {
	var s domain.ServiceListing
	if err := db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// ListServices returns one page of active listings, newest first, together
// with the total number of matches.
func ListServices(ctx context.Context, db *gorm.DB, f ServiceFilter) ([]domain.ServiceListing, int64, error) {
	q := db.WithContext(ctx).Model(&domain.ServiceListing{}).Where("status = ?", domain.StatusActive)
	if c := strings.TrimSpace(f.Category); c != "" {
		if strings.Contains(c, "/") {
			q = q.Where("category = ?", c)
		} else {
			q = q.Where("category = ? OR category LIKE ? ESCAPE '\\'", c, likePrefix(c)+"/%")
		}
	}

	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	out := []domain.ServiceListing{}
	if total == 0 {
		return out, 0, nil
	}
	err := q.Order("created_at DESC, id ASC").Offset(f.Offset).Limit(f.Limit).Find(&out).Error
	return out, total, err
}

// SearchServices returns active listings whose title contains q
// (case-insensitive), newest first.
func SearchServices(ctx context.Context, db *gorm.DB, q string, limit int) ([]domain.ServiceListing, error) {
	out := []domain.ServiceListing{}
	term := strings.ToLower(strings.TrimSpace(q))
	if term == "" {
		return out, nil
	}
	tx := db.WithContext(ctx).
		Where("status = ?", domain.StatusActive).
		Where("LOWER(title) LIKE ? ESCAPE '\\'", "%"+likePrefix(term)+"%").
		Order("created_at DESC, id ASC")
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	err := tx.Find(&out).Error
	return out, err
}

// ServiceRatings aggregates review ratings for the given listings. Listings
// without reviews are absent from the map.
func ServiceRatings(ctx context.Context, db *gorm.DB, ids []string) (map[string]domain.RatingAggregate, error) {
	out := make(map[string]domain.RatingAggregate, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []struct {
		ServiceID string
		Total     int64
		Cnt       int64
	}
	err := db.WithContext(ctx).
		Model(&domain.ServiceReview{}).
		Select("service_id, COALESCE(SUM(rating), 0) AS total, COUNT(*) AS cnt").
		Where("service_id IN ?", ids).
		Group("service_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.ServiceID] = domain.NewRatingAggregate(r.Total, r.Cnt)
	}
	return out, nil
}

// stampNew assigns a UUID and UTC timestamps to a row about to be inserted,
// keeping any values the caller already set.
func stampNew(id *string, created, updated *time.Time) {
	if *id == "" {
		*id = uuid.NewString()
	}
	now := time.Now().UTC()
	if created.IsZero() {
		*created = now
	}
	if updated.IsZero() {
		*updated = *created
	}
}

// likePrefix escapes LIKE wildcards in s.
func likePrefix(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
