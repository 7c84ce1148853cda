// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for comments.
//
// Comments are addressed by their target, the (entity_type, entity_id) pair,
// and always read oldest first so thread reconstruction is stable.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/briar-chapel-connect/internal/domain"
)

// CreateComment inserts c.
func CreateComment(ctx context.Context, db *gorm.DB, c *domain.Comment) error {
	stampNew(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	return db.WithContext(ctx).Create(c).Error
}

// GetComment fetches a comment by id, or ErrNotFound.
func GetComment(ctx context.Context, db *gorm.DB, id string) (*domain.Comment, error) {
	var c domain.Comment
	if err := db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// ListComments returns every comment on the target ordered by
// (created_at ASC, id ASC).
func ListComments(ctx context.Context, db *gorm.DB, entityType, entityID string) ([]domain.Comment, error) {
	out := []domain.Comment{}
	err := db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

// CommentOnTarget reports whether a comment with id exists on the target.
func CommentOnTarget(ctx context.Context, db *gorm.DB, id, entityType, entityID string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Comment{}).
		Where("id = ? AND entity_type = ? AND entity_id = ?", id, entityType, entityID).
		Count(&n).Error
	return n > 0, err
}
