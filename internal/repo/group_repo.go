package repo

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/briar-chapel-connect/internal/domain"
)

// GroupFilter narrows ListGroups.
type GroupFilter struct {
	Type   string
	Offset int
	Limit  int
}

// CreateGroup inserts g. An empty Status becomes active.
func CreateGroup(ctx context.Context, db *gorm.DB, g *domain.Group) error {
	stampNew(&g.ID, &g.CreatedAt, &g.UpdatedAt)
	if g.Status == "" {
		g.Status = domain.StatusActive
	}
	return db.WithContext(ctx).Create(g).Error
}

// GetGroup fetches a group by id, or ErrNotFound.
func GetGroup(ctx context.Context, db *gorm.DB, id string) (*domain.Group, error) {
	var g domain.Group
	if err := db.WithContext(ctx).Where("id = ?", id).First(&g).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

// ListGroups returns one page of active groups, newest first.
func ListGroups(ctx context.Context, db *gorm.DB, f GroupFilter) ([]domain.Group, int64, error) {
	q := db.WithContext(ctx).Model(&domain.Group{}).Where("status = ?", domain.StatusActive)
	if t := strings.TrimSpace(f.Type); t != "" {
		q = q.Where("type = ?", t)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	out := []domain.Group{}
	if total == 0 {
		return out, 0, nil
	}
	err := q.Order("created_at DESC, id ASC").Offset(f.Offset).Limit(f.Limit).Find(&out).Error
	return out, total, err
}
