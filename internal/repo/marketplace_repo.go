package repo

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/briar-chapel-connect/internal/domain"
)

// ItemFilter narrows ListItems. Empty fields do not filter.
type ItemFilter struct {
	Category string
	Status   string
	Query    string
	Offset   int
	Limit    int
}

// CreateItem inserts a marketplace item owned by it.UserID.
func CreateItem(ctx context.Context, db *gorm.DB, it *domain.MarketplaceItem) error {
	stampNew(&it.ID, &it.CreatedAt, &it.UpdatedAt)
	return db.WithContext(ctx).Create(it).Error
}

// GetItem fetches a marketplace item by id, or ErrNotFound.
func GetItem(ctx context.Context, db *gorm.DB, id string) (*domain.MarketplaceItem, error) {
	var it domain.MarketplaceItem
	if err := db.WithContext(ctx).Where("id = ?", id).First(&it).Error; err != nil {
		return nil, err
	}
	return &it, nil
}

// ListItems returns one page of items, newest first, and the match count.
// Query matches title or description case-insensitively.
func ListItems(ctx context.Context, db *gorm.DB, f ItemFilter) ([]domain.MarketplaceItem, int64, error) {
	q := db.WithContext(ctx).Model(&domain.MarketplaceItem{})
	if c := strings.TrimSpace(f.Category); c != "" {
		q = q.Where("category = ?", c)
	}
	if st := strings.TrimSpace(f.Status); st != "" {
		q = q.Where("status = ?", st)
	}
	if term := strings.ToLower(strings.TrimSpace(f.Query)); term != "" {
		like := "%" + likePrefix(term) + "%"
		q = q.Where("(LOWER(title) LIKE ? ESCAPE '\\' OR LOWER(description) LIKE ? ESCAPE '\\')", like, like)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	out := []domain.MarketplaceItem{}
	if total == 0 {
		return out, 0, nil
	}
	err := q.Order("created_at DESC, id ASC").Offset(f.Offset).Limit(f.Limit).Find(&out).Error
	return out, total, err
}
