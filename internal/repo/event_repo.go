package repo

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/briar-chapel-connect/internal/domain"
)

// EventFilter narrows ListEvents. A zero From lists past events too.
type EventFilter struct {
	Category string
	From     time.Time
	Offset   int
	Limit    int
}

// CreateEvent inserts ev.
func CreateEvent(ctx context.Context, db *gorm.DB, ev *domain.Event) error {
	stampNew(&ev.ID, &ev.CreatedAt, &ev.UpdatedAt)
	return db.WithContext(ctx).Create(ev).Error
}

// GetEvent fetches an event by id, or ErrNotFound.
func GetEvent(ctx context.Context, db *gorm.DB, id string) (*domain.Event, error) {
	var ev domain.Event
	if err := db.WithContext(ctx).Where("id = ?", id).First(&ev).Error; err != nil {
		return nil, err
	}
	return &ev, nil
}

// ListEvents returns one page of non-cancelled events in date order (soonest
// first) and the total number of matches.
func ListEvents(ctx context.Context, db *gorm.DB, f EventFilter) ([]domain.Event, int64, error) {
	q := db.WithContext(ctx).Model(&domain.Event{}).Where("status <> ?", domain.EventCancelled)
	if !f.From.IsZero() {
		q = q.Where("event_date >= ?", f.From.UTC())
	}
	if c := strings.TrimSpace(f.Category); c != "" {
		q = q.Where("category = ?", c)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	out := []domain.Event{}
	if total == 0 {
		return out, 0, nil
	}
	err := q.Order("event_date ASC, id ASC").Offset(f.Offset).Limit(f.Limit).Find(&out).Error
	return out, total, err
}

// EventsBetween returns every event with from <= event_date < to, in date
// order. Cancelled events are included so the calendar can show them.
func EventsBetween(ctx context.Context, db *gorm.DB, from, to time.Time) ([]domain.Event, error) {
	out := []domain.Event{}
	err := db.WithContext(ctx).
		Where("event_date >= ? AND event_date < ?", from.UTC(), to.UTC()).
		Order("event_date ASC, id ASC").
		Find(&out).Error
	return out, err
}
