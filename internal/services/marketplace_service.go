package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tbourn/briar-chapel-connect/internal/auth"
	"github.com/tbourn/briar-chapel-connect/internal/domain"
	"github.com/tbourn/briar-chapel-connect/internal/observability"
	"github.com/tbourn/briar-chapel-connect/internal/repo"
)

const marketplaceTracer = "services/marketplace"

// ItemInput is the create payload for a marketplace item. Price accepts a
// JSON number or a numeric string; absent means free.
type ItemInput struct {
	Title       string   `json:"title"       validate:"required,max=255"`
	Description string   `json:"description"`
	Category    string   `json:"category"    validate:"omitempty,slug,max=64"`
	Price       any      `json:"price"       swaggertype:"number"`
	Condition   string   `json:"condition"   validate:"omitempty,condition"`
	Location    string   `json:"location"    validate:"max=255"`
	Images      []string `json:"images"`
	Contact     *string  `json:"contact"     validate:"omitempty,max=255"`
}

var itemMessages = map[string]string{
	"title":     "Missing title",
	"title.max": "title too long (max 255 chars)",
	"category":  "Invalid category",
	"condition": "Invalid condition",
	"location":  "location too long (max 255 chars)",
	"contact":   "contact too long (max 255 chars)",
}

// MarketplaceService manages classified listings.
type MarketplaceService struct {
	DB   *gorm.DB
	Gate *auth.Gate
}

// Create validates in and inserts an available item owned by the caller.
func (s *MarketplaceService) Create(ctx context.Context, in ItemInput) (_ *domain.MarketplaceItem, err error) {
	ctx, span := observability.StartSpan(ctx, marketplaceTracer, "Create")
	defer func() { observability.Finish(span, err) }()

	in.Title = clean(in.Title)
	in.Description = clean(in.Description)
	in.Category = clean(in.Category)
	in.Condition = clean(in.Condition)
	in.Location = clean(in.Location)
	in.Contact = cleanPtr(in.Contact)
	if err := check(in, itemMessages); err != nil {
		return nil, err
	}
	price, err := parsePrice(in.Price)
	if err != nil {
		return nil, err
	}

	sess, err := s.Gate.Require(ctx)
	if err != nil {
		return nil, err
	}

	it := &domain.MarketplaceItem{
		UserID:      sess.UserID(),
		Title:       in.Title,
		Description: in.Description,
		Category:    orDefault(in.Category, domain.DefaultCategory),
		Price:       price,
		Condition:   orDefault(in.Condition, "good"),
		Location:    orDefault(in.Location, domain.DefaultLocation),
		Status:      domain.ItemAvailable,
		Images:      datatypes.JSONSlice[string](cleanList(in.Images, domain.MaxListingImages)),
		Contact:     in.Contact,
	}
	if err := repo.CreateItem(ctx, sess.Store, it); err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}
	return it, nil
}

// Delete removes the caller's item id.
func (s *MarketplaceService) Delete(ctx context.Context, id string) (err error) {
	ctx, span := observability.StartSpan(ctx, marketplaceTracer, "Delete")
	defer func() { observability.Finish(span, err) }()

	if id = clean(id); id == "" {
		return invalid("Missing id")
	}
	sess, err := s.Gate.Require(ctx)
	if err != nil {
		return err
	}
	n, err := repo.DeleteOwned[domain.MarketplaceItem](ctx, sess.Store, id, sess.UserID())
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if n == 0 {
		return notOwned("Item not found or not owned by user")
	}
	return nil
}

// Get returns item id.
func (s *MarketplaceService) Get(ctx context.Context, id string) (*domain.MarketplaceItem, error) {
	it, err := repo.GetItem(ctx, s.DB, clean(id))
	if errors.Is(err, repo.ErrNotFound) {
		return nil, notFound("Item not found")
	}
	return it, err
}

// List pages through items, newest first.
func (s *MarketplaceService) List(ctx context.Context, category, status, q string, page, pageSize int) ([]domain.MarketplaceItem, int64, error) {
	_, size, offset := pageBounds(page, pageSize)
	return repo.ListItems(ctx, s.DB, repo.ItemFilter{
		Category: clean(category),
		Status:   clean(status),
		Query:    clean(q),
		Offset:   offset,
		Limit:    size,
	})
}

// parsePrice accepts what a form or JSON client may send for price and
// returns a finite, non-negative amount.
func parsePrice(v any) (float64, error) {
	var f float64
	switch p := v.(type) {
	case nil:
		return 0, nil
	case float64:
		f = p
	case json.Number:
		n, err := p.Float64()
		if err != nil {
			return 0, invalid("Invalid price")
		}
		f = n
	case string:
		p = strings.TrimSpace(p)
		if p == "" {
			return 0, nil
		}
		n, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return 0, invalid("Invalid price")
		}
		f = n
	default:
		return 0, invalid("Invalid price")
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, invalid("Invalid price")
	}
	return f, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
