// Package services – ProviderService
//
// This file implements the provider directory: creating and deleting service
// listings, paging through active listings, and free-text search that mixes
// taxonomy topic suggestions with matching providers. Every listing returned
// to readers carries a rating aggregate computed from its reviews at read
// time.
package services

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/tbourn/briar-chapel-connect/internal/auth"
	"github.com/tbourn/briar-chapel-connect/internal/domain"
	"github.com/tbourn/briar-chapel-connect/internal/observability"
	"github.com/tbourn/briar-chapel-connect/internal/repo"
	"github.com/tbourn/briar-chapel-connect/internal/search"
)

const providerTracer = "services/providers"

// ProviderInput is the create payload for a service listing. Category and
// Service are taxonomy slugs joined into the stored category path.
type ProviderInput struct {
	Category     string  `json:"category"      validate:"required,slug"`
	Service      string  `json:"service"       validate:"required,slug"`
	Name         string  `json:"name"          validate:"required,max=255"`
	Summary      string  `json:"summary"`
	Details      string  `json:"details"`
	PriceRange   string  `json:"price_range"   validate:"max=64"`
	ContactEmail *string `json:"contact_email" validate:"omitempty,email"`
	ContactPhone *string `json:"contact_phone" validate:"omitempty,max=64"`
	Location     string  `json:"location"      validate:"max=255"`
	Website      string  `json:"website"       validate:"max=512"`
	ImageURL     *string `json:"image_url"     validate:"omitempty,max=1024"`
}

var providerMessages = map[string]string{
	"category":      "category, service, and name are required",
	"service":       "category, service, and name are required",
	"name":          "category, service, and name are required",
	"category.slug": "category and service must be taxonomy slugs",
	"service.slug":  "category and service must be taxonomy slugs",
	"name.max":      "name too long (max 255 chars)",
	"contact_email": "Invalid contact_email",
}

// Provider is a listing as shown to readers.
type Provider struct {
	domain.ServiceListing
	Rating domain.RatingAggregate `json:"rating"`
}

// TopicHit is a taxonomy topic suggested by search.
type TopicHit struct {
	Category      string  `json:"category"`
	CategoryTitle string  `json:"category_title"`
	Service       string  `json:"service"`
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	Path          string  `json:"path"`
	Score         float64 `json:"score"`
}

// ProviderSearch is the combined search response.
type ProviderSearch struct {
	Query     string     `json:"query"`
	Topics    []TopicHit `json:"topics"`
	Providers []Provider `json:"providers"`
}

// ProviderService manages service listings.
type ProviderService struct {
	DB   *gorm.DB
	Gate *auth.Gate

	// Topics indexes domain.ServiceSections; document ids are category paths.
	Topics *search.Index
	topics map[string]TopicHit

	// SearchLimit caps providers returned by Search.
	SearchLimit int
}

// NewProviderService builds the service and indexes the taxonomy.
func NewProviderService(db *gorm.DB, gate *auth.Gate) *ProviderService {
	docs := make([]search.Document, 0, 32)
	topics := make(map[string]TopicHit, 32)
	for _, sec := range domain.ServiceSections {
		for _, tp := range sec.Topics {
			path := sec.Slug + "/" + tp.Slug
			docs = append(docs, search.Document{
				ID:   path,
				Text: sec.Title + " " + tp.Title + " " + tp.Description,
			})
			topics[path] = TopicHit{
				Category:      sec.Slug,
				CategoryTitle: sec.Title,
				Service:       tp.Slug,
				Title:         tp.Title,
				Description:   tp.Description,
				Path:          path,
			}
		}
	}
	return &ProviderService{
		DB:          db,
		Gate:        gate,
		Topics:      search.NewIndex(docs, search.WithStopwords([]string{"and", "the", "a", "of", "for"})),
		topics:      topics,
		SearchLimit: 50,
	}
}

// Create validates in and inserts a listing owned by the caller.
func (s *ProviderService) Create(ctx context.Context, in ProviderInput) (_ *domain.ServiceListing, err error) {
	ctx, span := observability.StartSpan(ctx, providerTracer, "Create")
	defer func() { observability.Finish(span, err) }()

	in.Category = clean(in.Category)
	in.Service = clean(in.Service)
	in.Name = clean(in.Name)
	in.ContactEmail = cleanPtr(in.ContactEmail)
	in.ContactPhone = cleanPtr(in.ContactPhone)
	in.ImageURL = cleanPtr(in.ImageURL)
	in.Website = clean(in.Website)
	in.Location = clean(in.Location)
	in.PriceRange = clean(in.PriceRange)
	if err := check(in, providerMessages); err != nil {
		return nil, err
	}

	sess, err := s.Gate.Require(ctx)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("user_id", sess.UserID()))

	row := &domain.ServiceListing{
		UserID:       sess.UserID(),
		Title:        in.Name,
		Summary:      cleanPtr(&in.Summary),
		Details:      cleanPtr(&in.Details),
		Category:     in.Category + "/" + in.Service,
		PriceRange:   cleanPtr(&in.PriceRange),
		ContactEmail: in.ContactEmail,
		ContactPhone: in.ContactPhone,
		Location:     cleanPtr(&in.Location),
		Website:      cleanPtr(&in.Website),
		Status:       domain.StatusActive,
		ImageURL:     in.ImageURL,
	}
	if err := repo.CreateService(ctx, sess.Store, row); err != nil {
		return nil, fmt.Errorf("create provider: %w", err)
	}
	return row, nil
}

// Delete removes the caller's listing id. Reviews go with it.
func (s *ProviderService) Delete(ctx context.Context, id string) (err error) {
	ctx, span := observability.StartSpan(ctx, providerTracer, "Delete")
	defer func() { observability.Finish(span, err) }()

	id = clean(id)
	if id == "" {
		return invalid("Missing id")
	}
	sess, err := s.Gate.Require(ctx)
	if err != nil {
		return err
	}
	n, err := repo.DeleteOwned[domain.ServiceListing](ctx, sess.Store, id, sess.UserID())
	if err != nil {
		return fmt.Errorf("delete provider: %w", err)
	}
	if n == 0 {
		return notOwned("Provider not found or not owned by user")
	}
	return nil
}

// Get returns one listing with its rating. Inactive listings are readable by
// id so owners can still find them.
func (s *ProviderService) Get(ctx context.Context, id string) (*Provider, error) {
	row, err := repo.GetService(ctx, s.DB, clean(id))
	if errors.Is(err, repo.ErrNotFound) {
		return nil, notFound("Provider not found")
	}
	if err != nil {
		return nil, err
	}
	out, err := s.withRatings(ctx, []domain.ServiceListing{*row})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// List pages through active listings, optionally under a category path.
func (s *ProviderService) List(ctx context.Context, category string, page, pageSize int) ([]Provider, int64, error) {
	_, size, offset := pageBounds(page, pageSize)
	rows, total, err := repo.ListServices(ctx, s.DB, repo.ServiceFilter{Category: clean(category), Offset: offset, Limit: size})
	if err != nil {
		return nil, 0, err
	}
	out, err := s.withRatings(ctx, rows)
	return out, total, err
}

// Search suggests taxonomy topics for q and lists active providers whose
// title contains q, newest first.
func (s *ProviderService) Search(ctx context.Context, q string) (*ProviderSearch, error) {
	q = clean(q)
	res := &ProviderSearch{Query: q, Topics: []TopicHit{}, Providers: []Provider{}}
	if q == "" {
		return res, nil
	}
	for _, hit := range s.Topics.TopK(q, 5) {
		t := s.topics[hit.ID]
		t.Score = hit.Score
		res.Topics = append(res.Topics, t)
	}
	rows, err := repo.SearchServices(ctx, s.DB, q, s.SearchLimit)
	if err != nil {
		return nil, err
	}
	if res.Providers, err = s.withRatings(ctx, rows); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *ProviderService) withRatings(ctx context.Context, rows []domain.ServiceListing) ([]Provider, error) {
	out := make([]Provider, len(rows))
	if len(rows) == 0 {
		return out, nil
	}
	ids := make([]string, len(rows))
	for i := range rows {
		ids[i] = rows[i].ID
	}
	ratings, err := repo.ServiceRatings(ctx, s.DB, ids)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		out[i] = Provider{ServiceListing: rows[i], Rating: ratings[rows[i].ID]}
	}
	return out, nil
}
