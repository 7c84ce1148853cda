package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/tbourn/briar-chapel-connect/internal/auth"
	"github.com/tbourn/briar-chapel-connect/internal/domain"
	"github.com/tbourn/briar-chapel-connect/internal/observability"
	"github.com/tbourn/briar-chapel-connect/internal/repo"
)

const groupTracer = "services/groups"

// GroupInput is the create payload for a group.
type GroupInput struct {
	Title       string  `json:"title"       validate:"required,max=255"`
	Description string  `json:"description" validate:"required"`
	Type        string  `json:"type"        validate:"required,grouptype"`
	Location    *string `json:"location"    validate:"omitempty,max=255"`
	ImageURL    *string `json:"image_url"   validate:"omitempty,max=1024"`
}

var groupMessages = map[string]string{
	"title.required":       "Missing required fields",
	"description.required": "Missing required fields",
	"type.required":        "Missing required fields",
	"type.grouptype":       "Invalid group type",
	"title.max":            "title too long (max 255 chars)",
	"*":                    "Invalid group",
}

// GroupService manages neighborhood groups.
type GroupService struct {
	DB   *gorm.DB
	Gate *auth.Gate
}

// Create validates in and inserts an active group owned by the caller.
func (s *GroupService) Create(ctx context.Context, in GroupInput) (_ *domain.Group, err error) {
	ctx, span := observability.StartSpan(ctx, groupTracer, "Create")
	defer func() { observability.Finish(span, err) }()

	in.Title = clean(in.Title)
	in.Description = clean(in.Description)
	in.Type = clean(in.Type)
	in.Location = cleanPtr(in.Location)
	in.ImageURL = cleanPtr(in.ImageURL)
	if err := check(in, groupMessages); err != nil {
		return nil, err
	}

	sess, err := s.Gate.Require(ctx)
	if err != nil {
		return nil, err
	}
	g := &domain.Group{
		UserID:      sess.UserID(),
		Title:       in.Title,
		Description: in.Description,
		Type:        in.Type,
		Location:    in.Location,
		Status:      domain.StatusActive,
		ImageURL:    in.ImageURL,
	}
	if err := repo.CreateGroup(ctx, sess.Store, g); err != nil {
		return nil, fmt.Errorf("create group: %w", err)
	}
	return g, nil
}

// Delete removes the caller's group id.
func (s *GroupService) Delete(ctx context.Context, id string) (err error) {
	ctx, span := observability.StartSpan(ctx, groupTracer, "Delete")
	defer func() { observability.Finish(span, err) }()

	if id = clean(id); id == "" {
		return invalid("Missing id")
	}
	sess, err := s.Gate.Require(ctx)
	if err != nil {
		return err
	}
	n, err := repo.DeleteOwned[domain.Group](ctx, sess.Store, id, sess.UserID())
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	if n == 0 {
		return notOwned("Group not found or not owned by user")
	}
	return nil
}

// Get returns group id.
func (s *GroupService) Get(ctx context.Context, id string) (*domain.Group, error) {
	g, err := repo.GetGroup(ctx, s.DB, clean(id))
	if errors.Is(err, repo.ErrNotFound) {
		return nil, notFound("Group not found")
	}
	return g, err
}

// List pages through active groups, optionally of one type.
func (s *GroupService) List(ctx context.Context, groupType string, page, pageSize int) ([]domain.Group, int64, error) {
	_, size, offset := pageBounds(page, pageSize)
	return repo.ListGroups(ctx, s.DB, repo.GroupFilter{Type: clean(groupType), Offset: offset, Limit: size})
}

// Types lists the accepted group types.
func (s *GroupService) Types() []domain.Option { return domain.GroupTypes }
