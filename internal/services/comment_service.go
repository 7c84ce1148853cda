// Package services – CommentService
//
// Comments attach to any commentable entity through an (entity_type,
// entity_id) pair. Reads are public and return the whole thread oldest first;
// writes require a session and deletes are scoped to the author.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tbourn/briar-chapel-connect/internal/auth"
	"github.com/tbourn/briar-chapel-connect/internal/domain"
	"github.com/tbourn/briar-chapel-connect/internal/observability"
	"github.com/tbourn/briar-chapel-connect/internal/repo"
)

const commentTracer = "services/comments"

// CommentInput is the create payload for a comment.
type CommentInput struct {
	EntityType string   `json:"entity_type" validate:"required,slug,max=40"`
	EntityID   string   `json:"entity_id"   validate:"required,max=64"`
	ParentID   *string  `json:"parent_id"`
	Content    string   `json:"content"     validate:"required,max=10000"`
	Images     []string `json:"images"      validate:"max=5"`
}

var commentMessages = map[string]string{
	"entity_type.required": "Missing required fields",
	"entity_id.required":   "Missing required fields",
	"content.required":     "Missing required fields",
	"entity_type.slug":     "Invalid entity_type",
	"entity_type.max":      "Invalid entity_type",
	"entity_id.max":        "Invalid entity_id",
	"content.max":          "content too long (max 10000 chars)",
	"images":               "Too many images (max 5)",
}

// CommentService manages threaded comments.
type CommentService struct {
	DB   *gorm.DB
	Gate *auth.Gate
}

// List returns every comment on the target, oldest first.
func (s *CommentService) List(ctx context.Context, entityType, entityID string) ([]domain.Comment, error) {
	entityType, entityID, err := commentTarget(entityType, entityID)
	if err != nil {
		return nil, err
	}
	return repo.ListComments(ctx, s.DB, entityType, entityID)
}

// Get returns the comment with id.
func (s *CommentService) Get(ctx context.Context, id string) (*domain.Comment, error) {
	c, err := repo.GetComment(ctx, s.DB, clean(id))
	if errors.Is(err, repo.ErrNotFound) {
		return nil, notFound("Comment not found")
	}
	return c, err
}

// Thread returns the target's comments nested under their parents.
func (s *CommentService) Thread(ctx context.Context, entityType, entityID string) ([]*ThreadNode, error) {
	flat, err := s.List(ctx, entityType, entityID)
	if err != nil {
		return nil, err
	}
	return BuildThread(flat), nil
}

// Stats reports the count and newest update on the target, for ETags.
func (s *CommentService) Stats(ctx context.Context, entityType, entityID string) (int64, *time.Time, error) {
	entityType, entityID, err := commentTarget(entityType, entityID)
	if err != nil {
		return 0, nil, err
	}
	return repo.CommentsStats(ctx, s.DB, entityType, entityID)
}

// Post validates in and stores a comment by the caller. A parent must be an
// existing comment on the same target.
func (s *CommentService) Post(ctx context.Context, in CommentInput) (_ *domain.Comment, err error) {
	ctx, span := observability.StartSpan(ctx, commentTracer, "Post")
	defer func() { observability.Finish(span, err) }()

	in.EntityType = clean(in.EntityType)
	in.EntityID = clean(in.EntityID)
	in.Content = clean(in.Content)
	in.ParentID = cleanPtr(in.ParentID)
	in.Images = cleanList(in.Images, len(in.Images))
	if err := check(in, commentMessages); err != nil {
		return nil, err
	}

	sess, err := s.Gate.Require(ctx)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("entity_type", in.EntityType),
		attribute.String("entity_id", in.EntityID),
	)

	if in.ParentID != nil {
		ok, err := repo.CommentOnTarget(ctx, s.DB, *in.ParentID, in.EntityType, in.EntityID)
		if err != nil {
			return nil, fmt.Errorf("lookup parent: %w", err)
		}
		if !ok {
			return nil, invalid("Parent comment not found")
		}
	}

	c := &domain.Comment{
		UserID:     sess.UserID(),
		EntityType: in.EntityType,
		EntityID:   in.EntityID,
		ParentID:   in.ParentID,
		Content:    in.Content,
		Images:     datatypes.JSONSlice[string](in.Images),
	}
	if err := repo.CreateComment(ctx, sess.Store, c); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return c, nil
}

// Delete removes the caller's comment id. Replies are left in place.
func (s *CommentService) Delete(ctx context.Context, id string) (err error) {
	ctx, span := observability.StartSpan(ctx, commentTracer, "Delete")
	defer func() { observability.Finish(span, err) }()

	if id = clean(id); id == "" {
		return invalid("Missing id")
	}
	sess, err := s.Gate.Require(ctx)
	if err != nil {
		return err
	}
	n, err := repo.DeleteOwned[domain.Comment](ctx, sess.Store, id, sess.UserID())
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if n == 0 {
		return notOwned("Comment not found or not owned by user")
	}
	return nil
}

func commentTarget(entityType, entityID string) (string, string, error) {
	entityType, entityID = clean(entityType), clean(entityID)
	if entityType == "" || entityID == "" {
		return "", "", invalid("Missing entity_type or entity_id")
	}
	return entityType, entityID, nil
}
