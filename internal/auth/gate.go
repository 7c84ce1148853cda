package auth

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/briar-chapel-connect/internal/repo"
)

// ErrUnauthenticated means the request carries no valid identity.
var ErrUnauthenticated = errors.New("unauthenticated")

// Session is an authenticated caller plus a store handle bound to them.
type Session struct {
	Identity Identity
	Store    *gorm.DB
}

// UserID is shorthand for s.Identity.UserID.
func (s *Session) UserID() string { return s.Identity.UserID }

// Gate hands out sessions to authenticated callers.
type Gate struct {
	DB *gorm.DB
}

// NewGate returns a Gate over db.
func NewGate(db *gorm.DB) *Gate { return &Gate{DB: db} }

// Require returns a session for the identity on ctx, or ErrUnauthenticated.
// It has no side effects.
func (g *Gate) Require(ctx context.Context) (*Session, error) {
	id, ok := IdentityFrom(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}
	return NewSession(g.DB.WithContext(ctx), id), nil
}

// NewSession binds db to id.
func NewSession(db *gorm.DB, id Identity) *Session {
	return &Session{Identity: id, Store: repo.BindOwner(db, id.UserID)}
}
