// Package auth resolves who is calling and decides whether they may write.
//
// An IdentityProvider turns the bearer token of a request into an Identity.
// The HTTP layer stores that Identity on the request context (WithIdentity);
// the service layer asks the Gate for a Session before any mutation. A
// Session carries a store handle bound to the caller, so deletes and updates
// issued through it are narrowed to rows the caller owns.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tbourn/briar-chapel-connect/internal/sysutil"
)

// Identity is the authenticated caller.
type Identity struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name,omitempty"`
}

// IdentityProvider resolves a bearer token to an Identity.
type IdentityProvider interface {
	Resolve(ctx context.Context, token string) (Identity, error)
}

// ErrInvalidToken is returned for malformed, expired or badly signed tokens.
var ErrInvalidToken = errors.New("invalid session token")

// Claims are the session token claims. Subject carries the user id.
type Claims struct {
	Name     string `json:"name,omitempty"`
	Username string `json:"preferred_username,omitempty"`
	Email    string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// JWTProvider verifies and issues HS256 session tokens.
type JWTProvider struct {
	secret   []byte
	issuer   string
	audience string
	now      func() time.Time
}

// NewJWTProvider builds a provider. Empty issuer or audience disables that check.
func NewJWTProvider(secret, issuer, audience string) *JWTProvider {
	return &JWTProvider{
		secret:   []byte(secret),
		issuer:   strings.TrimSpace(issuer),
		audience: strings.TrimSpace(audience),
		now:      time.Now,
	}
}

// Resolve verifies token and returns the identity it names. The token must be
// HS256-signed with the provider secret and carry sub and exp.
func (p *JWTProvider) Resolve(_ context.Context, token string) (Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, ErrInvalidToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	}
	if p.issuer != "" {
		opts = append(opts, jwt.WithIssuer(p.issuer))
	}
	if p.audience != "" {
		opts = append(opts, jwt.WithAudience(p.audience))
	}

	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return p.secret, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		return Identity{}, ErrInvalidToken
	}

	sub := strings.TrimSpace(claims.Subject)
	if sub == "" {
		return Identity{}, ErrInvalidToken
	}
	return Identity{
		UserID:      sub,
		DisplayName: strings.TrimSpace(sysutil.FirstNonEmpty(claims.Name, claims.Username, claims.Email)),
	}, nil
}

// Issue signs a token for id valid for ttl.
func (p *JWTProvider) Issue(id Identity, ttl time.Duration) (string, error) {
	now := p.now()
	claims := Claims{
		Name: id.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			Issuer:    p.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if p.audience != "" {
		claims.Audience = jwt.ClaimStrings{p.audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity stored on ctx, if any.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	if !ok || id.UserID == "" {
		return Identity{}, false
	}
	return id, true
}
