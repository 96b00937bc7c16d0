package http

import (
	"errors"
	"time"

	"storegate/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

// CookieName is the single HTTP-only session cookie at path /.
const CookieName = "storegate_session"

// CookieCodec signs and verifies the session cookie. The cookie is a
// performance cache, not an authorization grant: expiry is validated here
// against the server clock, never trusted from client-supplied time alone,
// and the server-side store stays authoritative.
type CookieCodec struct {
	secret []byte
	now    func() time.Time
}

func NewCookieCodec(secret string) (*CookieCodec, error) {
	if secret == "" {
		return nil, errors.New("session secret is required")
	}
	return &CookieCodec{secret: []byte(secret), now: time.Now}, nil
}

type sessionClaims struct {
	Domain   string `json:"dom"`
	Verified bool   `json:"ver"`
	jwt.RegisteredClaims
}

func (c *CookieCodec) Encode(session domain.Session) (string, error) {
	claims := sessionClaims{
		Domain:   session.Domain,
		Verified: session.Verified,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   session.ID,
			IssuedAt:  jwt.NewNumericDate(session.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

func (c *CookieCodec) Decode(token string) (*domain.Session, error) {
	var claims sessionClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return nil, domain.ErrInvalidCookie
	}
	if claims.Domain == "" || claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return nil, domain.ErrInvalidCookie
	}
	return &domain.Session{
		ID:        claims.Subject,
		Domain:    claims.Domain,
		Verified:  claims.Verified,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
