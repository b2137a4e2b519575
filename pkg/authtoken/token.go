package authtoken

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the company the caller is acting for.
type Claims struct {
	jwt.RegisteredClaims

	CompanyID string `json:"company_id"`
}

type Verified struct {
	CompanyID string
	UserID    string
	ExpiresAt time.Time
}

var (
	ErrMissingToken   = errors.New("missing token")
	ErrMissingSecret  = errors.New("missing signing secret")
	ErrMissingCompany = errors.New("missing company in token")
)

// Verify checks an HS256 access token issued by the auth service and returns the
// company it is scoped to. Subject is the user id when present.
func Verify(tokenString, audience, secret string, now time.Time) (*Verified, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, ErrMissingToken
	}
	if secret == "" {
		return nil, ErrMissingSecret
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}

	claims := &Claims{}
	tok, err := jwt.NewParser(opts...).ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !tok.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	companyID := strings.TrimSpace(claims.CompanyID)
	if companyID == "" {
		return nil, ErrMissingCompany
	}

	return &Verified{
		CompanyID: companyID,
		UserID:    claims.Subject,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Sign issues a token for companyID. Used by dev tooling and tests.
func Sign(companyID, userID, audience, secret string, now time.Time, ttl time.Duration) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		CompanyID: companyID,
	}
	if audience != "" {
		claims.Audience = jwt.ClaimStrings{audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
