package supabase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when the token is invalid
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired is returned when the token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrInvalidIssuer is returned when the token issuer is invalid
	ErrInvalidIssuer = errors.New("invalid issuer")

	// ErrInvalidAudience is returned when the token audience is invalid
	ErrInvalidAudience = errors.New("invalid audience")

	// ErrNotConfigured is returned when no JWT secret is available
	ErrNotConfigured = errors.New("supabase auth not configured")
)

// DefaultAudience is the audience GoTrue stamps on user access tokens
const DefaultAudience = "authenticated"

// ValidatorConfig holds configuration for Validator
type ValidatorConfig struct {
	JWTSecret string
	Issuer    string // Optional, e.g. https://<ref>.supabase.co/auth/v1
	Audience  string
	Leeway    time.Duration
}

// Validator verifies GoTrue access tokens locally with the project JWT secret.
// This is the server-side equivalent of reading the current session.
type Validator struct {
	secret   []byte
	issuer   string
	audience string
	leeway   time.Duration
}

// NewValidator creates a new access token validator
func NewValidator(cfg ValidatorConfig) *Validator {
	if cfg.Audience == "" {
		cfg.Audience = DefaultAudience
	}
	return &Validator{
		secret:   []byte(cfg.JWTSecret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		leeway:   cfg.Leeway,
	}
}

// IssuerFor returns the issuer GoTrue uses for a project URL
func IssuerFor(projectURL string) string {
	if projectURL == "" {
		return ""
	}
	return projectURL + "/auth/v1"
}

// ValidateToken validates an access token and returns parsed claims
func (v *Validator) ValidateToken(ctx context.Context, tokenString string) (*ParsedClaims, error) {
	if len(v.secret) == 0 {
		return nil, ErrNotConfigured
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.leeway > 0 {
		opts = append(opts, jwt.WithLeeway(v.leeway))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenInvalidIssuer):
			return nil, fmt.Errorf("%w: %v", ErrInvalidIssuer, err)
		case errors.Is(err, jwt.ErrTokenInvalidAudience):
			return nil, fmt.Errorf("%w: %v", ErrInvalidAudience, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	parsed, err := parseClaims(claims)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return parsed, nil
}
