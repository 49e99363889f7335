package supabase

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/upb/portal-gateway/models"
)

var (
	// ErrMissingClaim is returned when a required claim is missing
	ErrMissingClaim = errors.New("missing required claim")
)

// Claims represents the claims carried by a GoTrue access token
type Claims struct {
	jwt.RegisteredClaims
	Email        string                 `json:"email"`
	Phone        string                 `json:"phone,omitempty"`
	Role         string                 `json:"role"`
	SessionID    string                 `json:"session_id,omitempty"`
	AAL          string                 `json:"aal,omitempty"`
	UserMetadata map[string]interface{} `json:"user_metadata,omitempty"`
	AppMetadata  AppMetadata            `json:"app_metadata"`
}

// AppMetadata holds provider information the backend controls
type AppMetadata struct {
	Provider  string   `json:"provider,omitempty"`
	Providers []string `json:"providers,omitempty"`
}

// ParsedClaims represents parsed and validated claims
type ParsedClaims struct {
	Sub          uuid.UUID
	Email        string
	Role         string
	SessionID    string
	Provider     string
	UserMetadata map[string]interface{}
	IssuedAt     time.Time
	ExpiresAt    time.Time
}

// parseClaims converts Claims to ParsedClaims with proper type conversions
func parseClaims(claims *Claims) (*ParsedClaims, error) {
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: sub", ErrMissingClaim)
	}
	sub, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("invalid sub UUID: %w", err)
	}

	parsed := &ParsedClaims{
		Sub:          sub,
		Email:        claims.Email,
		Role:         claims.Role,
		SessionID:    claims.SessionID,
		Provider:     claims.AppMetadata.Provider,
		UserMetadata: claims.UserMetadata,
	}
	if claims.IssuedAt != nil {
		parsed.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		parsed.ExpiresAt = claims.ExpiresAt.Time
	}

	return parsed, nil
}

// ToSession converts validated claims into the session the portal works with
func (p *ParsedClaims) ToSession() *models.Session {
	return models.NewSession(p.Sub, p.Email, p.UserMetadata, p.ExpiresAt)
}
