package models

import (
	"time"

	"github.com/google/uuid"
)

// Session represents proof of authentication issued by the backend.
// It lives from sign-in until sign-out or token expiry and is never persisted here.
type Session struct {
	UserID    uuid.UUID              `json:"user_id"`
	Email     string                 `json:"email"`
	Metadata  map[string]interface{} `json:"user_metadata,omitempty"`
	IsAdmin   bool                   `json:"is_admin"`
	ExpiresAt time.Time              `json:"expires_at,omitempty"`
}

// NewSession builds a Session, lifting the is_admin hint out of the metadata
func NewSession(userID uuid.UUID, email string, metadata map[string]interface{}, expiresAt time.Time) *Session {
	return &Session{
		UserID:    userID,
		Email:     email,
		Metadata:  metadata,
		IsAdmin:   metadataBool(metadata, "is_admin"),
		ExpiresAt: expiresAt,
	}
}

// IsExpired reports whether the session has passed its expiry.
// A zero ExpiresAt never expires.
func (s *Session) IsExpired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

func metadataBool(metadata map[string]interface{}, key string) bool {
	if metadata == nil {
		return false
	}
	v, ok := metadata[key].(bool)
	return ok && v
}

func metadataString(metadata map[string]interface{}, key string) string {
	if metadata == nil {
		return ""
	}
	v, _ := metadata[key].(string)
	return v
}
