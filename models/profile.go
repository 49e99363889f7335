package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Profile is one row of the profiles table
type Profile struct {
	ID           uuid.UUID              `json:"id" db:"id"`
	Email        string                 `json:"email" db:"email"`
	Name         string                 `json:"name"`
	AvatarURL    string                 `json:"avatar_url,omitempty"`
	IsAdmin      bool                   `json:"is_admin" db:"is_admin"`
	RawMetadata  map[string]interface{} `json:"raw_user_meta_data,omitempty" db:"raw_user_meta_data"`
	UpdatedAt    time.Time              `json:"updated_at" db:"updated_at"`
	LastSignInAt *time.Time             `json:"last_sign_in_at,omitempty" db:"last_sign_in_at"`
}

// TableName returns the table name for the Profile model
func (Profile) TableName() string {
	return "profiles"
}

// NewProfile creates a profile row for a freshly registered user
func NewProfile(id uuid.UUID, email string, metadata map[string]interface{}) *Profile {
	p := &Profile{
		ID:          id,
		Email:       email,
		RawMetadata: metadata,
		UpdatedAt:   time.Now().UTC(),
	}
	p.Hydrate()
	return p
}

// Hydrate fills the display fields from RawMetadata.
// The name prefers metadata name, then full_name, then the local part of the email.
func (p *Profile) Hydrate() {
	p.Name = DisplayName(p.RawMetadata, p.Email)
	p.AvatarURL = metadataString(p.RawMetadata, "avatar_url")
}

// DisplayName resolves the displayable name for a user
func DisplayName(metadata map[string]interface{}, email string) string {
	if name := metadataString(metadata, "name"); name != "" {
		return name
	}
	if name := metadataString(metadata, "full_name"); name != "" {
		return name
	}
	local, _, _ := strings.Cut(email, "@")
	return local
}
