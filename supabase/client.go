package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/upb/portal-gateway/config"
	"github.com/upb/portal-gateway/models"
)

// User is the GoTrue user object
type User struct {
	ID           uuid.UUID              `json:"id"`
	Email        string                 `json:"email"`
	Role         string                 `json:"role,omitempty"`
	UserMetadata map[string]interface{} `json:"user_metadata,omitempty"`
	AppMetadata  AppMetadata            `json:"app_metadata"`
	LastSignInAt *time.Time             `json:"last_sign_in_at,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

// ToSession converts a backend user into a session snapshot
func (u *User) ToSession() *models.Session {
	return models.NewSession(u.ID, u.Email, u.UserMetadata, time.Time{})
}

// TokenResponse is the GoTrue session payload returned by sign-in
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user"`
}

// APIError is an error payload returned by GoTrue
type APIError struct {
	StatusCode  int    `json:"-"`
	Code        string `json:"error_code,omitempty"`
	Message     string `json:"msg,omitempty"`
	ErrorName   string `json:"error,omitempty"`
	Description string `json:"error_description,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Description
	}
	if msg == "" {
		msg = e.ErrorName
	}
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("supabase auth: status %d: %s", e.StatusCode, msg)
}

// IsUnauthorized reports whether the backend rejected the caller's credentials
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// IsUnauthorizedError checks err for a GoTrue 401/403
func IsUnauthorizedError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsUnauthorized()
}

// Client talks to the GoTrue REST API of a Supabase project
type Client struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
}

// NewClient creates a new GoTrue client
func NewClient(cfg config.SupabaseConfig) *Client {
	timeout := cfg.HTTPTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimSuffix(cfg.URL, "/") + "/auth/v1",
		anonKey: cfg.AnonKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// GetUser fetches the user that owns accessToken
func (c *Client) GetUser(ctx context.Context, accessToken string) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/user", accessToken, nil, &user); err != nil {
		return nil, err
	}
	if user.ID == uuid.Nil {
		return nil, nil
	}
	return &user, nil
}

// SignOut revokes the session behind accessToken
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	return c.do(ctx, http.MethodPost, "/logout", accessToken, nil, nil)
}

// UpdateUser replaces the user metadata of the token owner
func (c *Client) UpdateUser(ctx context.Context, accessToken string, metadata map[string]interface{}) (*User, error) {
	body := map[string]interface{}{"data": metadata}
	var user User
	if err := c.do(ctx, http.MethodPut, "/user", accessToken, body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SignInWithPassword exchanges email and password for a session
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*TokenResponse, error) {
	body := map[string]string{"email": email, "password": password}
	var resp TokenResponse
	if err := c.do(ctx, http.MethodPost, "/token?grant_type=password", "", body, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("supabase auth: no access_token in response")
	}
	return &resp, nil
}

// SignUp registers a new user. When the project requires email confirmation
// the returned response has no access token and only the user is populated.
func (c *Client) SignUp(ctx context.Context, email, password string, metadata map[string]interface{}) (*TokenResponse, error) {
	body := map[string]interface{}{"email": email, "password": password}
	if len(metadata) > 0 {
		body["data"] = metadata
	}

	raw, err := c.doRaw(ctx, http.MethodPost, "/signup", "", body)
	if err != nil {
		return nil, err
	}

	var resp TokenResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("parse signup response: %w", err)
	}
	if resp.User == nil {
		var user User
		if err := json.Unmarshal(raw, &user); err != nil {
			return nil, fmt.Errorf("parse signup user: %w", err)
		}
		resp.User = &user
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path, accessToken string, body, out interface{}) error {
	raw, err := c.doRaw(ctx, method, path, accessToken, body)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parse %s response: %w", path, err)
	}
	return nil
}

func (c *Client) doRaw(ctx context.Context, method, path, accessToken string, body interface{}) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	} else {
		req.Header.Set("Authorization", "Bearer "+c.anonKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("supabase auth request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		_ = json.Unmarshal(raw, apiErr)
		return nil, apiErr
	}

	return raw, nil
}
