package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/portal-gateway/middleware"
	"github.com/upb/portal-gateway/models"
	"github.com/upb/portal-gateway/repositories"
	"github.com/upb/portal-gateway/services/profile"
	"github.com/upb/portal-gateway/services/session"
	"github.com/upb/portal-gateway/supabase"
	"github.com/upb/portal-gateway/utils"
	"go.uber.org/zap/zaptest"
)

// MockProfileRepository is a mock implementation of ProfileRepository
type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) Create(ctx context.Context, p *models.Profile) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockProfileRepository) GetAdminFlag(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockProfileRepository) List(ctx context.Context) ([]*models.Profile, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Profile), args.Error(1)
}

func (m *MockProfileRepository) UpdateMetadata(ctx context.Context, id uuid.UUID, metadata map[string]interface{}) error {
	args := m.Called(ctx, id, metadata)
	return args.Error(0)
}

func (m *MockProfileRepository) SetAdmin(ctx context.Context, id uuid.UUID, isAdmin bool) error {
	args := m.Called(ctx, id, isAdmin)
	return args.Error(0)
}

func (m *MockProfileRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProfileRepository) WithTx(tx repositories.Transaction) repositories.ProfileRepository {
	return m
}

// MockGoTrue is a mock of the GoTrue endpoints used by sessions and profiles
type MockGoTrue struct {
	mock.Mock
}

func (m *MockGoTrue) GetUser(ctx context.Context, accessToken string) (*supabase.User, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*supabase.User), args.Error(1)
}

func (m *MockGoTrue) SignOut(ctx context.Context, accessToken string) error {
	args := m.Called(ctx, accessToken)
	return args.Error(0)
}

func (m *MockGoTrue) UpdateUser(ctx context.Context, accessToken string, metadata map[string]interface{}) (*supabase.User, error) {
	args := m.Called(ctx, accessToken, metadata)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*supabase.User), args.Error(1)
}

// MockTokenValidator is a mock implementation of session.TokenValidator
type MockTokenValidator struct {
	mock.Mock
}

func (m *MockTokenValidator) ValidateToken(ctx context.Context, token string) (*supabase.ParsedClaims, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*supabase.ParsedClaims), args.Error(1)
}

type fakeTx struct {
	ctx context.Context
}

func (t *fakeTx) Commit() error            { return nil }
func (t *fakeTx) Rollback() error          { return nil }
func (t *fakeTx) Context() context.Context { return t.ctx }

type fakeTxManager struct{}

func (fakeTxManager) Begin(ctx context.Context) (repositories.Transaction, error) {
	return &fakeTx{ctx: ctx}, nil
}

func (fakeTxManager) InTransaction(ctx context.Context, fn func(ctx context.Context, tx repositories.Transaction) error) error {
	return fn(ctx, &fakeTx{ctx: ctx})
}

// requestEnv wires a real oracle and store over mocked collaborators
type requestEnv struct {
	repo      *MockProfileRepository
	gotrue    *MockGoTrue
	validator *MockTokenValidator
	oracle    *session.Oracle
	store     *profile.Store
}

func newRequestEnv(t *testing.T, token string) *requestEnv {
	t.Helper()
	logger := zaptest.NewLogger(t)
	env := &requestEnv{
		repo:      &MockProfileRepository{},
		gotrue:    &MockGoTrue{},
		validator: &MockTokenValidator{},
	}
	env.oracle = session.NewProvider(env.gotrue, env.validator, logger).ForToken(token)
	env.store = profile.NewProvider(env.repo, fakeTxManager{}, env.gotrue, logger).ForSession(env.oracle)
	t.Cleanup(func() {
		env.repo.AssertExpectations(t)
		env.gotrue.AssertExpectations(t)
		env.validator.AssertExpectations(t)
	})
	return env
}

// attach stores the oracle and store in the request context
func (e *requestEnv) attach(r *http.Request) *http.Request {
	ctx := middleware.WithOracle(r.Context(), e.oracle)
	ctx = middleware.WithProfileStore(ctx, e.store)
	return r.WithContext(ctx)
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func decodeErrorResponse(t *testing.T, w *httptest.ResponseRecorder) utils.ErrorResponse {
	t.Helper()
	var resp utils.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}
