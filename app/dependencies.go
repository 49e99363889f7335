package app

import (
	"context"
	"fmt"

	"github.com/upb/portal-gateway/config"
	"github.com/upb/portal-gateway/middleware"
	"github.com/upb/portal-gateway/navigation"
	"github.com/upb/portal-gateway/repositories"
	"github.com/upb/portal-gateway/repositories/postgres"
	"github.com/upb/portal-gateway/services/facilities"
	"github.com/upb/portal-gateway/services/profile"
	"github.com/upb/portal-gateway/services/session"
	"github.com/upb/portal-gateway/supabase"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Logger *zap.Logger

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Profiles  repositories.ProfileRepository
	TxManager repositories.TransactionManager

	// Auth backend
	SupabaseClient *supabase.Client
	Validator      *supabase.Validator

	// Services
	SessionProvider *session.Provider
	ProfileProvider *profile.Provider
	Facilities      *facilities.Client

	// Navigation
	Guard             *navigation.Guard
	SessionMiddleware *middleware.SessionMiddleware
}

// NewDependencies opens the database and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	factory, err := postgres.NewRepositoryFactory(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps, err := newDependencies(ctx, cfg, factory, logger)
	if err != nil {
		_ = factory.Close()
		return nil, err
	}
	return deps, nil
}

// NewDependenciesWithDB wires the dependencies over an already opened pool
func NewDependenciesWithDB(ctx context.Context, cfg *config.Config, db *postgres.DB, logger *zap.Logger) (*Dependencies, error) {
	return newDependencies(ctx, cfg, postgres.NewRepositoryFactoryFromDB(db, logger), logger)
}

func newDependencies(ctx context.Context, cfg *config.Config, factory *postgres.RepositoryFactory, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config:      cfg,
		Logger:      logger,
		RepoFactory: factory,
		DB:          factory.GetDB(),
	}

	if err := deps.DB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize database: database ping failed: %w", err)
	}

	deps.initRepositories()
	deps.initAuth(cfg)
	deps.initServices(cfg)

	logger.Info("all dependencies initialized successfully",
		zap.Bool("defaced", cfg.Guard.Defaced),
		zap.String("admin_failure_policy", string(cfg.Guard.AdminFailurePolicy)))
	return deps, nil
}

// initRepositories initializes all repository instances
func (d *Dependencies) initRepositories() {
	repos := d.RepoFactory.NewRepositories()

	d.Profiles = repos.Profiles
	d.TxManager = d.RepoFactory.GetTransactionManager()

	d.Logger.Info("repositories initialized")
}

func (d *Dependencies) initAuth(cfg *config.Config) {
	d.SupabaseClient = supabase.NewClient(cfg.Supabase)
	d.Validator = supabase.NewValidator(supabase.ValidatorConfig{
		JWTSecret: cfg.Supabase.JWTSecret,
		Issuer:    supabase.IssuerFor(cfg.Supabase.URL),
	})

	if !cfg.SupabaseConfigured() || cfg.Supabase.JWTSecret == "" {
		// An empty secret makes every session check fail, so guarded pages
		// redirect to login and API routes answer 401
		d.Logger.Warn("supabase not configured, every session is treated as signed out")
		return
	}
	d.Logger.Info("supabase auth initialized", zap.String("url", cfg.Supabase.URL))
}

func (d *Dependencies) initServices(cfg *config.Config) {
	d.SessionProvider = session.NewProvider(d.SupabaseClient, d.Validator, d.Logger)
	d.ProfileProvider = profile.NewProvider(d.Profiles, d.TxManager, d.SupabaseClient, d.Logger)
	d.Facilities = facilities.NewClient(cfg.Facilities, d.Logger)

	d.Guard = navigation.NewGuard(navigation.TableFor(cfg.Guard.Defaced), cfg.Guard.AdminFailurePolicy, d.Logger)
	d.SessionMiddleware = middleware.NewSessionMiddleware(d.SessionProvider, d.ProfileProvider, cfg.Guard.CookieName, d.Logger)
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
