package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/upb/portal-gateway/app"
	"github.com/upb/portal-gateway/config"
	"github.com/upb/portal-gateway/internal/observability"
	"github.com/upb/portal-gateway/models"
	"github.com/upb/portal-gateway/navigation"
	"github.com/upb/portal-gateway/repositories/postgres"
	"github.com/upb/portal-gateway/routes"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "portal",
		Short:         "Session-gated portal gateway",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newServeCmd(), newRoutesCmd(), newMigrateCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, logger, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			deps, err := app.NewDependencies(ctx, cfg, logger)
			if err != nil {
				logger.Error("failed to initialize dependencies", zap.Error(err))
				return err
			}
			defer func() { _ = deps.Close(context.Background()) }()

			listener, err := net.Listen("tcp", cfg.Server.Address())
			if err != nil {
				return fmt.Errorf("listen on %s: %w", cfg.Server.Address(), err)
			}

			return serve(ctx, newHTTPServer(cfg, routes.SetupRoutes(deps)), listener, cfg.Server.ShutdownTimeout, logger)
		},
	}
}

func newRoutesCmd() *cobra.Command {
	var defaced bool

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Print the route table as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("defaced") {
				cfg, err := config.New(cmd.Context())
				if err == nil {
					defaced = cfg.Guard.Defaced
				}
			}
			return writeRoutes(cmd.OutOrStdout(), navigation.TableFor(defaced))
		},
	}

	cmd.Flags().BoolVar(&defaced, "defaced", false, "print the maintenance table")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the profiles schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, logger, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			db, err := postgres.NewDB(cfg.Database, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			return db.InitSchema(ctx)
		},
	}
}

// bootstrap loads the configuration and builds the logger
func bootstrap(ctx context.Context) (*config.Config, *zap.Logger, error) {
	cfg, err := config.New(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := observability.NewLogger(cfg.Observability)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("configuration loaded",
		zap.String("environment", cfg.Environment),
		zap.String("database", cfg.Database.LogString()))
	return cfg, logger, nil
}

func newHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Server.Address(),
		Handler:           handler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}
}

// serve runs srv on listener until ctx is cancelled, then drains in-flight
// requests for at most shutdownTimeout
func serve(ctx context.Context, srv *http.Server, listener net.Listener, shutdownTimeout time.Duration, logger *zap.Logger) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("portal listening", zap.String("addr", listener.Addr().String()))
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")

		if shutdownTimeout <= 0 {
			shutdownTimeout = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// writeRoutes encodes the route declarations as YAML
func writeRoutes(w io.Writer, table *navigation.Table) error {
	doc := struct {
		Routes []models.Route `yaml:"routes"`
	}{Routes: table.Routes()}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode routes: %w", err)
	}
	return enc.Close()
}
